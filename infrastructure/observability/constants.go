package observability

// Metric name prefixes
const (
	MetricPrefix = "raffle"
)

// Metric names
const (
	// Ledger metrics
	EntriesTotal      = MetricPrefix + ".entries_total"
	StakeVolumeEther  = MetricPrefix + ".stake_volume"
	DrawsTotal        = MetricPrefix + ".draws_total"
	PayoutVolumeEther = MetricPrefix + ".payout_volume"
	RejectionsTotal   = MetricPrefix + ".rejections_total"

	// Event metrics
	EventsPublishedTotal = MetricPrefix + ".events_published_total"

	// Operation metrics
	OperationDuration = MetricPrefix + ".operation_duration"
)

// Label keys
const (
	LabelEventType = "event_type"
	LabelOperation = "operation"
	LabelErrorType = "error_type"
	LabelOutcome   = "outcome"
)

// Operations
const (
	OperationDeploy      = "deploy"
	OperationEnter       = "enter"
	OperationPickWinner  = "pick_winner"
	OperationGetPlayers  = "get_players"
	OperationGetRaffle   = "get_raffle"
	OperationGetWinners  = "get_winners"
	OperationFund        = "fund"
	OperationGetAccount  = "get_account"
	OperationVerifyChain = "verify_chain"
)

// Outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
