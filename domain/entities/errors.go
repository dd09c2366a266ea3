package entities

import "errors"

// Raffle ledger failures. Every one of them aborts the enclosing operation
// with no observable state change.
var (
	// ErrInsufficientStake is returned by Enter when the attached value is below MinimumStake
	ErrInsufficientStake = errors.New("insufficient stake")

	// ErrUnauthorized is returned by PickWinner when the caller is not the manager
	ErrUnauthorized = errors.New("caller is not the raffle manager")

	// ErrEmptyPool is returned by PickWinner when nobody has entered the current round
	ErrEmptyPool = errors.New("no entrants in the current round")

	// ErrPayoutRejected is returned when the selected winner cannot accept the payout
	ErrPayoutRejected = errors.New("payout rejected by recipient")
)

// Host environment failures
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRaffleNotFound    = errors.New("raffle not found")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidAmount     = errors.New("invalid amount")
)
