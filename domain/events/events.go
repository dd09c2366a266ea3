package events

import "raffle/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRaffleDeployed EventType = "raffle_deployed"
	EventTypePlayerEntered  EventType = "player_entered"
	EventTypeWinnerPicked   EventType = "winner_picked"
	EventTypeBalanceChange  EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RaffleDeployedEvent is emitted when a new ledger is created
type RaffleDeployedEvent struct {
	RaffleID    int64            `json:"raffle_id"`
	Manager     entities.Address `json:"manager"`
	BlockNumber int64            `json:"block_number"`
}

func (e RaffleDeployedEvent) Type() EventType {
	return EventTypeRaffleDeployed
}

// PlayerEnteredEvent is emitted for every accepted stake
type PlayerEnteredEvent struct {
	RaffleID    int64            `json:"raffle_id"`
	Round       int64            `json:"round"`
	Entrant     entities.Address `json:"entrant"`
	Position    int              `json:"position"`
	StakeWei    string           `json:"stake_wei"`
	PoolWei     string           `json:"pool_wei"`
	BlockNumber int64            `json:"block_number"`
}

func (e PlayerEnteredEvent) Type() EventType {
	return EventTypePlayerEntered
}

// WinnerPickedEvent is emitted when a round is paid out and reset
type WinnerPickedEvent struct {
	RaffleID     int64            `json:"raffle_id"`
	Round        int64            `json:"round"`
	Winner       entities.Address `json:"winner"`
	AmountWei    string           `json:"amount_wei"`
	WinningIndex int              `json:"winning_index"`
	EntrantCount int              `json:"entrant_count"`
	BlockNumber  int64            `json:"block_number"`
}

func (e WinnerPickedEvent) Type() EventType {
	return EventTypeWinnerPicked
}

// BalanceChangeEvent represents an account balance change
type BalanceChangeEvent struct {
	Address       entities.Address     `json:"address"`
	OldBalanceWei string               `json:"old_balance_wei"`
	NewBalanceWei string               `json:"new_balance_wei"`
	Reason        entities.BlockAction `json:"reason"`
	BlockNumber   int64                `json:"block_number"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}
