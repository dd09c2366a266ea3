package interfaces

import (
	"context"
	"math/big"

	"raffle/domain/entities"
	"raffle/domain/events"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// SeedProvider supplies the number a winner index is derived from.
// Implementations decide how unpredictable the seed is; the raffle
// service only takes it modulo the entrant count.
type SeedProvider interface {
	Seed(ctx context.Context, block *entities.BlockContext, players []entities.Address) (*big.Int, error)
}

// EnterResult is returned by a successful Enter
type EnterResult struct {
	Entry       *entities.Entry
	Pool        *big.Int
	PlayerCount int
}

// DrawResult is returned by a successful PickWinner
type DrawResult struct {
	Winner       entities.Address
	WinningIndex int
	Amount       *big.Int
	Round        int64
	EntrantCount int
	Seed         *big.Int
	BlockNumber  int64
}

// RaffleInfo is a read-only view of a raffle
type RaffleInfo struct {
	Raffle  *entities.Raffle
	Players []entities.Address
}

// RaffleService defines the raffle ledger operations
type RaffleService interface {
	// Deploy creates a ledger whose manager is caller
	Deploy(ctx context.Context, caller entities.Address) (*entities.Raffle, error)

	// Enter appends caller to the entrant list and credits value to the pool
	Enter(ctx context.Context, raffleID int64, caller entities.Address, value *big.Int) (*EnterResult, error)

	// PickWinner pays the pool to a pseudo-randomly selected entrant and resets the round
	PickWinner(ctx context.Context, raffleID int64, caller entities.Address) (*DrawResult, error)

	// GetPlayers returns the current entrant list in entry order
	GetPlayers(ctx context.Context, raffleID int64) ([]entities.Address, error)

	// GetRaffleInfo returns the raffle with its current entrant list
	GetRaffleInfo(ctx context.Context, raffleID int64) (*RaffleInfo, error)

	// GetWinners returns past payouts, most recent first
	GetWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error)
}

// AccountService defines the host account operations
type AccountService interface {
	// Fund sets an account's balance, creating it if needed
	Fund(ctx context.Context, addr entities.Address, balance *big.Int, rejectsPayments bool) (*entities.Account, error)

	// GetAccount returns the account or nil if it does not exist
	GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error)
}

// ChainStatus summarises a chain verification
type ChainStatus struct {
	Height   int64
	HeadHash string
	Valid    bool
	Error    string
}

// ChainService defines operations on the block log
type ChainService interface {
	// EnsureGenesis appends the genesis block to an empty chain
	EnsureGenesis(ctx context.Context) (*entities.Block, error)

	// Verify walks the whole chain and checks every link
	Verify(ctx context.Context) (*ChainStatus, error)
}
