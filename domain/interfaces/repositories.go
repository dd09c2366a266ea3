package interfaces

import (
	"context"
	"math/big"

	"raffle/domain/entities"
)

// RaffleRepository defines the interface for raffle ledger data access
type RaffleRepository interface {
	// Create inserts a raffle and assigns its ID and CreatedAt
	Create(ctx context.Context, raffle *entities.Raffle) error

	// GetByID returns the raffle or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Raffle, error)

	// GetByIDForUpdate is GetByID with a row lock held until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Raffle, error)

	// Update persists pool and round
	Update(ctx context.Context, raffle *entities.Raffle) error
}

// EntryRepository defines the interface for entrant list data access
type EntryRepository interface {
	// Append stores an entry and assigns its ID and CreatedAt
	Append(ctx context.Context, entry *entities.Entry) error

	// ListForRound returns a round's entries ordered by position
	ListForRound(ctx context.Context, raffleID, round int64) ([]*entities.Entry, error)
}

// WinnerRepository defines the interface for payout records
type WinnerRepository interface {
	// Create stores a payout record
	Create(ctx context.Context, winner *entities.RaffleWinner) error

	// ListByRaffle returns the most recent payouts first
	ListByRaffle(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error)
}

// AccountRepository defines the interface for host account balances
type AccountRepository interface {
	// GetByAddress returns the account or nil if it does not exist
	GetByAddress(ctx context.Context, addr entities.Address) (*entities.Account, error)

	// Upsert creates the account or replaces its balance and flags
	Upsert(ctx context.Context, account *entities.Account) error

	// UpdateBalance sets the balance of an existing account
	UpdateBalance(ctx context.Context, addr entities.Address, newBalance *big.Int) error
}

// BlockRepository defines the interface for the block log
type BlockRepository interface {
	// LockHead serializes mutations for the rest of the transaction and returns the head block
	LockHead(ctx context.Context) (*entities.Block, error)

	// Head returns the latest block or nil if the chain is empty
	Head(ctx context.Context) (*entities.Block, error)

	// Append stores a sealed block
	Append(ctx context.Context, block *entities.Block) error

	// List returns up to limit blocks starting at fromNumber in ascending order
	List(ctx context.Context, fromNumber int64, limit int) ([]*entities.Block, error)
}
