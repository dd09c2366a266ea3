package application

import (
	"context"

	"raffle/domain/interfaces"
)

// Repositories exposes the repositories bound to one transaction
type Repositories interface {
	RaffleRepository() interfaces.RaffleRepository
	EntryRepository() interfaces.EntryRepository
	WinnerRepository() interfaces.WinnerRepository
	AccountRepository() interfaces.AccountRepository
	BlockRepository() interfaces.BlockRepository
}

// Transaction is a storage transaction. Rollback after Commit is a no-op.
type Transaction interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	Repositories
}

// UnitOfWork is a transaction whose events are published only after commit
type UnitOfWork interface {
	Transaction

	// EventBus returns the publisher bound to this unit of work
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// TransactionFactory creates storage transactions for a backend
type TransactionFactory interface {
	Create() Transaction
}
