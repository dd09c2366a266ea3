package infrastructure

import (
	"context"

	"raffle/application"
	"raffle/domain/interfaces"
)

// unitOfWork wraps a storage transaction and publishes its events on commit
type unitOfWork struct {
	inner                  application.Transaction
	transactionalPublisher *NATSTransactionalPublisher
	ctx                    context.Context
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	u.ctx = ctx
	return u.inner.Begin(ctx)
}

// Commit commits the transaction and flushes events on success
func (u *unitOfWork) Commit() error {
	if err := u.inner.Commit(); err != nil {
		return err
	}

	// Events are best-effort once the transaction is durable
	_ = u.transactionalPublisher.Flush(u.ctx)
	return nil
}

// Rollback discards pending events and rolls back the transaction
func (u *unitOfWork) Rollback() error {
	u.transactionalPublisher.Discard()
	return u.inner.Rollback()
}

func (u *unitOfWork) RaffleRepository() interfaces.RaffleRepository {
	return u.inner.RaffleRepository()
}

func (u *unitOfWork) EntryRepository() interfaces.EntryRepository {
	return u.inner.EntryRepository()
}

func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	return u.inner.WinnerRepository()
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.inner.AccountRepository()
}

func (u *unitOfWork) BlockRepository() interfaces.BlockRepository {
	return u.inner.BlockRepository()
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalPublisher
}
