package repository

import (
	"context"
	"errors"
	"fmt"

	"raffle/application"
	"raffle/database"
	"raffle/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork binds the repositories to one database transaction
type unitOfWork struct {
	db          *database.DB
	tx          pgx.Tx
	ctx         context.Context
	raffleRepo  interfaces.RaffleRepository
	entryRepo   interfaces.EntryRepository
	winnerRepo  interfaces.WinnerRepository
	accountRepo interfaces.AccountRepository
	blockRepo   interfaces.BlockRepository
}

// UnitOfWorkFactory creates database transactions
type UnitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// Create returns a transaction that has not been started
func (f *UnitOfWorkFactory) Create() application.Transaction {
	return &unitOfWork{db: f.db}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.raffleRepo = newRaffleRepositoryWithTx(tx)
	u.entryRepo = newEntryRepositoryWithTx(tx)
	u.winnerRepo = newWinnerRepositoryWithTx(tx)
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.blockRepo = newBlockRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction; it is a no-op once committed
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) RaffleRepository() interfaces.RaffleRepository {
	if u.raffleRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.raffleRepo
}

func (u *unitOfWork) EntryRepository() interfaces.EntryRepository {
	if u.entryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.entryRepo
}

func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	if u.winnerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.winnerRepo
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

func (u *unitOfWork) BlockRepository() interfaces.BlockRepository {
	if u.blockRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.blockRepo
}
