package memory

import (
	"context"
	"fmt"

	"raffle/application"
	"raffle/domain/interfaces"
)

// unitOfWork gives exclusive access to the store between Begin and Commit or Rollback
type unitOfWork struct {
	store    *Store
	snapshot *state
	active   bool

	raffleRepo  *raffleRepository
	entryRepo   *entryRepository
	winnerRepo  *winnerRepository
	accountRepo *accountRepository
	blockRepo   *blockRepository
}

// UnitOfWorkFactory creates units of work over a Store
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// Create returns a unit of work that has not been started
func (f *UnitOfWorkFactory) Create() application.Transaction {
	return &unitOfWork{store: f.store}
}

// Begin waits for exclusive access and snapshots the state
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}

	select {
	case u.store.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("failed to begin transaction: %w", ctx.Err())
	}

	u.snapshot = u.store.state.clone()
	u.active = true

	u.raffleRepo = &raffleRepository{store: u.store}
	u.entryRepo = &entryRepository{store: u.store}
	u.winnerRepo = &winnerRepository{store: u.store}
	u.accountRepo = &accountRepository{store: u.store}
	u.blockRepo = &blockRepository{store: u.store}

	return nil
}

// Commit keeps the changes and releases the store
func (u *unitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.release()
	return nil
}

// Rollback restores the snapshot and releases the store; it is a no-op once committed
func (u *unitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	u.store.state = u.snapshot
	u.release()
	return nil
}

func (u *unitOfWork) release() {
	u.snapshot = nil
	u.active = false
	<-u.store.sem
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
