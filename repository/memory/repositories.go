package memory

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"raffle/domain/entities"
)

type raffleRepository struct{ store *Store }

func (r *raffleRepository) Create(_ context.Context, raffle *entities.Raffle) error {
	st := r.store.state
	st.nextRaffleID++
	raffle.ID = st.nextRaffleID
	raffle.CreatedAt = r.store.now()
	st.raffles[raffle.ID] = raffle.Clone()
	return nil
}

func (r *raffleRepository) GetByID(_ context.Context, id int64) (*entities.Raffle, error) {
	raffle, ok := r.store.state.raffles[id]
	if !ok {
		return nil, nil
	}
	return raffle.Clone(), nil
}

// GetByIDForUpdate needs no row lock since the unit of work holds the whole store
func (r *raffleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Raffle, error) {
	return r.GetByID(ctx, id)
}

func (r *raffleRepository) Update(_ context.Context, raffle *entities.Raffle) error {
	st := r.store.state
	if _, ok := st.raffles[raffle.ID]; !ok {
		return fmt.Errorf("raffle %d not found", raffle.ID)
	}
	st.raffles[raffle.ID] = raffle.Clone()
	return nil
}

type entryRepository struct{ store *Store }

func (r *entryRepository) Append(_ context.Context, entry *entities.Entry) error {
	st := r.store.state
	for _, existing := range st.entries[entry.RaffleID] {
		if existing.Round == entry.Round && existing.Position == entry.Position {
			return fmt.Errorf("duplicate entry position %d in round %d", entry.Position, entry.Round)
		}
	}
	st.nextEntryID++
	entry.ID = st.nextEntryID
	entry.CreatedAt = r.store.now()
	st.entries[entry.RaffleID] = append(st.entries[entry.RaffleID], entry.Clone())
	return nil
}

func (r *entryRepository) ListForRound(_ context.Context, raffleID, round int64) ([]*entities.Entry, error) {
	entries := make([]*entities.Entry, 0)
	for _, entry := range r.store.state.entries[raffleID] {
		if entry.Round == round {
			entries = append(entries, entry.Clone())
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	return entries, nil
}

type winnerRepository struct{ store *Store }

func (r *winnerRepository) Create(_ context.Context, winner *entities.RaffleWinner) error {
	st := r.store.state
	st.nextWinnerID++
	winner.ID = st.nextWinnerID
	winner.CreatedAt = r.store.now()
	st.winners[winner.RaffleID] = append(st.winners[winner.RaffleID], winner.Clone())
	return nil
}

func (r *winnerRepository) ListByRaffle(_ context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	history := r.store.state.winners[raffleID]
	winners := make([]*entities.RaffleWinner, 0, len(history))
	for i := len(history) - 1; i >= 0 && len(winners) < limit; i-- {
		winners = append(winners, history[i].Clone())
	}
	return winners, nil
}

type accountRepository struct{ store *Store }

func (r *accountRepository) GetByAddress(_ context.Context, addr entities.Address) (*entities.Account, error) {
	account, ok := r.store.state.accounts[addr]
	if !ok {
		return nil, nil
	}
	return account.Clone(), nil
}

func (r *accountRepository) Upsert(_ context.Context, account *entities.Account) error {
	st := r.store.state
	now := r.store.now()
	if existing, ok := st.accounts[account.Address]; ok {
		account.CreatedAt = existing.CreatedAt
	} else {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	st.accounts[account.Address] = account.Clone()
	return nil
}

func (r *accountRepository) UpdateBalance(_ context.Context, addr entities.Address, newBalance *big.Int) error {
	account, ok := r.store.state.accounts[addr]
	if !ok {
		return fmt.Errorf("account %s not found", addr)
	}
	if newBalance.Sign() < 0 {
		return fmt.Errorf("negative balance for %s", addr)
	}
	account.Balance = new(big.Int).Set(newBalance)
	account.UpdatedAt = r.store.now()
	return nil
}

type blockRepository struct{ store *Store }

// LockHead returns the head; the unit of work already serializes access
func (r *blockRepository) LockHead(ctx context.Context) (*entities.Block, error) {
	return r.Head(ctx)
}

func (r *blockRepository) Head(_ context.Context) (*entities.Block, error) {
	blocks := r.store.state.blocks
	if len(blocks) == 0 {
		return nil, nil
	}
	return blocks[len(blocks)-1].Clone(), nil
}

func (r *blockRepository) Append(_ context.Context, block *entities.Block) error {
	st := r.store.state
	if n := int64(len(st.blocks)); block.Number != n {
		return fmt.Errorf("block %d does not extend chain of height %d", block.Number, n-1)
	}
	st.blocks = append(st.blocks, block.Clone())
	return nil
}

func (r *blockRepository) List(_ context.Context, fromNumber int64, limit int) ([]*entities.Block, error) {
	blocks := make([]*entities.Block, 0)
	for _, block := range r.store.state.blocks {
		if block.Number < fromNumber {
			continue
		}
		if len(blocks) >= limit {
			break
		}
		blocks = append(blocks, block.Clone())
	}
	return blocks, nil
}
