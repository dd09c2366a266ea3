// Package memory is a process-local ledger store. A unit of work holds the
// store exclusively from Begin until Commit or Rollback, and Rollback
// restores the snapshot taken at Begin.
package memory

import (
	"time"

	"raffle/domain/entities"
)

// Store holds the ledger state in memory
type Store struct {
	sem   chan struct{}
	state *state
	now   func() time.Time
}

type state struct {
	raffles  map[int64]*entities.Raffle
	entries  map[int64][]*entities.Entry
	winners  map[int64][]*entities.RaffleWinner
	accounts map[entities.Address]*entities.Account
	blocks   []*entities.Block

	nextRaffleID int64
	nextEntryID  int64
	nextWinnerID int64
}

// NewStore creates an empty store whose chain holds only the genesis block
func NewStore() *Store {
	st := &state{
		raffles:  make(map[int64]*entities.Raffle),
		entries:  make(map[int64][]*entities.Entry),
		winners:  make(map[int64][]*entities.RaffleWinner),
		accounts: make(map[entities.Address]*entities.Account),
		blocks:   []*entities.Block{entities.GenesisBlock()},
	}
	return &Store{
		sem:   make(chan struct{}, 1),
		state: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *state) clone() *state {
	c := &state{
		raffles:      make(map[int64]*entities.Raffle, len(s.raffles)),
		entries:      make(map[int64][]*entities.Entry, len(s.entries)),
		winners:      make(map[int64][]*entities.RaffleWinner, len(s.winners)),
		accounts:     make(map[entities.Address]*entities.Account, len(s.accounts)),
		blocks:       make([]*entities.Block, len(s.blocks)),
		nextRaffleID: s.nextRaffleID,
		nextEntryID:  s.nextEntryID,
		nextWinnerID: s.nextWinnerID,
	}

	for id, raffle := range s.raffles {
		c.raffles[id] = raffle.Clone()
	}
	for id, list := range s.entries {
		copied := make([]*entities.Entry, len(list))
		for i, entry := range list {
			copied[i] = entry.Clone()
		}
		c.entries[id] = copied
	}
	for id, list := range s.winners {
		copied := make([]*entities.RaffleWinner, len(list))
		for i, winner := range list {
			copied[i] = winner.Clone()
		}
		c.winners[id] = copied
	}
	for addr, account := range s.accounts {
		c.accounts[addr] = account.Clone()
	}
	for i, block := range s.blocks {
		c.blocks[i] = block.Clone()
	}

	return c
}
