package entities

import (
	"math/big"
	"time"
)

// Entry is one slot in a raffle's entrant list. The same address may hold
// several entries in a round.
type Entry struct {
	ID          int64     `db:"id"`
	RaffleID    int64     `db:"raffle_id"`
	Round       int64     `db:"round"`
	Position    int       `db:"position"` // Zero-based insertion order within the round
	Entrant     Address   `db:"entrant"`
	Stake       *big.Int  `db:"stake"`
	BlockNumber int64     `db:"block_number"`
	CreatedAt   time.Time `db:"created_at"`
}

// Clone returns a deep copy
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Stake != nil {
		c.Stake = new(big.Int).Set(e.Stake)
	}
	return &c
}

// Entrants returns the addresses of entries in order
func Entrants(entries []*Entry) []Address {
	players := make([]Address, 0, len(entries))
	for _, entry := range entries {
		players = append(players, entry.Entrant)
	}
	return players
}
