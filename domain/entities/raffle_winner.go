package entities

import (
	"math/big"
	"time"
)

// RaffleWinner records the payout that closed a round
type RaffleWinner struct {
	ID           int64     `db:"id"`
	RaffleID     int64     `db:"raffle_id"`
	Round        int64     `db:"round"`
	Winner       Address   `db:"winner"`
	Amount       *big.Int  `db:"amount"`
	WinningIndex int       `db:"winning_index"`
	EntrantCount int       `db:"entrant_count"`
	Seed         string    `db:"seed"` // Hex encoded seed the index was derived from
	BlockNumber  int64     `db:"block_number"`
	CreatedAt    time.Time `db:"created_at"`
}

// Clone returns a deep copy
func (w *RaffleWinner) Clone() *RaffleWinner {
	c := *w
	if w.Amount != nil {
		c.Amount = new(big.Int).Set(w.Amount)
	}
	return &c
}

// SelectIndex maps a seed onto [0, count). count must be positive.
func SelectIndex(seed *big.Int, count int) int {
	if count <= 0 {
		panic("SelectIndex: count must be positive")
	}
	idx := new(big.Int).Mod(seed, big.NewInt(int64(count)))
	return int(idx.Int64())
}
