package entities

import (
	"fmt"
	"math/big"
	"time"
)

// Raffle is one deployed raffle ledger. The entrant list of the current round
// lives in raffle_entries; Round advances every time a winner is paid.
type Raffle struct {
	ID        int64     `db:"id"`
	Manager   Address   `db:"manager"`    // Fixed at deployment
	Pool      *big.Int  `db:"pool"`       // Wei held for the current round
	Round     int64     `db:"round"`      // Starts at 1
	CreatedAt time.Time `db:"created_at"`
}

// NewRaffle returns a fresh ledger owned by manager with an empty pool
func NewRaffle(manager Address) *Raffle {
	return &Raffle{
		Manager: manager,
		Pool:    new(big.Int),
		Round:   1,
	}
}

// IsManager reports whether caller may pick winners
func (r *Raffle) IsManager(caller Address) bool {
	return r.Manager == caller
}

// ValidateStake checks an attached value against MinimumStake
func ValidateStake(value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return fmt.Errorf("%w: stake must be a non-negative amount", ErrInvalidAmount)
	}
	if value.Cmp(MinimumStake()) < 0 {
		return fmt.Errorf("%w: got %s wei, need at least %d wei", ErrInsufficientStake, value, MinimumStakeWei)
	}
	return nil
}

// Credit adds an accepted stake to the pool. The pool is left untouched when
// the sum would exceed MaxAmount.
func (r *Raffle) Credit(value *big.Int) error {
	if r.Pool == nil {
		r.Pool = new(big.Int)
	}
	pool := new(big.Int).Add(r.Pool, value)
	if err := ValidateAmount(pool); err != nil {
		return fmt.Errorf("raffle %d pool: %w", r.ID, err)
	}
	r.Pool = pool
	return nil
}

// Reset drains the pool and opens the next round
func (r *Raffle) Reset() {
	r.Pool = new(big.Int)
	r.Round++
}

// Clone returns a deep copy
func (r *Raffle) Clone() *Raffle {
	c := *r
	if r.Pool != nil {
		c.Pool = new(big.Int).Set(r.Pool)
	}
	return &c
}
