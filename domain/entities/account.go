package entities

import (
	"math/big"
	"time"
)

// Account is a balance held by the host environment on behalf of an address
type Account struct {
	Address         Address   `db:"address"`
	Balance         *big.Int  `db:"balance"`
	RejectsPayments bool      `db:"rejects_payments"` // Incoming transfers fail
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// NewAccount returns an empty account for addr
func NewAccount(addr Address) *Account {
	return &Account{
		Address: addr,
		Balance: new(big.Int),
	}
}

// CanCover reports whether the balance can pay value
func (a *Account) CanCover(value *big.Int) bool {
	return a.Balance != nil && a.Balance.Cmp(value) >= 0
}

// CanReceive reports whether transfers to this account succeed
func (a *Account) CanReceive() bool {
	return !a.RejectsPayments
}

// Clone returns a deep copy
func (a *Account) Clone() *Account {
	c := *a
	if a.Balance != nil {
		c.Balance = new(big.Int).Set(a.Balance)
	}
	return &c
}
