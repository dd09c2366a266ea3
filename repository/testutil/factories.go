package testutil

import (
	"fmt"
	"math/big"

	"raffle/domain/entities"
)

// TestAddress returns a deterministic address for index n
func TestAddress(n int) entities.Address {
	return entities.MustParseAddress(fmt.Sprintf("0x%040x", n+1))
}

// CreateTestAccount creates an account funded with the given ether amount
func CreateTestAccount(addr entities.Address, ether string) *entities.Account {
	account := entities.NewAccount(addr)
	account.Balance = entities.Ether(ether)
	return account
}

// Wei is shorthand for a wei amount
func Wei(v int64) *big.Int {
	return big.NewInt(v)
}
