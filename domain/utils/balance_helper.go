package utils

import (
	"context"
	"fmt"
	"math/big"

	"raffle/domain/entities"
	"raffle/domain/events"
	"raffle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ApplyBalanceChange persists a new balance for an existing account and emits
// a balance change event. This is the single entry point for balance changes
// made by raffle operations.
func ApplyBalanceChange(
	ctx context.Context,
	accountRepo interfaces.AccountRepository,
	eventPublisher interfaces.EventPublisher,
	account *entities.Account,
	newBalance *big.Int,
	reason entities.BlockAction,
	blockNumber int64,
) error {
	oldBalance := new(big.Int).Set(account.Balance)

	if err := accountRepo.UpdateBalance(ctx, account.Address, newBalance); err != nil {
		return fmt.Errorf("failed to update balance of %s: %w", account.Address, err)
	}
	account.Balance = new(big.Int).Set(newBalance)

	PublishBalanceChange(eventPublisher, account.Address, oldBalance, newBalance, reason, blockNumber)
	return nil
}

// PublishBalanceChange emits a BalanceChangeEvent. Publishing failures are logged, not returned.
func PublishBalanceChange(eventPublisher interfaces.EventPublisher, addr entities.Address, oldBalance, newBalance *big.Int, reason entities.BlockAction, blockNumber int64) {
	event := events.BalanceChangeEvent{
		Address:       addr,
		OldBalanceWei: oldBalance.String(),
		NewBalanceWei: newBalance.String(),
		Reason:        reason,
		BlockNumber:   blockNumber,
	}
	log.WithFields(log.Fields{
		"address":     event.Address,
		"oldBalance":  event.OldBalanceWei,
		"newBalance":  event.NewBalanceWei,
		"reason":      event.Reason,
		"blockNumber": event.BlockNumber,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}
}
