package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"raffle/domain/entities"
	"raffle/domain/interfaces"
	"raffle/domain/utils"

	log "github.com/sirupsen/logrus"
)

// accountService implements the host account operations used by the faucet
type accountService struct {
	accountRepo    interfaces.AccountRepository
	blockRepo      interfaces.BlockRepository
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo interfaces.AccountRepository,
	blockRepo interfaces.BlockRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.AccountService {
	return &accountService{
		accountRepo:    accountRepo,
		blockRepo:      blockRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Fund sets the balance of addr
func (s *accountService) Fund(ctx context.Context, addr entities.Address, balance *big.Int, rejectsPayments bool) (*entities.Account, error) {
	if addr.IsZero() {
		return nil, fmt.Errorf("%w: address is required", entities.ErrInvalidAddress)
	}
	if err := entities.ValidateAmount(balance); err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}

	pending, err := pendingBlock(ctx, s.blockRepo, s.now())
	if err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetByAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	oldBalance := new(big.Int)
	account := entities.NewAccount(addr)
	if existing != nil {
		oldBalance.Set(existing.Balance)
		account = existing
	}
	account.Balance = new(big.Int).Set(balance)
	account.RejectsPayments = rejectsPayments

	if err := s.accountRepo.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	if _, err := sealBlock(ctx, s.blockRepo, pending, addr, entities.BlockActionFund, nil); err != nil {
		return nil, err
	}

	utils.PublishBalanceChange(s.eventPublisher, addr, oldBalance, balance, entities.BlockActionFund, pending.Number)

	log.WithFields(log.Fields{
		"address":         addr,
		"balance":         entities.FormatEther(balance),
		"rejectsPayments": rejectsPayments,
	}).Info("Account funded")

	return account, nil
}

// GetAccount returns the account for addr or nil
func (s *accountService) GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error) {
	account, err := s.accountRepo.GetByAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}
