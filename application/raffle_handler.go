package application

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"raffle/domain/entities"
	"raffle/domain/interfaces"
	"raffle/domain/services"
	"raffle/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const (
	defaultWinnersLimit = 20
	maxWinnersLimit     = 100
)

// RaffleHandler runs every ledger operation in its own unit of work. A failed
// operation is rolled back as a whole and its events are never published.
type RaffleHandler struct {
	uowFactory   UnitOfWorkFactory
	seedProvider interfaces.SeedProvider
	metrics      *observability.MetricsProvider
}

// NewRaffleHandler creates a new raffle handler
func NewRaffleHandler(uowFactory UnitOfWorkFactory, seedProvider interfaces.SeedProvider) *RaffleHandler {
	if seedProvider == nil {
		seedProvider = services.NewBlockHashSeedProvider()
	}
	return &RaffleHandler{
		uowFactory:   uowFactory,
		seedProvider: seedProvider,
		metrics:      observability.GetMetrics(),
	}
}

// EnsureGenesis creates the genesis block on an empty chain
func (h *RaffleHandler) EnsureGenesis(ctx context.Context) (*entities.Block, error) {
	var genesis *entities.Block
	err := h.execute(ctx, "ensure_genesis", false, func(uow UnitOfWork) error {
		var err error
		genesis, err = services.NewChainService(uow.BlockRepository()).EnsureGenesis(ctx)
		return err
	})
	return genesis, err
}

// Deploy creates a raffle managed by caller
func (h *RaffleHandler) Deploy(ctx context.Context, caller entities.Address) (*entities.Raffle, error) {
	var raffle *entities.Raffle
	err := h.execute(ctx, observability.OperationDeploy, false, func(uow UnitOfWork) error {
		var err error
		raffle, err = h.raffleService(uow).Deploy(ctx, caller)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"raffleID": raffle.ID,
		"manager":  raffle.Manager,
	}).Info("Raffle deployed")
	return raffle, nil
}

// Enter stakes value on behalf of caller
func (h *RaffleHandler) Enter(ctx context.Context, raffleID int64, caller entities.Address, value *big.Int) (*interfaces.EnterResult, error) {
	var result *interfaces.EnterResult
	err := h.execute(ctx, observability.OperationEnter, false, func(uow UnitOfWork) error {
		var err error
		result, err = h.raffleService(uow).Enter(ctx, raffleID, caller, value)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.metrics.RecordEntry(value)
	return result, nil
}

// PickWinner pays out the current round
func (h *RaffleHandler) PickWinner(ctx context.Context, raffleID int64, caller entities.Address) (*interfaces.DrawResult, error) {
	var result *interfaces.DrawResult
	err := h.execute(ctx, observability.OperationPickWinner, false, func(uow UnitOfWork) error {
		var err error
		result, err = h.raffleService(uow).PickWinner(ctx, raffleID, caller)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.metrics.RecordDraw(result.Amount)
	return result, nil
}

// GetPlayers returns the entrant list of the current round
func (h *RaffleHandler) GetPlayers(ctx context.Context, raffleID int64) ([]entities.Address, error) {
	var players []entities.Address
	err := h.execute(ctx, observability.OperationGetPlayers, true, func(uow UnitOfWork) error {
		var err error
		players, err = h.raffleService(uow).GetPlayers(ctx, raffleID)
		return err
	})
	return players, err
}

// GetRaffle returns the raffle with its current entrant list
func (h *RaffleHandler) GetRaffle(ctx context.Context, raffleID int64) (*interfaces.RaffleInfo, error) {
	var info *interfaces.RaffleInfo
	err := h.execute(ctx, observability.OperationGetRaffle, true, func(uow UnitOfWork) error {
		var err error
		info, err = h.raffleService(uow).GetRaffleInfo(ctx, raffleID)
		return err
	})
	return info, err
}

// GetWinners returns the payout history of a raffle, newest first
func (h *RaffleHandler) GetWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	if limit <= 0 {
		limit = defaultWinnersLimit
	}
	if limit > maxWinnersLimit {
		limit = maxWinnersLimit
	}

	var winners []*entities.RaffleWinner
	err := h.execute(ctx, observability.OperationGetWinners, true, func(uow UnitOfWork) error {
		var err error
		winners, err = h.raffleService(uow).GetWinners(ctx, raffleID, limit)
		return err
	})
	return winners, err
}

// Fund sets an account balance
func (h *RaffleHandler) Fund(ctx context.Context, addr entities.Address, balance *big.Int, rejectsPayments bool) (*entities.Account, error) {
	var account *entities.Account
	err := h.execute(ctx, observability.OperationFund, false, func(uow UnitOfWork) error {
		var err error
		account, err = h.accountService(uow).Fund(ctx, addr, balance, rejectsPayments)
		return err
	})
	return account, err
}

// GetAccount returns an account or ErrAccountNotFound
func (h *RaffleHandler) GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error) {
	var account *entities.Account
	err := h.execute(ctx, observability.OperationGetAccount, true, func(uow UnitOfWork) error {
		var err error
		account, err = h.accountService(uow).GetAccount(ctx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return account, nil
}

// VerifyChain checks every block link
func (h *RaffleHandler) VerifyChain(ctx context.Context) (*interfaces.ChainStatus, error) {
	var status *interfaces.ChainStatus
	err := h.execute(ctx, observability.OperationVerifyChain, true, func(uow UnitOfWork) error {
		var err error
		status, err = services.NewChainService(uow.BlockRepository()).Verify(ctx)
		return err
	})
	return status, err
}

// execute runs fn in a new unit of work. Mutations commit only when fn
// succeeds; read-only work is always rolled back.
func (h *RaffleHandler) execute(ctx context.Context, operation string, readOnly bool, fn func(uow UnitOfWork) error) (err error) {
	start := time.Now()
	defer func() {
		h.observe(operation, time.Since(start), err)
	}()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if readOnly {
		return nil
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", operation, err)
	}
	return nil
}

func (h *RaffleHandler) observe(operation string, duration time.Duration, err error) {
	switch {
	case err == nil:
		h.metrics.RecordOperation(operation, observability.OutcomeSuccess, duration)
	case IsRejection(err):
		errorType := ErrorType(err)
		h.metrics.RecordOperation(operation, observability.OutcomeRejected, duration)
		h.metrics.RecordRejection(operation, errorType)
		log.WithFields(log.Fields{
			"operation": operation,
			"errorType": errorType,
			"error":     err,
		}).Info("Operation rejected")
	default:
		h.metrics.RecordOperation(operation, observability.OutcomeError, duration)
		log.WithFields(log.Fields{
			"operation": operation,
			"error":     err,
		}).Error("Operation failed")
	}
}

func (h *RaffleHandler) raffleService(uow UnitOfWork) interfaces.RaffleService {
	return services.NewRaffleService(
		uow.RaffleRepository(),
		uow.EntryRepository(),
		uow.WinnerRepository(),
		uow.AccountRepository(),
		uow.BlockRepository(),
		h.seedProvider,
		uow.EventBus(),
	)
}

func (h *RaffleHandler) accountService(uow UnitOfWork) interfaces.AccountService {
	return services.NewAccountService(
		uow.AccountRepository(),
		uow.BlockRepository(),
		uow.EventBus(),
	)
}
