package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"raffle/domain/entities"
	"raffle/domain/events"
	"raffle/domain/interfaces"
	"raffle/domain/utils"

	log "github.com/sirupsen/logrus"
)

// raffleService implements the raffle ledger state machine.
//
// It never rolls anything back itself: callers run each operation inside a
// unit of work and discard it when an error is returned.
type raffleService struct {
	raffleRepo     interfaces.RaffleRepository
	entryRepo      interfaces.EntryRepository
	winnerRepo     interfaces.WinnerRepository
	accountRepo    interfaces.AccountRepository
	blockRepo      interfaces.BlockRepository
	seedProvider   interfaces.SeedProvider
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewRaffleService creates a new raffle service
func NewRaffleService(
	raffleRepo interfaces.RaffleRepository,
	entryRepo interfaces.EntryRepository,
	winnerRepo interfaces.WinnerRepository,
	accountRepo interfaces.AccountRepository,
	blockRepo interfaces.BlockRepository,
	seedProvider interfaces.SeedProvider,
	eventPublisher interfaces.EventPublisher,
) interfaces.RaffleService {
	return &raffleService{
		raffleRepo:     raffleRepo,
		entryRepo:      entryRepo,
		winnerRepo:     winnerRepo,
		accountRepo:    accountRepo,
		blockRepo:      blockRepo,
		seedProvider:   seedProvider,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Deploy creates a new raffle managed by caller
func (s *raffleService) Deploy(ctx context.Context, caller entities.Address) (*entities.Raffle, error) {
	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is required", entities.ErrInvalidAddress)
	}

	pending, err := pendingBlock(ctx, s.blockRepo, s.now())
	if err != nil {
		return nil, err
	}

	raffle := entities.NewRaffle(caller)
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to create raffle: %w", err)
	}

	block, err := sealBlock(ctx, s.blockRepo, pending, caller, entities.BlockActionDeploy, &raffle.ID)
	if err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.RaffleDeployedEvent{
		RaffleID:    raffle.ID,
		Manager:     raffle.Manager,
		BlockNumber: block.Number,
	}); err != nil {
		log.WithError(err).Error("Failed to publish raffle deployed event")
	}

	return raffle, nil
}

// Enter adds caller to the current round with the attached value
func (s *raffleService) Enter(ctx context.Context, raffleID int64, caller entities.Address, value *big.Int) (*interfaces.EnterResult, error) {
	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is required", entities.ErrInvalidAddress)
	}
	if err := entities.ValidateStake(value); err != nil {
		return nil, err
	}

	pending, err := pendingBlock(ctx, s.blockRepo, s.now())
	if err != nil {
		return nil, err
	}

	raffle, err := s.lockRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByAddress(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || !account.CanCover(value) {
		return nil, fmt.Errorf("%w: %s cannot cover %s wei", entities.ErrInsufficientFunds, caller, value)
	}

	entries, err := s.entryRepo.ListForRound(ctx, raffle.ID, raffle.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	if err := raffle.Credit(value); err != nil {
		return nil, err
	}

	// Move the attached value from the caller to the ledger
	newBalance := new(big.Int).Sub(account.Balance, value)
	if err := utils.ApplyBalanceChange(ctx, s.accountRepo, s.eventPublisher, account, newBalance, entities.BlockActionEnter, pending.Number); err != nil {
		return nil, err
	}

	entry := &entities.Entry{
		RaffleID:    raffle.ID,
		Round:       raffle.Round,
		Position:    len(entries),
		Entrant:     caller,
		Stake:       new(big.Int).Set(value),
		BlockNumber: pending.Number,
	}
	if err := s.entryRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append entry: %w", err)
	}

	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to update raffle: %w", err)
	}

	if _, err := sealBlock(ctx, s.blockRepo, pending, caller, entities.BlockActionEnter, &raffle.ID); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PlayerEnteredEvent{
		RaffleID:    raffle.ID,
		Round:       raffle.Round,
		Entrant:     caller,
		Position:    entry.Position,
		StakeWei:    value.String(),
		PoolWei:     raffle.Pool.String(),
		BlockNumber: pending.Number,
	}); err != nil {
		log.WithError(err).Error("Failed to publish player entered event")
	}

	return &interfaces.EnterResult{
		Entry:       entry,
		Pool:        new(big.Int).Set(raffle.Pool),
		PlayerCount: len(entries) + 1,
	}, nil
}

// PickWinner pays the whole pool to one entrant and opens the next round
func (s *raffleService) PickWinner(ctx context.Context, raffleID int64, caller entities.Address) (*interfaces.DrawResult, error) {
	pending, err := pendingBlock(ctx, s.blockRepo, s.now())
	if err != nil {
		return nil, err
	}

	raffle, err := s.lockRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if !raffle.IsManager(caller) {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnauthorized, caller)
	}

	entries, err := s.entryRepo.ListForRound(ctx, raffle.ID, raffle.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: raffle %d round %d", entities.ErrEmptyPool, raffle.ID, raffle.Round)
	}

	players := entities.Entrants(entries)
	seed, err := s.seedProvider.Seed(ctx, pending, players)
	if err != nil {
		return nil, fmt.Errorf("failed to generate seed: %w", err)
	}
	index := entities.SelectIndex(seed, len(players))
	winner := players[index]
	amount := new(big.Int).Set(raffle.Pool)

	if err := s.payout(ctx, winner, amount, pending.Number); err != nil {
		return nil, err
	}

	round := raffle.Round
	raffle.Reset()
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to reset raffle: %w", err)
	}

	record := &entities.RaffleWinner{
		RaffleID:     raffle.ID,
		Round:        round,
		Winner:       winner,
		Amount:       amount,
		WinningIndex: index,
		EntrantCount: len(players),
		Seed:         fmt.Sprintf("0x%x", seed),
		BlockNumber:  pending.Number,
	}
	if err := s.winnerRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create winner record: %w", err)
	}

	if _, err := sealBlock(ctx, s.blockRepo, pending, caller, entities.BlockActionPickWinner, &raffle.ID); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.WinnerPickedEvent{
		RaffleID:     raffle.ID,
		Round:        round,
		Winner:       winner,
		AmountWei:    amount.String(),
		WinningIndex: index,
		EntrantCount: len(players),
		BlockNumber:  pending.Number,
	}); err != nil {
		log.WithError(err).Error("Failed to publish winner picked event")
	}

	log.WithFields(log.Fields{
		"raffleID":     raffle.ID,
		"round":        round,
		"winner":       winner,
		"amount":       entities.FormatEther(amount),
		"winningIndex": index,
		"entrantCount": len(players),
	}).Info("Raffle winner picked")

	return &interfaces.DrawResult{
		Winner:       winner,
		WinningIndex: index,
		Amount:       amount,
		Round:        round,
		EntrantCount: len(players),
		Seed:         seed,
		BlockNumber:  pending.Number,
	}, nil
}

// GetPlayers returns the entrants of the current round in entry order
func (s *raffleService) GetPlayers(ctx context.Context, raffleID int64) ([]entities.Address, error) {
	info, err := s.GetRaffleInfo(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	return info.Players, nil
}

// GetRaffleInfo returns the raffle together with its current entrants
func (s *raffleService) GetRaffleInfo(ctx context.Context, raffleID int64) (*interfaces.RaffleInfo, error) {
	raffle, err := s.raffleRepo.GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRaffleNotFound, raffleID)
	}

	entries, err := s.entryRepo.ListForRound(ctx, raffle.ID, raffle.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	return &interfaces.RaffleInfo{
		Raffle:  raffle,
		Players: entities.Entrants(entries),
	}, nil
}

// GetWinners returns past payouts of a raffle
func (s *raffleService) GetWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	raffle, err := s.raffleRepo.GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRaffleNotFound, raffleID)
	}

	winners, err := s.winnerRepo.ListByRaffle(ctx, raffleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners: %w", err)
	}
	return winners, nil
}

// lockRaffle loads a raffle with a row lock
func (s *raffleService) lockRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error) {
	raffle, err := s.raffleRepo.GetByIDForUpdate(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRaffleNotFound, raffleID)
	}
	return raffle, nil
}

// payout credits amount to winner, creating the account on first receipt
func (s *raffleService) payout(ctx context.Context, winner entities.Address, amount *big.Int, blockNumber int64) error {
	account, err := s.accountRepo.GetByAddress(ctx, winner)
	if err != nil {
		return fmt.Errorf("failed to get winner account: %w", err)
	}

	if account == nil {
		account = entities.NewAccount(winner)
		account.Balance = new(big.Int).Set(amount)
		if err := s.accountRepo.Upsert(ctx, account); err != nil {
			return fmt.Errorf("failed to create winner account: %w", err)
		}
		utils.PublishBalanceChange(s.eventPublisher, winner, new(big.Int), amount, entities.BlockActionPickWinner, blockNumber)
		return nil
	}

	if !account.CanReceive() {
		return fmt.Errorf("%w: %s", entities.ErrPayoutRejected, winner)
	}

	newBalance := new(big.Int).Add(account.Balance, amount)
	if err := entities.ValidateAmount(newBalance); err != nil {
		return fmt.Errorf("%w: %s cannot hold %s more wei", entities.ErrPayoutRejected, winner, amount)
	}
	if err := utils.ApplyBalanceChange(ctx, s.accountRepo, s.eventPublisher, account, newBalance, entities.BlockActionPickWinner, blockNumber); err != nil {
		return fmt.Errorf("failed to pay winner: %w", err)
	}
	return nil
}
