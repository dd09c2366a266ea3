package services

import (
	"context"
	"fmt"
	"time"

	"raffle/domain/entities"
	"raffle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const verifyPageSize = 500

// chainService implements operations on the block log
type chainService struct {
	blockRepo interfaces.BlockRepository
}

// NewChainService creates a new chain service
func NewChainService(blockRepo interfaces.BlockRepository) interfaces.ChainService {
	return &chainService{blockRepo: blockRepo}
}

// EnsureGenesis appends the genesis block if the chain is empty
func (s *chainService) EnsureGenesis(ctx context.Context) (*entities.Block, error) {
	head, err := s.blockRepo.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain head: %w", err)
	}
	if head != nil {
		return head, nil
	}

	genesis := entities.GenesisBlock()
	if err := s.blockRepo.Append(ctx, genesis); err != nil {
		return nil, fmt.Errorf("failed to append genesis block: %w", err)
	}

	log.WithField("hash", genesis.Hash).Info("Created genesis block")
	return genesis, nil
}

// Verify reads the chain page by page and checks every link
func (s *chainService) Verify(ctx context.Context) (*interfaces.ChainStatus, error) {
	var blocks []*entities.Block
	from := int64(0)
	for {
		page, err := s.blockRepo.List(ctx, from, verifyPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list blocks from %d: %w", from, err)
		}
		blocks = append(blocks, page...)
		if len(page) < verifyPageSize {
			break
		}
		from = page[len(page)-1].Number + 1
	}

	status := &interfaces.ChainStatus{Valid: true}
	if len(blocks) > 0 {
		head := blocks[len(blocks)-1]
		status.Height = head.Number
		status.HeadHash = head.Hash
	}

	if err := entities.VerifyChain(blocks); err != nil {
		status.Valid = false
		status.Error = err.Error()
	}

	return status, nil
}

// pendingBlock locks the chain head and returns the context of the block the
// current operation will be sealed into
func pendingBlock(ctx context.Context, blockRepo interfaces.BlockRepository, now time.Time) (*entities.BlockContext, error) {
	head, err := blockRepo.LockHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock chain head: %w", err)
	}
	if head == nil {
		return nil, fmt.Errorf("chain has no genesis block")
	}
	return entities.NextBlockContext(head, now), nil
}

// sealBlock records the operation as the pending block
func sealBlock(ctx context.Context, blockRepo interfaces.BlockRepository, pending *entities.BlockContext, caller entities.Address, action entities.BlockAction, raffleID *int64) (*entities.Block, error) {
	block := pending.Seal(caller, action, raffleID)
	if err := blockRepo.Append(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to append block %d: %w", block.Number, err)
	}
	return block, nil
}
