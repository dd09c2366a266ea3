package repository

import (
	"context"
	"errors"
	"fmt"

	"raffle/database"
	"raffle/domain/entities"

	"github.com/jackc/pgx/v5"
)

// chainLockKey is the advisory lock key that serializes ledger mutations
const chainLockKey int64 = 0x726166666c65

// BlockRepository implements block chain data access
type BlockRepository struct {
	q Queryable
}

// NewBlockRepository creates a block repository over the pool
func NewBlockRepository(db *database.DB) *BlockRepository {
	return &BlockRepository{q: db}
}

func newBlockRepositoryWithTx(tx Queryable) *BlockRepository {
	return &BlockRepository{q: tx}
}

const blockColumns = `number, hash, parent_hash, timestamp, caller, action, raffle_id`

// LockHead takes the transaction-scoped chain lock and returns the head block.
// The lock is released when the surrounding transaction ends.
func (r *BlockRepository) LockHead(ctx context.Context) (*entities.Block, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chainLockKey); err != nil {
		return nil, fmt.Errorf("failed to lock chain head: %w", err)
	}
	return r.Head(ctx)
}

// Head returns the highest block or nil on an empty chain
func (r *BlockRepository) Head(ctx context.Context) (*entities.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks ORDER BY number DESC LIMIT 1`

	block, err := scanBlock(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chain head: %w", err)
	}
	return block, nil
}

// Append inserts a sealed block
func (r *BlockRepository) Append(ctx context.Context, block *entities.Block) error {
	query := `
		INSERT INTO blocks (number, hash, parent_hash, timestamp, caller, action, raffle_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		block.Number,
		block.Hash,
		block.ParentHash,
		block.Timestamp,
		block.Caller.String(),
		string(block.Action),
		block.RaffleID,
	)
	if err != nil {
		return fmt.Errorf("failed to append block %d: %w", block.Number, err)
	}

	return nil
}

// List returns up to limit blocks starting at fromNumber in ascending order
func (r *BlockRepository) List(ctx context.Context, fromNumber int64, limit int) ([]*entities.Block, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM blocks
		WHERE number >= $1
		ORDER BY number ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, fromNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]*entities.Block, 0)
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocks: %w", err)
	}

	return blocks, nil
}

func scanBlock(row pgx.Row) (*entities.Block, error) {
	var block entities.Block
	var caller, action string
	err := row.Scan(
		&block.Number,
		&block.Hash,
		&block.ParentHash,
		&block.Timestamp,
		&caller,
		&action,
		&block.RaffleID,
	)
	if err != nil {
		return nil, err
	}
	block.Caller = entities.Address(caller)
	block.Action = entities.BlockAction(action)
	block.Timestamp = block.Timestamp.UTC()
	return &block, nil
}
