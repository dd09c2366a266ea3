package repository

import (
	"context"
	"errors"
	"fmt"

	"raffle/database"
	"raffle/domain/entities"

	"github.com/jackc/pgx/v5"
)

// RaffleRepository implements raffle data access
type RaffleRepository struct {
	q Queryable
}

// NewRaffleRepository creates a raffle repository over the pool
func NewRaffleRepository(db *database.DB) *RaffleRepository {
	return &RaffleRepository{q: db}
}

// newRaffleRepositoryWithTx creates a raffle repository bound to a transaction
func newRaffleRepositoryWithTx(tx Queryable) *RaffleRepository {
	return &RaffleRepository{q: tx}
}

const raffleColumns = `id, manager, pool::text, round, created_at`

// Create inserts a new raffle and fills in its ID
func (r *RaffleRepository) Create(ctx context.Context, raffle *entities.Raffle) error {
	query := `
		INSERT INTO raffles (manager, pool, round)
		VALUES ($1, $2::numeric, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		raffle.Manager.String(),
		numeric(raffle.Pool),
		raffle.Round,
	).Scan(&raffle.ID, &raffle.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create raffle: %w", err)
	}

	return nil
}

// GetByID returns a raffle or nil when it does not exist
func (r *RaffleRepository) GetByID(ctx context.Context, id int64) (*entities.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByIDForUpdate returns a raffle with a row lock
func (r *RaffleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *RaffleRepository) get(ctx context.Context, query string, id int64) (*entities.Raffle, error) {
	var raffle entities.Raffle
	var manager, pool string

	err := r.q.QueryRow(ctx, query, id).Scan(
		&raffle.ID,
		&manager,
		&pool,
		&raffle.Round,
		&raffle.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle %d: %w", id, err)
	}

	raffle.Manager = entities.Address(manager)
	if raffle.Pool, err = parseNumeric(pool); err != nil {
		return nil, fmt.Errorf("failed to parse pool of raffle %d: %w", id, err)
	}

	return &raffle, nil
}

// Update saves the pool and round of a raffle
func (r *RaffleRepository) Update(ctx context.Context, raffle *entities.Raffle) error {
	query := `
		UPDATE raffles
		SET pool = $2::numeric, round = $3
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, raffle.ID, numeric(raffle.Pool), raffle.Round)
	if err != nil {
		return fmt.Errorf("failed to update raffle %d: %w", raffle.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("raffle %d not found", raffle.ID)
	}

	return nil
}
