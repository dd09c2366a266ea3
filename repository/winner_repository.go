package repository

import (
	"context"
	"fmt"

	"raffle/database"
	"raffle/domain/entities"
)

// WinnerRepository implements raffle payout history
type WinnerRepository struct {
	q Queryable
}

// NewWinnerRepository creates a winner repository over the pool
func NewWinnerRepository(db *database.DB) *WinnerRepository {
	return &WinnerRepository{q: db}
}

func newWinnerRepositoryWithTx(tx Queryable) *WinnerRepository {
	return &WinnerRepository{q: tx}
}

// Create inserts a winner record
func (r *WinnerRepository) Create(ctx context.Context, winner *entities.RaffleWinner) error {
	query := `
		INSERT INTO raffle_winners (raffle_id, round, winner, amount, winning_index, entrant_count, seed, block_number)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		winner.RaffleID,
		winner.Round,
		winner.Winner.String(),
		numeric(winner.Amount),
		winner.WinningIndex,
		winner.EntrantCount,
		winner.Seed,
		winner.BlockNumber,
	).Scan(&winner.ID, &winner.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create raffle winner: %w", err)
	}

	return nil
}

// ListByRaffle returns the most recent payouts of a raffle, newest first
func (r *WinnerRepository) ListByRaffle(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	query := `
		SELECT id, raffle_id, round, winner, amount::text, winning_index, entrant_count, seed, block_number, created_at
		FROM raffle_winners
		WHERE raffle_id = $1
		ORDER BY round DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, raffleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners for raffle %d: %w", raffleID, err)
	}
	defer rows.Close()

	winners := make([]*entities.RaffleWinner, 0)
	for rows.Next() {
		var winner entities.RaffleWinner
		var address, amount string
		err := rows.Scan(
			&winner.ID,
			&winner.RaffleID,
			&winner.Round,
			&address,
			&amount,
			&winner.WinningIndex,
			&winner.EntrantCount,
			&winner.Seed,
			&winner.BlockNumber,
			&winner.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle winner: %w", err)
		}
		winner.Winner = entities.Address(address)
		if winner.Amount, err = parseNumeric(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount of winner %d: %w", winner.ID, err)
		}
		winners = append(winners, &winner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle winners: %w", err)
	}

	return winners, nil
}
