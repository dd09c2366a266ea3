package repository

import (
	"context"
	"fmt"

	"raffle/database"
	"raffle/domain/entities"
)

// EntryRepository implements raffle entry data access
type EntryRepository struct {
	q Queryable
}

// NewEntryRepository creates an entry repository over the pool
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{q: db}
}

func newEntryRepositoryWithTx(tx Queryable) *EntryRepository {
	return &EntryRepository{q: tx}
}

// Append inserts an entry and fills in its ID
func (r *EntryRepository) Append(ctx context.Context, entry *entities.Entry) error {
	query := `
		INSERT INTO raffle_entries (raffle_id, round, position, entrant, stake, block_number)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.RaffleID,
		entry.Round,
		entry.Position,
		entry.Entrant.String(),
		numeric(entry.Stake),
		entry.BlockNumber,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}

	return nil
}

// ListForRound returns the entries of one round in entry order
func (r *EntryRepository) ListForRound(ctx context.Context, raffleID, round int64) ([]*entities.Entry, error) {
	query := `
		SELECT id, raffle_id, round, position, entrant, stake::text, block_number, created_at
		FROM raffle_entries
		WHERE raffle_id = $1 AND round = $2
		ORDER BY position ASC
	`

	rows, err := r.q.Query(ctx, query, raffleID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for raffle %d: %w", raffleID, err)
	}
	defer rows.Close()

	entries := make([]*entities.Entry, 0)
	for rows.Next() {
		var entry entities.Entry
		var entrant, stake string
		err := rows.Scan(
			&entry.ID,
			&entry.RaffleID,
			&entry.Round,
			&entry.Position,
			&entrant,
			&stake,
			&entry.BlockNumber,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Entrant = entities.Address(entrant)
		if entry.Stake, err = parseNumeric(stake); err != nil {
			return nil, fmt.Errorf("failed to parse stake of entry %d: %w", entry.ID, err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}
