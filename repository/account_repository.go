package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"raffle/database"
	"raffle/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements host account data access
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates an account repository over the pool
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db}
}

func newAccountRepositoryWithTx(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByAddress returns an account or nil when it does not exist
func (r *AccountRepository) GetByAddress(ctx context.Context, addr entities.Address) (*entities.Account, error) {
	query := `
		SELECT address, balance::text, rejects_payments, created_at, updated_at
		FROM accounts
		WHERE address = $1
	`

	var account entities.Account
	var address, balance string
	err := r.q.QueryRow(ctx, query, addr.String()).Scan(
		&address,
		&balance,
		&account.RejectsPayments,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", addr, err)
	}

	account.Address = entities.Address(address)
	if account.Balance, err = parseNumeric(balance); err != nil {
		return nil, fmt.Errorf("failed to parse balance of %s: %w", addr, err)
	}

	return &account, nil
}

// Upsert creates the account or replaces its balance and payment flag
func (r *AccountRepository) Upsert(ctx context.Context, account *entities.Account) error {
	query := `
		INSERT INTO accounts (address, balance, rejects_payments)
		VALUES ($1, $2::numeric, $3)
		ON CONFLICT (address) DO UPDATE
		SET balance = EXCLUDED.balance,
		    rejects_payments = EXCLUDED.rejects_payments,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.Address.String(),
		numeric(account.Balance),
		account.RejectsPayments,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", account.Address, err)
	}

	return nil
}

// UpdateBalance sets the balance of an existing account
func (r *AccountRepository) UpdateBalance(ctx context.Context, addr entities.Address, balance *big.Int) error {
	query := `
		UPDATE accounts
		SET balance = $2::numeric, updated_at = CURRENT_TIMESTAMP
		WHERE address = $1
	`

	result, err := r.q.Exec(ctx, query, addr.String(), numeric(balance))
	if err != nil {
		return fmt.Errorf("failed to update balance of %s: %w", addr, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", addr)
	}

	return nil
}
