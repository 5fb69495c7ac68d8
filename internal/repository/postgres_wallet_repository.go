package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
)

// PostgresWalletRepository implements WalletRepository using PostgreSQL
type PostgresWalletRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWalletRepository creates a new PostgresWalletRepository
func NewPostgresWalletRepository(pool *pgxpool.Pool) *PostgresWalletRepository {
	return &PostgresWalletRepository{pool: pool}
}

// GetBalance retrieves the current balance, zero for unknown users
func (r *PostgresWalletRepository) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Adjust applies a signed delta in a single additive UPDATE and records a
// ledger entry. The balance is never read and written back separately, so
// concurrent adjustments cannot lose updates.
func (r *PostgresWalletRepository) Adjust(ctx context.Context, userID string, delta decimal.Decimal, reason string) (decimal.Decimal, error) {
	now := time.Now()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin wallet adjustment: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO wallets (user_id, balance, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, now)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = $3
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING balance`,
		userID, delta, now).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrInsufficientFunds
		}
		return decimal.Zero, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_entries (id, user_id, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), userID, delta, reason, now)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
