package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showgate/ticketd/internal/domain"
)

const transactionColumns = `id, user_id, payment_method_id, total_amount, status, is_refund,
	original_transaction_id, COALESCE(gateway_reference, '') as gateway_reference,
	COALESCE(description, '') as description, created_at, updated_at`

// PostgresTransactionRepository implements TransactionRepository using PostgreSQL
type PostgresTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTransactionRepository creates a new PostgresTransactionRepository
func NewPostgresTransactionRepository(pool *pgxpool.Pool) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{pool: pool}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.PaymentMethodID,
		&txn.TotalAmount,
		&txn.Status,
		&txn.IsRefund,
		&txn.OriginalTransactionID,
		&txn.GatewayReference,
		&txn.Description,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

// GetTransaction retrieves a transaction by ID
func (r *PostgresTransactionRepository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetDetails retrieves all line items of a transaction
func (r *PostgresTransactionRepository) GetDetails(ctx context.Context, transactionID string) ([]domain.TransactionDetail, error) {
	query := `SELECT transaction_id, ticket_id, unit_price FROM transaction_details WHERE transaction_id = $1`
	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.TransactionDetail
	for rows.Next() {
		var d domain.TransactionDetail
		if err := rows.Scan(&d.TransactionID, &d.TicketID, &d.UnitPrice); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// CreatePurchase writes the tickets, the transaction and its details in one
// database transaction. Each section in the basket is locked with
// SELECT ... FOR UPDATE before its occupancy is counted, so two concurrent
// purchases for the last seats serialize and exactly one succeeds.
func (r *PostgresTransactionRepository) CreatePurchase(ctx context.Context, txn *domain.Transaction, details []domain.TransactionDetail, tickets []*domain.Ticket) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin purchase transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Group requested quantity per section
	type sectionKey struct{ eventID, sectionID string }
	requested := make(map[sectionKey]int)
	for _, t := range tickets {
		requested[sectionKey{t.EventID, t.SectionID}]++
	}

	for key, qty := range requested {
		var capacity int
		err := tx.QueryRow(ctx,
			`SELECT capacity FROM venue_sections WHERE id = $1 FOR UPDATE`,
			key.sectionID).Scan(&capacity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrSectionNotFound
			}
			return err
		}

		var occupied int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM tickets
			 WHERE event_id = $1 AND section_id = $2 AND status IN ('SOLD', 'GIFT')`,
			key.eventID, key.sectionID).Scan(&occupied)
		if err != nil {
			return err
		}

		available := capacity - occupied
		if available < 0 {
			available = 0
		}
		if qty > available {
			return domain.NewCapacityError(key.sectionID, qty, available)
		}
	}

	for _, t := range tickets {
		_, err := tx.Exec(ctx, `
			INSERT INTO tickets (id, event_id, section_id, owner_id, attendee_name, attendee_document,
				status, price, code, verification_token, promotion_id, purchased_at, used_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			t.ID, t.EventID, t.SectionID, t.OwnerID, t.AttendeeName, t.AttendeeDocument,
			t.Status, t.Price, t.Code, t.VerificationToken, t.PromotionID, t.PurchasedAt, t.UsedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.ID, err)
		}
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err := insertDetails(ctx, tx, details); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateRefund writes the refund transaction, its details, the canceled
// tickets and the original transaction's new status in one database
// transaction.
func (r *PostgresTransactionRepository) CreateRefund(ctx context.Context, refund *domain.Transaction, details []domain.TransactionDetail, original *domain.Transaction, canceled []*domain.Ticket) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin refund transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertTransaction(ctx, tx, refund); err != nil {
		return err
	}
	if err := insertDetails(ctx, tx, details); err != nil {
		return err
	}

	// A ticket leaves SOLD or GIFT exactly once. The status predicate makes
	// a concurrent refund of the same tickets lose here even when the
	// original transaction stays COMPLETED (partial refunds).
	for _, t := range canceled {
		result, err := tx.Exec(ctx,
			`UPDATE tickets SET status = $2, updated_at = $3
			 WHERE id = $1 AND status IN ('SOLD', 'GIFT')`,
			t.ID, t.Status, t.UpdatedAt)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: ticket %s", domain.ErrAlreadyRefunded, t.ID)
		}
	}

	// Guard on the source status so a concurrent refund of the same
	// transaction aborts instead of double-crediting
	result, err := tx.Exec(ctx,
		`UPDATE transactions SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		original.ID, original.Status, original.UpdatedAt, domain.TransactionStatusCompleted)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlreadyRefunded
	}

	return tx.Commit(ctx)
}

// TicketsAlreadyRefunded reports which of the given tickets already appear
// in a refund transaction's details
func (r *PostgresTransactionRepository) TicketsAlreadyRefunded(ctx context.Context, ticketIDs []string) ([]string, error) {
	query := `
		SELECT DISTINCT d.ticket_id
		FROM transaction_details d
		JOIN transactions t ON t.id = d.transaction_id
		WHERE t.is_refund = TRUE AND d.ticket_id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunded []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		refunded = append(refunded, id)
	}
	return refunded, rows.Err()
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, payment_method_id, total_amount, status, is_refund,
			original_transaction_id, gateway_reference, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.ID, txn.UserID, txn.PaymentMethodID, txn.TotalAmount, txn.Status, txn.IsRefund,
		txn.OriginalTransactionID, txn.GatewayReference, txn.Description, txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

func insertDetails(ctx context.Context, tx pgx.Tx, details []domain.TransactionDetail) error {
	for _, d := range details {
		_, err := tx.Exec(ctx,
			`INSERT INTO transaction_details (transaction_id, ticket_id, unit_price) VALUES ($1, $2, $3)`,
			d.TransactionID, d.TicketID, d.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert transaction detail %s/%s: %w", d.TransactionID, d.TicketID, err)
		}
	}
	return nil
}
