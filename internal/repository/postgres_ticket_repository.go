package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showgate/ticketd/internal/domain"
)

const ticketColumns = `id, event_id, section_id, owner_id,
	COALESCE(attendee_name, '') as attendee_name,
	COALESCE(attendee_document, '') as attendee_document,
	status, price, code, COALESCE(verification_token, '') as verification_token,
	promotion_id, purchased_at, used_at, updated_at`

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.SectionID,
		&t.OwnerID,
		&t.AttendeeName,
		&t.AttendeeDocument,
		&t.Status,
		&t.Price,
		&t.Code,
		&t.VerificationToken,
		&t.PromotionID,
		&t.PurchasedAt,
		&t.UsedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetTicket retrieves a ticket by ID
func (r *PostgresTicketRepository) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

// GetTickets retrieves multiple tickets by ID
func (r *PostgresTicketRepository) GetTickets(ctx context.Context, ids []string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicket persists ticket mutations. Tickets are never deleted, so only
// the mutable columns are written.
func (r *PostgresTicketRepository) UpdateTicket(ctx context.Context, t *domain.Ticket) error {
	query := `
		UPDATE tickets
		SET owner_id = $2, attendee_name = $3, attendee_document = $4,
			status = $5, verification_token = $6, used_at = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		t.ID,
		t.OwnerID,
		t.AttendeeName,
		t.AttendeeDocument,
		t.Status,
		t.VerificationToken,
		t.UsedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

// InsertGuarded writes tickets without a transaction record, locking each
// section row and re-counting occupancy first, the same atomic unit the
// purchase path uses
func (r *PostgresTicketRepository) InsertGuarded(ctx context.Context, tickets []*domain.Ticket) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin guarded insert: %w", err)
	}
	defer tx.Rollback(ctx)

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

	return tx.Commit(ctx)
}

// CountOccupied counts tickets holding capacity (SOLD or GIFT) for a section
func (r *PostgresTicketRepository) CountOccupied(ctx context.Context, eventID, sectionID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM tickets
		WHERE event_id = $1 AND section_id = $2 AND status IN ('SOLD', 'GIFT')
	`
	var count int
	err := r.pool.QueryRow(ctx, query, eventID, sectionID).Scan(&count)
	return count, err
}

// CountSoldOrUsed counts SOLD and USED tickets across an event for sellout
// detection. Gift tickets do not count toward sellout.
func (r *PostgresTicketRepository) CountSoldOrUsed(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM tickets
		WHERE event_id = $1 AND status IN ('SOLD', 'USED')
	`
	var count int
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&count)
	return count, err
}

// ExpireSoldForEndedEvents transitions SOLD tickets of ended events to
// EXPIRED in one statement. Re-running it is a no-op: already-expired
// tickets no longer match the SOLD predicate.
func (r *PostgresTicketRepository) ExpireSoldForEndedEvents(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE tickets t
		SET status = 'EXPIRED', updated_at = $1
		FROM events e
		WHERE t.event_id = e.id AND t.status = 'SOLD' AND e.ends_at < $1
	`
	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
