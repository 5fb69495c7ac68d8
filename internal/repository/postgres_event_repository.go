package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showgate/ticketd/internal/domain"
)

const eventColumns = `id, venue_id, name, performer_id, status, starts_at, ends_at, created_at, updated_at`

const sectionColumns = `id, venue_id, name, capacity, created_at, updated_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func (r *PostgresEventRepository) scanEvent(row pgx.Row) (*domain.Event, error) {
	ev := &domain.Event{}
	err := row.Scan(
		&ev.ID,
		&ev.VenueID,
		&ev.Name,
		&ev.PerformerID,
		&ev.Status,
		&ev.StartsAt,
		&ev.EndsAt,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return ev, nil
}

// GetEvent retrieves an event by ID
func (r *PostgresEventRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanEvent(r.pool.QueryRow(ctx, query, id))
}

// GetVenue retrieves a venue by ID
func (r *PostgresEventRepository) GetVenue(ctx context.Context, id string) (*domain.Venue, error) {
	query := `SELECT id, name, address, total_capacity, created_at, updated_at FROM venues WHERE id = $1`
	v := &domain.Venue{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Name,
		&v.Address,
		&v.TotalCapacity,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return v, nil
}

// GetSection retrieves a venue section by ID
func (r *PostgresEventRepository) GetSection(ctx context.Context, id string) (*domain.VenueSection, error) {
	query := `SELECT ` + sectionColumns + ` FROM venue_sections WHERE id = $1`
	s := &domain.VenueSection{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.VenueID,
		&s.Name,
		&s.Capacity,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListSections retrieves all sections of a venue
func (r *PostgresEventRepository) ListSections(ctx context.Context, venueID string) ([]*domain.VenueSection, error) {
	query := `SELECT ` + sectionColumns + ` FROM venue_sections WHERE venue_id = $1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*domain.VenueSection
	for rows.Next() {
		s := &domain.VenueSection{}
		err := rows.Scan(
			&s.ID,
			&s.VenueID,
			&s.Name,
			&s.Capacity,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// UpdateEventStatus transitions an event between two statuses. The WHERE
// clause on the source status makes concurrent transitions race-safe: only
// one writer observes a changed row.
func (r *PostgresEventRepository) UpdateEventStatus(ctx context.Context, eventID string, from, to domain.EventStatus, now time.Time) (bool, error) {
	query := `UPDATE events SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.pool.Exec(ctx, query, eventID, from, to, now)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
