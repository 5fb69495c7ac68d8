package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
)

// EventRepository provides access to events, venues and sections
type EventRepository interface {
	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// GetVenue retrieves a venue by ID
	GetVenue(ctx context.Context, id string) (*domain.Venue, error)
	// GetSection retrieves a venue section by ID
	GetSection(ctx context.Context, id string) (*domain.VenueSection, error)
	// ListSections retrieves all sections of a venue
	ListSections(ctx context.Context, venueID string) ([]*domain.VenueSection, error)
	// UpdateEventStatus transitions an event between two statuses. It reports
	// whether the row was changed, so re-running an already-applied
	// transition is a detectable no-op.
	UpdateEventStatus(ctx context.Context, eventID string, from, to domain.EventStatus, now time.Time) (bool, error)
}

// TicketRepository provides access to ticket rows
type TicketRepository interface {
	// GetTicket retrieves a ticket by ID
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	// GetTickets retrieves multiple tickets by ID
	GetTickets(ctx context.Context, ids []string) ([]*domain.Ticket, error)
	// UpdateTicket persists ticket mutations (status, ownership, attendee)
	UpdateTicket(ctx context.Context, t *domain.Ticket) error
	// InsertGuarded writes tickets that have no accompanying transaction
	// (gift issuance) behind the same atomic capacity check as purchases
	InsertGuarded(ctx context.Context, tickets []*domain.Ticket) error
	// CountOccupied counts tickets holding capacity (SOLD or GIFT) for an
	// (event, section) pair
	CountOccupied(ctx context.Context, eventID, sectionID string) (int, error)
	// CountSoldOrUsed counts SOLD and USED tickets across all sections of an
	// event, for sellout detection
	CountSoldOrUsed(ctx context.Context, eventID string) (int, error)
	// ExpireSoldForEndedEvents transitions SOLD tickets of events whose start
	// time has passed to EXPIRED, returning the number of tickets changed
	ExpireSoldForEndedEvents(ctx context.Context, now time.Time) (int, error)
}

// TransactionRepository persists transactions, their details and the
// tickets they create, atomically.
type TransactionRepository interface {
	// GetTransaction retrieves a transaction by ID
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	// GetDetails retrieves all line items of a transaction
	GetDetails(ctx context.Context, transactionID string) ([]domain.TransactionDetail, error)
	// CreatePurchase writes the tickets, the transaction and its details as
	// one atomic unit. The capacity check for every (event, section) in the
	// basket happens inside the same unit; on violation nothing is written
	// and a *domain.CapacityError is returned.
	CreatePurchase(ctx context.Context, txn *domain.Transaction, details []domain.TransactionDetail, tickets []*domain.Ticket) error
	// CreateRefund writes the refund transaction, mirrors the affected
	// details onto it, persists the canceled tickets and the original
	// transaction's new status as one atomic unit.
	CreateRefund(ctx context.Context, refund *domain.Transaction, details []domain.TransactionDetail, original *domain.Transaction, canceled []*domain.Ticket) error
	// TicketsAlreadyRefunded reports which of the given tickets already
	// appear in a refund transaction's details
	TicketsAlreadyRefunded(ctx context.Context, ticketIDs []string) ([]string, error)
}

// WalletRepository mutates user balances through atomic ledger adjustments
type WalletRepository interface {
	// GetBalance retrieves the current balance, zero for unknown users
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	// Adjust applies a signed delta and records a ledger entry. The update
	// is atomic; a negative delta that would drive the balance below zero
	// fails with domain.ErrInsufficientFunds and writes nothing.
	Adjust(ctx context.Context, userID string, delta decimal.Decimal, reason string) (decimal.Decimal, error)
}

// HoldRepository tracks in-progress checkout reservations
type HoldRepository interface {
	// CreateHold claims inventory for a checkout in progress
	CreateHold(ctx context.Context, hold *domain.Hold) error
	// ReleaseHold returns a hold's inventory; releasing a hold that no
	// longer exists reports false without error
	ReleaseHold(ctx context.Context, holdID string) (bool, error)
	// ListExpired returns holds created before the cutoff, oldest first
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Hold, error)
	// CountHeld counts currently held tickets for an event
	CountHeld(ctx context.Context, eventID string) (int, error)
}
