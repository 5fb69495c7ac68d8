package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketStatus is the closed set of ticket states. Availability is implicit:
// an unsold seat has no ticket row at all.
type TicketStatus string

const (
	TicketStatusSold     TicketStatus = "SOLD"
	TicketStatusGift     TicketStatus = "GIFT"
	TicketStatusUsed     TicketStatus = "USED"
	TicketStatusCanceled TicketStatus = "CANCELED"
	TicketStatusExpired  TicketStatus = "EXPIRED"
)

// ticketTransitions defines allowed ticket status transitions.
// USED, CANCELED and EXPIRED are terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusSold:     {TicketStatusUsed, TicketStatusCanceled, TicketStatusExpired},
	TicketStatusGift:     {TicketStatusUsed, TicketStatusCanceled},
	TicketStatusUsed:     {},
	TicketStatusCanceled: {},
	TicketStatusExpired:  {},
}

// IsValid returns true if the status is a known ticket status
func (s TicketStatus) IsValid() bool {
	_, ok := ticketTransitions[s]
	return ok
}

// IsTerminal returns true if no further transitions are allowed
func (s TicketStatus) IsTerminal() bool {
	allowed, ok := ticketTransitions[s]
	return ok && len(allowed) == 0
}

// CanTransitionTo returns true if the transition to target is allowed
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CountsAgainstCapacity reports whether a ticket in this status occupies a
// seat for availability purposes.
func (s TicketStatus) CountsAgainstCapacity() bool {
	return s == TicketStatusSold || s == TicketStatusGift
}

// Ticket is a sold or gifted admission right for one event section.
// Tickets are never deleted: status is the end state.
type Ticket struct {
	ID                string           `json:"id"`
	EventID           string           `json:"event_id"`
	SectionID         string           `json:"section_id"`
	OwnerID           string           `json:"owner_id"`
	AttendeeName      string           `json:"attendee_name,omitempty"`
	AttendeeDocument  string           `json:"attendee_document,omitempty"`
	Status            TicketStatus     `json:"status"`
	Price             *decimal.Decimal `json:"price,omitempty"` // nil for gift tickets
	Code              string           `json:"code"`            // unique identification code
	VerificationToken string           `json:"verification_token"`
	PromotionID       *string          `json:"promotion_id,omitempty"`
	PurchasedAt       time.Time        `json:"purchased_at"`
	UsedAt            *time.Time       `json:"used_at,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NewTicket creates a ticket in SOLD status
func NewTicket(eventID, sectionID, ownerID string, price decimal.Decimal, now time.Time) (*Ticket, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if sectionID == "" {
		return nil, fmt.Errorf("%w: section id is required", ErrValidation)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	return &Ticket{
		ID:          uuid.New().String(),
		EventID:     eventID,
		SectionID:   sectionID,
		OwnerID:     ownerID,
		Status:      TicketStatusSold,
		Price:       &price,
		Code:        newTicketCode(),
		PurchasedAt: now,
		UpdatedAt:   now,
	}, nil
}

// NewGiftTicket creates a ticket in GIFT status with no sale price
func NewGiftTicket(eventID, sectionID, ownerID string, promotionID *string, now time.Time) (*Ticket, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if sectionID == "" {
		return nil, fmt.Errorf("%w: section id is required", ErrValidation)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}

	return &Ticket{
		ID:          uuid.New().String(),
		EventID:     eventID,
		SectionID:   sectionID,
		OwnerID:     ownerID,
		Status:      TicketStatusGift,
		PromotionID: promotionID,
		Code:        newTicketCode(),
		PurchasedAt: now,
		UpdatedAt:   now,
	}, nil
}

// newTicketCode generates the unique identification code printed on the
// ticket. It is not derived from any counter.
func newTicketCode() string {
	return "TKT-" + uuid.New().String()
}

func (t *Ticket) transition(target TicketStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(target) {
		return &TransitionError{
			Entity: "ticket",
			ID:     t.ID,
			From:   string(t.Status),
			To:     string(target),
		}
	}
	t.Status = target
	t.UpdatedAt = now
	return nil
}

// MarkUsed transitions the ticket to USED at verification time.
// Verifying an already-used or otherwise terminal ticket fails.
func (t *Ticket) MarkUsed(now time.Time) error {
	if err := t.transition(TicketStatusUsed, now); err != nil {
		return err
	}
	used := now
	t.UsedAt = &used
	return nil
}

// Cancel transitions the ticket to CANCELED. Canceling an already-canceled
// ticket is an error, not a silent success.
func (t *Ticket) Cancel(now time.Time) error {
	return t.transition(TicketStatusCanceled, now)
}

// Expire transitions a SOLD ticket to EXPIRED once its event has ended.
// GIFT and terminal tickets are never expired.
func (t *Ticket) Expire(now time.Time) error {
	if t.Status != TicketStatusSold {
		return &TransitionError{
			Entity: "ticket",
			ID:     t.ID,
			From:   string(t.Status),
			To:     string(TicketStatusExpired),
		}
	}
	return t.transition(TicketStatusExpired, now)
}

// TransferTo reassigns ownership and attendee identity. Only live tickets
// can be transferred.
func (t *Ticket) TransferTo(newOwnerID, attendeeName, attendeeDocument string, now time.Time) error {
	if newOwnerID == "" {
		return fmt.Errorf("%w: new owner id is required", ErrValidation)
	}
	if t.Status.IsTerminal() {
		return &TransitionError{
			Entity: "ticket",
			ID:     t.ID,
			From:   string(t.Status),
			To:     string(t.Status),
		}
	}
	t.OwnerID = newOwnerID
	t.AttendeeName = attendeeName
	t.AttendeeDocument = attendeeDocument
	t.UpdatedAt = now
	return nil
}
