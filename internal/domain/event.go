package domain

import (
	"fmt"
	"time"
)

// EventStatus is the closed set of event states
type EventStatus string

const (
	EventStatusUpcoming EventStatus = "UPCOMING"
	EventStatusOnSale   EventStatus = "ON_SALE"
	EventStatusSoldOut  EventStatus = "SOLD_OUT"
	EventStatusCanceled EventStatus = "CANCELED"
	EventStatusFinished EventStatus = "FINISHED"
)

// eventTransitions defines allowed event status transitions. Reopening a
// sold-out event is an administrative action outside this table.
var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusUpcoming: {EventStatusOnSale, EventStatusCanceled},
	EventStatusOnSale:   {EventStatusSoldOut, EventStatusCanceled, EventStatusFinished},
	EventStatusSoldOut:  {EventStatusFinished, EventStatusCanceled},
	EventStatusCanceled: {},
	EventStatusFinished: {},
}

// IsValid returns true if the status is a known event status
func (s EventStatus) IsValid() bool {
	_, ok := eventTransitions[s]
	return ok
}

// IsTerminal returns true if no further transitions are allowed
func (s EventStatus) IsTerminal() bool {
	allowed, ok := eventTransitions[s]
	return ok && len(allowed) == 0
}

// CanTransitionTo returns true if the transition to target is allowed
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Venue hosts events and owns sections
type Venue struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	TotalCapacity int       `json:"total_capacity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VenueSection is a capacity-bounded subdivision of a venue that tickets
// are sold against. Capacity is immutable once any ticket references the
// section, except through IncreaseCapacity.
type VenueSection struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IncreaseCapacity is the only sanctioned capacity mutation. The new value
// must not shrink the section and must keep the venue-wide total consistent.
func (s *VenueSection) IncreaseCapacity(newCapacity int, venueTotal, otherSectionsTotal int, now time.Time) error {
	if newCapacity <= s.Capacity {
		return fmt.Errorf("%w: new capacity %d must exceed current capacity %d",
			ErrValidation, newCapacity, s.Capacity)
	}
	if otherSectionsTotal+newCapacity > venueTotal {
		return fmt.Errorf("%w: section capacities would exceed venue total %d",
			ErrValidation, venueTotal)
	}
	s.Capacity = newCapacity
	s.UpdatedAt = now
	return nil
}

// Event is a time-bound happening at a venue. Verified events and events
// with sold tickets are never hard-deleted.
type Event struct {
	ID          string      `json:"id"`
	VenueID     string      `json:"venue_id"`
	Name        string      `json:"name"`
	PerformerID *string     `json:"performer_id,omitempty"`
	Status      EventStatus `json:"status"`
	StartsAt    time.Time   `json:"starts_at"`
	EndsAt      time.Time   `json:"ends_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewEvent creates an event in UPCOMING status
func NewEvent(id, venueID, name string, startsAt, endsAt, now time.Time) (*Event, error) {
	if venueID == "" {
		return nil, fmt.Errorf("%w: venue id is required", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrValidation)
	}
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("%w: event end time must be after start time", ErrValidation)
	}

	return &Event{
		ID:        id,
		VenueID:   venueID,
		Name:      name,
		Status:    EventStatusUpcoming,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionTo moves the event to a new status
func (e *Event) TransitionTo(target EventStatus, now time.Time) error {
	if !e.Status.CanTransitionTo(target) {
		return &TransitionError{
			Entity: "event",
			ID:     e.ID,
			From:   string(e.Status),
			To:     string(target),
		}
	}
	e.Status = target
	e.UpdatedAt = now
	return nil
}

// IsOnSale reports whether tickets can currently be purchased
func (e *Event) IsOnSale() bool {
	return e.Status == EventStatusOnSale
}

// InActiveWindow reports whether now falls inside the event's time window
// and the event has not been canceled or finished. Ticket verification is
// only valid inside this window.
func (e *Event) InActiveWindow(now time.Time) bool {
	if e.Status == EventStatusCanceled || e.Status == EventStatusFinished {
		return false
	}
	return !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}

// HasEnded reports whether the event's time window has passed
func (e *Event) HasEnded(now time.Time) bool {
	return now.After(e.EndsAt)
}
