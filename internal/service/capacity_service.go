package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/pkg/logger"
)

// SectionAvailability is the availability snapshot for one section
type SectionAvailability struct {
	EventID   string `json:"event_id"`
	SectionID string `json:"section_id"`
	Capacity  int    `json:"capacity"`
	Occupied  int    `json:"occupied"`
	Available int    `json:"available"`
}

// EventAvailability aggregates availability across an event's sections
type EventAvailability struct {
	EventID  string                 `json:"event_id"`
	Status   domain.EventStatus     `json:"status"`
	Sections []*SectionAvailability `json:"sections"`
	Held     int                    `json:"held"`
}

// CapacityService computes available inventory from ticket rows. It is a
// read path only; writes re-derive availability instead of caching it.
type CapacityService struct {
	events  repository.EventRepository
	tickets repository.TicketRepository
	holds   repository.HoldRepository
	log     *logger.Logger
}

// NewCapacityService creates a CapacityService
func NewCapacityService(events repository.EventRepository, tickets repository.TicketRepository, holds repository.HoldRepository, log *logger.Logger) *CapacityService {
	return &CapacityService{events: events, tickets: tickets, holds: holds, log: log}
}

// Availability computes available seats for one (event, section) pair:
// capacity minus SOLD and GIFT tickets. Never negative; an occupancy above
// capacity clamps to zero and logs a consistency warning instead of failing.
func (s *CapacityService) Availability(ctx context.Context, eventID, sectionID string) (*SectionAvailability, error) {
	section, err := s.events.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.tickets.CountOccupied(ctx, eventID, sectionID)
	if err != nil {
		return nil, err
	}

	available := section.Capacity - occupied
	if available < 0 {
		s.log.WarnContext(ctx, "section occupancy exceeds capacity",
			zap.String("event_id", eventID),
			zap.String("section_id", sectionID),
			zap.Int("capacity", section.Capacity),
			zap.Int("occupied", occupied))
		available = 0
	}

	return &SectionAvailability{
		EventID:   eventID,
		SectionID: sectionID,
		Capacity:  section.Capacity,
		Occupied:  occupied,
		Available: available,
	}, nil
}

// EventAvailability computes the per-section breakdown for an event plus the
// number of tickets currently held by in-progress checkouts
func (s *CapacityService) EventAvailability(ctx context.Context, eventID string) (*EventAvailability, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	sections, err := s.events.ListSections(ctx, event.VenueID)
	if err != nil {
		return nil, err
	}

	result := &EventAvailability{EventID: eventID, Status: event.Status}
	for _, sec := range sections {
		availability, err := s.Availability(ctx, eventID, sec.ID)
		if err != nil {
			return nil, err
		}
		result.Sections = append(result.Sections, availability)
	}

	held, err := s.holds.CountHeld(ctx, eventID)
	if err != nil {
		return nil, err
	}
	result.Held = held

	return result, nil
}
