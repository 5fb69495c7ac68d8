package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/notify"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/pkg/logger"
)

// EventStatusService flips events to SOLD_OUT once their venue capacity is
// exhausted. Refunds never trigger the reverse transition; re-opening a
// sold-out event is an administrative action outside this service.
type EventStatusService struct {
	events     repository.EventRepository
	tickets    repository.TicketRepository
	dispatcher notify.Dispatcher
	clock      domain.Clock
	log        *logger.Logger
}

// NewEventStatusService creates an EventStatusService
func NewEventStatusService(events repository.EventRepository, tickets repository.TicketRepository, dispatcher notify.Dispatcher, clock domain.Clock, log *logger.Logger) *EventStatusService {
	return &EventStatusService{
		events:     events,
		tickets:    tickets,
		dispatcher: dispatcher,
		clock:      clock,
		log:        log,
	}
}

// RecheckSellout compares SOLD and USED tickets across all sections to the
// venue's total capacity and transitions the event to SOLD_OUT when reached.
// Idempotent: re-running against an already sold-out event changes nothing.
func (s *EventStatusService) RecheckSellout(ctx context.Context, eventID string) error {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status == domain.EventStatusSoldOut {
		return nil
	}
	if !event.Status.CanTransitionTo(domain.EventStatusSoldOut) {
		return nil
	}

	venue, err := s.events.GetVenue(ctx, event.VenueID)
	if err != nil {
		return err
	}

	soldCount, err := s.tickets.CountSoldOrUsed(ctx, eventID)
	if err != nil {
		return err
	}
	if soldCount < venue.TotalCapacity {
		return nil
	}

	now := s.clock.Now()
	changed, err := s.events.UpdateEventStatus(ctx, eventID, event.Status, domain.EventStatusSoldOut, now)
	if err != nil {
		return err
	}
	if !changed {
		// Another purchase won the race; the event is already sold out
		return nil
	}

	s.log.InfoContext(ctx, "event sold out",
		zap.String("event_id", eventID),
		zap.Int("sold_count", soldCount),
		zap.Int("total_capacity", venue.TotalCapacity))

	s.dispatcher.Dispatch(ctx, &notify.EventSoldOutEvent{
		EventType: notify.EventTypeEventSoldOut,
		EventID:   eventID,
		Timestamp: now,
	})
	return nil
}
