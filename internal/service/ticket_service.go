package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/notify"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/internal/token"
	"github.com/showgate/ticketd/pkg/logger"
)

// GiftRequest issues tickets outside the standard purchase flow, still
// subject to capacity limits
type GiftRequest struct {
	EventID     string
	SectionID   string
	RecipientID string
	Quantity    int
	PromotionID *string
}

// TicketService covers the single-ticket operations: transfer, cancel,
// verification at the gate, gift issuance and the batch expiry of tickets
// for ended events.
type TicketService struct {
	tickets    repository.TicketRepository
	events     repository.EventRepository
	issuer     *token.Issuer
	dispatcher notify.Dispatcher
	clock      domain.Clock
	log        *logger.Logger
}

// NewTicketService creates a TicketService
func NewTicketService(tickets repository.TicketRepository, events repository.EventRepository, issuer *token.Issuer, dispatcher notify.Dispatcher, clock domain.Clock, log *logger.Logger) *TicketService {
	return &TicketService{
		tickets:    tickets,
		events:     events,
		issuer:     issuer,
		dispatcher: dispatcher,
		clock:      clock,
		log:        log,
	}
}

// Transfer reassigns a live ticket to a new owner
func (s *TicketService) Transfer(ctx context.Context, ticketID, newOwnerID, attendeeName, attendeeDocument string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	previousOwner := ticket.OwnerID
	now := s.clock.Now()
	if err := ticket.TransferTo(newOwnerID, attendeeName, attendeeDocument, now); err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, &notify.TicketTransferredEvent{
		EventType:  notify.EventTypeTicketTransferred,
		TicketID:   ticket.ID,
		FromUserID: previousOwner,
		ToUserID:   newOwnerID,
		Timestamp:  now,
	})
	return ticket, nil
}

// Cancel cancels a ticket administratively, without a refund. Canceling an
// already-canceled ticket fails with InvalidTransition.
func (s *TicketService) Cancel(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.Cancel(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Verify checks a presented token at the gate and marks the ticket USED.
// It succeeds at most once per ticket, and only while the owning event is
// inside its active window.
func (s *TicketService) Verify(ctx context.Context, ticketID, presentedToken string) (bool, error) {
	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(presentedToken), []byte(ticket.VerificationToken)) != 1 {
		return false, fmt.Errorf("%w: token does not match ticket %s", domain.ErrValidation, ticketID)
	}
	if err := s.issuer.Verify(presentedToken, ticket); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	event, err := s.events.GetEvent(ctx, ticket.EventID)
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	if !event.InActiveWindow(now) {
		return false, fmt.Errorf("%w: event %s is not in its active window",
			domain.ErrValidation, event.ID)
	}

	if err := ticket.MarkUsed(now); err != nil {
		return false, err
	}
	if err := s.tickets.UpdateTicket(ctx, ticket); err != nil {
		return false, err
	}

	s.log.InfoContext(ctx, "ticket verified",
		zap.String("ticket_id", ticket.ID),
		zap.String("event_id", ticket.EventID))
	return true, nil
}

// IssueGift creates GIFT tickets behind the same guarded capacity check the
// purchase path uses. Gift tickets have no sale price and no transaction.
func (s *TicketService) IssueGift(ctx context.Context, req *GiftRequest) ([]*domain.Ticket, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: gift quantity must be positive", domain.ErrValidation)
	}

	event, err := s.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusCanceled || event.Status == domain.EventStatusFinished {
		return nil, fmt.Errorf("%w: event %s status is %s", domain.ErrValidation, event.ID, event.Status)
	}
	section, err := s.events.GetSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if section.VenueID != event.VenueID {
		return nil, fmt.Errorf("%w: section %s does not belong to the event's venue",
			domain.ErrValidation, req.SectionID)
	}

	now := s.clock.Now()
	tickets := make([]*domain.Ticket, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		ticket, err := domain.NewGiftTicket(req.EventID, req.SectionID, req.RecipientID, req.PromotionID, now)
		if err != nil {
			return nil, err
		}
		verification, err := s.issuer.Issue(ticket, now)
		if err != nil {
			return nil, err
		}
		ticket.VerificationToken = verification
		tickets = append(tickets, ticket)
	}

	if err := s.tickets.InsertGuarded(ctx, tickets); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "gift tickets issued",
		zap.String("event_id", req.EventID),
		zap.String("section_id", req.SectionID),
		zap.Int("quantity", req.Quantity))
	return tickets, nil
}

// ExpirePastEvents transitions SOLD tickets of ended events to EXPIRED.
// GIFT, USED and already-terminal tickets are never touched.
func (s *TicketService) ExpirePastEvents(ctx context.Context) (int, error) {
	expired, err := s.tickets.ExpireSoldForEndedEvents(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.InfoContext(ctx, "expired tickets for ended events", zap.Int("count", expired))
	}
	return expired, nil
}
