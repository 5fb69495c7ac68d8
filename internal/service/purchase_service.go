package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/gateway"
	"github.com/showgate/ticketd/internal/notify"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/internal/token"
	"github.com/showgate/ticketd/pkg/logger"
	"github.com/showgate/ticketd/pkg/telemetry"
)

// PurchaseItem is one requested ticket in a basket
type PurchaseItem struct {
	SectionID        string
	Price            decimal.Decimal
	AttendeeName     string
	AttendeeDocument string
	PromotionID      *string
}

// PurchaseRequest is a basket purchase for one event
type PurchaseRequest struct {
	EventID         string
	BuyerID         string
	PaymentMethodID string
	Items           []PurchaseItem
}

// PurchaseResult is the outcome of a successful purchase
type PurchaseResult struct {
	TransactionID string
	Tickets       []*domain.Ticket
}

// PurchaseService atomically turns a basket of ticket requests into tickets
// plus one transaction. The capacity check and the ticket writes are one
// atomic unit in the store; no partial baskets ever persist.
type PurchaseService struct {
	events      repository.EventRepository
	capacity    *CapacityService
	store       repository.TransactionRepository
	gateway     gateway.PaymentGateway
	issuer      *token.Issuer
	eventStatus *EventStatusService
	dispatcher  notify.Dispatcher
	clock       domain.Clock
	log         *logger.Logger
}

// NewPurchaseService creates a PurchaseService
func NewPurchaseService(
	events repository.EventRepository,
	capacity *CapacityService,
	store repository.TransactionRepository,
	gw gateway.PaymentGateway,
	issuer *token.Issuer,
	eventStatus *EventStatusService,
	dispatcher notify.Dispatcher,
	clock domain.Clock,
	log *logger.Logger,
) *PurchaseService {
	return &PurchaseService{
		events:      events,
		capacity:    capacity,
		store:       store,
		gateway:     gw,
		issuer:      issuer,
		eventStatus: eventStatus,
		dispatcher:  dispatcher,
		clock:       clock,
		log:         log,
	}
}

// Purchase executes a basket purchase end to end. All-or-nothing: any
// precondition violation fails the whole basket with a typed error naming
// the offending section, and a capacity race detected at write time rolls
// everything back including the gateway charge.
func (s *PurchaseService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "purchase")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.Int("basket_size", len(req.Items)),
	)

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: purchase requires at least one item", domain.ErrValidation)
	}
	if req.BuyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", domain.ErrValidation)
	}
	if req.PaymentMethodID == "" {
		return nil, fmt.Errorf("%w: payment method id is required", domain.ErrValidation)
	}

	event, err := s.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusSoldOut {
		return nil, fmt.Errorf("%w: event %s is sold out", domain.ErrCapacityExceeded, event.ID)
	}
	if !event.IsOnSale() {
		return nil, fmt.Errorf("%w: event %s status is %s", domain.ErrEventNotOnSale, event.ID, event.Status)
	}

	if err := s.checkPreconditions(ctx, event, req.Items); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	tickets := make([]*domain.Ticket, 0, len(req.Items))
	details := make([]domain.TransactionDetail, 0, len(req.Items))
	for _, item := range req.Items {
		ticket, err := domain.NewTicket(event.ID, item.SectionID, req.BuyerID, item.Price, now)
		if err != nil {
			return nil, err
		}
		ticket.AttendeeName = item.AttendeeName
		ticket.AttendeeDocument = item.AttendeeDocument
		ticket.PromotionID = item.PromotionID

		verification, err := s.issuer.Issue(ticket, now)
		if err != nil {
			return nil, err
		}
		ticket.VerificationToken = verification

		tickets = append(tickets, ticket)
		details = append(details, domain.TransactionDetail{
			TicketID:  ticket.ID,
			UnitPrice: item.Price,
		})
	}

	txn, err := domain.NewTransaction(req.BuyerID, req.PaymentMethodID, details, now)
	if err != nil {
		return nil, err
	}

	// Charge before persisting; a failed charge leaves nothing to undo.
	// There is no purchase fallback: a gateway failure fails the basket.
	if txn.TotalAmount.IsPositive() {
		charge, err := s.gateway.Charge(ctx, &gateway.ChargeRequest{
			TransactionID:   txn.ID,
			PaymentMethodID: req.PaymentMethodID,
			Amount:          txn.TotalAmount,
			Description:     fmt.Sprintf("tickets for event %s", event.ID),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: charge failed: %v", domain.ErrExternalService, err)
		}
		if !charge.Succeeded() {
			return nil, fmt.Errorf("%w: charge not confirmed (status %s): %s",
				domain.ErrExternalService, charge.Status, charge.FailureReason)
		}
		txn.GatewayReference = charge.Reference
	}

	if err := s.store.CreatePurchase(ctx, txn, details, tickets); err != nil {
		s.compensateCharge(ctx, txn)
		return nil, err
	}

	if err := s.eventStatus.RecheckSellout(ctx, event.ID); err != nil {
		// The purchase is committed; a failed sellout recheck is repaired
		// by the next purchase against this event
		s.log.ErrorContext(ctx, "sellout recheck failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}

	ticketIDs := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ticketIDs = append(ticketIDs, t.ID)
	}
	s.dispatcher.Dispatch(ctx, &notify.PurchaseCompletedEvent{
		EventType:     notify.EventTypePurchaseCompleted,
		TransactionID: txn.ID,
		UserID:        req.BuyerID,
		EventID:       event.ID,
		TicketIDs:     ticketIDs,
		TotalAmount:   txn.TotalAmount,
		Timestamp:     now,
	})

	s.log.InfoContext(ctx, "purchase completed",
		zap.String("transaction_id", txn.ID),
		zap.String("event_id", event.ID),
		zap.Int("tickets", len(tickets)),
		zap.String("total", txn.TotalAmount.String()))

	return &PurchaseResult{TransactionID: txn.ID, Tickets: tickets}, nil
}

// checkPreconditions validates section ownership and availability for the
// whole basket. The store re-checks capacity atomically at write time; this
// pass exists to reject doomed baskets with precise errors before charging.
func (s *PurchaseService) checkPreconditions(ctx context.Context, event *domain.Event, items []PurchaseItem) error {
	requested := make(map[string]int)
	for _, item := range items {
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
		}
		requested[item.SectionID]++
	}

	for sectionID, qty := range requested {
		section, err := s.events.GetSection(ctx, sectionID)
		if err != nil {
			return err
		}
		if section.VenueID != event.VenueID {
			return fmt.Errorf("%w: section %s does not belong to the event's venue",
				domain.ErrValidation, sectionID)
		}

		availability, err := s.capacity.Availability(ctx, event.ID, sectionID)
		if err != nil {
			return err
		}
		if qty > availability.Available {
			return domain.NewCapacityError(sectionID, qty, availability.Available)
		}
	}
	return nil
}

// compensateCharge refunds a charge whose basket failed to persist. Best
// effort: a failed compensation is logged for manual reconciliation.
func (s *PurchaseService) compensateCharge(ctx context.Context, txn *domain.Transaction) {
	if txn.GatewayReference == "" {
		return
	}
	_, err := s.gateway.Refund(ctx, &gateway.RefundRequest{
		Reference:      txn.GatewayReference,
		Amount:         txn.TotalAmount,
		IdempotencyKey: "void-" + txn.ID,
		Reason:         "purchase aborted",
	})
	if err != nil {
		s.log.ErrorContext(ctx, "charge compensation failed, manual reconciliation required",
			zap.String("transaction_id", txn.ID),
			zap.String("gateway_reference", txn.GatewayReference),
			zap.Error(err))
	}
}
