package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/gateway"
	"github.com/showgate/ticketd/internal/notify"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/pkg/logger"
	"github.com/showgate/ticketd/pkg/telemetry"
)

// RefundTier identifies which mechanism settled a refund
type RefundTier string

const (
	RefundTierGateway RefundTier = "GATEWAY"
	RefundTierWallet  RefundTier = "WALLET"
	RefundTierFailed  RefundTier = "FAILED"
)

// RefundRequest selects what to refund from one transaction. An empty
// TicketIDs list means a full refund.
type RefundRequest struct {
	TransactionID       string
	TicketIDs           []string
	Reason              string
	AllowWalletFallback bool
}

// RefundResult is the outcome of a refund attempt
type RefundResult struct {
	Tier             RefundTier
	Amount           decimal.Decimal
	NewTransactionID string
	// Failure carries the gateway's error detail when Tier is FAILED
	Failure string
}

// RefundService implements the two-tier refund protocol: external gateway
// refund first, wallet credit as fallback, with ticket cancellation in both
// settled tiers.
type RefundService struct {
	store      repository.TransactionRepository
	tickets    repository.TicketRepository
	wallets    repository.WalletRepository
	gateway    gateway.PaymentGateway
	dispatcher notify.Dispatcher
	clock      domain.Clock
	log        *logger.Logger
}

// NewRefundService creates a RefundService
func NewRefundService(
	store repository.TransactionRepository,
	tickets repository.TicketRepository,
	wallets repository.WalletRepository,
	gw gateway.PaymentGateway,
	dispatcher notify.Dispatcher,
	clock domain.Clock,
	log *logger.Logger,
) *RefundService {
	return &RefundService{
		store:      store,
		tickets:    tickets,
		wallets:    wallets,
		gateway:    gw,
		dispatcher: dispatcher,
		clock:      clock,
		log:        log,
	}
}

// Refund refunds a completed transaction, fully or for a subset of its
// tickets. Re-invoking a settled refund fails with AlreadyRefunded; money
// moves exactly once.
func (s *RefundService) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "refund")
	defer span.End()
	span.SetAttributes(attribute.String("transaction_id", req.TransactionID))

	original, err := s.store.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if original.IsRefund {
		return nil, fmt.Errorf("%w: transaction %s is itself a refund", domain.ErrNotRefundable, original.ID)
	}
	switch original.Status {
	case domain.TransactionStatusCompleted:
	case domain.TransactionStatusRefunded:
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrAlreadyRefunded, original.ID)
	default:
		return nil, fmt.Errorf("%w: transaction %s status is %s",
			domain.ErrNotRefundable, original.ID, original.Status)
	}

	details, err := s.resolveDetails(ctx, original, req.TicketIDs)
	if err != nil {
		return nil, err
	}

	ticketIDs := make([]string, 0, len(details))
	amount := decimal.Zero
	for _, d := range details {
		ticketIDs = append(ticketIDs, d.TicketID)
		amount = amount.Add(d.UnitPrice)
	}

	refunded, err := s.store.TicketsAlreadyRefunded(ctx, ticketIDs)
	if err != nil {
		return nil, err
	}
	if len(refunded) > 0 {
		return nil, fmt.Errorf("%w: tickets already refunded: %s",
			domain.ErrAlreadyRefunded, strings.Join(refunded, ", "))
	}

	gatewayResp, gatewayErr := s.attemptGatewayRefund(ctx, original, amount, ticketIDs)
	if gatewayErr == nil {
		return s.settle(ctx, original, details, amount, RefundTierGateway, req.Reason, gatewayResp.Reference)
	}

	if !req.AllowWalletFallback {
		s.log.WarnContext(ctx, "gateway refund failed, fallback disallowed",
			zap.String("transaction_id", original.ID), zap.Error(gatewayErr))
		return &RefundResult{
			Tier:    RefundTierFailed,
			Amount:  amount,
			Failure: gatewayErr.Error(),
		}, nil
	}

	s.log.WarnContext(ctx, "gateway refund failed, falling back to wallet credit",
		zap.String("transaction_id", original.ID), zap.Error(gatewayErr))
	return s.settle(ctx, original, details, amount, RefundTierWallet, req.Reason, "")
}

// resolveDetails picks the sale details to refund: all of them for a full
// refund, or the subset matching the requested tickets
func (s *RefundService) resolveDetails(ctx context.Context, original *domain.Transaction, ticketIDs []string) ([]domain.TransactionDetail, error) {
	details, err := s.store.GetDetails(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("%w: transaction %s has no details", domain.ErrValidation, original.ID)
	}
	if len(ticketIDs) == 0 {
		return details, nil
	}

	byTicket := make(map[string]domain.TransactionDetail, len(details))
	for _, d := range details {
		byTicket[d.TicketID] = d
	}

	resolved := make([]domain.TransactionDetail, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		d, ok := byTicket[id]
		if !ok {
			return nil, fmt.Errorf("%w: ticket %s does not belong to transaction %s",
				domain.ErrValidation, id, original.ID)
		}
		resolved = append(resolved, d)
	}
	return resolved, nil
}

// attemptGatewayRefund tries the external refund with an idempotency key
// derived from the transaction and the refunded ticket set
func (s *RefundService) attemptGatewayRefund(ctx context.Context, original *domain.Transaction, amount decimal.Decimal, ticketIDs []string) (*gateway.RefundResponse, error) {
	if original.GatewayReference == "" {
		return nil, fmt.Errorf("%w: transaction %s has no gateway reference",
			domain.ErrExternalService, original.ID)
	}

	sorted := append([]string(nil), ticketIDs...)
	sort.Strings(sorted)
	key := "refund-" + original.ID
	if len(sorted) > 0 {
		key += "-" + strings.Join(sorted, "-")
	}

	resp, err := s.gateway.Refund(ctx, &gateway.RefundRequest{
		Reference:      original.GatewayReference,
		Amount:         amount,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}
	// Only a confirmed refund settles; a pending one may still be reversed
	if resp.Status != gateway.StatusSucceeded {
		return nil, fmt.Errorf("%w: gateway refund not confirmed (status %s)",
			domain.ErrExternalService, resp.Status)
	}
	return resp, nil
}

// settle writes the refund transaction, cancels the affected tickets and,
// for the wallet tier, credits the buyer's balance
func (s *RefundService) settle(ctx context.Context, original *domain.Transaction, details []domain.TransactionDetail, amount decimal.Decimal, tier RefundTier, reason, gatewayRef string) (*RefundResult, error) {
	now := s.clock.Now()

	description := reason
	if tier == RefundTierWallet {
		// Never imply gateway success for a wallet-settled refund
		description = strings.TrimSpace("wallet fallback credit: " + reason)
	}

	refund, err := domain.NewRefundTransaction(original, amount, description, now)
	if err != nil {
		return nil, err
	}
	refund.GatewayReference = gatewayRef

	refundDetails := make([]domain.TransactionDetail, 0, len(details))
	ticketIDs := make([]string, 0, len(details))
	for _, d := range details {
		refundDetails = append(refundDetails, domain.TransactionDetail{
			TransactionID: refund.ID,
			TicketID:      d.TicketID,
			UnitPrice:     d.UnitPrice,
		})
		ticketIDs = append(ticketIDs, d.TicketID)
	}

	tickets, err := s.tickets.GetTickets(ctx, ticketIDs)
	if err != nil {
		return nil, err
	}
	if len(tickets) != len(ticketIDs) {
		return nil, fmt.Errorf("%w: refund references missing tickets", domain.ErrTicketNotFound)
	}
	for _, t := range tickets {
		if err := t.Cancel(now); err != nil {
			return nil, err
		}
	}

	fullRefund := false
	if allDetails, err := s.store.GetDetails(ctx, original.ID); err == nil {
		fullRefund = len(details) == len(allDetails)
	}
	if fullRefund {
		if err := original.MarkRefunded(now); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateRefund(ctx, refund, refundDetails, original, tickets); err != nil {
		return nil, err
	}

	if tier == RefundTierWallet {
		if _, err := s.wallets.Adjust(ctx, original.UserID, amount, "refund "+original.ID); err != nil {
			// The refund transaction is committed but the credit is not;
			// this needs manual reconciliation
			s.log.ErrorContext(ctx, "wallet credit failed after refund commit",
				zap.String("transaction_id", original.ID),
				zap.String("refund_transaction_id", refund.ID),
				zap.Error(err))
			return nil, err
		}
	}

	destination := "gateway"
	if tier == RefundTierWallet {
		destination = "wallet"
	}
	s.dispatcher.Dispatch(ctx, &notify.RefundCompletedEvent{
		EventType:             notify.EventTypeRefundCompleted,
		RefundTransactionID:   refund.ID,
		OriginalTransactionID: original.ID,
		UserID:                original.UserID,
		Amount:                amount,
		Destination:           destination,
		Timestamp:             now,
	})

	s.log.InfoContext(ctx, "refund settled",
		zap.String("transaction_id", original.ID),
		zap.String("refund_transaction_id", refund.ID),
		zap.String("tier", string(tier)),
		zap.String("amount", amount.String()))

	return &RefundResult{
		Tier:             tier,
		Amount:           amount,
		NewTransactionID: refund.ID,
	}, nil
}
