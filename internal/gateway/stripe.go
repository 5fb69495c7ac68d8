package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/showgate/ticketd/internal/domain"
)

// StripeGateway implements PaymentGateway using the Stripe API
type StripeGateway struct {
	api      *client.API
	currency string
}

// NewStripeGateway creates a StripeGateway with its own API client
func NewStripeGateway(cfg Config) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key is required", domain.ErrConfiguration)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{api: api, currency: currency}, nil
}

// Charge processes a payment through a PaymentIntent confirmed off-session
// against a saved payment method
func (g *StripeGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Currency:      stripe.String(g.currencyFor(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Description:   stripe.String(req.Description),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.Context = ctx
	if req.Metadata != nil {
		params.Metadata = req.Metadata
	}
	params.AddMetadata("transaction_id", req.TransactionID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok {
			return &ChargeResponse{
				Status:        StatusFailed,
				FailureReason: stripeErr.Msg,
			}, nil
		}
		return nil, fmt.Errorf("%w: stripe charge: %v", domain.ErrExternalService, err)
	}

	return &ChargeResponse{
		Reference: pi.ID,
		Status:    chargeStatusFromIntent(pi.Status),
	}, nil
}

// Refund returns money to the original payment method
func (g *StripeGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.Reference),
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	}

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe refund: %v", domain.ErrExternalService, err)
	}

	status := StatusPending
	if r.Status == stripe.RefundStatusSucceeded {
		status = StatusSucceeded
	} else if r.Status == stripe.RefundStatusFailed {
		status = StatusFailed
	}
	return &RefundResponse{Reference: r.ID, Status: status}, nil
}

// GetStatus retrieves the gateway-side status of a charge
func (g *StripeGateway) GetStatus(ctx context.Context, reference string) (ChargeStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return StatusFailed, fmt.Errorf("%w: stripe get status: %v", domain.ErrExternalService, err)
	}
	return chargeStatusFromIntent(pi.Status), nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) currencyFor(requested string) string {
	if requested != "" {
		return requested
	}
	return g.currency
}

func chargeStatusFromIntent(s stripe.PaymentIntentStatus) ChargeStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusPending
	}
}

// toMinorUnits converts a decimal amount to the gateway's integer minor
// units (cents)
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
