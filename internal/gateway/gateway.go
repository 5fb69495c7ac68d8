package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentGateway defines the interface for payment processing
type PaymentGateway interface {
	// Charge processes a payment charge
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)

	// Refund returns money to the original payment method. The
	// idempotency key makes retried refunds safe against double credit.
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)

	// GetStatus retrieves the gateway-side status of a charge
	GetStatus(ctx context.Context, reference string) (ChargeStatus, error)

	// Name returns the gateway name
	Name() string
}

// ChargeStatus is the gateway-side state of a charge. Only StatusSucceeded
// counts as payment confirmation; a pending charge is not a sale.
type ChargeStatus string

const (
	StatusSucceeded ChargeStatus = "succeeded"
	StatusPending   ChargeStatus = "pending"
	StatusFailed    ChargeStatus = "failed"
	StatusRefunded  ChargeStatus = "refunded"
)

// ChargeRequest represents a charge request
type ChargeRequest struct {
	TransactionID   string
	PaymentMethodID string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	CustomerEmail   string
	Metadata        map[string]string
}

// ChargeResponse represents a charge response
type ChargeResponse struct {
	Reference     string
	Status        ChargeStatus
	FailureReason string
}

// Succeeded reports whether the charge is confirmed
func (r *ChargeResponse) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// RefundRequest represents a refund request
type RefundRequest struct {
	// Reference is the gateway reference of the original charge
	Reference string
	Amount    decimal.Decimal
	Currency  string
	// IdempotencyKey deduplicates retried refund calls gateway-side
	IdempotencyKey string
	Reason         string
}

// RefundResponse represents a refund response
type RefundResponse struct {
	Reference string
	Status    ChargeStatus
}

// Config holds common gateway configuration
type Config struct {
	Provider    string
	SecretKey   string
	Currency    string
	Environment string // "test" or "live"
}
