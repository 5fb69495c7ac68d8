package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the closed set of transaction states
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "INITIATED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusInitiated: {TransactionStatusCompleted},
	TransactionStatusCompleted: {TransactionStatusRefunded},
	TransactionStatusRefunded:  {},
}

// IsValid returns true if the status is a known transaction status
func (s TransactionStatus) IsValid() bool {
	_, ok := transactionTransitions[s]
	return ok
}

// CanTransitionTo returns true if the transition to target is allowed
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transaction records one money movement: a sale or a refund.
// Invariant: TotalAmount equals the sum of its detail unit prices.
type Transaction struct {
	ID                    string            `json:"id"`
	UserID                string            `json:"user_id"`
	PaymentMethodID       string            `json:"payment_method_id"`
	TotalAmount           decimal.Decimal   `json:"total_amount"`
	Status                TransactionStatus `json:"status"`
	IsRefund              bool              `json:"is_refund"`
	OriginalTransactionID *string           `json:"original_transaction_id,omitempty"`
	GatewayReference      string            `json:"gateway_reference,omitempty"`
	Description           string            `json:"description,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// TransactionDetail is one line item: the price of one ticket at sale or
// refund time. Composite key (TransactionID, TicketID).
type TransactionDetail struct {
	TransactionID string          `json:"transaction_id"`
	TicketID      string          `json:"ticket_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// NewTransaction creates a COMPLETED sale transaction whose total is derived
// from the details, never supplied independently.
func NewTransaction(userID, paymentMethodID string, details []TransactionDetail, now time.Time) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if paymentMethodID == "" {
		return nil, fmt.Errorf("%w: payment method id is required", ErrValidation)
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("%w: transaction requires at least one detail", ErrValidation)
	}

	txn := &Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		PaymentMethodID: paymentMethodID,
		Status:          TransactionStatusCompleted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	total := decimal.Zero
	for i := range details {
		if details[i].UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: unit price cannot be negative", ErrValidation)
		}
		details[i].TransactionID = txn.ID
		total = total.Add(details[i].UnitPrice)
	}
	txn.TotalAmount = total

	return txn, nil
}

// NewRefundTransaction creates a refund transaction back-referencing the
// original sale. The caller mirrors the affected details onto it.
func NewRefundTransaction(original *Transaction, amount decimal.Decimal, description string, now time.Time) (*Transaction, error) {
	if original == nil {
		return nil, fmt.Errorf("%w: original transaction is required", ErrValidation)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}

	originalID := original.ID
	return &Transaction{
		ID:                    uuid.New().String(),
		UserID:                original.UserID,
		PaymentMethodID:       original.PaymentMethodID,
		TotalAmount:           amount,
		Status:                TransactionStatusCompleted,
		IsRefund:              true,
		OriginalTransactionID: &originalID,
		Description:           description,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// MarkRefunded transitions the transaction to REFUNDED
func (t *Transaction) MarkRefunded(now time.Time) error {
	if !t.Status.CanTransitionTo(TransactionStatusRefunded) {
		return &TransitionError{
			Entity: "transaction",
			ID:     t.ID,
			From:   string(t.Status),
			To:     string(TransactionStatusRefunded),
		}
	}
	t.Status = TransactionStatusRefunded
	t.UpdatedAt = now
	return nil
}

// VerifyTotal checks the amount invariant against the given details
func (t *Transaction) VerifyTotal(details []TransactionDetail) error {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.UnitPrice)
	}
	if !total.Equal(t.TotalAmount) {
		return fmt.Errorf("%w: transaction %s total %s does not match detail sum %s",
			ErrValidation, t.ID, t.TotalAmount, total)
	}
	return nil
}
