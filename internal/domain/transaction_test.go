package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func saleDetails(prices ...int64) []TransactionDetail {
	details := make([]TransactionDetail, 0, len(prices))
	for i, p := range prices {
		details = append(details, TransactionDetail{
			TicketID:  "ticket-" + string(rune('A'+i)),
			UnitPrice: decimal.NewFromInt(p),
		})
	}
	return details
}

func TestNewTransaction(t *testing.T) {
	tests := []struct {
		name            string
		userID          string
		paymentMethodID string
		details         []TransactionDetail
		wantErr         bool
		wantTotal       int64
	}{
		{"single ticket", "user-1", "pm-1", saleDetails(100), false, 100},
		{"three tickets", "user-1", "pm-1", saleDetails(100, 100, 100), false, 300},
		{"missing user", "", "pm-1", saleDetails(100), true, 0},
		{"missing payment method", "user-1", "", saleDetails(100), true, 0},
		{"no details", "user-1", "pm-1", nil, true, 0},
		{"negative price", "user-1", "pm-1", saleDetails(-5), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := NewTransaction(tt.userID, tt.paymentMethodID, tt.details, testNow)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if txn.Status != TransactionStatusCompleted {
				t.Errorf("Expected status COMPLETED, got %s", txn.Status)
			}
			if !txn.TotalAmount.Equal(decimal.NewFromInt(tt.wantTotal)) {
				t.Errorf("Expected total %d, got %s", tt.wantTotal, txn.TotalAmount)
			}
			for _, d := range tt.details {
				if d.TransactionID != txn.ID {
					t.Error("Expected detail to reference the transaction")
				}
			}
			if err := txn.VerifyTotal(tt.details); err != nil {
				t.Errorf("VerifyTotal() error = %v", err)
			}
		})
	}
}

func TestTransaction_VerifyTotal_Mismatch(t *testing.T) {
	details := saleDetails(100, 200)
	txn, err := NewTransaction("user-1", "pm-1", details, testNow)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tampered := saleDetails(100, 100)
	if err := txn.VerifyTotal(tampered); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for mismatched detail sum, got %v", err)
	}
}

func TestNewRefundTransaction(t *testing.T) {
	original, _ := NewTransaction("user-1", "pm-1", saleDetails(100, 100, 100), testNow)

	refund, err := NewRefundTransaction(original, decimal.NewFromInt(300), "refund via gateway", testNow)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !refund.IsRefund {
		t.Error("Expected is_refund to be true")
	}
	if refund.OriginalTransactionID == nil || *refund.OriginalTransactionID != original.ID {
		t.Error("Expected back-reference to the original transaction")
	}
	if !refund.TotalAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected amount 300, got %s", refund.TotalAmount)
	}
	if refund.UserID != original.UserID {
		t.Error("Expected refund to belong to the original buyer")
	}
}

func TestNewRefundTransaction_Invalid(t *testing.T) {
	original, _ := NewTransaction("user-1", "pm-1", saleDetails(100), testNow)

	if _, err := NewRefundTransaction(nil, decimal.NewFromInt(100), "", testNow); err == nil {
		t.Error("Expected error for missing original transaction")
	}
	if _, err := NewRefundTransaction(original, decimal.Zero, "", testNow); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := NewRefundTransaction(original, decimal.NewFromInt(-10), "", testNow); err == nil {
		t.Error("Expected error for negative amount")
	}
}

func TestTransaction_MarkRefunded(t *testing.T) {
	txn, _ := NewTransaction("user-1", "pm-1", saleDetails(100), testNow)

	if err := txn.MarkRefunded(testNow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if txn.Status != TransactionStatusRefunded {
		t.Errorf("Expected status REFUNDED, got %s", txn.Status)
	}

	// Refunding a refunded transaction is an invalid transition
	if err := txn.MarkRefunded(testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransactionStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{TransactionStatusInitiated, TransactionStatusCompleted, true},
		{TransactionStatusCompleted, TransactionStatusRefunded, true},
		{TransactionStatusInitiated, TransactionStatusRefunded, false},
		{TransactionStatusRefunded, TransactionStatusCompleted, false},
		{TransactionStatusCompleted, TransactionStatusInitiated, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}
