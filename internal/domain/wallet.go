package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's internal balance. The balance is only ever mutated
// through additive ledger adjustments, never set directly.
type Wallet struct {
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletEntry is one ledger line: a signed delta with its reason
type WalletEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}
