package dto

import "github.com/shopspring/decimal"

// WalletResponse represents a user's wallet balance
type WalletResponse struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}
