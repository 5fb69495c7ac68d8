package dto

import (
	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/service"
)

// RefundRequest represents a request to refund a transaction. An empty
// ticket list refunds the whole transaction.
type RefundRequest struct {
	TicketIDs           []string `json:"ticket_ids,omitempty"`
	Reason              string   `json:"reason,omitempty"`
	AllowWalletFallback bool     `json:"allow_wallet_fallback"`
}

// RefundResponse represents the outcome of a refund attempt
type RefundResponse struct {
	Tier             service.RefundTier `json:"tier"`
	Amount           decimal.Decimal    `json:"amount"`
	NewTransactionID string             `json:"new_transaction_id,omitempty"`
	Failure          string             `json:"failure,omitempty"`
}

// FromRefundResult converts a service refund result to a RefundResponse
func FromRefundResult(result *service.RefundResult) *RefundResponse {
	return &RefundResponse{
		Tier:             result.Tier,
		Amount:           result.Amount,
		NewTransactionID: result.NewTransactionID,
		Failure:          result.Failure,
	}
}
