package notify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event type names carried in every notification payload
const (
	EventTypePurchaseCompleted = "ticket.purchase-completed"
	EventTypeRefundCompleted   = "ticket.refund-completed"
	EventTypeTicketTransferred = "ticket.transferred"
	EventTypeEventSoldOut      = "event.sold-out"
)

// PurchaseCompletedEvent is published after a purchase transaction commits
type PurchaseCompletedEvent struct {
	EventType     string          `json:"event_type"`
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	EventID       string          `json:"event_id"`
	TicketIDs     []string        `json:"ticket_ids"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Key returns the message key for partitioning
func (e *PurchaseCompletedEvent) Key() string {
	return e.TransactionID
}

// RefundCompletedEvent is published after a refund settles, through either
// the gateway or the wallet
type RefundCompletedEvent struct {
	EventType             string          `json:"event_type"`
	RefundTransactionID   string          `json:"refund_transaction_id"`
	OriginalTransactionID string          `json:"original_transaction_id"`
	UserID                string          `json:"user_id"`
	Amount                decimal.Decimal `json:"amount"`
	Destination           string          `json:"destination"` // "gateway" or "wallet"
	Timestamp             time.Time       `json:"timestamp"`
}

// Key returns the message key for partitioning
func (e *RefundCompletedEvent) Key() string {
	return e.OriginalTransactionID
}

// TicketTransferredEvent is published when a ticket changes hands
type TicketTransferredEvent struct {
	EventType  string    `json:"event_type"`
	TicketID   string    `json:"ticket_id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Key returns the message key for partitioning
func (e *TicketTransferredEvent) Key() string {
	return e.TicketID
}

// EventSoldOutEvent is published when sellout detection flips an event to
// SOLD_OUT
type EventSoldOutEvent struct {
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the message key for partitioning
func (e *EventSoldOutEvent) Key() string {
	return e.EventID
}
