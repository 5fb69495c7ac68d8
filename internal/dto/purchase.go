package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/service"
)

// PurchaseItemRequest is one requested ticket in a purchase basket
type PurchaseItemRequest struct {
	SectionID        string          `json:"section_id" binding:"required"`
	Price            decimal.Decimal `json:"price"`
	AttendeeName     string          `json:"attendee_name,omitempty"`
	AttendeeDocument string          `json:"attendee_document,omitempty"`
	PromotionID      *string         `json:"promotion_id,omitempty"`
}

// PurchaseRequest represents a request to buy tickets for an event
type PurchaseRequest struct {
	EventID         string                `json:"event_id" binding:"required"`
	PaymentMethodID string                `json:"payment_method_id" binding:"required"`
	Items           []PurchaseItemRequest `json:"items" binding:"required,min=1"`
}

// ToService converts the request to the service layer's form
func (r *PurchaseRequest) ToService(buyerID string) *service.PurchaseRequest {
	items := make([]service.PurchaseItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.PurchaseItem{
			SectionID:        item.SectionID,
			Price:            item.Price,
			AttendeeName:     item.AttendeeName,
			AttendeeDocument: item.AttendeeDocument,
			PromotionID:      item.PromotionID,
		}
	}
	return &service.PurchaseRequest{
		EventID:         r.EventID,
		BuyerID:         buyerID,
		PaymentMethodID: r.PaymentMethodID,
		Items:           items,
	}
}

// TicketResponse represents a ticket in API responses. The verification
// token is only ever returned to the ticket's owner.
type TicketResponse struct {
	ID                string              `json:"id"`
	EventID           string              `json:"event_id"`
	SectionID         string              `json:"section_id"`
	OwnerID           string              `json:"owner_id"`
	AttendeeName      string              `json:"attendee_name,omitempty"`
	Status            domain.TicketStatus `json:"status"`
	Price             *decimal.Decimal    `json:"price,omitempty"`
	Code              string              `json:"code"`
	VerificationToken string              `json:"verification_token,omitempty"`
	PurchasedAt       time.Time           `json:"purchased_at"`
	UsedAt            *time.Time          `json:"used_at,omitempty"`
}

// FromTicket converts a domain ticket to a TicketResponse
func FromTicket(t *domain.Ticket, includeToken bool) *TicketResponse {
	resp := &TicketResponse{
		ID:           t.ID,
		EventID:      t.EventID,
		SectionID:    t.SectionID,
		OwnerID:      t.OwnerID,
		AttendeeName: t.AttendeeName,
		Status:       t.Status,
		Price:        t.Price,
		Code:         t.Code,
		PurchasedAt:  t.PurchasedAt,
		UsedAt:       t.UsedAt,
	}
	if includeToken {
		resp.VerificationToken = t.VerificationToken
	}
	return resp
}

// PurchaseResponse represents a completed purchase
type PurchaseResponse struct {
	TransactionID string            `json:"transaction_id"`
	Tickets       []*TicketResponse `json:"tickets"`
}

// FromPurchaseResult converts a service purchase result to a PurchaseResponse
func FromPurchaseResult(result *service.PurchaseResult) *PurchaseResponse {
	tickets := make([]*TicketResponse, len(result.Tickets))
	for i, t := range result.Tickets {
		tickets[i] = FromTicket(t, true)
	}
	return &PurchaseResponse{
		TransactionID: result.TransactionID,
		Tickets:       tickets,
	}
}
