package dto

import (
	"time"

	"github.com/showgate/ticketd/internal/domain"
)

// ReserveRequest represents a request to hold inventory during checkout
type ReserveRequest struct {
	EventID   string `json:"event_id" binding:"required"`
	SectionID string `json:"section_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// HoldResponse represents a checkout hold
type HoldResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	SectionID string    `json:"section_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// FromHold converts a domain hold to a HoldResponse
func FromHold(h *domain.Hold) *HoldResponse {
	return &HoldResponse{
		ID:        h.ID,
		EventID:   h.EventID,
		SectionID: h.SectionID,
		Quantity:  h.Quantity,
		CreatedAt: h.CreatedAt,
	}
}

// ReleaseResponse reports whether a hold release found anything to release
type ReleaseResponse struct {
	Released bool `json:"released"`
}
