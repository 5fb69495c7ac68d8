package dto

// TransferRequest represents a request to reassign a ticket
type TransferRequest struct {
	NewOwnerID       string `json:"new_owner_id" binding:"required"`
	AttendeeName     string `json:"attendee_name,omitempty"`
	AttendeeDocument string `json:"attendee_document,omitempty"`
}

// VerifyRequest represents a gate-side verification of a presented token
type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyResponse represents the verification outcome
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	TicketID string `json:"ticket_id"`
}

// GiftRequest represents a request to issue complimentary tickets
type GiftRequest struct {
	EventID     string  `json:"event_id" binding:"required"`
	SectionID   string  `json:"section_id" binding:"required"`
	RecipientID string  `json:"recipient_id" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	PromotionID *string `json:"promotion_id,omitempty"`
}
