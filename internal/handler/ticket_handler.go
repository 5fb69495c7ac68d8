package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/dto"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/pkg/middleware"
	"github.com/showgate/ticketd/pkg/response"
)

// TicketHandler handles single-ticket HTTP requests
type TicketHandler struct {
	tickets *service.TicketService
	repo    repository.TicketRepository
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(tickets *service.TicketService, repo repository.TicketRepository) *TicketHandler {
	return &TicketHandler{tickets: tickets, repo: repo}
}

// Get handles GET /tickets/:id - retrieves a ticket. The verification token
// is included only when the caller owns the ticket.
func (h *TicketHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Ticket ID is required"))
		return
	}

	ticket, err := h.repo.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	callerID, _ := middleware.GetUserID(c)
	c.JSON(http.StatusOK, response.Success(dto.FromTicket(ticket, callerID == ticket.OwnerID)))
}

// Transfer handles POST /tickets/:id/transfer - reassigns a ticket
func (h *TicketHandler) Transfer(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Ticket ID is required"))
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	ticket, err := h.tickets.Transfer(c.Request.Context(), id, req.NewOwnerID, req.AttendeeName, req.AttendeeDocument)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromTicket(ticket, false)))
}

// Cancel handles POST /tickets/:id/cancel - cancels a ticket without refund
func (h *TicketHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Ticket ID is required"))
		return
	}

	ticket, err := h.tickets.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromTicket(ticket, false)))
}

// Verify handles POST /tickets/:id/verify - checks a presented token at the
// gate and marks the ticket used
func (h *TicketHandler) Verify(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Ticket ID is required"))
		return
	}

	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	valid, err := h.tickets.Verify(c.Request.Context(), id, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(&dto.VerifyResponse{Valid: valid, TicketID: id}))
}

// Gift handles POST /tickets/gift - issues complimentary tickets
func (h *TicketHandler) Gift(c *gin.Context) {
	var req dto.GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	tickets, err := h.tickets.IssueGift(c.Request.Context(), &service.GiftRequest{
		EventID:     req.EventID,
		SectionID:   req.SectionID,
		RecipientID: req.RecipientID,
		Quantity:    req.Quantity,
		PromotionID: req.PromotionID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]*dto.TicketResponse, len(tickets))
	for i, t := range tickets {
		responses[i] = dto.FromTicket(t, true)
	}
	c.JSON(http.StatusCreated, response.Success(responses))
}
