package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/dto"
	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/pkg/middleware"
	"github.com/showgate/ticketd/pkg/response"
)

// PurchaseHandler handles ticket purchase HTTP requests
type PurchaseHandler struct {
	purchases *service.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchases *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// Create handles POST /purchases - buys tickets for the authenticated user
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	buyerID, ok := middleware.GetUserID(c)
	if !ok || buyerID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(response.ErrCodeUnauthorized, "User ID not found in token"))
		return
	}

	result, err := h.purchases.Purchase(c.Request.Context(), req.ToService(buyerID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.FromPurchaseResult(result)))
}
