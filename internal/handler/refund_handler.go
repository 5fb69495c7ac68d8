package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/dto"
	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/pkg/response"
)

// RefundHandler handles refund HTTP requests
type RefundHandler struct {
	refunds *service.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refunds *service.RefundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// Create handles POST /transactions/:id/refund - refunds a transaction,
// fully or for the named tickets only
func (h *RefundHandler) Create(c *gin.Context) {
	transactionID := c.Param("id")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Transaction ID is required"))
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	result, err := h.refunds.Refund(c.Request.Context(), &service.RefundRequest{
		TransactionID:       transactionID,
		TicketIDs:           req.TicketIDs,
		Reason:              req.Reason,
		AllowWalletFallback: req.AllowWalletFallback,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromRefundResult(result)))
}
