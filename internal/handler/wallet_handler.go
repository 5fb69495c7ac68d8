package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/dto"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/pkg/middleware"
	"github.com/showgate/ticketd/pkg/response"
)

// WalletHandler handles wallet HTTP requests
type WalletHandler struct {
	wallets repository.WalletRepository
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(wallets repository.WalletRepository) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Balance handles GET /wallet - the authenticated user's balance.
// Users without a wallet row read as zero.
func (h *WalletHandler) Balance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(response.ErrCodeUnauthorized, "User ID not found in token"))
		return
	}

	balance, err := h.wallets.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(&dto.WalletResponse{UserID: userID, Balance: balance}))
}
