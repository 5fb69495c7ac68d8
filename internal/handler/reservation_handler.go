package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/dto"
	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/pkg/middleware"
	"github.com/showgate/ticketd/pkg/response"
)

// ReservationHandler handles checkout hold HTTP requests
type ReservationHandler struct {
	reservations *service.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Create handles POST /holds - claims inventory for a checkout in progress
func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(response.ErrCodeUnauthorized, "User ID not found in token"))
		return
	}

	hold, err := h.reservations.Reserve(c.Request.Context(), req.EventID, req.SectionID, userID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.FromHold(hold)))
}

// Release handles DELETE /holds/:id - returns a hold's inventory
func (h *ReservationHandler) Release(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Hold ID is required"))
		return
	}

	released, err := h.reservations.Release(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(&dto.ReleaseResponse{Released: released}))
}
