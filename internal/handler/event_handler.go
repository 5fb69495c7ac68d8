package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/pkg/response"
)

// EventHandler handles event availability HTTP requests
type EventHandler struct {
	capacity *service.CapacityService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(capacity *service.CapacityService) *EventHandler {
	return &EventHandler{capacity: capacity}
}

// Availability handles GET /events/:id/availability - per-section seat counts
// plus the number of tickets held by in-progress checkouts
func (h *EventHandler) Availability(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	availability, err := h.capacity.EventAvailability(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(availability))
}

// SectionAvailability handles GET /events/:id/sections/:sectionId/availability
func (h *EventHandler) SectionAvailability(c *gin.Context) {
	eventID := c.Param("id")
	sectionID := c.Param("sectionId")
	if eventID == "" || sectionID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID and section ID are required"))
		return
	}

	availability, err := h.capacity.Availability(c.Request.Context(), eventID, sectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(availability))
}
