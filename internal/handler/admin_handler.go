package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/worker"
	"github.com/showgate/ticketd/pkg/response"
)

// AdminHandler exposes the sweep worker for operators
type AdminHandler struct {
	sweeper *worker.SweepWorker
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(sweeper *worker.SweepWorker) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// TriggerSweep handles POST /admin/sweep - runs one sweep immediately
func (h *AdminHandler) TriggerSweep(c *gin.Context) {
	released := h.sweeper.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, response.Success(map[string]int{"released": released}))
}

// SweepStats handles GET /admin/sweep/stats
func (h *AdminHandler) SweepStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(h.sweeper.GetStats()))
}
