package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/pkg/logger"
	"github.com/showgate/ticketd/pkg/middleware"
	"github.com/showgate/ticketd/pkg/response"
)

// Handlers bundles every HTTP handler for route registration
type Handlers struct {
	Purchases    *PurchaseHandler
	Refunds      *RefundHandler
	Tickets      *TicketHandler
	Events       *EventHandler
	Reservations *ReservationHandler
	Wallets      *WalletHandler
	Admin        *AdminHandler
}

// RouterConfig holds router-level settings
type RouterConfig struct {
	JWTSecret string
	Debug     bool
}

// SetupRouter builds the gin engine with middleware and all routes
func SetupRouter(h *Handlers, log *logger.Logger, cfg *RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(log, nil))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(map[string]string{"status": "ok"}))
	})

	// Availability is public: buyers browse before they authenticate
	router.GET("/api/v1/events/:id/availability", h.Events.Availability)
	router.GET("/api/v1/events/:id/sections/:sectionId/availability", h.Events.SectionAvailability)

	api := router.Group("/api/v1")
	api.Use(middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWTSecret}))
	{
		api.POST("/purchases", h.Purchases.Create)
		api.POST("/transactions/:id/refund", h.Refunds.Create)

		api.GET("/tickets/:id", h.Tickets.Get)
		api.POST("/tickets/:id/transfer", h.Tickets.Transfer)

		api.POST("/holds", h.Reservations.Create)
		api.DELETE("/holds/:id", h.Reservations.Release)

		api.GET("/wallet", h.Wallets.Balance)
	}

	staff := api.Group("")
	staff.Use(middleware.RequireRole("staff", "admin"))
	{
		staff.POST("/tickets/:id/verify", h.Tickets.Verify)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.POST("/tickets/gift", h.Tickets.Gift)
		admin.POST("/tickets/:id/cancel", h.Tickets.Cancel)
		admin.POST("/sweep", h.Admin.TriggerSweep)
		admin.GET("/sweep/stats", h.Admin.SweepStats)
	}

	return router
}
