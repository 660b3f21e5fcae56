package simulator

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	Handler     *BookingHandler
	Hub         *Hub
	JWTSecret   string
	Idempotency IdempotencyCache
	NewRelicApp *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.Idempotency != nil {
		router.Use(IdempotencyMiddleware(deps.Idempotency))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "feed_clients": deps.Hub.ClientCount()})
	})

	// Feed socket.
	router.GET("/ws/feed", deps.Hub.Serve)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.Handler.CreateBooking)
			bookings.GET("", deps.Handler.ListBookings)
			bookings.POST("/:id/accept", BearerAuth(deps.JWTSecret), deps.Handler.AcceptBooking)
		}
	}

	return router
}
