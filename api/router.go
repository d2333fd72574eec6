package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth          *AuthHandler
	Flights       *FlightHandler
	Hotels        *HotelHandler
	Bookings      *BookingHandler
	Notifications *NotificationHandler
}

// Register mounts every resource under router. Authenticate must already be
// in router's chain for the protected groups to see an identity.
func (h Handlers) Register(router gin.IRouter) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.Auth.Register(router.Group("/auth"))
	h.Flights.Register(router.Group("/flights"))
	h.Hotels.Register(router.Group("/hotels"))
	h.Bookings.Register(router.Group("/bookings"))
	h.Notifications.Register(router.Group("/notifications"))
}
