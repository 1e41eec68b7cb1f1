package routes

import (
	"fixhive/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints of the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	booking := r.Group("/api/bookings")
	{
		booking.POST("", hb.Booking.CreateBooking)
		booking.GET("/:id", hb.Booking.GetBooking)
		booking.GET("/:id/logs", hb.Booking.GetStatusLogs)

		// Technician discovery.
		booking.POST("/:id/search", hb.Booking.RequestSearch)
		booking.GET("/:id/candidates", hb.Booking.GetCandidates)

		// Assignment.
		booking.POST("/:id/select", hb.Booking.SelectTechnician)
		booking.POST("/:id/respond", hb.Booking.RespondToRequest)

		// Lifecycle and quoting.
		booking.POST("/:id/transition", hb.Booking.Transition)
		booking.POST("/:id/quote", hb.Booking.ProposeQuote)
		booking.POST("/:id/quote/resolve", hb.Booking.ResolveQuote)

		// Payment.
		booking.POST("/:id/checkout", hb.Booking.CreateCheckoutLink)
	}
}
