package routes

import (
	"net/http"
	"time"

	"fixhive/config"
	"fixhive/handlers"
	"fixhive/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterTechnicianRoutes registers technician-side endpoints.
func RegisterTechnicianRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/technicians")
	{
		api.GET("/:id", hb.Technician.GetTechnician)
		api.PUT("/:id/location", hb.Technician.UpdateLocation)
	}
}

// RegisterPaymentRoutes registers the checkout redirect callbacks.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.GET("/success", hb.Payment.PaymentSuccess)
		api.GET("/cancel", hb.Payment.PaymentCancel)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm FixHive"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterTechnicianRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
}
