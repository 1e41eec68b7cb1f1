package handlers

import (
	"net/http"

	"fixhive/services/booking"
	"fixhive/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler receives the checkout redirect callbacks. Booking status is
// never touched here; only the payment flag moves.
type PaymentHandler struct {
	Service booking.BookingService
}

func NewPaymentHandler(service booking.BookingService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	bookingID := c.Query("bookingId")
	if bookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "bookingId is required")
		return
	}
	if err := h.Service.HandlePaymentSuccess(c.Request.Context(), bookingID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

func (h *PaymentHandler) PaymentCancel(c *gin.Context) {
	bookingID := c.Query("bookingId")
	if bookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "bookingId is required")
		return
	}
	if err := h.Service.HandlePaymentCancel(c.Request.Context(), bookingID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
