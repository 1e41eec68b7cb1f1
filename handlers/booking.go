package handlers

import (
	"errors"
	"net/http"

	bookingRepo "fixhive/database/repository/booking"
	"fixhive/models"
	"fixhive/services/booking"
	"fixhive/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input models.BookingCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	b, err := h.Service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) GetStatusLogs(c *gin.Context) {
	logs, err := h.Service.ListStatusLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *BookingHandler) RequestSearch(c *gin.Context) {
	result, err := h.Service.RequestSearch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) GetCandidates(c *gin.Context) {
	result, err := h.Service.GetCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type selectTechnicianInput struct {
	TechnicianID string `json:"technicianId" binding:"required"`
	CustomerID   string `json:"customerId" binding:"required"`
}

func (h *BookingHandler) SelectTechnician(c *gin.Context) {
	var input selectTechnicianInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	req, err := h.Service.SelectTechnician(c.Request.Context(), c.Param("id"), input.TechnicianID, input.CustomerID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

type respondRequestInput struct {
	TechnicianID string `json:"technicianId" binding:"required"`
	Accept       *bool  `json:"accept" binding:"required"`
}

func (h *BookingHandler) RespondToRequest(c *gin.Context) {
	var input respondRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	bookingID := c.Param("id")

	if *input.Accept {
		b, err := h.Service.AcceptRequest(c.Request.Context(), bookingID, input.TechnicianID)
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
		return
	}
	if err := h.Service.RejectRequest(c.Request.Context(), bookingID, input.TechnicianID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}

type transitionInput struct {
	Event   booking.Event `json:"event" binding:"required"`
	ActorID string        `json:"actorId" binding:"required"`
	Role    models.Role   `json:"role" binding:"required"`
	Note    string        `json:"note"`
}

func (h *BookingHandler) Transition(c *gin.Context) {
	var input transitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	actor := models.Actor{ID: input.ActorID, Role: input.Role}
	b, err := h.Service.Transition(c.Request.Context(), c.Param("id"), input.Event, actor, input.Note)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type proposeQuoteInput struct {
	TechnicianID   string                   `json:"technicianId" binding:"required"`
	LaborPrice     float64                  `json:"laborPrice"`
	WarrantyMonths int                      `json:"warrantyMonths"`
	Note           string                   `json:"note"`
	NewItems       []booking.QuoteItemInput `json:"newItems"`
}

func (h *BookingHandler) ProposeQuote(c *gin.Context) {
	var input proposeQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	quote, err := h.Service.ProposeQuote(c.Request.Context(), booking.ProposeQuoteInput{
		BookingID:      c.Param("id"),
		TechnicianID:   input.TechnicianID,
		LaborPrice:     input.LaborPrice,
		WarrantyMonths: input.WarrantyMonths,
		Note:           input.Note,
		NewItems:       input.NewItems,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

type resolveQuoteInput struct {
	CustomerID string `json:"customerId" binding:"required"`
	Accept     *bool  `json:"accept" binding:"required"`
}

func (h *BookingHandler) ResolveQuote(c *gin.Context) {
	var input resolveQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	quote, err := h.Service.ResolveQuote(c.Request.Context(), c.Param("id"), input.CustomerID, *input.Accept)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

type checkoutInput struct {
	CustomerID string `json:"customerId" binding:"required"`
}

func (h *BookingHandler) CreateCheckoutLink(c *gin.Context) {
	var input checkoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	url, err := h.Service.CreateCheckoutLink(c.Request.Context(), c.Param("id"), input.CustomerID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkoutUrl": url})
}

// respondBookingError maps service errors onto HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	var (
		validationErr  *booking.ValidationError
		illegalErr     *booking.IllegalTransitionError
		unauthorized   *booking.UnauthorizedActorError
		notAuthorized  *booking.NotAuthorizedError
		assignedErr    *booking.AlreadyAssignedError
		expiredErr     *booking.RequestExpiredError
		persistenceErr *booking.TransientPersistenceError
	)
	switch {
	case errors.Is(err, bookingRepo.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Booking not found", "")
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", validationErr.Msg)
	case errors.As(err, &unauthorized):
		utils.JSONError(c, http.StatusForbidden, "Not allowed", unauthorized.Error())
	case errors.As(err, &notAuthorized):
		utils.JSONError(c, http.StatusForbidden, "Not allowed", notAuthorized.Msg)
	case errors.As(err, &illegalErr):
		utils.JSONError(c, http.StatusConflict, "Illegal transition", illegalErr.Error())
	case errors.As(err, &assignedErr):
		utils.JSONError(c, http.StatusConflict, "Already assigned", assignedErr.Error())
	case errors.As(err, &expiredErr):
		utils.JSONError(c, http.StatusGone, "Request expired", expiredErr.Error())
	case errors.As(err, &persistenceErr):
		utils.JSONError(c, http.StatusServiceUnavailable, "Temporary failure, please retry", "")
	default:
		// Unexpected errors drain through the ErrorHandler middleware.
		_ = c.Error(err)
	}
}
