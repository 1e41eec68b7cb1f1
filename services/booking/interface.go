package booking

import (
	"context"

	bookingRepo "fixhive/database/repository/booking"
	customerRepo "fixhive/database/repository/customer"
	requestRepo "fixhive/database/repository/request"
	technicianRepo "fixhive/database/repository/technician"
	"fixhive/models"
	"fixhive/services/geocoder"
	"fixhive/services/matching"
	"fixhive/services/notification"
	"fixhive/services/payment"
	"fixhive/services/realtime"

	"go.uber.org/zap"
)

// ProposeQuoteInput carries a technician's pricing proposal.
type ProposeQuoteInput struct {
	BookingID      string
	TechnicianID   string
	LaborPrice     float64
	WarrantyMonths int
	Note           string
	NewItems       []QuoteItemInput
}

// QuoteItemInput is one proposed extra line item.
type QuoteItemInput struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
}

// BookingService is the application boundary for the booking lifecycle:
// creation, technician discovery, assignment, quoting, completion, payment.
type BookingService interface {
	CreateBooking(ctx context.Context, input models.BookingCreateInput) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListStatusLogs(ctx context.Context, bookingID string) ([]models.BookingStatusLog, error)

	// RequestSearch runs a discovery cycle with filters derived from the booking.
	RequestSearch(ctx context.Context, bookingID string) (*matching.SearchResult, error)
	GetCandidates(ctx context.Context, bookingID string) (*matching.SearchResult, error)

	// SelectTechnician opens a time-boxed request toward one candidate.
	SelectTechnician(ctx context.Context, bookingID, technicianID, customerID string) (*models.BookingTechnicianRequest, error)
	// AcceptRequest is the technician's claim attempt; at most one technician
	// per booking ever succeeds.
	AcceptRequest(ctx context.Context, bookingID, technicianID string) (*models.Booking, error)
	RejectRequest(ctx context.Context, bookingID, technicianID string) error

	// Transition fires a lifecycle event (completion, cancellation, ...)
	// through the state machine.
	Transition(ctx context.Context, bookingID string, event Event, actor models.Actor, note string) (*models.Booking, error)

	ProposeQuote(ctx context.Context, input ProposeQuoteInput) (*models.Quote, error)
	// ResolveQuote applies the customer's verdict to every pending item at once.
	ResolveQuote(ctx context.Context, bookingID, customerID string, accept bool) (*models.Quote, error)

	CreateCheckoutLink(ctx context.Context, bookingID, customerID string) (string, error)
	HandlePaymentSuccess(ctx context.Context, bookingID string) error
	HandlePaymentCancel(ctx context.Context, bookingID string) error
}

// DefaultBookingService implements BookingService. Dependencies are exported
// so tests can assemble the service with fakes.
type DefaultBookingService struct {
	Bookings    bookingRepo.BookingRepository
	Requests    requestRepo.RequestRepository
	Technicians technicianRepo.TechnicianRepository
	Customers   customerRepo.CustomerRepository
	Engine      matching.Engine
	Notifier    notification.Sink
	Realtime    realtime.Channel
	Payments    payment.Gateway
	Commission  CommissionStrategy
	Geocoder    geocoder.Geocoder
	Logger      *zap.Logger
}

var _ BookingService = (*DefaultBookingService)(nil)
