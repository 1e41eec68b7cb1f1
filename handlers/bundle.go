package handlers

// HandlerBundle groups every HTTP handler so route registration takes a
// single dependency.
type HandlerBundle struct {
	Booking    *BookingHandler
	Technician *TechnicianHandler
	Payment    *PaymentHandler
}
