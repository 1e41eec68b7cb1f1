package bookingRepo

import (
	"context"
	"errors"

	"fixhive/models"
)

// ErrNotFound is returned when no booking matches the given ID.
var ErrNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a guarded status flip matched no
// document: the booking moved on under a concurrent writer.
var ErrStatusConflict = errors.New("booking status conflict")

// ErrAlreadyAssigned is returned when the atomic claim loses the race to
// another technician.
var ErrAlreadyAssigned = errors.New("booking already assigned")

// StatusTransition is one guarded status flip plus its audit row, applied as
// a single unit of work.
type StatusTransition struct {
	BookingID string
	From      models.BookingStatus
	To        models.BookingStatus
	Log       models.BookingStatusLog
	// Set carries extra document fields written together with the flip
	// (quote snapshot, cancellation metadata, warranty expiry, final price).
	Set map[string]interface{}
	// ClearTechnician unsets the assignment slot together with the flip.
	ClearTechnician bool
	// ReleaseTechnicianID, when non-empty, flips that technician back to FREE
	// in the same unit of work.
	ReleaseTechnicianID string
}

// FinalizeAssignmentParams completes a successful claim: winner request
// accepted, siblings rejected, booking in progress, technician on the job,
// quote ledger initialised. All or nothing.
type FinalizeAssignmentParams struct {
	BookingID    string
	TechnicianID string
	Quote        models.Quote
	Log          models.BookingStatusLog
}

// BookingRepository is the data-access boundary for bookings and their audit
// trail. All conditional methods report conflicts instead of silently
// overwriting.
type BookingRepository interface {
	Insert(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// ApplyTransition performs a compare-and-swap on the status field and
	// writes the immutable status log entry. ErrStatusConflict when the
	// booking is no longer in the expected From status.
	ApplyTransition(ctx context.Context, t StatusTransition) error
	// Claim atomically assigns the technician slot: succeeds only while the
	// slot is empty and the booking awaits confirmation. Exactly one caller
	// wins under concurrency; losers get ErrAlreadyAssigned. Idempotent for
	// the winning technician.
	Claim(ctx context.Context, bookingID, technicianID string) error
	// FinalizeAssignment applies every post-claim write transactionally.
	FinalizeAssignment(ctx context.Context, p FinalizeAssignmentParams) error
	// ReleaseAssignment is the compensating action when finalization fails
	// for good: clears the slot and re-opens the booking for claiming.
	ReleaseAssignment(ctx context.Context, bookingID, technicianID string) error
	// SetPaymentStatus records a payment-gateway outcome. Never touches the
	// booking status.
	SetPaymentStatus(ctx context.Context, bookingID string, status models.PaymentStatus) error
	ListStatusLogs(ctx context.Context, bookingID string) ([]models.BookingStatusLog, error)
}
