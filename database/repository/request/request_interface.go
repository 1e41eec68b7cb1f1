package requestRepo

import (
	"context"
	"errors"
	"time"

	"fixhive/models"
)

// ErrNotFound is returned when no request matches the lookup.
var ErrNotFound = errors.New("technician request not found")

// ErrConflict is returned when a guarded flip matched no document: the
// request was resolved by a concurrent writer (coordinator or sweeper).
var ErrConflict = errors.New("technician request conflict")

// RequestRepository is the data-access boundary for time-boxed technician
// requests. Requests are never deleted; they only change status under
// conditional updates.
type RequestRepository interface {
	Insert(ctx context.Context, req *models.BookingTechnicianRequest) error
	// GetForPair returns the most recent request for a (booking, technician)
	// pair, regardless of status.
	GetForPair(ctx context.Context, bookingID, technicianID string) (*models.BookingTechnicianRequest, error)
	// MarkResponded flips from → to for the pair's latest request; no-op
	// protection through the status guard (ErrConflict on zero matches).
	MarkResponded(ctx context.Context, bookingID, technicianID string, from, to models.RequestStatus, at time.Time) error
	// ExpirePending bulk-flips PENDING requests past their deadline to
	// EXPIRED. Guarded so a concurrently accepted request is left alone.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.BookingTechnicianRequest, error)
}
