package searchRepo

import (
	"context"
	"errors"
	"time"

	"fixhive/models"
)

// ErrNotFound is returned when no search state exists for the booking.
var ErrNotFound = errors.New("search state not found")

// ErrVersionConflict is returned when the optimistic save lost to a
// concurrent search cycle for the same booking.
var ErrVersionConflict = errors.New("search state version conflict")

// SearchStateRepository is the data-access boundary for per-booking search
// accumulators. Saves are full-snapshot replacements guarded by a version
// counter; there are no partial mutations.
type SearchStateRepository interface {
	Get(ctx context.Context, bookingID string) (*models.TechnicianSearchState, error)
	// Save upserts the snapshot. state.Version must already be incremented by
	// the caller; the write succeeds only if the stored version is exactly
	// one behind. ErrVersionConflict otherwise.
	Save(ctx context.Context, state *models.TechnicianSearchState) error
	// FindIncomplete returns states not yet completed whose last cycle ran
	// after the cutoff, for the sweeper to re-drive.
	FindIncomplete(ctx context.Context, cutoff time.Time) ([]models.TechnicianSearchState, error)
}
