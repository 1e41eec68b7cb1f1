package technicianRepo

import (
	"context"
	"errors"

	"fixhive/models"
)

// ErrNotFound is returned when no technician matches the given ID.
var ErrNotFound = errors.New("technician not found")

// ErrConflict is returned when a conditional update matched no document,
// meaning another writer got there first.
var ErrConflict = errors.New("technician update conflict")

// GeoSearchCriteria defines one radius pass of the expanding search.
type GeoSearchCriteria struct {
	Center         models.GeoPoint
	RadiusKm       float64
	CategoryID     string
	MinBalance     float64
	Availabilities []models.Availability
	ApprovalStatus models.ApprovalStatus
	Limit          int64
}

// TechnicianWithDistance pairs a technician with the computed distance of the
// geo query that found them.
type TechnicianWithDistance struct {
	models.Technician `bson:",inline"`
	DistanceMeters    float64 `bson:"distance"`
}

// TechnicianRepository is the data-access boundary for the technician geo index.
type TechnicianRepository interface {
	// GetByID retrieves a technician by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Technician, error)
	// SearchWithinRadius runs one $geoNear pass with eligibility filters applied.
	SearchWithinRadius(ctx context.Context, criteria GeoSearchCriteria) ([]TechnicianWithDistance, error)
	// UpdateLocation stores a location heartbeat; independent of matching.
	UpdateLocation(ctx context.Context, id string, point models.GeoPoint) error
	// SetAvailability flips availability only when the current value matches
	// from; returns ErrConflict otherwise.
	SetAvailability(ctx context.Context, id string, from, to models.Availability) error
	// RecordCompletion settles a finished job: deducts the commission from the
	// technician's balance and bumps the completed-job counter.
	RecordCompletion(ctx context.Context, id string, commission float64) error
}
