package matching

import "fmt"

// SearchPersistenceError reports that a search cycle ran but its snapshot
// could not be persisted even after retrying version conflicts. The computed
// candidates are still returned to the caller.
type SearchPersistenceError struct {
	BookingID string
	Err       error
}

func (e *SearchPersistenceError) Error() string {
	return fmt.Sprintf("failed to persist search state for booking %s: %v", e.BookingID, e.Err)
}

func (e *SearchPersistenceError) Unwrap() error { return e.Err }
