package booking

import (
	"fmt"
	"time"

	"fixhive/models"
)

// ValidationError rejects malformed or out-of-order input; maps to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) *ValidationError { return &ValidationError{Msg: msg} }

// IllegalTransitionError rejects an event the state machine does not allow
// from the booking's current status; maps to 409.
type IllegalTransitionError struct {
	BookingID string
	From      models.BookingStatus
	Event     Event
	Reason    string
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot apply %s to booking %s in status %s: %s", e.Event, e.BookingID, e.From, e.Reason)
	}
	return fmt.Sprintf("cannot apply %s to booking %s in status %s", e.Event, e.BookingID, e.From)
}

// UnauthorizedActorError rejects an actor that may not fire the event on this
// booking; maps to 403.
type UnauthorizedActorError struct {
	BookingID string
	Event     Event
	ActorID   string
	Role      models.Role
}

func (e *UnauthorizedActorError) Error() string {
	return fmt.Sprintf("%s %s may not apply %s to booking %s", e.Role, e.ActorID, e.Event, e.BookingID)
}

// AlreadyAssignedError reports a lost claim race; maps to 409.
type AlreadyAssignedError struct {
	BookingID    string
	TechnicianID string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("booking %s is already assigned to another technician", e.BookingID)
}

// RequestExpiredError reports an accept attempt after the request deadline;
// maps to 410.
type RequestExpiredError struct {
	BookingID    string
	TechnicianID string
	ExpiresAt    time.Time
}

func (e *RequestExpiredError) Error() string {
	return fmt.Sprintf("request for booking %s expired at %s", e.BookingID, e.ExpiresAt.Format(time.RFC3339))
}

// NotAuthorizedError reports a caller acting on a booking or request that is
// not theirs; maps to 403.
type NotAuthorizedError struct {
	Msg string
}

func (e *NotAuthorizedError) Error() string { return e.Msg }

// TransientPersistenceError wraps a storage failure that exhausted its
// retries; the operation may be retried by the caller. Maps to 503.
type TransientPersistenceError struct {
	Op  string
	Err error
}

func (e *TransientPersistenceError) Error() string {
	return fmt.Sprintf("%s failed after retries: %v", e.Op, e.Err)
}

func (e *TransientPersistenceError) Unwrap() error { return e.Err }
