package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "fixhive/database/repository/booking"
	requestRepo "fixhive/database/repository/request"
	technicianRepo "fixhive/database/repository/technician"
	"fixhive/models"
	"fixhive/services/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	urgentRequestTTL = 15 * time.Minute
	normalRequestTTL = 24 * time.Hour
)

// SelectTechnician opens a time-boxed request toward one technician. Several
// requests for the same booking may be open at once; the first accept wins.
func (s *DefaultBookingService) SelectTechnician(ctx context.Context, bookingID, technicianID, customerID string) (*models.BookingTechnicianRequest, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	actor := models.Actor{ID: customerID, Role: models.RoleCustomer}
	if _, err := plan(b, EventSelectTechnician, actor); err != nil {
		return nil, err
	}
	if b.TechnicianID != "" {
		return nil, &AlreadyAssignedError{BookingID: bookingID, TechnicianID: b.TechnicianID}
	}

	tech, err := s.Technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, technicianRepo.ErrNotFound) {
			return nil, NewValidationError("unknown technician")
		}
		return nil, fmt.Errorf("failed to verify technician %s: %w", technicianID, err)
	}
	if tech.ApprovalStatus != models.ApprovalApproved {
		return nil, NewValidationError("technician is not approved")
	}

	now := time.Now()
	if existing, err := s.Requests.GetForPair(ctx, bookingID, technicianID); err == nil && existing.Live(now) {
		return nil, NewValidationError("technician already has an open request for this booking")
	}

	ttl := normalRequestTTL
	if b.Urgent {
		ttl = urgentRequestTTL
	}
	req := &models.BookingTechnicianRequest{
		ID:           uuid.NewString(),
		BookingID:    bookingID,
		TechnicianID: technicianID,
		Status:       models.RequestPending,
		RequestedAt:  now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.Requests.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create technician request: %w", err)
	}

	if b.Status == models.BookingPending {
		t := bookingRepo.StatusTransition{
			BookingID: bookingID,
			From:      models.BookingPending,
			To:        models.BookingAwaitingConfirm,
			Log:       newStatusLog(bookingID, models.BookingPending, models.BookingAwaitingConfirm, actor, "technician requested"),
		}
		if err := s.Bookings.ApplyTransition(ctx, t); err != nil {
			// A concurrent select may have flipped the status already; only a
			// genuinely diverged booking is an error.
			if !errors.Is(err, bookingRepo.ErrStatusConflict) {
				return nil, fmt.Errorf("failed to open booking %s for confirmation: %w", bookingID, err)
			}
			current, gerr := s.Bookings.GetByID(ctx, bookingID)
			if gerr != nil || current.Status != models.BookingAwaitingConfirm {
				return nil, &IllegalTransitionError{BookingID: bookingID, From: b.Status, Event: EventSelectTechnician, Reason: "booking changed concurrently"}
			}
		}
	}

	s.notifyTechnician(ctx, technicianID, "New job request", "A customer wants to book you for a job.", bookingID)
	s.publish(ctx, realtime.TechnicianRoom(technicianID), "request:new", bookingID)
	return req, nil
}

// AcceptRequest is the technician's claim attempt. The claim itself is a
// single conditional write, so under concurrent accepts exactly one
// technician wins. Every read happens before the claim; the only fallible
// step after it is the finalize transaction, which is retried and then
// undone with a compensating release, so a claim can never stay
// half-applied.
func (s *DefaultBookingService) AcceptRequest(ctx context.Context, bookingID, technicianID string) (*models.Booking, error) {
	req, err := s.Requests.GetForPair(ctx, bookingID, technicianID)
	if err != nil {
		if errors.Is(err, requestRepo.ErrNotFound) {
			return nil, &NotAuthorizedError{Msg: "no request for this technician on this booking"}
		}
		return nil, fmt.Errorf("failed to load request for booking %s: %w", bookingID, err)
	}

	now := time.Now()
	switch req.Status {
	case models.RequestAccepted:
		// Retried accept after a network blip; succeed if we really won.
		b, err := s.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if b.TechnicianID == technicianID {
			return b, nil
		}
		return nil, &AlreadyAssignedError{BookingID: bookingID, TechnicianID: b.TechnicianID}
	case models.RequestRejected:
		return nil, NewValidationError("request was already declined")
	case models.RequestExpired:
		return nil, &RequestExpiredError{BookingID: bookingID, TechnicianID: technicianID, ExpiresAt: req.ExpiresAt}
	}

	// Deadline is re-checked at the claim moment, not at page-load time.
	if !req.Live(now) {
		if err := s.Requests.MarkResponded(ctx, bookingID, technicianID, models.RequestPending, models.RequestExpired, now); err != nil && !errors.Is(err, requestRepo.ErrConflict) {
			s.Logger.Warn("failed to expire stale request",
				zap.String("bookingId", bookingID), zap.String("technicianId", technicianID), zap.Error(err))
		}
		return nil, &RequestExpiredError{BookingID: bookingID, TechnicianID: technicianID, ExpiresAt: req.ExpiresAt}
	}

	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tech, err := s.Technicians.GetByID(ctx, technicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to load technician %s: %w", technicianID, err)
	}

	quote := models.Quote{
		LaborPrice: tech.RateFor(b.ServiceID),
		Items:      []models.QuoteItem{},
		QuotedAt:   now,
	}
	quote.RecomputeTotal()

	actor := models.Actor{ID: technicianID, Role: models.RoleTechnician}
	params := bookingRepo.FinalizeAssignmentParams{
		BookingID:    bookingID,
		TechnicianID: technicianID,
		Quote:        quote,
		Log:          newStatusLog(bookingID, models.BookingAwaitingConfirm, models.BookingInProgress, actor, "request accepted"),
	}

	if err := s.Bookings.Claim(ctx, bookingID, technicianID); err != nil {
		if errors.Is(err, bookingRepo.ErrAlreadyAssigned) {
			if current, gerr := s.Bookings.GetByID(ctx, bookingID); gerr == nil && current.Status.Terminal() {
				return nil, &IllegalTransitionError{BookingID: bookingID, From: current.Status, Event: EventAssign, Reason: "booking is closed"}
			}
			return nil, &AlreadyAssignedError{BookingID: bookingID, TechnicianID: technicianID}
		}
		return nil, fmt.Errorf("failed to claim booking %s: %w", bookingID, err)
	}

	err = withRetry(ctx, finalizeAttempts, retryBackoffBase, func() error {
		return s.Bookings.FinalizeAssignment(ctx, params)
	})
	if err != nil {
		// The claim must not stay half-applied; give the slot back so another
		// technician (or a retry) can take it.
		if rerr := s.Bookings.ReleaseAssignment(ctx, bookingID, technicianID); rerr != nil {
			s.Logger.Error("failed to release claim after finalize failure",
				zap.String("bookingId", bookingID), zap.String("technicianId", technicianID), zap.Error(rerr))
		}
		return nil, &TransientPersistenceError{Op: "finalize assignment", Err: err}
	}

	s.notifyCustomer(ctx, b.CustomerID, "Technician confirmed", tech.FullName+" accepted your booking.", bookingID)
	s.publish(ctx, realtime.CustomerRoom(b.CustomerID), "booking:assigned", bookingID)
	s.publish(ctx, realtime.TechnicianRoom(technicianID), "booking:assigned", bookingID)

	final, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		// The assignment is durable; answer from what was just written.
		s.Logger.Warn("failed to re-read booking after assignment",
			zap.String("bookingId", bookingID), zap.Error(err))
		b.TechnicianID = technicianID
		b.Status = models.BookingInProgress
		q := quote
		b.Quote = &q
		b.FinalPrice = q.TotalAmount
		return b, nil
	}
	return final, nil
}

// RejectRequest declines a pending request. Rejecting twice is a no-op.
func (s *DefaultBookingService) RejectRequest(ctx context.Context, bookingID, technicianID string) error {
	now := time.Now()
	err := s.Requests.MarkResponded(ctx, bookingID, technicianID, models.RequestPending, models.RequestRejected, now)
	if err != nil {
		if !errors.Is(err, requestRepo.ErrConflict) {
			return fmt.Errorf("failed to decline request for booking %s: %w", bookingID, err)
		}
		req, gerr := s.Requests.GetForPair(ctx, bookingID, technicianID)
		if gerr != nil {
			return &NotAuthorizedError{Msg: "no request for this technician on this booking"}
		}
		switch req.Status {
		case models.RequestRejected:
			return nil
		case models.RequestExpired:
			return &RequestExpiredError{BookingID: bookingID, TechnicianID: technicianID, ExpiresAt: req.ExpiresAt}
		case models.RequestAccepted:
			return NewValidationError("request was already accepted")
		default:
			return fmt.Errorf("failed to decline request for booking %s: %w", bookingID, err)
		}
	}

	b, gerr := s.Bookings.GetByID(ctx, bookingID)
	if gerr == nil {
		s.notifyCustomer(ctx, b.CustomerID, "Technician declined", "A technician declined your request. Pick another candidate.", bookingID)
		s.publish(ctx, realtime.CustomerRoom(b.CustomerID), "request:declined", bookingID)
	}
	return nil
}
