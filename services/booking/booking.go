package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "fixhive/database/repository/booking"
	customerRepo "fixhive/database/repository/customer"
	"fixhive/models"
	"fixhive/services/matching"
	"fixhive/services/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// minTechnicianBalance keeps technicians who cannot cover the platform cut
// out of the candidate pool.
const minTechnicianBalance = 10.0

func (s *DefaultBookingService) CreateBooking(ctx context.Context, input models.BookingCreateInput) (*models.Booking, error) {
	if !input.ExpectedEndAt.IsZero() && input.ExpectedEndAt.Before(input.ScheduledAt) {
		return nil, NewValidationError("expectedEndAt must be after scheduledAt")
	}

	if _, err := s.Customers.GetByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, customerRepo.ErrNotFound) {
			return nil, NewValidationError("unknown customer")
		}
		return nil, fmt.Errorf("failed to verify customer %s: %w", input.CustomerID, err)
	}

	var location models.GeoPoint
	if input.Lat != nil && input.Lon != nil {
		location = models.NewGeoPoint(*input.Lat, *input.Lon)
	} else {
		resolved, err := s.Geocoder.Resolve(ctx, input.Address)
		if err != nil {
			return nil, NewValidationError("could not resolve the booking address")
		}
		location = resolved
	}

	now := time.Now()
	b := &models.Booking{
		ID:            uuid.NewString(),
		CustomerID:    input.CustomerID,
		ServiceID:     input.ServiceID,
		CategoryID:    input.CategoryID,
		LocationGeo:   location,
		Address:       input.Address,
		ScheduledAt:   input.ScheduledAt,
		ExpectedEndAt: input.ExpectedEndAt,
		Urgent:        input.Urgent,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		ChatEnabled:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Bookings.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	// Discovery starts immediately; a failed first cycle never fails the
	// booking, the sweeper will drive it forward.
	if _, err := s.Engine.Search(ctx, b.ID, s.searchParams(b)); err != nil {
		s.Logger.Warn("initial technician search failed",
			zap.String("bookingId", b.ID), zap.Error(err))
	}
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

func (s *DefaultBookingService) ListStatusLogs(ctx context.Context, bookingID string) ([]models.BookingStatusLog, error) {
	return s.Bookings.ListStatusLogs(ctx, bookingID)
}

func (s *DefaultBookingService) RequestSearch(ctx context.Context, bookingID string) (*matching.SearchResult, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, NewValidationError("booking is closed")
	}
	if b.TechnicianID != "" {
		return nil, NewValidationError("booking is already assigned")
	}
	return s.Engine.Search(ctx, b.ID, s.searchParams(b))
}

func (s *DefaultBookingService) GetCandidates(ctx context.Context, bookingID string) (*matching.SearchResult, error) {
	return s.Engine.Candidates(ctx, bookingID)
}

func (s *DefaultBookingService) searchParams(b *models.Booking) models.SearchParams {
	return models.SearchParams{
		CustomerID:     b.CustomerID,
		Center:         b.LocationGeo,
		ServiceID:      b.ServiceID,
		CategoryID:     b.CategoryID,
		MinBalance:     minTechnicianBalance,
		Availabilities: []models.Availability{models.AvailabilityFree},
		ApprovalStatus: models.ApprovalApproved,
	}
}

// Transition fires a lifecycle event through the state machine and applies
// its side effects in the same guarded write.
func (s *DefaultBookingService) Transition(ctx context.Context, bookingID string, event Event, actor models.Actor, note string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	to, err := plan(b, event, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := bookingRepo.StatusTransition{
		BookingID: bookingID,
		From:      b.Status,
		To:        to,
		Log:       newStatusLog(bookingID, b.Status, to, actor, note),
		Set:       map[string]interface{}{},
	}
	switch to {
	case models.BookingCancelled:
		t.Set["cancellation"] = &models.CancellationInfo{
			ByID:        actor.ID,
			ByRole:      actor.Role,
			Reason:      note,
			CancelledAt: now,
		}
		if b.TechnicianID != "" {
			t.ClearTechnician = true
			if b.Status.Assigned() {
				t.ReleaseTechnicianID = b.TechnicianID
			}
		}
	case models.BookingDone, models.BookingAutoDone:
		if b.Quote != nil && b.Quote.WarrantyMonths > 0 {
			t.Set["warrantyUntil"] = now.AddDate(0, b.Quote.WarrantyMonths, 0)
		}
		t.ReleaseTechnicianID = b.TechnicianID
	}

	if err := s.Bookings.ApplyTransition(ctx, t); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return nil, &IllegalTransitionError{BookingID: bookingID, From: b.Status, Event: event, Reason: "booking changed concurrently"}
		}
		return nil, fmt.Errorf("failed to apply %s to booking %s: %w", event, bookingID, err)
	}

	s.afterTransition(ctx, b, to, actor)

	return s.Bookings.GetByID(ctx, bookingID)
}

// afterTransition handles best-effort follow-ups: commission settlement and
// fan-out. None of these can roll the transition back.
func (s *DefaultBookingService) afterTransition(ctx context.Context, b *models.Booking, to models.BookingStatus, actor models.Actor) {
	switch to {
	case models.BookingDone, models.BookingAutoDone:
		commission := s.Commission.Commission(b.FinalPrice)
		if b.TechnicianID != "" && commission > 0 {
			if err := s.Technicians.RecordCompletion(ctx, b.TechnicianID, commission); err != nil {
				s.Logger.Error("commission settlement failed",
					zap.String("bookingId", b.ID),
					zap.String("technicianId", b.TechnicianID),
					zap.Float64("commission", commission),
					zap.Error(err))
			}
		}
		s.notifyTechnician(ctx, b.TechnicianID, "Job completed", "The customer confirmed completion of the booking.", b.ID)
		s.publish(ctx, realtime.TechnicianRoom(b.TechnicianID), "booking:completed", b.ID)
	case models.BookingWaitingConfirm:
		s.notifyCustomer(ctx, b.CustomerID, "Work finished", "Your technician marked the job as finished. Please review and confirm.", b.ID)
		s.publish(ctx, realtime.CustomerRoom(b.CustomerID), "booking:completion_requested", b.ID)
	case models.BookingCancelled:
		if actor.Role != models.RoleCustomer {
			s.notifyCustomer(ctx, b.CustomerID, "Booking cancelled", "Your booking was cancelled.", b.ID)
		}
		if b.TechnicianID != "" && actor.Role != models.RoleTechnician {
			s.notifyTechnician(ctx, b.TechnicianID, "Booking cancelled", "A booking assigned to you was cancelled.", b.ID)
		}
		s.publish(ctx, realtime.CustomerRoom(b.CustomerID), "booking:cancelled", b.ID)
		if b.TechnicianID != "" {
			s.publish(ctx, realtime.TechnicianRoom(b.TechnicianID), "booking:cancelled", b.ID)
		}
	}
}

func (s *DefaultBookingService) CreateCheckoutLink(ctx context.Context, bookingID, customerID string) (string, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.CustomerID != customerID {
		return "", &NotAuthorizedError{Msg: "booking belongs to another customer"}
	}
	if b.Status.Terminal() {
		return "", NewValidationError("booking is closed")
	}
	if b.PaymentStatus == models.PaymentPaid {
		return "", NewValidationError("booking is already paid")
	}
	if b.FinalPrice <= 0 {
		return "", NewValidationError("booking has no payable amount yet")
	}
	url, err := s.Payments.CreateCheckoutLink(ctx, b.ID, "Service booking "+b.ServiceID, b.FinalPrice)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout link for booking %s: %w", bookingID, err)
	}
	return url, nil
}

func (s *DefaultBookingService) HandlePaymentSuccess(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.PaymentStatus == models.PaymentPaid {
		return nil
	}
	if err := s.Bookings.SetPaymentStatus(ctx, bookingID, models.PaymentPaid); err != nil {
		return fmt.Errorf("failed to mark booking %s paid: %w", bookingID, err)
	}
	s.notifyCustomer(ctx, b.CustomerID, "Payment received", "Your payment was received. You can now confirm completion.", b.ID)
	s.notifyTechnician(ctx, b.TechnicianID, "Booking paid", "The customer paid for the booking.", b.ID)
	s.publish(ctx, realtime.CustomerRoom(b.CustomerID), "booking:paid", b.ID)
	if b.TechnicianID != "" {
		s.publish(ctx, realtime.TechnicianRoom(b.TechnicianID), "booking:paid", b.ID)
	}
	return nil
}

func (s *DefaultBookingService) HandlePaymentCancel(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	s.Logger.Info("payment cancelled at checkout", zap.String("bookingId", bookingID))
	s.notifyCustomer(ctx, b.CustomerID, "Payment not completed", "Your checkout was cancelled. The booking is still awaiting payment.", b.ID)
	return nil
}

func (s *DefaultBookingService) notifyCustomer(ctx context.Context, customerID, title, body, bookingID string) {
	s.notify(ctx, models.PushTargetCustomer, customerID, title, body, bookingID)
}

func (s *DefaultBookingService) notifyTechnician(ctx context.Context, technicianID, title, body, bookingID string) {
	s.notify(ctx, models.PushTargetTechnician, technicianID, title, body, bookingID)
}

func (s *DefaultBookingService) notify(ctx context.Context, target, id, title, body, bookingID string) {
	if s.Notifier == nil || id == "" {
		return
	}
	if err := s.Notifier.Notify(ctx, target, id, title, body, "booking", bookingID); err != nil {
		s.Logger.Warn("notification failed",
			zap.String("target", target), zap.String("id", id), zap.Error(err))
	}
}

func (s *DefaultBookingService) publish(ctx context.Context, room, event string, bookingID string) {
	if s.Realtime == nil {
		return
	}
	payload := map[string]string{"bookingId": bookingID}
	if err := s.Realtime.Publish(ctx, room, event, payload); err != nil {
		s.Logger.Warn("realtime publish failed",
			zap.String("room", room), zap.String("event", event), zap.Error(err))
	}
}

func newStatusLog(bookingID string, from, to models.BookingStatus, actor models.Actor, note string) models.BookingStatusLog {
	return models.BookingStatusLog{
		ID:         uuid.NewString(),
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Note:       note,
		CreatedAt:  time.Now(),
	}
}
