package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "fixhive/database/repository/booking"
	"fixhive/models"
	"fixhive/services/realtime"

	"github.com/google/uuid"
)

// ProposeQuote lets the assigned technician adjust labor pricing and append
// extra line items. New items land as PENDING and never count toward the
// total until the customer accepts them.
func (s *DefaultBookingService) ProposeQuote(ctx context.Context, input ProposeQuoteInput) (*models.Quote, error) {
	if input.LaborPrice < 0 {
		return nil, NewValidationError("laborPrice cannot be negative")
	}
	if input.LaborPrice == 0 && len(input.NewItems) == 0 {
		return nil, NewValidationError("nothing proposed")
	}
	for _, it := range input.NewItems {
		if it.Name == "" || it.Price <= 0 || it.Quantity <= 0 {
			return nil, NewValidationError("quote items need a name, a positive price and a positive quantity")
		}
	}

	b, err := s.Bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	actor := models.Actor{ID: input.TechnicianID, Role: models.RoleTechnician}
	to, err := plan(b, EventProposeAdditional, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	q := cloneQuote(b.Quote)
	if input.LaborPrice > 0 {
		q.LaborPrice = input.LaborPrice
	}
	if input.WarrantyMonths > 0 {
		q.WarrantyMonths = input.WarrantyMonths
	}
	if input.Note != "" {
		q.Note = input.Note
	}
	for _, it := range input.NewItems {
		q.Items = append(q.Items, models.QuoteItem{
			ID:       uuid.NewString(),
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Status:   models.QuoteItemPending,
			AddedAt:  now,
		})
	}
	q.QuotedAt = now
	q.RecomputeTotal()

	t := bookingRepo.StatusTransition{
		BookingID: b.ID,
		From:      b.Status,
		To:        to,
		Log:       newStatusLog(b.ID, b.Status, to, actor, "quote proposed"),
		Set: map[string]interface{}{
			"quote":      q,
			"finalPrice": q.TotalAmount,
		},
	}
	if err := s.Bookings.ApplyTransition(ctx, t); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return nil, &IllegalTransitionError{BookingID: b.ID, From: b.Status, Event: EventProposeAdditional, Reason: "booking changed concurrently"}
		}
		return nil, fmt.Errorf("failed to store quote for booking %s: %w", b.ID, err)
	}

	s.notifyCustomer(ctx, b.CustomerID, "New quote", "Your technician proposed additional items. Review and respond.", b.ID)
	s.publish(ctx, realtime.CustomerRoom(b.CustomerID), "quote:proposed", b.ID)
	return q, nil
}

// ResolveQuote applies the customer's single verdict to every pending item.
// Items resolved in earlier rounds are never touched again.
func (s *DefaultBookingService) ResolveQuote(ctx context.Context, bookingID, customerID string, accept bool) (*models.Quote, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	actor := models.Actor{ID: customerID, Role: models.RoleCustomer}
	event := EventCustomerReject
	if accept {
		event = EventCustomerAccept
	}
	to, err := plan(b, event, actor)
	if err != nil {
		return nil, err
	}
	if b.Quote == nil || len(b.Quote.PendingItems()) == 0 {
		return nil, NewValidationError("no pending quote items to resolve")
	}

	q := cloneQuote(b.Quote)
	q.ResolvePending(accept)

	note := "additional items rejected"
	if accept {
		note = "additional items accepted"
	}
	t := bookingRepo.StatusTransition{
		BookingID: b.ID,
		From:      b.Status,
		To:        to,
		Log:       newStatusLog(b.ID, b.Status, to, actor, note),
		Set: map[string]interface{}{
			"quote":      q,
			"finalPrice": q.TotalAmount,
		},
	}
	if err := s.Bookings.ApplyTransition(ctx, t); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return nil, &IllegalTransitionError{BookingID: b.ID, From: b.Status, Event: event, Reason: "booking changed concurrently"}
		}
		return nil, fmt.Errorf("failed to resolve quote for booking %s: %w", b.ID, err)
	}

	title := "Quote declined"
	body := "The customer declined the additional items."
	if accept {
		title = "Quote accepted"
		body = "The customer accepted the additional items."
	}
	s.notifyTechnician(ctx, b.TechnicianID, title, body, b.ID)
	s.publish(ctx, realtime.TechnicianRoom(b.TechnicianID), "quote:resolved", b.ID)
	return q, nil
}

func cloneQuote(q *models.Quote) *models.Quote {
	if q == nil {
		return &models.Quote{}
	}
	cp := *q
	cp.Items = append([]models.QuoteItem(nil), q.Items...)
	return &cp
}
