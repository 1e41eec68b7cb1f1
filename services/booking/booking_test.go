package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixhive/models"
)

func TestCreateBookingStartsDiscovery(t *testing.T) {
	env := newTestEnv(nil, []*models.Customer{testCustomer("cust-1")})
	ctx := context.Background()

	b, err := env.svc.CreateBooking(ctx, models.BookingCreateInput{
		CustomerID:  "cust-1",
		ServiceID:   "svc-plumbing",
		CategoryID:  "cat-plumbing",
		Address:     "Hauptstrasse 12",
		ScheduledAt: time.Now().Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateBooking() error: %v", err)
	}
	if b.Status != models.BookingPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	if b.PaymentStatus != models.PaymentUnpaid {
		t.Errorf("paymentStatus = %s, want UNPAID", b.PaymentStatus)
	}
	if !b.LocationGeo.Valid() {
		t.Errorf("address must be geocoded, got %+v", b.LocationGeo)
	}
	if len(env.engine.searches) != 1 || env.engine.searches[0] != b.ID {
		t.Errorf("initial search runs = %v, want one for %s", env.engine.searches, b.ID)
	}
}

func TestCreateBookingUnknownCustomer(t *testing.T) {
	env := newTestEnv(nil, nil)

	_, err := env.svc.CreateBooking(context.Background(), models.BookingCreateInput{
		CustomerID:  "nobody",
		ServiceID:   "svc-plumbing",
		CategoryID:  "cat-plumbing",
		Address:     "Hauptstrasse 12",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("CreateBooking() error = %v, want ValidationError", err)
	}
}

func TestCancelAssignedBookingReleasesTechnician(t *testing.T) {
	env := assignedEnv(t)
	ctx := context.Background()

	actor := models.Actor{ID: "cust-1", Role: models.RoleCustomer}
	b, err := env.svc.Transition(ctx, "bk-1", EventCancel, actor, "changed my mind")
	if err != nil {
		t.Fatalf("Transition(CANCEL) error: %v", err)
	}
	if b.Status != models.BookingCancelled {
		t.Errorf("status = %s, want CANCELLED", b.Status)
	}
	if b.TechnicianID != "" {
		t.Errorf("technicianId = %q, want cleared on cancel", b.TechnicianID)
	}
	if b.Cancellation == nil || b.Cancellation.ByID != "cust-1" || b.Cancellation.Reason != "changed my mind" {
		t.Errorf("cancellation = %+v, want recorded actor and reason", b.Cancellation)
	}
	if got := env.techs.availability("tech-1"); got != models.AvailabilityFree {
		t.Errorf("technician availability = %s, want FREE after cancel", got)
	}
}

func TestCompletionFlowWithPaymentAndCommission(t *testing.T) {
	env := assignedEnv(t)
	ctx := context.Background()

	tech := models.Actor{ID: "tech-1", Role: models.RoleTechnician}
	cust := models.Actor{ID: "cust-1", Role: models.RoleCustomer}

	if _, err := env.svc.Transition(ctx, "bk-1", EventRequestCompletion, tech, ""); err != nil {
		t.Fatalf("Transition(REQUEST_COMPLETION) error: %v", err)
	}

	// Confirming before payment must be blocked.
	_, err := env.svc.Transition(ctx, "bk-1", EventConfirmCompletion, cust, "")
	var illErr *IllegalTransitionError
	if !errors.As(err, &illErr) {
		t.Fatalf("unpaid confirm error = %v, want IllegalTransitionError", err)
	}

	url, err := env.svc.CreateCheckoutLink(ctx, "bk-1", "cust-1")
	if err != nil {
		t.Fatalf("CreateCheckoutLink() error: %v", err)
	}
	if url == "" {
		t.Fatal("CreateCheckoutLink() returned empty URL")
	}
	if err := env.svc.HandlePaymentSuccess(ctx, "bk-1"); err != nil {
		t.Fatalf("HandlePaymentSuccess() error: %v", err)
	}
	// Payment callbacks are idempotent.
	if err := env.svc.HandlePaymentSuccess(ctx, "bk-1"); err != nil {
		t.Fatalf("repeated HandlePaymentSuccess() error: %v", err)
	}

	b, err := env.svc.Transition(ctx, "bk-1", EventConfirmCompletion, cust, "")
	if err != nil {
		t.Fatalf("Transition(CONFIRM_COMPLETION) error: %v", err)
	}
	if b.Status != models.BookingDone {
		t.Errorf("status = %s, want DONE", b.Status)
	}
	if b.TechnicianID != "tech-1" {
		t.Errorf("technicianId = %q, completion must keep the assignment", b.TechnicianID)
	}
	if got := env.techs.availability("tech-1"); got != models.AvailabilityFree {
		t.Errorf("technician availability = %s, want FREE after completion", got)
	}

	// Final price is 100; the flat 10% platform cut comes off the balance.
	techDoc, _ := env.techs.GetByID(ctx, "tech-1")
	if techDoc.Balance != 90 {
		t.Errorf("technician balance = %v, want 90 after commission", techDoc.Balance)
	}
	if techDoc.CompletedJobs != 1 {
		t.Errorf("completedJobs = %d, want 1", techDoc.CompletedJobs)
	}
}

func TestAutoCompleteBySweeper(t *testing.T) {
	env := assignedEnv(t)
	ctx := context.Background()

	tech := models.Actor{ID: "tech-1", Role: models.RoleTechnician}
	if _, err := env.svc.Transition(ctx, "bk-1", EventRequestCompletion, tech, ""); err != nil {
		t.Fatalf("Transition(REQUEST_COMPLETION) error: %v", err)
	}

	system := models.Actor{ID: "sweeper", Role: models.RoleSystem}
	b, err := env.svc.Transition(ctx, "bk-1", EventAutoComplete, system, "customer confirmation window elapsed")
	if err != nil {
		t.Fatalf("Transition(AUTO_COMPLETE) error: %v", err)
	}
	if b.Status != models.BookingAutoDone {
		t.Errorf("status = %s, want AUTO_DONE", b.Status)
	}
}

func TestWarrantyStampedOnCompletion(t *testing.T) {
	env := assignedEnv(t)
	ctx := context.Background()

	if _, err := env.svc.ProposeQuote(ctx, ProposeQuoteInput{
		BookingID:      "bk-1",
		TechnicianID:   "tech-1",
		LaborPrice:     100,
		WarrantyMonths: 6,
		NewItems:       []QuoteItemInput{{Name: "Valve", Price: 40, Quantity: 1}},
	}); err != nil {
		t.Fatalf("ProposeQuote() error: %v", err)
	}
	if _, err := env.svc.ResolveQuote(ctx, "bk-1", "cust-1", true); err != nil {
		t.Fatalf("ResolveQuote() error: %v", err)
	}

	tech := models.Actor{ID: "tech-1", Role: models.RoleTechnician}
	cust := models.Actor{ID: "cust-1", Role: models.RoleCustomer}
	if _, err := env.svc.Transition(ctx, "bk-1", EventRequestCompletion, tech, ""); err != nil {
		t.Fatalf("Transition(REQUEST_COMPLETION) error: %v", err)
	}
	if err := env.svc.HandlePaymentSuccess(ctx, "bk-1"); err != nil {
		t.Fatalf("HandlePaymentSuccess() error: %v", err)
	}
	b, err := env.svc.Transition(ctx, "bk-1", EventConfirmCompletion, cust, "")
	if err != nil {
		t.Fatalf("Transition(CONFIRM_COMPLETION) error: %v", err)
	}

	if b.WarrantyUntil == nil {
		t.Fatal("warrantyUntil not stamped")
	}
	want := time.Now().AddDate(0, 6, 0)
	if diff := b.WarrantyUntil.Sub(want); diff < -time.Hour || diff > time.Hour {
		t.Errorf("warrantyUntil = %v, want about %v", b.WarrantyUntil, want)
	}
}

func TestStatusLogsRecordTheJourney(t *testing.T) {
	env := assignedEnv(t)
	ctx := context.Background()

	logs, err := env.svc.ListStatusLogs(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ListStatusLogs() error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("logs = %d, want 2 (select, assign)", len(logs))
	}
	if logs[0].FromStatus != models.BookingPending || logs[0].ToStatus != models.BookingAwaitingConfirm {
		t.Errorf("first log = %s→%s, want PENDING→AWAITING_CONFIRM", logs[0].FromStatus, logs[0].ToStatus)
	}
	if logs[1].FromStatus != models.BookingAwaitingConfirm || logs[1].ToStatus != models.BookingInProgress {
		t.Errorf("second log = %s→%s, want AWAITING_CONFIRM→IN_PROGRESS", logs[1].FromStatus, logs[1].ToStatus)
	}
}
