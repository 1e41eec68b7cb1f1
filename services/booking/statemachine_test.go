package booking

import (
	"errors"
	"testing"

	"fixhive/models"
)

func TestPlanTransitions(t *testing.T) {
	tests := []struct {
		name         string
		status       models.BookingStatus
		technicianID string
		paid         bool
		event        Event
		actor        models.Actor
		want         models.BookingStatus
		wantErr      interface{}
	}{
		{
			name:   "customer selects from pending",
			status: models.BookingPending,
			event:  EventSelectTechnician,
			actor:  models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			want:   models.BookingAwaitingConfirm,
		},
		{
			name:   "reselect while awaiting keeps status",
			status: models.BookingAwaitingConfirm,
			event:  EventSelectTechnician,
			actor:  models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			want:   models.BookingAwaitingConfirm,
		},
		{
			name:         "technician requests completion",
			status:       models.BookingInProgress,
			technicianID: "tech-1",
			event:        EventRequestCompletion,
			actor:        models.Actor{ID: "tech-1", Role: models.RoleTechnician},
			want:         models.BookingWaitingConfirm,
		},
		{
			name:         "customer confirms completion when paid",
			status:       models.BookingWaitingConfirm,
			technicianID: "tech-1",
			paid:         true,
			event:        EventConfirmCompletion,
			actor:        models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			want:         models.BookingDone,
		},
		{
			name:         "confirm completion blocked while unpaid",
			status:       models.BookingWaitingConfirm,
			technicianID: "tech-1",
			event:        EventConfirmCompletion,
			actor:        models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			wantErr:      &IllegalTransitionError{},
		},
		{
			name:         "system auto-completes without payment",
			status:       models.BookingWaitingConfirm,
			technicianID: "tech-1",
			event:        EventAutoComplete,
			actor:        models.Actor{ID: "sweeper", Role: models.RoleSystem},
			want:         models.BookingAutoDone,
		},
		{
			name:         "cancel from in progress by technician",
			status:       models.BookingInProgress,
			technicianID: "tech-1",
			event:        EventCancel,
			actor:        models.Actor{ID: "tech-1", Role: models.RoleTechnician},
			want:         models.BookingCancelled,
		},
		{
			name:    "no event leaves a done booking",
			status:  models.BookingDone,
			event:   EventCancel,
			actor:   models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			wantErr: &IllegalTransitionError{},
		},
		{
			name:    "no event leaves a cancelled booking",
			status:  models.BookingCancelled,
			event:   EventSelectTechnician,
			actor:   models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			wantErr: &IllegalTransitionError{},
		},
		{
			name:         "technician may not confirm completion",
			status:       models.BookingWaitingConfirm,
			technicianID: "tech-1",
			paid:         true,
			event:        EventConfirmCompletion,
			actor:        models.Actor{ID: "tech-1", Role: models.RoleTechnician},
			wantErr:      &UnauthorizedActorError{},
		},
		{
			name:   "stranger customer is rejected",
			status: models.BookingPending,
			event:  EventSelectTechnician,
			actor:  models.Actor{ID: "cust-other", Role: models.RoleCustomer},
			wantErr: &UnauthorizedActorError{},
		},
		{
			name:         "unassigned technician is rejected",
			status:       models.BookingInProgress,
			technicianID: "tech-1",
			event:        EventRequestCompletion,
			actor:        models.Actor{ID: "tech-2", Role: models.RoleTechnician},
			wantErr:      &UnauthorizedActorError{},
		},
		{
			name:         "proposal supersedes an open proposal",
			status:       models.BookingWaitingCustomerConfirmAdditional,
			technicianID: "tech-1",
			event:        EventProposeAdditional,
			actor:        models.Actor{ID: "tech-1", Role: models.RoleTechnician},
			want:         models.BookingWaitingCustomerConfirmAdditional,
		},
		{
			name:    "completion cannot be confirmed twice",
			status:  models.BookingDone,
			event:   EventConfirmCompletion,
			actor:   models.Actor{ID: "cust-1", Role: models.RoleCustomer},
			wantErr: &IllegalTransitionError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking("bk-1", "cust-1", tt.status)
			b.TechnicianID = tt.technicianID
			if tt.paid {
				b.PaymentStatus = models.PaymentPaid
			}

			got, err := plan(b, tt.event, tt.actor)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("plan() = %s, want error %T", got, tt.wantErr)
				}
				switch tt.wantErr.(type) {
				case *IllegalTransitionError:
					var e *IllegalTransitionError
					if !errors.As(err, &e) {
						t.Fatalf("plan() error = %v, want IllegalTransitionError", err)
					}
				case *UnauthorizedActorError:
					var e *UnauthorizedActorError
					if !errors.As(err, &e) {
						t.Fatalf("plan() error = %v, want UnauthorizedActorError", err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("plan() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("plan() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEveryStatusHasCancelOrIsTerminal(t *testing.T) {
	statuses := []models.BookingStatus{
		models.BookingPending,
		models.BookingAwaitingConfirm,
		models.BookingInProgress,
		models.BookingWaitingCustomerConfirmAdditional,
		models.BookingConfirmAdditional,
		models.BookingWaitingConfirm,
		models.BookingDone,
		models.BookingAutoDone,
		models.BookingCancelled,
	}
	for _, status := range statuses {
		rules, ok := transitions[status]
		if status.Terminal() {
			if ok {
				t.Errorf("terminal status %s must have no outgoing transitions", status)
			}
			continue
		}
		if _, ok := rules[EventCancel]; !ok {
			t.Errorf("non-terminal status %s must be cancellable", status)
		}
	}
}
