package booking

import (
	"fixhive/models"
)

// Event is a named trigger fired against a booking's lifecycle.
type Event string

const (
	EventSelectTechnician  Event = "SELECT_TECHNICIAN"
	EventAssign            Event = "ASSIGN"
	EventProposeAdditional Event = "PROPOSE_ADDITIONAL"
	EventCustomerAccept    Event = "CUSTOMER_ACCEPT_ADDITIONAL"
	EventCustomerReject    Event = "CUSTOMER_REJECT_ADDITIONAL"
	EventRequestCompletion Event = "REQUEST_COMPLETION"
	EventConfirmCompletion Event = "CONFIRM_COMPLETION"
	EventAutoComplete      Event = "AUTO_COMPLETE"
	EventCancel            Event = "CANCEL"
)

type transitionRule struct {
	To    models.BookingStatus
	Roles []models.Role
	Guard func(b *models.Booking, actor models.Actor) error
}

// transitions is the complete lifecycle graph. A (status, event) pair absent
// from the table is illegal; terminal statuses have no rows at all.
var transitions = map[models.BookingStatus]map[Event]transitionRule{
	models.BookingPending: {
		EventSelectTechnician: {
			To:    models.BookingAwaitingConfirm,
			Roles: []models.Role{models.RoleCustomer, models.RoleSystem},
		},
		EventCancel: {
			To:    models.BookingCancelled,
			Roles: []models.Role{models.RoleCustomer, models.RoleSystem},
		},
	},
	models.BookingAwaitingConfirm: {
		// Re-selecting while other requests are still open is allowed; the
		// status does not change.
		EventSelectTechnician: {
			To:    models.BookingAwaitingConfirm,
			Roles: []models.Role{models.RoleCustomer, models.RoleSystem},
		},
		EventAssign: {
			To:    models.BookingInProgress,
			Roles: []models.Role{models.RoleSystem, models.RoleTechnician},
		},
		EventCancel: {
			To:    models.BookingCancelled,
			Roles: []models.Role{models.RoleCustomer, models.RoleSystem},
		},
	},
	models.BookingInProgress: {
		EventProposeAdditional: {
			To:    models.BookingWaitingCustomerConfirmAdditional,
			Roles: []models.Role{models.RoleTechnician},
		},
		EventRequestCompletion: {
			To:    models.BookingWaitingConfirm,
			Roles: []models.Role{models.RoleTechnician},
		},
		EventCancel: {
			To:    models.BookingCancelled,
			Roles: []models.Role{models.RoleCustomer, models.RoleTechnician, models.RoleSystem},
		},
	},
	models.BookingWaitingCustomerConfirmAdditional: {
		EventCustomerAccept: {
			To:    models.BookingConfirmAdditional,
			Roles: []models.Role{models.RoleCustomer},
		},
		EventCustomerReject: {
			To:    models.BookingInProgress,
			Roles: []models.Role{models.RoleCustomer},
		},
		// A fresh proposal supersedes the one still awaiting an answer.
		EventProposeAdditional: {
			To:    models.BookingWaitingCustomerConfirmAdditional,
			Roles: []models.Role{models.RoleTechnician},
		},
		EventCancel: {
			To:    models.BookingCancelled,
			Roles: []models.Role{models.RoleCustomer, models.RoleTechnician, models.RoleSystem},
		},
	},
	models.BookingConfirmAdditional: {
		EventProposeAdditional: {
			To:    models.BookingWaitingCustomerConfirmAdditional,
			Roles: []models.Role{models.RoleTechnician},
		},
		EventRequestCompletion: {
			To:    models.BookingWaitingConfirm,
			Roles: []models.Role{models.RoleTechnician},
		},
		EventCancel: {
			To:    models.BookingCancelled,
			Roles: []models.Role{models.RoleCustomer, models.RoleTechnician, models.RoleSystem},
		},
	},
	models.BookingWaitingConfirm: {
		EventConfirmCompletion: {
			To:    models.BookingDone,
			Roles: []models.Role{models.RoleCustomer},
			Guard: requirePaid,
		},
		EventAutoComplete: {
			To:    models.BookingAutoDone,
			Roles: []models.Role{models.RoleSystem},
		},
		EventCancel: {
			To:    models.BookingCancelled,
			Roles: []models.Role{models.RoleCustomer, models.RoleSystem},
		},
	},
}

func requirePaid(b *models.Booking, _ models.Actor) error {
	if b.PaymentStatus != models.PaymentPaid {
		return &IllegalTransitionError{
			BookingID: b.ID,
			From:      b.Status,
			Event:     EventConfirmCompletion,
			Reason:    "payment not completed",
		}
	}
	return nil
}

// plan resolves the target status for firing event on b as actor. It checks
// the graph, the actor's role, the actor's identity against the booking, and
// the rule guard, in that order.
func plan(b *models.Booking, event Event, actor models.Actor) (models.BookingStatus, error) {
	rules, ok := transitions[b.Status]
	if !ok {
		return "", &IllegalTransitionError{BookingID: b.ID, From: b.Status, Event: event, Reason: "booking is closed"}
	}
	rule, ok := rules[event]
	if !ok {
		return "", &IllegalTransitionError{BookingID: b.ID, From: b.Status, Event: event}
	}

	if !roleAllowed(rule.Roles, actor.Role) {
		return "", &UnauthorizedActorError{BookingID: b.ID, Event: event, ActorID: actor.ID, Role: actor.Role}
	}
	switch actor.Role {
	case models.RoleCustomer:
		if actor.ID != b.CustomerID {
			return "", &UnauthorizedActorError{BookingID: b.ID, Event: event, ActorID: actor.ID, Role: actor.Role}
		}
	case models.RoleTechnician:
		if b.TechnicianID == "" || actor.ID != b.TechnicianID {
			return "", &UnauthorizedActorError{BookingID: b.ID, Event: event, ActorID: actor.ID, Role: actor.Role}
		}
	}

	if rule.Guard != nil {
		if err := rule.Guard(b, actor); err != nil {
			return "", err
		}
	}
	return rule.To, nil
}

func roleAllowed(allowed []models.Role, role models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
