package models

import "time"

// BookingStatus is the canonical lifecycle state of a booking. It is mutated
// only through the state machine, never by direct writes.
type BookingStatus string

const (
	BookingPending                  BookingStatus = "PENDING"
	BookingAwaitingConfirm          BookingStatus = "AWAITING_CONFIRM"
	BookingInProgress               BookingStatus = "IN_PROGRESS"
	BookingWaitingCustomerConfirmAdditional BookingStatus = "WAITING_CUSTOMER_CONFIRM_ADDITIONAL"
	BookingConfirmAdditional        BookingStatus = "CONFIRM_ADDITIONAL"
	BookingWaitingConfirm           BookingStatus = "WAITING_CONFIRM"
	BookingDone                     BookingStatus = "DONE"
	BookingAutoDone                 BookingStatus = "AUTO_DONE"
	BookingCancelled                BookingStatus = "CANCELLED"
)

// Terminal reports whether the status ends the booking's life.
func (s BookingStatus) Terminal() bool {
	return s == BookingDone || s == BookingAutoDone || s == BookingCancelled
}

// Assigned reports whether a booking in this status must have a technician.
func (s BookingStatus) Assigned() bool {
	switch s {
	case BookingInProgress, BookingWaitingConfirm,
		BookingWaitingCustomerConfirmAdditional, BookingConfirmAdditional,
		BookingDone, BookingAutoDone:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// CancellationInfo records who cancelled a booking and why.
type CancellationInfo struct {
	ByID        string    `bson:"byId" json:"byId"`
	ByRole      Role      `bson:"byRole" json:"byRole"`
	Reason      string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CancelledAt time.Time `bson:"cancelledAt" json:"cancelledAt"`
}

// Booking is one unit of work between a customer and at most one technician.
// TechnicianID stays empty until the assignment coordinator claims it.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	CustomerID    string        `bson:"customerId" json:"customerId"`
	TechnicianID  string        `bson:"technicianId" json:"technicianId"`
	ServiceID     string        `bson:"serviceId" json:"serviceId"`
	CategoryID    string        `bson:"categoryId" json:"categoryId"`
	LocationGeo   GeoPoint      `bson:"locationGeo" json:"locationGeo"`
	Address       string        `bson:"address" json:"address"`
	ScheduledAt   time.Time     `bson:"scheduledAt" json:"scheduledAt"`
	ExpectedEndAt time.Time     `bson:"expectedEndAt" json:"expectedEndAt"`
	Urgent        bool          `bson:"urgent" json:"urgent"`
	Status        BookingStatus `bson:"status" json:"status"`
	Quote         *Quote        `bson:"quote,omitempty" json:"quote,omitempty"`
	FinalPrice    float64       `bson:"finalPrice" json:"finalPrice"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	ChatEnabled   bool          `bson:"chatEnabled" json:"chatEnabled"`
	VideoEnabled  bool          `bson:"videoEnabled" json:"videoEnabled"`
	Cancellation  *CancellationInfo `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	WarrantyUntil *time.Time    `bson:"warrantyUntil,omitempty" json:"warrantyUntil,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// BookingStatusLog is the immutable audit row written on every transition.
type BookingStatusLog struct {
	ID         string        `bson:"id" json:"id"`
	BookingID  string        `bson:"bookingId" json:"bookingId"`
	FromStatus BookingStatus `bson:"fromStatus" json:"fromStatus"`
	ToStatus   BookingStatus `bson:"toStatus" json:"toStatus"`
	ActorID    string        `bson:"actorId" json:"actorId"`
	ActorRole  Role          `bson:"actorRole" json:"actorRole"`
	Note       string        `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

// BookingCreateInput is the customer-facing payload for opening a booking.
type BookingCreateInput struct {
	CustomerID    string    `json:"customerId" binding:"required"`
	ServiceID     string    `json:"serviceId" binding:"required"`
	CategoryID    string    `json:"categoryId" binding:"required"`
	Address       string    `json:"address" binding:"required"`
	Lat           *float64  `json:"lat"`
	Lon           *float64  `json:"lon"`
	ScheduledAt   time.Time `json:"scheduledAt" binding:"required"`
	ExpectedEndAt time.Time `json:"expectedEndAt"`
	Urgent        bool      `json:"urgent"`
}
