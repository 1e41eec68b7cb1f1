package models

import "time"

// RequestStatus is the lifecycle of one technician's time-boxed opportunity
// to claim a booking. At most one request per booking ever reaches ACCEPTED.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
	RequestExpired  RequestStatus = "EXPIRED"
)

// BookingTechnicianRequest is created when a customer selects a technician
// and resolved by the technician's response or the expiration sweeper.
type BookingTechnicianRequest struct {
	ID           string        `bson:"id" json:"id"`
	BookingID    string        `bson:"bookingId" json:"bookingId"`
	TechnicianID string        `bson:"technicianId" json:"technicianId"`
	Status       RequestStatus `bson:"status" json:"status"`
	RequestedAt  time.Time     `bson:"requestedAt" json:"requestedAt"`
	ExpiresAt    time.Time     `bson:"expiresAt" json:"expiresAt"`
	RespondedAt  *time.Time    `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// Live reports whether the request can still be acted on at the given instant.
func (r *BookingTechnicianRequest) Live(now time.Time) bool {
	return r.Status == RequestPending && r.ExpiresAt.After(now)
}
