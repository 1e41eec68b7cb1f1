package models

import "time"

// Availability is the technician's live work state. It flips to ONJOB exactly
// when the technician becomes the assigned party of an in-progress booking and
// back to FREE when that booking reaches a terminal status.
type Availability string

const (
	AvailabilityFree  Availability = "FREE"
	AvailabilityOnJob Availability = "ONJOB"
	AvailabilityBusy  Availability = "BUSY"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Technician holds the matching-relevant subset of a technician account.
type Technician struct {
	ID               string             `bson:"id" json:"id"`
	FullName         string             `bson:"fullName" json:"fullName"`
	Phone            string             `bson:"phone" json:"phone"`
	Availability     Availability       `bson:"availability" json:"availability"`
	ApprovalStatus   ApprovalStatus     `bson:"approvalStatus" json:"approvalStatus"`
	Balance          float64            `bson:"balance" json:"balance"`
	Specialties      []string           `bson:"specialties" json:"specialties"`
	SubscriptionTier int                `bson:"subscriptionTier" json:"subscriptionTier"`
	ServiceRates     map[string]float64 `bson:"serviceRates" json:"serviceRates"`
	LocationGeo      GeoPoint           `bson:"locationGeo" json:"locationGeo"`
	Rating           float64            `bson:"rating" json:"rating"`
	CompletedJobs    int                `bson:"completedJobs" json:"completedJobs"`
	FCMToken         string             `bson:"fcmToken,omitempty" json:"-"`
	LocationAt       time.Time          `bson:"locationAt" json:"locationAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RateFor returns the technician's published labor price for a service.
func (t *Technician) RateFor(serviceID string) float64 {
	if t.ServiceRates == nil {
		return 0
	}
	return t.ServiceRates[serviceID]
}

// TechnicianCandidate is the ranked snapshot persisted per search cycle.
type TechnicianCandidate struct {
	TechnicianID     string  `bson:"technicianId" json:"technicianId"`
	FullName         string  `bson:"fullName" json:"fullName"`
	Rating           float64 `bson:"rating" json:"rating"`
	CompletedJobs    int     `bson:"completedJobs" json:"completedJobs"`
	SubscriptionTier int     `bson:"subscriptionTier" json:"subscriptionTier"`
	DistanceMeters   float64 `bson:"distanceMeters" json:"distanceMeters"`
	FoundAtRadiusKm  float64 `bson:"foundAtRadiusKm" json:"foundAtRadiusKm"`
}
