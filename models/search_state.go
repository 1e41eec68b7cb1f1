package models

import "time"

// SearchParams are the eligibility filters a search cycle runs with. They are
// captured on the first search so the sweeper can re-run discovery verbatim.
type SearchParams struct {
	CustomerID     string         `bson:"customerId" json:"customerId"`
	Center         GeoPoint       `bson:"center" json:"center"`
	ServiceID      string         `bson:"serviceId" json:"serviceId"`
	CategoryID     string         `bson:"categoryId" json:"categoryId"`
	MinBalance     float64        `bson:"minBalance" json:"minBalance"`
	Availabilities []Availability `bson:"availabilities" json:"availabilities"`
	ApprovalStatus ApprovalStatus `bson:"approvalStatus" json:"approvalStatus"`
}

// TechnicianSearchState is the per-booking accumulator of discovered
// candidates. One document per booking, replaced wholesale on every cycle
// under an optimistic version guard.
type TechnicianSearchState struct {
	BookingID          string                `bson:"bookingId" json:"bookingId"`
	Params             SearchParams          `bson:"params" json:"params"`
	FoundTechnicianIDs []string              `bson:"foundTechnicianIds" json:"foundTechnicianIds"`
	Candidates         []TechnicianCandidate `bson:"candidates" json:"candidates"`
	LastSearchAt       time.Time             `bson:"lastSearchAt" json:"lastSearchAt"`
	Completed          bool                  `bson:"completed" json:"completed"`
	Version            int64                 `bson:"version" json:"version"`
}
