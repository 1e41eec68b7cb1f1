package models

// PushTarget selects which account collection a push token is resolved from.
const (
	PushTargetCustomer   = "customer"
	PushTargetTechnician = "technician"
)

// PushPayload is the queued unit of a fire-and-forget push delivery.
type PushPayload struct {
	Target        string `json:"target"`
	ID            string `json:"id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	ReferenceType string `json:"referenceType,omitempty"`
	ReferenceID   string `json:"referenceId,omitempty"`
}

// RealtimeEvent is what gets published on a user's realtime room.
type RealtimeEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}
