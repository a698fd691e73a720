package types

import "time"

// Event is the payload published to the event channel when a record changes.
type Event struct {
	// Type identifies the change, e.g. "user.signup" or "student.created".
	Type string `json:"type"`

	// EntityID is the hex ObjectID of the affected record.
	EntityID string `json:"entityId"`

	// OccurredAt is the server-side timestamp of the change.
	OccurredAt time.Time `json:"occurredAt"`
}
