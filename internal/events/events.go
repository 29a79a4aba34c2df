// Package events broadcasts inspection lifecycle events to the yard
// message bus. Signage boards and gate consoles subscribe to these to
// show which trucks are being worked without polling the API.
package events

import "time"

const (
	TypeCreated   = "created"
	TypeUpdated   = "updated"
	TypeCompleted = "completed"
	TypeGone      = "gone"
)

// Event is one inspection lifecycle notification
type Event struct {
	Type         string    `json:"type"`
	InspectionID string    `json:"inspectionId"`
	TruckNumber  string    `json:"truckNumber"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher delivers events to the bus. Delivery is best effort; the
// inspection flow never blocks on it.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher is used when the message bus is disabled
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
