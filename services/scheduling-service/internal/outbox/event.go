package outbox

import (
	"encoding/json"
	"fmt"
)

// Event types written by this service. The Kafka topic equals the event type.
const (
	EventReservationCreated   = "reservation.created.v1"
	EventReservationAssigned  = "reservation.assigned.v1"
	EventReservationCompleted = "reservation.completed.v1"
	EventReservationCancelled = "reservation.cancelled.v1"
	EventNotificationSent     = "notification.sent.v1"
	EventNotificationFailed   = "notification.failed.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// NewEvent marshals payload as JSON.
func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{AggregateType: aggregateType, AggregateID: aggregateID, EventType: eventType, Payload: raw}, nil
}
