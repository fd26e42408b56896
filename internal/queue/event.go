// Package queue defines the booking notification messages and the
// RabbitMQ publisher and consumer that carry them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// BindingKey matches every booking event on the topic exchange.
const BindingKey = "booking.*"

// BookingEvent is published after a booking is created, changed or
// decided, and by the reminder job.  It carries enough information for the
// notification worker to render a message without querying the database.
type BookingEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	BookingID    uint64 `json:"booking_id"`
	HallID       uint64 `json:"hall_id"`
	HallName     string `json:"hall_name"`
	HallLocation string `json:"hall_location"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Purpose      string `json:"purpose"`
	Attendees    uint32 `json:"attendees"`
	Status       string `json:"status"`

	RequesterID    uint64 `json:"requester_id"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`

	ActorID   uint64 `json:"actor_id,omitempty"`
	ActorRole string `json:"actor_role,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// NewBookingEvent returns an event of the given type stamped with a fresh
// id.  The consumer de-duplicates on EventID.
func NewBookingEvent(eventType string, at time.Time) BookingEvent {
	return BookingEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC(),
	}
}

// RoutingKey returns the topic routing key for an event type.
func RoutingKey(eventType string) string {
	return "booking." + eventType
}
