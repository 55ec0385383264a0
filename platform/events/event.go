// Package events carries ticket lifecycle notifications from the service
// that changed a ticket to the listeners that mail or stream them. It knows
// nothing about tickets itself; payloads live in internal/events.
package events

import (
	"context"
	"time"
)

// Event is a fact about a ticket, such as its confirmation or resolution.
type Event interface {
	// EventName is the key listeners subscribe with, e.g. "tickets.ticket.confirmed".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps a payload with the moment the ticket changed.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the current time in UTC so queued payloads compare
// equal across workers.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to one event, e.g. by enqueueing the customer email.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a closure subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans ticket events out to subscribers.
type Bus interface {
	// Publish hands the event to every subscriber of its name without
	// waiting. Handler errors are logged, never returned to the caller.
	Publish(ctx context.Context, event Event)

	// PublishSync runs every subscriber and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe adds handler for events whose EventName equals eventName.
	Subscribe(eventName string, handler Handler)
}
