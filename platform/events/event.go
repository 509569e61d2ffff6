// Package events carries quote lifecycle notifications (saved, accepted,
// rejected) from the reconciliation service to background work such as
// title refresh and PDF rendering. It holds no business rules.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus.
type Event interface {
	// EventName routes the event to its subscribers.
	EventName() string
	// OccurredAt is the UTC time the change was committed.
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events for their timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current UTC time. Subscribers use
// the stamp to version follow-up work, so two saves of one quote produce
// distinct stamps.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a closure subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribers. Publish never blocks the caller on
// subscriber work and never surfaces subscriber errors; PublishSync does both.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
