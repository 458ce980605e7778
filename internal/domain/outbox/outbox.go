package outbox

import "context"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

// Publisher hands events to the bus. Publish returns once the event is
// queued, not once handlers have run.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for an event name; every handler registered
// for a name receives each event published under it.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
