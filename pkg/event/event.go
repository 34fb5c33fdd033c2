// Package event implements the runtime's event propagation: immutable event
// records dispatched to a component's subscribers in priority order, bubbling
// up the tree until handled or the root is reached.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/go-loom/loom/pkg/core"
)

// Event is an immutable record describing something that happened in the
// tree. The only mutable field is the handled flag, which is set once via
// MarkAsHandled and never cleared. Events are not retained after their
// propagation pass completes.
type Event struct {
	id        uuid.UUID
	timestamp time.Time
	eventType string
	source    core.ComponentID
	metadata  map[string]any
	priority  int
	bubbles   bool
	handled   bool
}

// Option configures an event at construction time.
type Option func(*Event)

// WithSource records the component the event originated from.
func WithSource(id core.ComponentID) Option {
	return func(e *Event) { e.source = id }
}

// WithPriority sets the event's dispatch priority. Higher runs earlier when
// a queue flush orders events.
func WithPriority(priority int) Option {
	return func(e *Event) { e.priority = priority }
}

// WithBubbling makes an unhandled event re-dispatch to the target's parent.
func WithBubbling() Option {
	return func(e *Event) { e.bubbles = true }
}

// WithMetadata attaches one metadata entry.
func WithMetadata(key string, value any) Option {
	return func(e *Event) {
		if e.metadata == nil {
			e.metadata = make(map[string]any)
		}
		e.metadata[key] = value
	}
}

// New creates an event with a fresh id and the current timestamp.
func New(eventType string, opts ...Option) *Event {
	e := &Event{
		id:        uuid.New(),
		timestamp: time.Now(),
		eventType: eventType,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the event's unique id.
func (e *Event) ID() uuid.UUID { return e.id }

// Timestamp returns when the event was created.
func (e *Event) Timestamp() time.Time { return e.timestamp }

// Type returns the event's type tag.
func (e *Event) Type() string { return e.eventType }

// Source returns the originating component id, or core.NoComponent.
func (e *Event) Source() core.ComponentID { return e.source }

// Priority returns the event's dispatch priority.
func (e *Event) Priority() int { return e.priority }

// Bubbles reports whether the event re-dispatches to ancestors while
// unhandled.
func (e *Event) Bubbles() bool { return e.bubbles }

// Meta returns one metadata entry.
func (e *Event) Meta(key string) (any, bool) {
	value, ok := e.metadata[key]
	return value, ok
}

// IsHandled reports whether some handler claimed the event.
func (e *Event) IsHandled() bool { return e.handled }

// MarkAsHandled sets the one-shot handled flag, stopping further handler
// iteration and bubbling. It cannot be cleared.
func (e *Event) MarkAsHandled() { e.handled = true }
