package event

import (
	"reflect"
	"runtime"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
)

// HandlerFunc receives a dispatched event. Marking the event handled stops
// iteration over lower-priority handlers and stops bubbling.
type HandlerFunc func(ctx *core.LifecycleContext, e *Event)

type subscription struct {
	id        uuid.UUID
	component core.ComponentID
	eventType string
	priority  int
	handler   HandlerFunc
	label     string
	seq       int
	cancelled bool
}

// Bus routes events to component subscriptions. Dispatch is synchronous and
// single-threaded; Enqueue defers dispatch to the frame's flush point.
type Bus struct {
	arena *core.Arena
	subs  map[core.ComponentID]map[string][]*subscription
	queue []queuedEvent
	seq   int
}

type queuedEvent struct {
	event  *Event
	target core.ComponentID
}

// NewBus creates a bus over the given arena. The bus hooks the arena's
// release notification, so a disposed component's subscriptions are dropped
// without the caller doing anything.
func NewBus(arena *core.Arena) *Bus {
	b := &Bus{
		arena: arena,
		subs:  make(map[core.ComponentID]map[string][]*subscription),
	}
	arena.OnRelease(b.UnsubscribeAll)
	return b
}

// Subscribe registers a handler for events of eventType dispatched to the
// given component. Handlers on one component run in descending priority
// order; equal priorities run in subscription order. Returns the
// subscription id (correlated in failure reports) and a cancel function.
func (b *Bus) Subscribe(component core.ComponentID, eventType string, priority int, handler HandlerFunc) (uuid.UUID, func()) {
	sub := &subscription{
		id:        uuid.New(),
		component: component,
		eventType: eventType,
		priority:  priority,
		handler:   handler,
		label:     handlerLabel(handler),
		seq:       b.seq,
	}
	b.seq++

	byType := b.subs[component]
	if byType == nil {
		byType = make(map[string][]*subscription)
		b.subs[component] = byType
	}
	list := append(byType[eventType], sub)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority > list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	byType[eventType] = list

	return sub.id, func() { b.unsubscribe(sub) }
}

// UnsubscribeAll drops every subscription held for a component. The arena's
// release hook calls it on disposal; callers only need it to silence a live
// component wholesale.
func (b *Bus) UnsubscribeAll(component core.ComponentID) {
	for _, list := range b.subs[component] {
		for _, sub := range list {
			sub.cancelled = true
		}
	}
	delete(b.subs, component)
}

// SubscriptionCount returns the number of subscriptions held for a
// component across all event types.
func (b *Bus) SubscriptionCount(component core.ComponentID) int {
	n := 0
	for _, list := range b.subs[component] {
		n += len(list)
	}
	return n
}

// Dispatch delivers an event to the target component's handlers and, while
// the event bubbles unhandled, to each ancestor in turn. A panicking handler
// is reported with the event id, the handler's identity, and its
// subscription id; remaining handlers still run unless the event was marked
// handled before the panic.
func (b *Bus) Dispatch(ctx *core.LifecycleContext, e *Event, target core.ComponentID) {
	if e == nil {
		return
	}
	current := target
	for !current.IsNone() {
		component := b.arena.Get(current)
		if component == nil {
			return
		}
		// Handlers may subscribe or cancel during dispatch, so iterate a
		// snapshot: subscriptions added mid-dispatch wait for the next event,
		// and cancelled ones are skipped rather than shifting the order.
		for _, sub := range slices.Clone(b.subs[current][e.Type()]) {
			if e.IsHandled() {
				break
			}
			if sub.cancelled {
				continue
			}
			b.invoke(ctx, sub, e)
		}
		if e.IsHandled() || !e.Bubbles() {
			return
		}
		current = component.ParentID()
	}
}

// Enqueue buffers an event for the frame's dispatch pass.
func (b *Bus) Enqueue(e *Event, target core.ComponentID) {
	if e == nil {
		return
	}
	b.queue = append(b.queue, queuedEvent{event: e, target: target})
}

// Pending returns the number of queued, undispatched events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Flush dispatches all queued events in priority order (FIFO within equal
// priority), including events enqueued by handlers during the flush.
func (b *Bus) Flush(ctx *core.LifecycleContext) {
	for len(b.queue) > 0 {
		batch := b.queue
		b.queue = nil
		sort.SliceStable(batch, func(i, j int) bool {
			return batch[i].event.Priority() > batch[j].event.Priority()
		})
		for _, queued := range batch {
			b.Dispatch(ctx, queued.event, queued.target)
		}
	}
}

func (b *Bus) invoke(ctx *core.LifecycleContext, sub *subscription, e *Event) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Reporter.ReportEvent(&errors.EventHandlingError{
				EventID:      e.ID(),
				EventType:    e.Type(),
				Handler:      sub.label,
				Subscription: sub.id,
				Recovered:    r,
				StackTrace:   errors.CaptureStack(),
				Timestamp:    time.Now(),
			})
		}
	}()
	sub.handler(ctx, e)
}

func (b *Bus) unsubscribe(sub *subscription) {
	sub.cancelled = true
	byType := b.subs[sub.component]
	list := byType[sub.eventType]
	for i, existing := range list {
		if existing == sub {
			byType[sub.eventType] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func handlerLabel(handler HandlerFunc) string {
	if handler == nil {
		return "<nil>"
	}
	if fn := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()); fn != nil {
		return fn.Name()
	}
	return "<unknown>"
}
