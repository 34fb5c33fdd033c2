package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
)

type busFixture struct {
	ctx       *core.LifecycleContext
	collector *errors.Collector
	arena     *core.Arena
	bus       *Bus
}

func newBusFixture() *busFixture {
	collector := &errors.Collector{}
	arena := core.NewArena()
	return &busFixture{
		ctx:       core.NewLifecycleContext(zap.NewNop(), collector, nil),
		collector: collector,
		arena:     arena,
		bus:       NewBus(arena),
	}
}

func (f *busFixture) component(t *testing.T, name string) *core.Component {
	t.Helper()
	c := core.NewComponent(f.arena, "test", nil)
	c.SetName(name)
	require.NoError(t, c.Configure(f.ctx, nil))
	require.NoError(t, c.Load(f.ctx))
	return c
}

func TestDispatch_PriorityOrderThenSubscriptionOrder(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	var order []string
	record := func(name string) HandlerFunc {
		return func(*core.LifecycleContext, *Event) { order = append(order, name) }
	}
	f.bus.Subscribe(c.ID(), "ping", 0, record("low-first"))
	f.bus.Subscribe(c.ID(), "ping", 10, record("high"))
	f.bus.Subscribe(c.ID(), "ping", 0, record("low-second"))

	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, []string{"high", "low-first", "low-second"}, order)
}

func TestDispatch_MarkAsHandledStopsIteration(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	invoked := []string{}
	f.bus.Subscribe(c.ID(), "ping", 10, func(_ *core.LifecycleContext, e *Event) {
		invoked = append(invoked, "first")
		e.MarkAsHandled()
	})
	f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) {
		invoked = append(invoked, "second")
	})

	e := New("ping")
	f.bus.Dispatch(f.ctx, e, c.ID())
	assert.Equal(t, []string{"first"}, invoked)
	assert.True(t, e.IsHandled())
}

func TestDispatch_BubblingStopsAtHandlingAncestor(t *testing.T) {
	f := newBusFixture()
	grandparent := f.component(t, "grandparent")
	parent := f.component(t, "parent")
	child := f.component(t, "child")
	require.NoError(t, grandparent.AddChild(parent))
	require.NoError(t, parent.AddChild(child))

	var visited []string
	f.bus.Subscribe(parent.ID(), "ping", 0, func(_ *core.LifecycleContext, e *Event) {
		visited = append(visited, "parent")
		e.MarkAsHandled()
	})
	f.bus.Subscribe(grandparent.ID(), "ping", 0, func(*core.LifecycleContext, *Event) {
		visited = append(visited, "grandparent")
	})

	f.bus.Dispatch(f.ctx, New("ping", WithBubbling()), child.ID())
	assert.Equal(t, []string{"parent"}, visited,
		"the second ancestor must never see the handled event")
}

func TestDispatch_NonBubblingStaysOnTarget(t *testing.T) {
	f := newBusFixture()
	parent := f.component(t, "parent")
	child := f.component(t, "child")
	require.NoError(t, parent.AddChild(child))

	parentSaw := false
	f.bus.Subscribe(parent.ID(), "ping", 0, func(*core.LifecycleContext, *Event) {
		parentSaw = true
	})

	f.bus.Dispatch(f.ctx, New("ping"), child.ID())
	assert.False(t, parentSaw, "non-bubbling events must not reach ancestors")
}

func TestDispatch_BubblesToRootWhenUnhandled(t *testing.T) {
	f := newBusFixture()
	root := f.component(t, "root")
	mid := f.component(t, "mid")
	leaf := f.component(t, "leaf")
	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))

	var visited []string
	for _, c := range []*core.Component{root, mid, leaf} {
		name := c.Name()
		f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) {
			visited = append(visited, name)
		})
	}

	f.bus.Dispatch(f.ctx, New("ping", WithBubbling()), leaf.ID())
	assert.Equal(t, []string{"leaf", "mid", "root"}, visited)
}

func TestDispatch_PanickingHandlerReportedOthersRun(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	secondRan := false
	f.bus.Subscribe(c.ID(), "ping", 10, func(*core.LifecycleContext, *Event) {
		panic("handler bug")
	})
	f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) {
		secondRan = true
	})

	e := New("ping")
	f.bus.Dispatch(f.ctx, e, c.ID())
	assert.True(t, secondRan, "a panic must not stop the remaining handlers")
	require.Len(t, f.collector.Events, 1)
	assert.Equal(t, e.ID(), f.collector.Events[0].EventID)
	assert.NotEmpty(t, f.collector.Events[0].Handler)
}

func TestDispatch_TypeFiltering(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	pings := 0
	f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) { pings++ })

	f.bus.Dispatch(f.ctx, New("pong"), c.ID())
	assert.Zero(t, pings)
	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, 1, pings)
}

func TestSubscribe_CancelRemovesHandler(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	calls := 0
	_, cancel := f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) { calls++ })

	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	cancel()
	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, 1, calls)
}

func TestDispatch_SelfCancellingHandlerKeepsOrder(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	var calls []string
	var cancel func()
	_, cancel = f.bus.Subscribe(c.ID(), "ping", 3, func(*core.LifecycleContext, *Event) {
		calls = append(calls, "a")
		cancel()
	})
	f.bus.Subscribe(c.ID(), "ping", 2, func(*core.LifecycleContext, *Event) {
		calls = append(calls, "b")
	})
	f.bus.Subscribe(c.ID(), "ping", 1, func(*core.LifecycleContext, *Event) {
		calls = append(calls, "c")
	})

	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, []string{"a", "b", "c"}, calls,
		"cancelling inside a handler must not skip or repeat siblings")

	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, []string{"a", "b", "c", "b", "c"}, calls)
}

func TestDispatch_HandlerCancellingLaterSiblingSkipsIt(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	var calls []string
	var cancelLow func()
	f.bus.Subscribe(c.ID(), "ping", 2, func(*core.LifecycleContext, *Event) {
		calls = append(calls, "high")
		cancelLow()
	})
	_, cancelLow = f.bus.Subscribe(c.ID(), "ping", 1, func(*core.LifecycleContext, *Event) {
		calls = append(calls, "low")
	})

	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, []string{"high"}, calls,
		"a subscription cancelled mid-dispatch must not run")
}

func TestDispatch_HandlerSubscribingWaitsForNextEvent(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	var calls []string
	added := false
	f.bus.Subscribe(c.ID(), "ping", 1, func(*core.LifecycleContext, *Event) {
		calls = append(calls, "original")
		if !added {
			added = true
			f.bus.Subscribe(c.ID(), "ping", 5, func(*core.LifecycleContext, *Event) {
				calls = append(calls, "late")
			})
		}
	})

	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, []string{"original"}, calls,
		"a handler added mid-dispatch must not see the current event")
	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	assert.Equal(t, []string{"original", "late", "original"}, calls)
}

func TestUnsubscribeAll(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	calls := 0
	f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) { calls++ })
	f.bus.Subscribe(c.ID(), "pong", 0, func(*core.LifecycleContext, *Event) { calls++ })

	f.bus.UnsubscribeAll(c.ID())
	f.bus.Dispatch(f.ctx, New("ping"), c.ID())
	f.bus.Dispatch(f.ctx, New("pong"), c.ID())
	assert.Zero(t, calls)
}

func TestDispose_ReleasesSubscriptions(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	f.bus.Subscribe(c.ID(), "ping", 0, func(*core.LifecycleContext, *Event) {})
	f.bus.Subscribe(c.ID(), "pong", 0, func(*core.LifecycleContext, *Event) {})
	assert.Equal(t, 2, f.bus.SubscriptionCount(c.ID()))

	c.Dispose(f.ctx)
	assert.Zero(t, f.bus.SubscriptionCount(c.ID()),
		"disposal must not leave subscriptions behind")
}

func TestFlush_PriorityOrderedWithFIFOTies(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	var order []string
	f.bus.Subscribe(c.ID(), "note", 0, func(_ *core.LifecycleContext, e *Event) {
		tag, _ := e.Meta("tag")
		order = append(order, tag.(string))
	})

	f.bus.Enqueue(New("note", WithMetadata("tag", "low-first")), c.ID())
	f.bus.Enqueue(New("note", WithPriority(5), WithMetadata("tag", "high")), c.ID())
	f.bus.Enqueue(New("note", WithMetadata("tag", "low-second")), c.ID())
	assert.Equal(t, 3, f.bus.Pending())

	f.bus.Flush(f.ctx)
	assert.Equal(t, []string{"high", "low-first", "low-second"}, order)
	assert.Zero(t, f.bus.Pending())
}

func TestFlush_DrainsEventsEnqueuedByHandlers(t *testing.T) {
	f := newBusFixture()
	c := f.component(t, "a")

	var order []string
	f.bus.Subscribe(c.ID(), "first", 0, func(*core.LifecycleContext, *Event) {
		order = append(order, "first")
		f.bus.Enqueue(New("second"), c.ID())
	})
	f.bus.Subscribe(c.ID(), "second", 0, func(*core.LifecycleContext, *Event) {
		order = append(order, "second")
	})

	f.bus.Enqueue(New("first"), c.ID())
	f.bus.Flush(f.ctx)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatch_UnknownTargetIsNoOp(t *testing.T) {
	f := newBusFixture()
	// Must not panic or report anything.
	f.bus.Dispatch(f.ctx, New("ping"), core.ComponentID(9999))
	assert.True(t, f.collector.Empty())
}

func TestEvent_MarkAsHandledIsOneShot(t *testing.T) {
	e := New("ping")
	assert.False(t, e.IsHandled())
	e.MarkAsHandled()
	e.MarkAsHandled()
	assert.True(t, e.IsHandled())
}

func TestEvent_Metadata(t *testing.T) {
	e := New("ping", WithMetadata("count", 3), WithSource(core.ComponentID(7)))
	v, ok := e.Meta("count")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = e.Meta("missing")
	assert.False(t, ok)
	assert.Equal(t, core.ComponentID(7), e.Source())
}
