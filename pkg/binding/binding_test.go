package binding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
)

// numericBehavior registers a float "value" property and counts writes.
type numericBehavior struct {
	value  float64
	writes int
}

func (b *numericBehavior) Attach(c *core.Component) {
	c.Properties().Register(core.PropertySpec{
		Name: "value",
		Get:  func() any { return b.value },
		Set: func(v any) {
			b.value, _ = v.(float64)
			b.writes++
		},
	})
}

// textBehavior registers a string "label" property.
type textBehavior struct {
	label string
}

func (b *textBehavior) Attach(c *core.Component) {
	c.Properties().Register(core.PropertySpec{
		Name: "label",
		Get:  func() any { return b.label },
		Set:  func(v any) { b.label, _ = v.(string) },
	})
}

type fixture struct {
	ctx       *core.LifecycleContext
	collector *errors.Collector
	arena     *core.Arena
}

func newFixture() *fixture {
	collector := &errors.Collector{}
	return &fixture{
		ctx:       core.NewLifecycleContext(zap.NewNop(), collector, nil),
		collector: collector,
		arena:     core.NewArena(),
	}
}

func (f *fixture) component(t *testing.T, name string, behavior core.Behavior) *core.Component {
	t.Helper()
	c := core.NewComponent(f.arena, "test", behavior)
	c.SetName(name)
	require.NoError(t, c.Configure(f.ctx, nil))
	require.NoError(t, c.Load(f.ctx))
	return c
}

func TestBinding_OneWayInitialPush(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 42}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))

	b := &Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
	}
	child.AddAttachment(b)

	require.NoError(t, parent.Activate(f.ctx))
	assert.True(t, b.Resolved())
	assert.Equal(t, 42.0, dst.value, "initial push must sync the target on activation")
}

func TestBinding_OneWayPropagatesChanges(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
	})
	require.NoError(t, parent.Activate(f.ctx))

	require.NoError(t, parent.Properties().Set("value", 7.0))
	assert.Equal(t, 7.0, dst.value)
	assert.True(t, f.collector.Empty())
}

func TestBinding_ConverterAppliedInTransit(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 0.42}
	dst := &textBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "label",
		Converter:      Percent{},
	})
	require.NoError(t, parent.Activate(f.ctx))

	assert.Equal(t, "42%", dst.label)

	require.NoError(t, parent.Properties().Set("value", 0.5))
	assert.Equal(t, "50%", dst.label)
}

func TestBinding_TwoWayNoFeedbackLoop(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 1}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
		Mode:           TwoWay,
	})
	require.NoError(t, parent.Activate(f.ctx))

	srcWrites := src.writes
	dstWrites := dst.writes
	require.NoError(t, child.Properties().Set("value", 5.0))

	assert.Equal(t, 5.0, src.value, "target write must reach the source")
	assert.Equal(t, 5.0, dst.value)
	// One write each side: the guarded subscription must not re-emit.
	assert.Equal(t, srcWrites+1, src.writes)
	assert.Equal(t, dstWrites+1, dst.writes)
}

func TestBinding_TwoWayReverseConversion(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 2}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
		Mode:           TwoWay,
		Converter:      Scale{Factor: 10},
	})
	require.NoError(t, parent.Activate(f.ctx))
	assert.Equal(t, 20.0, dst.value)

	require.NoError(t, child.Properties().Set("value", 50.0))
	assert.Equal(t, 5.0, src.value)
}

func TestBinding_UnresolvedLookupIsSoftFailure(t *testing.T) {
	f := newFixture()
	dst := &numericBehavior{value: 9}
	parent := f.component(t, "parent", nil)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))

	b := &Binding{
		Lookup:         SiblingLookup{Name: "missing"},
		SourceProperty: "value",
		TargetProperty: "value",
	}
	child.AddAttachment(b)

	require.NoError(t, parent.Activate(f.ctx))
	assert.True(t, child.IsActive(), "unresolved binding must not block activation")
	assert.False(t, b.Resolved())
	assert.Equal(t, 9.0, dst.value, "target keeps its prior value")
	require.Len(t, f.collector.Bindings, 1)
	assert.Equal(t, errors.SeverityWarning, f.collector.Bindings[0].Severity)
}

func TestBinding_MissingSourcePropertyIsError(t *testing.T) {
	f := newFixture()
	parent := f.component(t, "parent", nil) // no "value" property
	child := f.component(t, "child", &numericBehavior{})
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
	})

	require.NoError(t, parent.Activate(f.ctx))
	require.Len(t, f.collector.Bindings, 1)
	assert.Equal(t, errors.SeverityError, f.collector.Bindings[0].Severity)
}

func TestBinding_DetachSeversSource(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 1}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	b := &Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
	}
	child.AddAttachment(b)
	require.NoError(t, parent.Activate(f.ctx))
	assert.Equal(t, 1.0, dst.value)

	child.Deactivate(f.ctx)
	assert.False(t, b.Resolved())
	assert.Nil(t, b.Source())

	require.NoError(t, parent.Properties().Set("value", 99.0))
	assert.Equal(t, 1.0, dst.value, "source change after deactivation must not reach the former target")
}

func TestBinding_ReactivateResolvesAgain(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 1}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
	})

	require.NoError(t, parent.Activate(f.ctx))
	parent.Deactivate(f.ctx)
	require.NoError(t, parent.Properties().Set("value", 3.0))
	require.NoError(t, parent.Activate(f.ctx))
	assert.Equal(t, 3.0, dst.value, "re-activation pushes the current source value")
}

type panicConverter struct{ calls int }

func (p *panicConverter) Convert(value any) (any, error) {
	p.calls++
	if p.calls > 1 {
		panic("converter bug")
	}
	return value, nil
}

func (p *panicConverter) ConvertBack(value any) (any, error) { return value, nil }

func TestBinding_ConverterPanicSkipsCycle(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{value: 1}
	dst := &numericBehavior{}
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", dst)
	require.NoError(t, parent.AddChild(child))
	b := &Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "value",
		Converter:      &panicConverter{},
	}
	child.AddAttachment(b)
	require.NoError(t, parent.Activate(f.ctx))
	assert.Equal(t, 1.0, dst.value)

	// Second conversion panics: this cycle is skipped, the binding stays
	// resolved, the old value stands.
	require.NoError(t, parent.Properties().Set("value", 2.0))
	assert.Equal(t, 1.0, dst.value)
	assert.True(t, b.Resolved())
	require.Len(t, f.collector.Bindings, 1)

	// Property change events keep flowing; a later write is not affected by
	// the earlier failure beyond this converter's own behavior.
	assert.NotEmpty(t, f.collector.Bindings[0].Message)
}

func TestBinding_AnimatableTargetDefersUpdates(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{}
	var x float64
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", nil)
	child.Properties().Register(core.PropertySpec{
		Name:            "x",
		Get:             func() any { return x },
		Set:             func(v any) { x, _ = v.(float64) },
		Animatable:      true,
		DefaultDuration: time.Second,
	})
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "x",
	})
	require.NoError(t, parent.Activate(f.ctx))
	assert.Equal(t, 0.0, x)

	// A post-activation source change goes through the target's declared
	// write semantics: deferred and interpolated.
	require.NoError(t, parent.Properties().Set("value", 10.0))
	assert.Equal(t, 0.0, x, "animatable target must not jump")
	child.UpdateTick(f.ctx, 500*time.Millisecond)
	assert.Equal(t, 5.0, x)
	child.UpdateTick(f.ctx, 500*time.Millisecond)
	assert.Equal(t, 10.0, x)
}

func TestBinding_TwoWayAnimatedTargetEchoesCommitsOnce(t *testing.T) {
	f := newFixture()
	src := &numericBehavior{}
	var x float64
	parent := f.component(t, "parent", src)
	child := f.component(t, "child", nil)
	child.Properties().Register(core.PropertySpec{
		Name:            "x",
		Get:             func() any { return x },
		Set:             func(v any) { x, _ = v.(float64) },
		Animatable:      true,
		DefaultDuration: time.Second,
	})
	require.NoError(t, parent.AddChild(child))
	child.AddAttachment(&Binding{
		Lookup:         ParentLookup{},
		SourceProperty: "value",
		TargetProperty: "x",
		Mode:           TwoWay,
	})
	require.NoError(t, parent.Activate(f.ctx))

	require.NoError(t, parent.Properties().Set("value", 10.0))
	writesBefore := src.writes

	// Each deferred commit echoes the target's visible value back to the
	// source, one hop per frame, without disturbing the running animation.
	child.UpdateTick(f.ctx, 500*time.Millisecond)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 5.0, src.value)
	child.UpdateTick(f.ctx, 500*time.Millisecond)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 10.0, src.value)
	assert.Equal(t, writesBefore+2, src.writes, "one echo write per commit")

	child.UpdateTick(f.ctx, 500*time.Millisecond)
	assert.Equal(t, writesBefore+2, src.writes, "the echo ends with the animation")
}
