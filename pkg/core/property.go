package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-loom/loom/pkg/animation"
)

// PropertySpec registers one observable property on a component: a stable
// name, accessor functions over the backing field, and — for animatable
// properties — the default duration and curve applied to deferred writes.
type PropertySpec struct {
	// Name identifies the property in bindings and templates.
	Name string
	// Get reads the live value from the backing field.
	Get func() any
	// Set writes the live value to the backing field.
	Set func(any)
	// Animatable defers writes to the frame flush and interpolates them.
	Animatable bool
	// DefaultDuration is the interpolation time for deferred writes that do
	// not specify one. Zero still defers, but completes at the next flush.
	DefaultDuration time.Duration
	// DefaultCurve eases deferred writes. Nil means animation.Linear.
	DefaultCurve animation.Curve
}

// PropertyTable drives a component's registered properties: reads, writes,
// per-property change notification, and the deferred/animated write pass.
//
// Behaviors register their properties at construction time; the table is the
// single path through which bindings, templates, and animations touch a
// component's observable state.
type PropertyTable struct {
	specs     map[string]*PropertySpec
	order     []string
	listeners map[string]map[int]func(any)
	nextSub   int
	pending   map[string]*animation.State
}

// NewPropertyTable creates an empty property table.
func NewPropertyTable() *PropertyTable {
	return &PropertyTable{
		specs:     make(map[string]*PropertySpec),
		listeners: make(map[string]map[int]func(any)),
	}
}

// Register adds a property to the table. Registering a duplicate or nameless
// property is a programming error and panics.
func (t *PropertyTable) Register(spec PropertySpec) {
	if spec.Name == "" {
		panic("core: property registered without a name")
	}
	if spec.Get == nil || spec.Set == nil {
		panic(fmt.Sprintf("core: property %q registered without accessors", spec.Name))
	}
	if _, exists := t.specs[spec.Name]; exists {
		panic(fmt.Sprintf("core: property %q registered twice", spec.Name))
	}
	s := spec
	t.specs[spec.Name] = &s
	t.order = append(t.order, spec.Name)
}

// Has reports whether a property is registered.
func (t *PropertyTable) Has(name string) bool {
	_, ok := t.specs[name]
	return ok
}

// Names returns the registered property names in registration order.
func (t *PropertyTable) Names() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Get reads a property's live value. The second result is false for
// unregistered names.
func (t *PropertyTable) Get(name string) (any, bool) {
	spec, ok := t.specs[name]
	if !ok {
		return nil, false
	}
	return spec.Get(), true
}

// Set writes a property through its declared semantics: animatable
// properties record a deferred update (last write wins, elapsed resets)
// using the registered default duration and curve; plain properties commit
// immediately and notify if the value changed.
func (t *PropertyTable) Set(name string, value any) error {
	spec, ok := t.specs[name]
	if !ok {
		return fmt.Errorf("core: unknown property %q", name)
	}
	if spec.Animatable {
		t.deferWrite(spec, value, spec.DefaultDuration, spec.DefaultCurve)
		return nil
	}
	t.commit(spec, value)
	return nil
}

// SetAnimated records a deferred write with an explicit duration and curve,
// overriding the property's registered defaults. The property must be
// registered; it need not be declared animatable.
func (t *PropertyTable) SetAnimated(name string, value any, duration time.Duration, curve animation.Curve) error {
	spec, ok := t.specs[name]
	if !ok {
		return fmt.Errorf("core: unknown property %q", name)
	}
	t.deferWrite(spec, value, duration, curve)
	return nil
}

// SetNow commits a value immediately, bypassing deferral and cancelling any
// pending update for the property. Used by Configure and by bindings for
// the initial sync on activation. Returns true if the value changed.
func (t *PropertyTable) SetNow(name string, value any) (bool, error) {
	spec, ok := t.specs[name]
	if !ok {
		return false, fmt.Errorf("core: unknown property %q", name)
	}
	delete(t.pending, name)
	return t.commit(spec, value), nil
}

// Subscribe registers a change listener for one property. The listener
// receives the committed value, once per commit. The returned function
// removes the subscription.
func (t *PropertyTable) Subscribe(name string, fn func(value any)) func() {
	subs := t.listeners[name]
	if subs == nil {
		subs = make(map[int]func(any))
		t.listeners[name] = subs
	}
	id := t.nextSub
	t.nextSub++
	subs[id] = fn
	return func() {
		delete(subs, id)
	}
}

// UpdateAnimations advances every pending deferred update by dt, committing
// one interpolated value per property for this tick. Completed updates
// commit their exact target and are cleared. Returns the number of updates
// still pending.
func (t *PropertyTable) UpdateAnimations(dt time.Duration) int {
	if len(t.pending) == 0 {
		return 0
	}
	for _, name := range t.order {
		state, ok := t.pending[name]
		if !ok {
			continue
		}
		value, done := state.Advance(dt)
		t.commit(t.specs[name], value)
		if done {
			delete(t.pending, name)
		}
	}
	return len(t.pending)
}

// HasPending reports whether any deferred updates are waiting to be flushed.
func (t *PropertyTable) HasPending() bool {
	return len(t.pending) > 0
}

// CancelAnimations drops all pending deferred updates without committing
// them. Called on Deactivate.
func (t *PropertyTable) CancelAnimations() {
	clear(t.pending)
}

func (t *PropertyTable) deferWrite(spec *PropertySpec, value any, duration time.Duration, curve animation.Curve) {
	if curve == nil {
		curve = spec.DefaultCurve
	}
	if state, ok := t.pending[spec.Name]; ok {
		state.Retarget(spec.Get(), value)
		state.Duration = duration
		state.Curve = curve
		return
	}
	if t.pending == nil {
		t.pending = make(map[string]*animation.State)
	}
	t.pending[spec.Name] = &animation.State{
		Start:    spec.Get(),
		Target:   value,
		Duration: duration,
		Curve:    curve,
	}
}

// commit writes the value and notifies listeners if it differs from the
// prior value. Returns true if the value changed.
func (t *PropertyTable) commit(spec *PropertySpec, value any) bool {
	prior := spec.Get()
	if equalValues(prior, value) {
		return false
	}
	spec.Set(value)
	for _, fn := range t.listeners[spec.Name] {
		fn(value)
	}
	return true
}

func equalValues(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return reflect.DeepEqual(a, b)
}
