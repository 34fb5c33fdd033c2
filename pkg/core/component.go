package core

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/errors"
)

// LifecycleState is the position of a component in its state machine.
type LifecycleState int

const (
	// StateUnconfigured is the state of a freshly created component.
	StateUnconfigured LifecycleState = iota
	// StateConfigured means template property values have been applied.
	StateConfigured
	// StateLoaded means the configuration is sealed; Load ran exactly once.
	StateLoaded
	// StateValidated means the last Validate pass produced no findings that
	// block activation.
	StateValidated
	// StateActive means the component is live: bindings resolved, update
	// ticks flowing.
	StateActive
	// StateInactive means the component was active and has been deactivated.
	// It can activate again.
	StateInactive
	// StateDisposed is terminal.
	StateDisposed
)

func (s LifecycleState) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateLoaded:
		return "loaded"
	case StateValidated:
		return "validated"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int(s))
	}
}

// Built-in property names present on every component.
const (
	// PropName is the component's display name. Mutable, change-notifying.
	PropName = "name"
	// PropEnabled gates the per-frame update tick. Mutable, change-notifying.
	PropEnabled = "enabled"
)

// Component is a node in the runtime tree: identity, lifecycle state,
// ordered owned children, registered properties, and an optional behavior
// supplying domain logic through capability interfaces.
type Component struct {
	id       ComponentID
	arena    *Arena
	typeName string
	behavior Behavior

	name    string
	enabled bool

	state    LifecycleState
	parent   ComponentID
	children []ComponentID

	props       *PropertyTable
	attachments []Attachment

	valid         bool
	validation    []*errors.ValidationError
	configIssues  []*errors.ValidationError
	childFailures map[ComponentID]error
}

// NewComponent creates a component in the arena with the given template type
// name and optional behavior. The behavior's Attach hook runs immediately so
// it can register properties before any lifecycle method is called.
func NewComponent(arena *Arena, typeName string, behavior Behavior) *Component {
	c := &Component{
		arena:    arena,
		typeName: typeName,
		behavior: behavior,
		enabled:  true,
		props:    NewPropertyTable(),
	}
	c.id = arena.register(c)
	c.props.Register(PropertySpec{
		Name: PropName,
		Get:  func() any { return c.name },
		Set: func(v any) {
			name := fmt.Sprint(v)
			arena.rename(c.id, c.name, name)
			c.name = name
		},
	})
	c.props.Register(PropertySpec{
		Name: PropEnabled,
		Get:  func() any { return c.enabled },
		Set: func(v any) {
			if b, ok := v.(bool); ok {
				c.enabled = b
			}
		},
	})
	if behavior != nil {
		behavior.Attach(c)
	}
	return c
}

// ID returns the component's arena id.
func (c *Component) ID() ComponentID { return c.id }

// Arena returns the arena this component lives in.
func (c *Component) Arena() *Arena { return c.arena }

// TypeName returns the template type this component was stamped from.
func (c *Component) TypeName() string { return c.typeName }

// Behavior returns the attached behavior, or nil for a plain container.
func (c *Component) Behavior() Behavior { return c.behavior }

// Name returns the component's display name.
func (c *Component) Name() string { return c.name }

// SetName renames the component, notifying name subscribers and updating the
// arena's name index.
func (c *Component) SetName(name string) {
	_, _ = c.props.SetNow(PropName, name)
}

// IsEnabled reports whether the component receives update ticks.
func (c *Component) IsEnabled() bool { return c.enabled }

// SetEnabled toggles the update tick gate, notifying subscribers.
func (c *Component) SetEnabled(enabled bool) {
	_, _ = c.props.SetNow(PropEnabled, enabled)
}

// Properties returns the component's property table.
func (c *Component) Properties() *PropertyTable { return c.props }

// State returns the current lifecycle state.
func (c *Component) State() LifecycleState { return c.state }

// IsConfigured reports whether Configure has run.
func (c *Component) IsConfigured() bool {
	return c.state >= StateConfigured && c.state != StateDisposed
}

// IsActive reports whether the component is live.
func (c *Component) IsActive() bool { return c.state == StateActive }

// IsDisposed reports whether the component has been disposed.
func (c *Component) IsDisposed() bool { return c.state == StateDisposed }

// IsValid reports the outcome of the most recent Validate pass. A component
// that has never been validated reports false.
func (c *Component) IsValid() bool { return c.valid }

// ValidationErrors returns the findings of the most recent Validate pass.
func (c *Component) ValidationErrors() []*errors.ValidationError {
	return slices.Clone(c.validation)
}

// Parent resolves the parent component, or nil at the root.
func (c *Component) Parent() *Component { return c.arena.Get(c.parent) }

// ParentID returns the parent's id, or NoComponent at the root.
func (c *Component) ParentID() ComponentID { return c.parent }

// Children resolves the owned children in declaration order.
func (c *Component) Children() []*Component {
	out := make([]*Component, 0, len(c.children))
	for _, id := range c.children {
		if child := c.arena.Get(id); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// ChildIDs returns the owned child ids in declaration order.
func (c *Component) ChildIDs() []ComponentID {
	return slices.Clone(c.children)
}

// ChildByName returns the first child with the given name, or nil.
func (c *Component) ChildByName(name string) *Component {
	for _, id := range c.children {
		if child := c.arena.Get(id); child != nil && child.name == name {
			return child
		}
	}
	return nil
}

// VisitChildren calls visitor for each child in declaration order, stopping
// if the visitor returns false.
func (c *Component) VisitChildren(visitor func(*Component) bool) {
	for _, id := range c.children {
		if child := c.arena.Get(id); child != nil {
			if !visitor(child) {
				return
			}
		}
	}
}

// FindAncestor walks parent links upward and returns the first ancestor the
// predicate accepts, or nil when the root is reached.
func (c *Component) FindAncestor(predicate func(*Component) bool) *Component {
	current := c.Parent()
	for current != nil {
		if predicate(current) {
			return current
		}
		current = current.Parent()
	}
	return nil
}

// AddChild appends child to this component's owned children. The child is
// detached from any previous parent first, keeping parent pointers and child
// lists mutually consistent. Self-parenting and parenting across arenas are
// rejected.
func (c *Component) AddChild(child *Component) error {
	if child == nil {
		return fmt.Errorf("core: cannot add nil child to %q", c.name)
	}
	if child == c {
		return fmt.Errorf("core: component %q cannot parent itself", c.name)
	}
	if child.arena != c.arena {
		return fmt.Errorf("core: component %q belongs to a different arena", child.name)
	}
	if child.state == StateDisposed || c.state == StateDisposed {
		return fmt.Errorf("core: cannot attach disposed component")
	}
	if ancestor := c.FindAncestor(func(a *Component) bool { return a == child }); ancestor != nil {
		return fmt.Errorf("core: adding %q under %q would create a cycle", child.name, c.name)
	}
	if old := child.Parent(); old != nil {
		old.removeChildID(child.id)
	}
	child.parent = c.id
	c.children = append(c.children, child.id)
	return nil
}

// RemoveChild detaches child from this component without disposing it.
func (c *Component) RemoveChild(child *Component) {
	if child == nil || child.parent != c.id {
		return
	}
	c.removeChildID(child.id)
	child.parent = NoComponent
}

func (c *Component) removeChildID(id ComponentID) {
	for i, existing := range c.children {
		if existing == id {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

// AddAttachment registers an attachment (typically a property binding) whose
// lifetime is bounded by the component's active window.
func (c *Component) AddAttachment(a Attachment) {
	if a != nil {
		c.attachments = append(c.attachments, a)
	}
}

// Attachments returns the registered attachments in registration order.
func (c *Component) Attachments() []Attachment {
	return slices.Clone(c.attachments)
}

// Configure applies a template's static property values and runs the
// behavior's Configurer hook. Values for unregistered properties are
// collected as validation findings rather than failing the call. Configure
// may run again while the component is still unsealed; once Load has run it
// fails with InvalidStateError.
func (c *Component) Configure(ctx *LifecycleContext, values map[string]any) error {
	if c.state >= StateLoaded {
		return c.invalidState("Configure")
	}
	c.configIssues = c.configIssues[:0]

	// Deterministic application order independent of map iteration.
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !c.props.Has(key) {
			c.configIssues = append(c.configIssues, &errors.ValidationError{
				Component: c.name,
				Property:  key,
				Message:   "template sets unknown property",
				Severity:  errors.SeverityWarning,
			})
			continue
		}
		_, _ = c.props.SetNow(key, values[key])
	}

	if hook, ok := c.behavior.(Configurer); ok {
		c.runHook(ctx, "configure", func() error { return hook.OnConfigure(ctx) })
	}
	c.state = StateConfigured
	return nil
}

// Load seals the configuration and runs the behavior's Loader hook. It is
// callable exactly once; a second call fails with InvalidStateError and
// leaves the first Load's effects intact.
func (c *Component) Load(ctx *LifecycleContext) error {
	if c.state != StateConfigured {
		return c.invalidState("Load")
	}
	if hook, ok := c.behavior.(Loader); ok {
		c.runHook(ctx, "load", func() error { return hook.OnLoad(ctx) })
	}
	c.state = StateLoaded
	ctx.Logger.Debug("component loaded",
		zap.String("component", c.name),
		zap.String("type", c.typeName))
	return nil
}

// Validate collects structured findings from configuration issues and the
// behavior's Validator hook. It mutates no state beyond the recorded
// findings and the IsValid flag, and may be called repeatedly.
func (c *Component) Validate(ctx *LifecycleContext) []*errors.ValidationError {
	if c.state == StateDisposed || c.state < StateLoaded {
		c.valid = false
		c.validation = []*errors.ValidationError{{
			Component: c.name,
			Message:   fmt.Sprintf("cannot validate in state %s", c.state),
			Severity:  errors.SeverityError,
		}}
		return c.ValidationErrors()
	}

	findings := slices.Clone(c.configIssues)
	if hook, ok := c.behavior.(Validator); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
						Component:  c.name,
						Phase:      "validate",
						Recovered:  r,
						StackTrace: errors.CaptureStack(),
						Timestamp:  time.Now(),
					})
					findings = append(findings, &errors.ValidationError{
						Component: c.name,
						Message:   fmt.Sprintf("validate hook panicked: %v", r),
						Severity:  errors.SeverityFatal,
					})
				}
			}()
			findings = append(findings, hook.Validate(ctx)...)
		}()
	}

	c.validation = findings
	c.valid = true
	for _, finding := range findings {
		if finding.Severity >= errors.SeverityError {
			c.valid = false
			break
		}
	}
	if c.state == StateLoaded && c.valid {
		c.state = StateValidated
	}
	return c.ValidationErrors()
}

// Activate turns the component live: each attachment resolves against the
// current tree and pushes its initial value, then children activate in
// declaration order, then IsActive becomes true. A failing child is recorded
// and its siblings still attempt activation. Activate is a no-op when
// already active.
func (c *Component) Activate(ctx *LifecycleContext) error {
	switch {
	case c.state == StateActive:
		return nil
	case c.state == StateDisposed, c.state < StateLoaded:
		return c.invalidState("Activate")
	}

	for _, attachment := range c.attachments {
		if err := attachment.Attach(ctx, c); err != nil {
			ctx.Reporter.ReportBinding(&errors.BindingError{
				Target:   c.name,
				Message:  "attachment failed to resolve",
				Severity: errors.SeverityError,
				Cause:    err,
			})
		}
	}

	if hook, ok := c.behavior.(Activator); ok {
		if err := c.runHook(ctx, "activate", func() error { return hook.OnActivate(ctx) }); err != nil {
			// The component itself failed; release what was attached and
			// leave siblings to the caller.
			for _, attachment := range c.attachments {
				attachment.Detach(c)
			}
			return err
		}
	}

	c.childFailures = nil
	for _, child := range c.Children() {
		if ctx.ActivationGate != nil && !ctx.ActivationGate(child) {
			ctx.Logger.Debug("child activation gated",
				zap.String("parent", c.name),
				zap.String("child", child.name))
			continue
		}
		if err := child.Activate(ctx); err != nil {
			if c.childFailures == nil {
				c.childFailures = make(map[ComponentID]error)
			}
			c.childFailures[child.id] = err
			ctx.Logger.Warn("child failed to activate",
				zap.String("parent", c.name),
				zap.String("child", child.name),
				zap.Error(err))
		}
	}

	c.state = StateActive
	return nil
}

// ChildActivationFailures returns the per-child failures recorded by the
// most recent Activate, keyed by child id.
func (c *Component) ChildActivationFailures() map[ComponentID]error {
	if len(c.childFailures) == 0 {
		return nil
	}
	out := make(map[ComponentID]error, len(c.childFailures))
	for id, err := range c.childFailures {
		out[id] = err
	}
	return out
}

// Deactivate reverses Activate: children deactivate in reverse declaration
// order, every attachment detaches, and in-flight animations are cancelled.
// Deactivate is defensive — it always succeeds — and is a no-op when the
// component is not active.
func (c *Component) Deactivate(ctx *LifecycleContext) {
	if c.state != StateActive {
		return
	}

	children := c.Children()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Deactivate(ctx)
	}

	for _, attachment := range c.attachments {
		attachment.Detach(c)
	}
	c.props.CancelAnimations()

	if hook, ok := c.behavior.(Deactivator); ok {
		c.runHookDefensive(ctx, "deactivate", func() { hook.OnDeactivate(ctx) })
	}
	c.state = StateInactive
}

// Dispose tears the component down: auto-deactivates if needed, disposes
// children first, runs the Disposer hook, and releases the arena slot.
// Dispose is terminal and idempotent — further calls are no-ops.
func (c *Component) Dispose(ctx *LifecycleContext) {
	if c.state == StateDisposed {
		return
	}
	c.Deactivate(ctx)

	for _, child := range c.Children() {
		child.Dispose(ctx)
	}
	c.children = nil

	if hook, ok := c.behavior.(Disposer); ok {
		c.runHookDefensive(ctx, "dispose", func() { hook.OnDispose(ctx) })
	}
	c.attachments = nil

	if parent := c.Parent(); parent != nil {
		parent.removeChildID(c.id)
	}
	c.parent = NoComponent
	c.arena.release(c)
	c.state = StateDisposed
}

// AdvanceAnimations advances the component's deferred property animations by
// dt and returns the number still pending. Inactive and disabled components
// make no progress.
func (c *Component) AdvanceAnimations(dt time.Duration) int {
	if c.state != StateActive || !c.enabled {
		return 0
	}
	return c.props.UpdateAnimations(dt)
}

// RunUpdate invokes the behavior's Updatable hook, defensively. The
// scheduler calls it after every component's animations have advanced, so a
// hook reading another component's property sees this frame's committed
// value.
func (c *Component) RunUpdate(ctx *LifecycleContext, dt time.Duration) {
	if c.state != StateActive || !c.enabled {
		return
	}
	if hook, ok := c.behavior.(Updatable); ok {
		c.runHookDefensive(ctx, "update", func() { hook.Update(ctx, dt) })
	}
}

// UpdateTick advances the component's animations and then runs its update
// hook, in one call. Convenient for driving a single component in tests;
// the scheduler runs the two phases as separate tree walks instead.
func (c *Component) UpdateTick(ctx *LifecycleContext, dt time.Duration) int {
	pending := c.AdvanceAnimations(dt)
	c.RunUpdate(ctx, dt)
	return pending
}

// runHook invokes a lifecycle hook with panic recovery. Both panics and
// returned errors are reported with the component's identity; the wrapped
// failure is returned so phase drivers can record it per component.
func (c *Component) runHook(ctx *LifecycleContext, phase string, fn func() error) error {
	var failure *errors.LifecycleHandlerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				failure = &errors.LifecycleHandlerError{
					Component:  c.name,
					Phase:      phase,
					Recovered:  r,
					StackTrace: errors.CaptureStack(),
					Timestamp:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			failure = &errors.LifecycleHandlerError{
				Component: c.name,
				Phase:     phase,
				Err:       err,
				Timestamp: time.Now(),
			}
		}
	}()
	if failure != nil {
		ctx.Reporter.ReportLifecycle(failure)
		return failure
	}
	return nil
}

// runHookDefensive is runHook for phases that must never fail: the failure
// is reported and swallowed.
func (c *Component) runHookDefensive(ctx *LifecycleContext, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
				Component:  c.name,
				Phase:      phase,
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()
	fn()
}

func (c *Component) invalidState(op string) error {
	return &errors.InvalidStateError{
		Component: c.name,
		Op:        op,
		State:     c.state.String(),
		Timestamp: time.Now(),
	}
}
