package core

import (
	"time"

	"github.com/go-loom/loom/pkg/errors"
)

// Behavior is the user-supplied logic attached to a component. Attach runs
// once, when the factory binds the behavior to its freshly created
// component; this is where behaviors register their properties.
//
// Everything else a behavior can do is expressed through narrow capability
// interfaces discovered by type assertion: [Configurer], [Loader],
// [Validator], [Activator], [Deactivator], [Disposer], [Updatable],
// [Renderable], [LayoutParticipant]. A behavior implements only what it
// needs.
type Behavior interface {
	Attach(c *Component)
}

// Configurer runs after a template's static property values are applied.
type Configurer interface {
	OnConfigure(ctx *LifecycleContext) error
}

// Loader runs when Load seals the component's configuration.
type Loader interface {
	OnLoad(ctx *LifecycleContext) error
}

// Validator produces structured findings for Validate. It must not mutate
// component state.
type Validator interface {
	Validate(ctx *LifecycleContext) []*errors.ValidationError
}

// Activator runs as the component becomes active, after its bindings have
// resolved and pushed their initial values.
type Activator interface {
	OnActivate(ctx *LifecycleContext) error
}

// Deactivator runs as the component leaves the active state. It is invoked
// defensively: a panic is reported but never blocks teardown.
type Deactivator interface {
	OnDeactivate(ctx *LifecycleContext)
}

// Disposer runs once, during Dispose, after the component's children are
// gone.
type Disposer interface {
	OnDispose(ctx *LifecycleContext)
}

// Updatable receives the per-frame update tick while its component is
// active and enabled.
type Updatable interface {
	Update(ctx *LifecycleContext, dt time.Duration)
}

// RenderTarget is the backend-owned surface a renderable draws into.
// The core never inspects it.
type RenderTarget any

// Renderable marks a component as drawable. The rendering backend calls
// Render once per frame for each active renderable, in ascending
// RenderPriority order, and must not mutate component state from the hook.
type Renderable interface {
	RenderPriority() int
	Render(target RenderTarget)
}

// LayoutPass selects the traversal direction for a layout participant.
type LayoutPass int

const (
	// LayoutBottomUp lays the component out after its children, for sizes
	// that depend on child extents.
	LayoutBottomUp LayoutPass = iota
	// LayoutTopDown lays the component out before its children.
	LayoutTopDown
)

// LayoutParticipant receives the orchestrator's layout pass, which runs
// after Load and strictly before Validate.
type LayoutParticipant interface {
	LayoutPass() LayoutPass
	UpdateLayout(ctx *LifecycleContext) error
}

// AssetRequester declares asset references the resource service should load
// before the component activates and release after it is disposed.
type AssetRequester interface {
	AssetRefs() []string
}

// Attachment is anything whose lifetime is bounded by a component's active
// window: resolved on Activate, released on Deactivate. Property bindings
// are attachments.
type Attachment interface {
	// Attach resolves the attachment against the live tree. Soft failures
	// (a lookup that finds nothing) are recorded through the context's
	// reporter and return nil; only unrecoverable failures return an error.
	Attach(ctx *LifecycleContext, owner *Component) error
	// Detach releases every subscription the attachment holds. It must be
	// safe to call after a failed Attach.
	Detach(owner *Component)
}
