// Package core implements the component tree and lifecycle state machine at
// the heart of the Loom runtime.
//
// # Components and the Arena
//
// Components live in an [Arena] and address each other by [ComponentID]
// rather than by pointer, so parent and child references can never form a
// retain cycle and a disposed component simply stops resolving. A component
// owns its children: disposing a parent disposes the subtree.
//
// # Lifecycle
//
// Every component moves through the same state machine:
//
//	Unconfigured → Configured → Loaded → Validated → Active ⇄ Inactive → Disposed
//
// Configure applies a template's static property values. Load seals the
// configuration; it can run exactly once. Validate collects structured
// findings without mutating state. Activate resolves bindings and turns the
// subtree live; Deactivate reverses it and can run any number of times.
// Dispose is terminal and idempotent.
//
// Calling a lifecycle method out of order fails with
// [errors.InvalidStateError]. Failures inside one child never abort its
// siblings; they are recorded through the [LifecycleContext]'s reporter.
//
// # Properties
//
// Components expose their observable state through a [PropertyTable]:
// registered name/getter/setter tuples with per-property change
// notification. A property registered as animatable defers writes to the
// next frame flush and interpolates them over a duration (see
// package animation).
//
// # Capabilities
//
// There is no deep component hierarchy. A component's behavior implements
// only the narrow interfaces it needs — [Updatable], [Renderable],
// [LayoutParticipant], [Validator] — and the runtime discovers them by type
// assertion.
package core
