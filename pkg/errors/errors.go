// Package errors provides structured error handling for the Loom runtime.
//
// Lifecycle and binding failures are values, not panics: they carry the
// identity of the component or binding that failed, are collected per phase,
// and never abort traversal of sibling components. See [Reporter] for how
// they reach a log or a test assertion.
package errors

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity ranks how serious a recorded failure is.
type Severity int

const (
	// SeverityWarning marks a recoverable issue; the affected operation
	// continued with degraded behavior.
	SeverityWarning Severity = iota
	// SeverityError marks a failed operation whose effects were skipped.
	SeverityError
	// SeverityFatal marks a failure that left a component unusable.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// InvalidStateError reports a lifecycle method called out of order, such as
// a second Load on the same component or Configure after Load.
type InvalidStateError struct {
	// Component is the display name of the component, if known.
	Component string
	// Op is the lifecycle method that was rejected (e.g. "Load").
	Op string
	// State is the lifecycle state the component was in at the time.
	State string
	// Timestamp is when the call was rejected.
	Timestamp time.Time
}

func (e *InvalidStateError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: %s not allowed in state %s", e.Component, e.Op, e.State)
	}
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// ValidationError is a structured, non-fatal finding produced by a
// component's Validate hook. It is carried on the component, never thrown.
type ValidationError struct {
	// Component is the display name of the component that failed validation.
	Component string
	// Property names the offending property, if the finding is property-scoped.
	Property string
	// Message describes what is invalid.
	Message string
	// Severity ranks the finding. SeverityWarning findings do not block
	// activation under the default policy.
	Severity Severity
}

func (e *ValidationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("%s.%s: %s", e.Component, e.Property, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

// BindingError records a failed binding resolution or conversion. It is
// accumulated rather than thrown so one failing binding cannot abort its
// siblings; the target property keeps its prior value.
type BindingError struct {
	// Target is the display name of the binding's target component.
	Target string
	// Property is the target property the binding writes to.
	Property string
	// Message describes the failure (lookup miss, conversion panic, ...).
	Message string
	// Severity ranks the failure.
	Severity Severity
	// Cause is the underlying error, if any.
	Cause error
	// Timestamp is when the failure was recorded.
	Timestamp time.Time
}

func (e *BindingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("binding %s.%s: %s: %v", e.Target, e.Property, e.Message, e.Cause)
	}
	return fmt.Sprintf("binding %s.%s: %s", e.Target, e.Property, e.Message)
}

func (e *BindingError) Unwrap() error {
	return e.Cause
}

// LifecycleHandlerError wraps a panic or error raised by a user hook during
// Activate, Deactivate, Update, or layout. The owning component's siblings
// are unaffected; the failure is reported with the component's identity.
type LifecycleHandlerError struct {
	// Component is the display name of the component whose hook failed.
	Component string
	// Phase is the lifecycle phase the hook ran in (e.g. "activate").
	Phase string
	// Recovered is the panic value, nil if the hook returned an error.
	Recovered any
	// Err is the returned error, nil for panics.
	Err error
	// StackTrace is the call stack captured at recovery time.
	StackTrace string
	// Timestamp is when the failure occurred.
	Timestamp time.Time
}

func (e *LifecycleHandlerError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s during %s: %v", e.Component, e.Phase, e.Recovered)
	}
	return fmt.Sprintf("error in %s during %s: %v", e.Component, e.Phase, e.Err)
}

func (e *LifecycleHandlerError) Unwrap() error {
	return e.Err
}

// EventHandlingError wraps a panic raised by an event subscriber. Propagation
// to the remaining handlers continues unless the event was already marked
// handled before the panic.
type EventHandlingError struct {
	// EventID identifies the event being dispatched.
	EventID uuid.UUID
	// EventType is the event's type tag.
	EventType string
	// Handler is the subscriber's identity (function name or label).
	Handler string
	// Subscription correlates the failure to a specific subscription.
	Subscription uuid.UUID
	// Recovered is the panic value.
	Recovered any
	// StackTrace is the call stack captured at recovery time.
	StackTrace string
	// Timestamp is when the failure occurred.
	Timestamp time.Time
}

func (e *EventHandlingError) Error() string {
	return fmt.Sprintf("panic in handler %s for event %s (%s): %v",
		e.Handler, e.EventType, e.EventID, e.Recovered)
}
