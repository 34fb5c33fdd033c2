package binding

import (
	"fmt"
	"time"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
)

// Mode selects the data-flow direction of a binding.
type Mode int

const (
	// OneWay pushes source changes to the target.
	OneWay Mode = iota
	// TwoWay additionally pushes target changes back to the source.
	TwoWay
)

func (m Mode) String() string {
	switch m {
	case OneWay:
		return "one-way"
	case TwoWay:
		return "two-way"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Binding is a declared data flow from a source component's property into a
// target component's property. The descriptor fields are set at template
// definition time; resolution against the live tree happens when the target
// activates, and every subscription is released when it deactivates.
//
// A binding holds no reference to its source outside the active window, so
// a source change after deactivation can never reach the former target.
type Binding struct {
	// Lookup locates the source component relative to the target.
	Lookup Lookup
	// SourceProperty is the property read on the source.
	SourceProperty string
	// TargetProperty is the property written on the target.
	TargetProperty string
	// Mode selects one-way or two-way flow.
	Mode Mode
	// Converter optionally transforms values in transit. Nil passes values
	// through unchanged.
	Converter Converter

	source      *core.Component
	unsubSource func()
	unsubTarget func()
	resolved    bool

	// applying guards against feedback: while this binding is the one
	// committing an update, its own change subscriptions must not re-emit.
	applying bool
}

var _ core.Attachment = (*Binding)(nil)

// Resolved reports whether the binding is currently attached to a live
// source.
func (b *Binding) Resolved() bool { return b.resolved }

// Source returns the resolved source component, or nil while unresolved.
func (b *Binding) Source() *core.Component { return b.source }

// Attach resolves the lookup against the current tree, performs the initial
// source-to-target push, and subscribes to change notifications. A lookup
// that finds nothing is a normal outcome: the failure is recorded through
// the reporter, the target keeps its prior value, and Attach returns nil so
// sibling bindings proceed.
func (b *Binding) Attach(ctx *core.LifecycleContext, owner *core.Component) error {
	b.Detach(owner)

	record := func(message string, severity errors.Severity, cause error) {
		ctx.Reporter.ReportBinding(&errors.BindingError{
			Target:    owner.Name(),
			Property:  b.TargetProperty,
			Message:   message,
			Severity:  severity,
			Cause:     cause,
			Timestamp: time.Now(),
		})
	}

	if b.Lookup == nil || b.SourceProperty == "" || b.TargetProperty == "" {
		record("incomplete binding descriptor", errors.SeverityError, nil)
		return nil
	}
	if !owner.Properties().Has(b.TargetProperty) {
		record("target has no such property", errors.SeverityError, nil)
		return nil
	}

	source, ok := b.Lookup.Resolve(owner)
	if !ok {
		record(fmt.Sprintf("lookup %s found no source", b.Lookup.Describe()), errors.SeverityWarning, nil)
		return nil
	}
	if !source.Properties().Has(b.SourceProperty) {
		record(fmt.Sprintf("source %q has no property %q", source.Name(), b.SourceProperty), errors.SeverityError, nil)
		return nil
	}

	b.source = source
	b.resolved = true

	// Bindings are not lazy: the initial value syncs on activation,
	// bypassing deferral.
	if value, ok := source.Properties().Get(b.SourceProperty); ok {
		b.push(ctx, owner, value, true)
	}

	b.unsubSource = source.Properties().Subscribe(b.SourceProperty, func(value any) {
		if b.applying {
			return
		}
		b.push(ctx, owner, value, false)
	})

	if b.Mode == TwoWay {
		// On an animatable target the binding's deferred write commits at
		// flush time, after applying has cleared, so each interpolated step
		// echoes back to the source. Intended: the source tracks the
		// target's visible value, the echo is one hop (pushBack holds
		// applying while writing the source), and it ends with the
		// animation.
		b.unsubTarget = owner.Properties().Subscribe(b.TargetProperty, func(value any) {
			if b.applying {
				return
			}
			b.pushBack(ctx, owner, value)
		})
	}
	return nil
}

// Detach releases every subscription and drops the source reference. Safe
// to call repeatedly and after a failed Attach.
func (b *Binding) Detach(owner *core.Component) {
	if b.unsubSource != nil {
		b.unsubSource()
		b.unsubSource = nil
	}
	if b.unsubTarget != nil {
		b.unsubTarget()
		b.unsubTarget = nil
	}
	b.source = nil
	b.resolved = false
	b.applying = false
}

// push converts and writes a source value into the target property. initial
// pushes commit immediately; subsequent pushes go through the property's
// declared write semantics, so an animatable target interpolates.
func (b *Binding) push(ctx *core.LifecycleContext, owner *core.Component, value any, initial bool) {
	converted, err := b.convert(value, false)
	if err != nil {
		ctx.Reporter.ReportBinding(&errors.BindingError{
			Target:    owner.Name(),
			Property:  b.TargetProperty,
			Message:   "conversion failed; update skipped",
			Severity:  errors.SeverityError,
			Cause:     err,
			Timestamp: time.Now(),
		})
		return
	}

	b.applying = true
	defer func() { b.applying = false }()
	if initial {
		_, _ = owner.Properties().SetNow(b.TargetProperty, converted)
	} else {
		_ = owner.Properties().Set(b.TargetProperty, converted)
	}
}

// pushBack writes a target change back to the source for two-way bindings.
func (b *Binding) pushBack(ctx *core.LifecycleContext, owner *core.Component, value any) {
	if b.source == nil {
		return
	}
	converted, err := b.convert(value, true)
	if err != nil {
		ctx.Reporter.ReportBinding(&errors.BindingError{
			Target:    owner.Name(),
			Property:  b.TargetProperty,
			Message:   "reverse conversion failed; update skipped",
			Severity:  errors.SeverityError,
			Cause:     err,
			Timestamp: time.Now(),
		})
		return
	}

	b.applying = true
	defer func() { b.applying = false }()
	_ = b.source.Properties().Set(b.SourceProperty, converted)
}

// convert applies the converter with panic containment: a panicking
// converter is an error for this cycle, not a crash.
func (b *Binding) convert(value any, back bool) (converted any, err error) {
	if b.Converter == nil {
		return value, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("converter panicked: %v", r)
		}
	}()
	if back {
		return b.Converter.ConvertBack(value)
	}
	return b.Converter.Convert(value)
}
