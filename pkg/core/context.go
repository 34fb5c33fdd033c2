package core

import (
	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/errors"
)

// ServiceResolver satisfies component constructor-time dependencies by
// declared capability name. Resolution either succeeds or fails fast with a
// descriptive error; there is no partial result.
type ServiceResolver interface {
	Resolve(capability string) (any, error)
}

// LifecycleContext carries the framework services a lifecycle method needs:
// a logger, an error reporter, and service resolution. It is passed
// explicitly so components stay constructible and testable in isolation —
// nothing in this package reads process-wide state.
type LifecycleContext struct {
	// Logger receives structured lifecycle logging.
	Logger *zap.Logger
	// Reporter receives binding, lifecycle, and event failures.
	Reporter errors.Reporter
	// Services resolves framework-provided dependencies by capability.
	Services ServiceResolver
	// ActivationGate, when set, is consulted before each child activates
	// during an Activate pass. Returning false skips the child's subtree.
	// The orchestrator uses it to express its activation policy; nil
	// activates everything.
	ActivationGate func(*Component) bool
}

// NewLifecycleContext builds a context, substituting no-op defaults for nil
// arguments.
func NewLifecycleContext(logger *zap.Logger, reporter errors.Reporter, services ServiceResolver) *LifecycleContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = errors.Discard
	}
	if services == nil {
		services = noServices{}
	}
	return &LifecycleContext{
		Logger:   logger,
		Reporter: reporter,
		Services: services,
	}
}

// WithReporter returns a copy of the context that reports to the given
// reporter. Used by phase drivers to collect failures per phase while still
// logging them.
func (ctx *LifecycleContext) WithReporter(reporter errors.Reporter) *LifecycleContext {
	clone := *ctx
	if reporter == nil {
		reporter = errors.Discard
	}
	clone.Reporter = reporter
	return &clone
}

type noServices struct{}

func (noServices) Resolve(capability string) (any, error) {
	return nil, &ServiceNotFoundError{Capability: capability}
}

// ServiceNotFoundError reports a capability no resolver could satisfy.
type ServiceNotFoundError struct {
	// Capability is the requested capability name.
	Capability string
}

func (e *ServiceNotFoundError) Error() string {
	return "core: no service registered for capability " + e.Capability
}
