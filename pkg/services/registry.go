// Package services implements the runtime's dependency surface: a registry
// resolving framework-provided services by declared capability name, used by
// the factory to satisfy behavior constructor dependencies.
package services

import (
	"fmt"
	"sort"

	"github.com/go-loom/loom/pkg/core"
)

// Registry maps capability names to service instances. Resolution either
// returns the registered instance or fails fast with an error naming the
// missing capability — constructors should propagate that error rather than
// limp along.
type Registry struct {
	entries map[string]any
}

var _ core.ServiceResolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]any)}
}

// Register binds a capability name to a service instance, replacing any
// previous binding.
func (r *Registry) Register(capability string, service any) {
	r.entries[capability] = service
}

// Resolve returns the service registered for the capability.
func (r *Registry) Resolve(capability string) (any, error) {
	service, ok := r.entries[capability]
	if !ok {
		return nil, fmt.Errorf("services: no provider for capability %q (have %v)", capability, r.Capabilities())
	}
	return service, nil
}

// Capabilities returns the registered capability names, sorted.
func (r *Registry) Capabilities() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// As resolves a capability and asserts its concrete type in one step.
func As[T any](resolver core.ServiceResolver, capability string) (T, error) {
	var zero T
	service, err := resolver.Resolve(capability)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("services: capability %q is %T, not %T", capability, service, zero)
	}
	return typed, nil
}
