// Package content drives tree-level lifecycle: the factory that stamps
// component trees from templates, and the orchestrator that sequences
// Load → Layout → Validate → Activate across a subtree.
package content

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-loom/loom/pkg/binding"
	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
	"github.com/go-loom/loom/pkg/template"
)

// Constructor builds the behavior for one component type. It receives the
// factory's service resolver to satisfy constructor-time dependencies;
// unresolvable dependencies should fail fast with a descriptive error.
type Constructor func(services core.ServiceResolver) (core.Behavior, error)

// Factory stamps component trees from templates. Component types register a
// constructor under the type name templates refer to; instantiation wires
// behaviors, applies template properties, attaches declared bindings, and
// seals each component with Load.
type Factory struct {
	arena    *core.Arena
	services core.ServiceResolver
	registry map[string]Constructor
}

// NewFactory creates a factory over the given arena and service resolver.
// A nil resolver leaves constructors without services; constructors that
// need none still work.
func NewFactory(arena *core.Arena, services core.ServiceResolver) *Factory {
	return &Factory{
		arena:    arena,
		services: services,
		registry: make(map[string]Constructor),
	}
}

// RegisterType binds a template type name to a behavior constructor.
func (f *Factory) RegisterType(name string, ctor Constructor) error {
	if name == "" {
		return fmt.Errorf("content: type name must not be empty")
	}
	if ctor == nil {
		return fmt.Errorf("content: type %q registered with nil constructor", name)
	}
	if _, exists := f.registry[name]; exists {
		return fmt.Errorf("content: type %q already registered", name)
	}
	f.registry[name] = ctor
	return nil
}

// Types returns the registered type names, sorted.
func (f *Factory) Types() []string {
	names := make([]string, 0, len(f.registry))
	for name := range f.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate stamps a component subtree from the template: construct the
// behavior, configure from template properties, recurse into child
// templates, attach declared bindings, and seal with Load.
//
// A child template that fails to instantiate is reported and skipped; its
// siblings are still stamped. Only a failure of the requested root returns
// an error.
func (f *Factory) Instantiate(ctx *core.LifecycleContext, tmpl *template.Template) (*core.Component, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("content: nil template")
	}
	ctor, ok := f.registry[tmpl.Type]
	if !ok {
		return nil, fmt.Errorf("content: no component type registered for %q", tmpl.Type)
	}
	behavior, err := ctor(f.services)
	if err != nil {
		return nil, fmt.Errorf("content: constructing %q: %w", tmpl.Type, err)
	}

	c := core.NewComponent(f.arena, tmpl.Type, behavior)
	c.SetName(tmpl.Name)
	if err := c.Configure(ctx, tmpl.Properties); err != nil {
		c.Dispose(ctx)
		return nil, err
	}

	for _, childTmpl := range tmpl.Children {
		child, err := f.Instantiate(ctx, childTmpl)
		if err != nil {
			ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
				Component: tmpl.Name,
				Phase:     "instantiate",
				Err:       err,
				Timestamp: time.Now(),
			})
			continue
		}
		if err := c.AddChild(child); err != nil {
			child.Dispose(ctx)
			ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
				Component: tmpl.Name,
				Phase:     "instantiate",
				Err:       err,
				Timestamp: time.Now(),
			})
		}
	}

	for _, spec := range tmpl.Bindings {
		bound, err := buildBinding(spec)
		if err != nil {
			ctx.Reporter.ReportBinding(&errors.BindingError{
				Target:    tmpl.Name,
				Property:  spec.To,
				Message:   "invalid binding descriptor",
				Severity:  errors.SeverityError,
				Cause:     err,
				Timestamp: time.Now(),
			})
			continue
		}
		c.AddAttachment(bound)
	}

	if err := c.Load(ctx); err != nil {
		c.Dispose(ctx)
		return nil, err
	}
	return c, nil
}

// buildBinding turns a plain-data binding spec into a live descriptor.
func buildBinding(spec template.BindingSpec) (*binding.Binding, error) {
	lookup, err := parseLookup(spec.Source)
	if err != nil {
		return nil, err
	}
	mode, err := parseMode(spec.Mode)
	if err != nil {
		return nil, err
	}
	converter, err := buildConverter(spec.Converter)
	if err != nil {
		return nil, err
	}
	return &binding.Binding{
		Lookup:         lookup,
		SourceProperty: spec.From,
		TargetProperty: spec.To,
		Mode:           mode,
		Converter:      converter,
	}, nil
}

func parseLookup(source string) (binding.Lookup, error) {
	kind, arg, _ := strings.Cut(source, ":")
	switch kind {
	case "parent":
		return binding.ParentLookup{}, nil
	case "sibling":
		if arg == "" {
			return nil, fmt.Errorf("sibling lookup needs a name")
		}
		return binding.SiblingLookup{Name: arg}, nil
	case "child":
		if arg == "" {
			return nil, fmt.Errorf("child lookup needs a name")
		}
		return binding.ChildLookup{Name: arg}, nil
	case "named":
		if arg == "" {
			return nil, fmt.Errorf("named lookup needs a name")
		}
		return binding.NamedObjectLookup{Name: arg}, nil
	case "ancestor":
		return binding.AncestorLookup{TypeName: arg}, nil
	default:
		return nil, fmt.Errorf("unknown lookup strategy %q", source)
	}
}

func parseMode(mode string) (binding.Mode, error) {
	switch mode {
	case "", "one-way":
		return binding.OneWay, nil
	case "two-way":
		return binding.TwoWay, nil
	default:
		return binding.OneWay, fmt.Errorf("unknown binding mode %q", mode)
	}
}

func buildConverter(spec *template.ConverterSpec) (binding.Converter, error) {
	if spec == nil {
		return nil, nil
	}
	switch spec.Kind {
	case "scale":
		return binding.Scale{Factor: spec.Factor}, nil
	case "percent":
		return binding.Percent{Decimals: spec.Decimals}, nil
	case "format":
		return binding.Format{Verb: spec.Verb}, nil
	default:
		return nil, fmt.Errorf("unknown converter kind %q", spec.Kind)
	}
}
