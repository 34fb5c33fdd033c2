// Package template defines the declarative authoring surface of the
// runtime: plain-data descriptions of components, their property values,
// child templates, and binding descriptors. Templates carry no behavior;
// the content factory consumes them to stamp component instances.
package template

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Template describes one desired component: its registered type, name,
// static property values, declared bindings, and child templates. A template
// owns its children. One template may be cloned and stamped any number of
// times; the factory never retains it.
type Template struct {
	// Type selects the behavior constructor registered with the factory.
	Type string `yaml:"type"`
	// Name is the stamped component's display name.
	Name string `yaml:"name"`
	// Properties are static values applied during Configure.
	Properties map[string]any `yaml:"properties"`
	// Bindings are declared data flows, resolved when the component
	// activates.
	Bindings []BindingSpec `yaml:"bindings"`
	// Children are stamped recursively, in declaration order.
	Children []*Template `yaml:"children"`
}

// BindingSpec is the plain-data form of a property binding.
type BindingSpec struct {
	// Source selects the lookup strategy: "parent", "sibling:<name>",
	// "child:<name>", "named:<name>", or "ancestor:<type>".
	Source string `yaml:"source"`
	// From is the property read on the source component.
	From string `yaml:"from"`
	// To is the property written on the stamped component.
	To string `yaml:"to"`
	// Mode is "one-way" (default when empty) or "two-way".
	Mode string `yaml:"mode"`
	// Converter optionally transforms values in transit.
	Converter *ConverterSpec `yaml:"converter"`
}

// ConverterSpec is the plain-data form of a value converter.
type ConverterSpec struct {
	// Kind is "scale", "percent", or "format".
	Kind string `yaml:"kind"`
	// Factor is the multiplier for "scale".
	Factor float64 `yaml:"factor"`
	// Verb is the fmt verb for "format".
	Verb string `yaml:"verb"`
	// Decimals is the fractional digit count for "percent".
	Decimals int `yaml:"decimals"`
}

// Clone returns a deep copy. The copy shares nothing with the original, so
// a cloned template can be mutated and re-stamped independently.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	clone := &Template{
		Type: t.Type,
		Name: t.Name,
	}
	if t.Properties != nil {
		clone.Properties = make(map[string]any, len(t.Properties))
		for key, value := range t.Properties {
			clone.Properties[key] = value
		}
	}
	if t.Bindings != nil {
		clone.Bindings = make([]BindingSpec, len(t.Bindings))
		for i, spec := range t.Bindings {
			clone.Bindings[i] = spec
			if spec.Converter != nil {
				converter := *spec.Converter
				clone.Bindings[i].Converter = &converter
			}
		}
	}
	for _, child := range t.Children {
		clone.Children = append(clone.Children, child.Clone())
	}
	return clone
}

// Fingerprint returns a stable hash of the template's content, independent
// of property map iteration order. Reload paths use it to skip re-stamping
// unchanged templates.
func (t *Template) Fingerprint() uint64 {
	digest := xxhash.New()
	t.hashInto(digest)
	return digest.Sum64()
}

func (t *Template) hashInto(digest *xxhash.Digest) {
	if t == nil {
		_, _ = digest.WriteString("<nil>")
		return
	}
	_, _ = digest.WriteString("t:" + t.Type + ";n:" + t.Name + ";")

	keys := make([]string, 0, len(t.Properties))
	for key := range t.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		_, _ = digest.WriteString(fmt.Sprintf("p:%s=%v;", key, t.Properties[key]))
	}

	for _, spec := range t.Bindings {
		_, _ = digest.WriteString(fmt.Sprintf("b:%s|%s|%s|%s", spec.Source, spec.From, spec.To, spec.Mode))
		if spec.Converter != nil {
			_, _ = digest.WriteString(fmt.Sprintf("|c:%s:%v:%s:%d",
				spec.Converter.Kind, spec.Converter.Factor, spec.Converter.Verb, spec.Converter.Decimals))
		}
		_, _ = digest.WriteString(";")
	}

	_, _ = digest.WriteString("[")
	for _, child := range t.Children {
		child.hashInto(digest)
	}
	_, _ = digest.WriteString("]")
}

// Validate checks the template's structural well-formedness: every node
// needs a type, and binding specs need source, from, and to.
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("template: nil template")
	}
	if t.Type == "" {
		return fmt.Errorf("template: node %q has no type", t.Name)
	}
	for i, spec := range t.Bindings {
		if spec.Source == "" || spec.From == "" || spec.To == "" {
			return fmt.Errorf("template: node %q binding %d is incomplete", t.Name, i)
		}
	}
	for _, child := range t.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}
