// Package binding implements declarative property bindings between
// components: lookup strategies that locate a binding's source relative to
// its target, value converters applied in transit, and the binding itself,
// which subscribes to change notifications while its target is active.
package binding

import (
	"github.com/go-loom/loom/pkg/core"
)

// Lookup resolves a binding's source component relative to the binding's
// target. Implementations are pure and stateless: they never mutate the
// tree, never panic, and report "not found" as ok == false rather than an
// error.
type Lookup interface {
	// Resolve returns the source component for a binding targeting target.
	Resolve(target *core.Component) (source *core.Component, ok bool)
	// Describe names the strategy for failure messages.
	Describe() string
}

// ParentLookup resolves to the target's parent.
type ParentLookup struct{}

func (ParentLookup) Resolve(target *core.Component) (*core.Component, bool) {
	if target == nil {
		return nil, false
	}
	parent := target.Parent()
	return parent, parent != nil
}

func (ParentLookup) Describe() string { return "parent" }

// SiblingLookup resolves to a sibling of the target by name.
type SiblingLookup struct {
	// Name is the sibling's component name.
	Name string
}

func (l SiblingLookup) Resolve(target *core.Component) (*core.Component, bool) {
	if target == nil {
		return nil, false
	}
	parent := target.Parent()
	if parent == nil {
		return nil, false
	}
	var found *core.Component
	parent.VisitChildren(func(child *core.Component) bool {
		if child != target && child.Name() == l.Name {
			found = child
			return false
		}
		return true
	})
	return found, found != nil
}

func (l SiblingLookup) Describe() string { return "sibling " + l.Name }

// ChildLookup resolves to a direct child of the target by name.
type ChildLookup struct {
	// Name is the child's component name.
	Name string
}

func (l ChildLookup) Resolve(target *core.Component) (*core.Component, bool) {
	if target == nil {
		return nil, false
	}
	child := target.ChildByName(l.Name)
	return child, child != nil
}

func (l ChildLookup) Describe() string { return "child " + l.Name }

// NamedObjectLookup resolves to any live component in the tree by name.
// When several components share the name, the one with the lowest id wins
// so repeated resolutions are deterministic.
type NamedObjectLookup struct {
	// Name is the component name to search the arena for.
	Name string
}

func (l NamedObjectLookup) Resolve(target *core.Component) (*core.Component, bool) {
	if target == nil {
		return nil, false
	}
	found := target.Arena().FirstByName(l.Name)
	return found, found != nil
}

func (l NamedObjectLookup) Describe() string { return "named object " + l.Name }

// AncestorLookup walks the target's parent links upward until a component
// matches, or returns not-found at the root. A match is an ancestor whose
// type name equals TypeName (when set) and that satisfies Where (when set).
// With neither filter set, it resolves to the root.
type AncestorLookup struct {
	// TypeName filters by template type name. Empty matches any type.
	TypeName string
	// Where is an additional predicate, typically a capability check on the
	// ancestor's behavior. Nil matches anything.
	Where func(*core.Component) bool
}

func (l AncestorLookup) Resolve(target *core.Component) (*core.Component, bool) {
	if target == nil {
		return nil, false
	}
	if l.TypeName == "" && l.Where == nil {
		root := target.Parent()
		if root == nil {
			return nil, false
		}
		for root.Parent() != nil {
			root = root.Parent()
		}
		return root, true
	}
	found := target.FindAncestor(func(ancestor *core.Component) bool {
		if l.TypeName != "" && ancestor.TypeName() != l.TypeName {
			return false
		}
		if l.Where != nil && !l.Where(ancestor) {
			return false
		}
		return true
	})
	return found, found != nil
}

func (l AncestorLookup) Describe() string {
	if l.TypeName != "" {
		return "ancestor " + l.TypeName
	}
	return "ancestor"
}
