// Package frame drives the per-frame update pass over one or more component
// trees: advancing deferred property animations, invoking update hooks, and
// flushing the event queue, in that order, once per frame.
package frame

import (
	"sort"
	"time"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/event"
)

// Scheduler owns the frame loop for a set of root components. Everything it
// does runs on the single logical update thread; dt is supplied by the
// caller, so tests drive frames deterministically.
type Scheduler struct {
	arena *core.Arena
	bus   *event.Bus
	roots []core.ComponentID

	pendingAnimations int
}

// NewScheduler creates a scheduler over the arena and event bus.
func NewScheduler(arena *core.Arena, bus *event.Bus) *Scheduler {
	return &Scheduler{arena: arena, bus: bus}
}

// AddRoot registers a tree root for the update pass.
func (s *Scheduler) AddRoot(root *core.Component) {
	if root == nil {
		return
	}
	for _, id := range s.roots {
		if id == root.ID() {
			return
		}
	}
	s.roots = append(s.roots, root.ID())
}

// RemoveRoot unregisters a tree root.
func (s *Scheduler) RemoveRoot(root *core.Component) {
	if root == nil {
		return
	}
	for i, id := range s.roots {
		if id == root.ID() {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

// Step runs one frame: (a) deferred/animated property updates advance by
// dt across every tree, (b) each active, enabled component's update hook
// runs, (c) queued events dispatch. The phases are separate walks, so an
// update hook always reads sibling properties after their commits for this
// frame. Disposed roots fall out of the walk naturally.
func (s *Scheduler) Step(ctx *core.LifecycleContext, dt time.Duration) {
	s.pendingAnimations = 0
	for _, id := range s.roots {
		if root := s.arena.Get(id); root != nil {
			s.advanceWalk(root, dt)
		}
	}
	for _, id := range s.roots {
		if root := s.arena.Get(id); root != nil {
			s.updateWalk(ctx, root, dt)
		}
	}
	if s.bus != nil {
		s.bus.Flush(ctx)
	}
}

// NeedsFrame reports whether another frame would make progress: pending
// animations or queued events.
func (s *Scheduler) NeedsFrame() bool {
	if s.pendingAnimations > 0 {
		return true
	}
	return s.bus != nil && s.bus.Pending() > 0
}

func (s *Scheduler) advanceWalk(c *core.Component, dt time.Duration) {
	if !c.IsActive() {
		return
	}
	s.pendingAnimations += c.AdvanceAnimations(dt)
	c.VisitChildren(func(child *core.Component) bool {
		s.advanceWalk(child, dt)
		return true
	})
}

func (s *Scheduler) updateWalk(ctx *core.LifecycleContext, c *core.Component, dt time.Duration) {
	if !c.IsActive() {
		return
	}
	c.RunUpdate(ctx, dt)
	c.VisitChildren(func(child *core.Component) bool {
		s.updateWalk(ctx, child, dt)
		return true
	})
}

// RenderItem pairs an active renderable component with its draw priority.
type RenderItem struct {
	Component  *core.Component
	Renderable core.Renderable
}

// Renderables returns the ordered, filtered view the rendering backend
// consumes: every active, enabled component whose behavior is renderable,
// sorted by ascending render priority (lower draws first). The slice is
// rebuilt on each call; the backend must not retain it across frames.
func (s *Scheduler) Renderables() []RenderItem {
	var items []RenderItem
	for _, id := range s.roots {
		if root := s.arena.Get(id); root != nil {
			collectRenderables(root, &items)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Renderable.RenderPriority() < items[j].Renderable.RenderPriority()
	})
	return items
}

// Render invokes each renderable's hook once, in draw order. The backend
// owns the target; hooks must not mutate component state.
func (s *Scheduler) Render(target core.RenderTarget) {
	for _, item := range s.Renderables() {
		item.Renderable.Render(target)
	}
}

func collectRenderables(c *core.Component, items *[]RenderItem) {
	if !c.IsActive() {
		return
	}
	if c.IsEnabled() {
		if renderable, ok := c.Behavior().(core.Renderable); ok {
			*items = append(*items, RenderItem{Component: c, Renderable: renderable})
		}
	}
	c.VisitChildren(func(child *core.Component) bool {
		collectRenderables(child, items)
		return true
	})
}
