// Package loomtest provides a deterministic harness for exercising
// component trees in tests: a silent lifecycle context whose failures are
// captured for assertion, and manual frame pumping with caller-controlled
// delta times.
package loomtest

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/content"
	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
	"github.com/go-loom/loom/pkg/event"
	"github.com/go-loom/loom/pkg/frame"
	"github.com/go-loom/loom/pkg/services"
	"github.com/go-loom/loom/pkg/template"
)

// Tester bundles a fresh arena, bus, scheduler, factory, and a context
// whose reporter collects every failure for assertions.
type Tester struct {
	Arena     *core.Arena
	Bus       *event.Bus
	Scheduler *frame.Scheduler
	Factory   *content.Factory
	Registry  *services.Registry
	Failures  *errors.Collector
	Ctx       *core.LifecycleContext
}

// NewTester creates an isolated test runtime.
func NewTester() *Tester {
	arena := core.NewArena()
	bus := event.NewBus(arena)
	registry := services.NewRegistry()
	failures := &errors.Collector{}
	ctx := core.NewLifecycleContext(zap.NewNop(), failures, registry)
	return &Tester{
		Arena:     arena,
		Bus:       bus,
		Scheduler: frame.NewScheduler(arena, bus),
		Factory:   content.NewFactory(arena, registry),
		Registry:  registry,
		Failures:  failures,
		Ctx:       ctx,
	}
}

// NewComponent creates a configured, loaded component outside any template,
// ready to Validate or Activate directly.
func (t *Tester) NewComponent(name string, behavior core.Behavior) *core.Component {
	c := core.NewComponent(t.Arena, "test", behavior)
	c.SetName(name)
	if err := c.Configure(t.Ctx, nil); err != nil {
		panic(err)
	}
	if err := c.Load(t.Ctx); err != nil {
		panic(err)
	}
	return c
}

// Mount builds a template through an orchestrator with the given policy and
// registers the result with the scheduler.
func (t *Tester) Mount(tmpl *template.Template, policy content.ActivationPolicy) (*core.Component, *content.Report, error) {
	orchestrator := content.NewOrchestrator(t.Factory)
	orchestrator.Policy = policy
	root, report, err := orchestrator.Build(t.Ctx, tmpl)
	if err != nil {
		return nil, report, err
	}
	t.Scheduler.AddRoot(root)
	return root, report, nil
}

// Pump runs one frame with the given delta time.
func (t *Tester) Pump(dt time.Duration) {
	t.Scheduler.Step(t.Ctx, dt)
}

// PumpFrames runs n frames of dt each.
func (t *Tester) PumpFrames(n int, dt time.Duration) {
	for range n {
		t.Pump(dt)
	}
}
