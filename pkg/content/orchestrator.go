package content

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
	"github.com/go-loom/loom/pkg/resources"
	"github.com/go-loom/loom/pkg/template"
)

// ActivationPolicy decides what happens to components that failed
// validation when the orchestrator reaches the activation phase.
type ActivationPolicy int

const (
	// ActivateValidOnly skips the subtree of any component with blocking
	// validation findings. This is the default.
	ActivateValidOnly ActivationPolicy = iota
	// ForceActivate activates everything regardless of validation findings.
	// The findings stay recorded and IsValid stays false.
	ForceActivate
)

// Report is the outcome of one orchestrated build: every failure recorded
// during the phases, validation findings per component, and the components
// whose subtrees the activation policy skipped.
type Report struct {
	// Failures collects binding, lifecycle, and event failures raised
	// during the build's phases.
	Failures errors.Collector
	// Validation holds each component's findings from the validate phase.
	Validation map[core.ComponentID][]*errors.ValidationError
	// Skipped lists components whose subtrees were not activated under
	// ActivateValidOnly.
	Skipped []core.ComponentID
}

// Clean reports whether the build completed with no failures, no
// validation findings, and nothing skipped.
func (r *Report) Clean() bool {
	if !r.Failures.Empty() || len(r.Skipped) > 0 {
		return false
	}
	for _, findings := range r.Validation {
		if len(findings) > 0 {
			return false
		}
	}
	return true
}

// Orchestrator sequences tree-level lifecycle over a stamped subtree. The
// phase order — instantiate (Load), layout, validate, activate — is a hard
// invariant: layout runs before validation because validation may depend on
// final sizes, and nothing activates before it validated.
type Orchestrator struct {
	// Factory stamps component trees from templates.
	Factory *Factory
	// Policy gates activation on validation outcome.
	Policy ActivationPolicy
	// Assets, when set, acquires declared asset refs before activation.
	Assets *resources.Gateway
}

// NewOrchestrator creates an orchestrator with the default strict
// activation policy.
func NewOrchestrator(factory *Factory) *Orchestrator {
	return &Orchestrator{Factory: factory}
}

// Build stamps the template and drives the subtree through layout,
// validation, and policy-gated activation. Failures inside individual
// components are collected in the report; only a failure to stamp the root
// itself returns an error.
func (o *Orchestrator) Build(ctx *core.LifecycleContext, tmpl *template.Template) (*core.Component, *Report, error) {
	report := &Report{Validation: make(map[core.ComponentID][]*errors.ValidationError)}
	phaseCtx := ctx.WithReporter(errors.Tee{&report.Failures, ctx.Reporter})

	root, err := o.Factory.Instantiate(phaseCtx, tmpl)
	if err != nil {
		return nil, report, err
	}

	o.layoutPass(phaseCtx, root)
	o.validatePass(phaseCtx, root, report)
	o.acquireAssets(phaseCtx, root)
	o.activatePass(phaseCtx, root, report)

	ctx.Logger.Info("content built",
		zap.String("root", root.Name()),
		zap.Int("validated", len(report.Validation)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Bool("clean", report.Clean()))
	return root, report, nil
}

// Teardown deactivates and disposes a subtree. It never fails; teardown
// must not be blocked by a broken subsystem.
func (o *Orchestrator) Teardown(ctx *core.LifecycleContext, root *core.Component) {
	if root == nil {
		return
	}
	if o.Assets != nil {
		o.releaseAssets(root)
	}
	root.Dispose(ctx)
}

// layoutPass invokes UpdateLayout hooks in each participant's declared
// direction: top-down participants before their children, bottom-up
// participants after.
func (o *Orchestrator) layoutPass(ctx *core.LifecycleContext, c *core.Component) {
	participant, ok := c.Behavior().(core.LayoutParticipant)
	if ok && participant.LayoutPass() == core.LayoutTopDown {
		o.runLayout(ctx, c, participant)
	}
	c.VisitChildren(func(child *core.Component) bool {
		o.layoutPass(ctx, child)
		return true
	})
	if ok && participant.LayoutPass() == core.LayoutBottomUp {
		o.runLayout(ctx, c, participant)
	}
}

func (o *Orchestrator) runLayout(ctx *core.LifecycleContext, c *core.Component, participant core.LayoutParticipant) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
				Component:  c.Name(),
				Phase:      "layout",
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()
	if err := participant.UpdateLayout(ctx); err != nil {
		ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
			Component: c.Name(),
			Phase:     "layout",
			Err:       err,
			Timestamp: time.Now(),
		})
	}
}

// validatePass validates top-down, recording findings per component.
func (o *Orchestrator) validatePass(ctx *core.LifecycleContext, c *core.Component, report *Report) {
	report.Validation[c.ID()] = c.Validate(ctx)
	c.VisitChildren(func(child *core.Component) bool {
		o.validatePass(ctx, child, report)
		return true
	})
}

// acquireAssets loads declared asset refs for the subtree before anything
// activates. A component whose assets fail is reported but still reaches
// activation; its behavior decides how to degrade.
func (o *Orchestrator) acquireAssets(ctx *core.LifecycleContext, c *core.Component) {
	if o.Assets == nil {
		return
	}
	if requester, ok := c.Behavior().(core.AssetRequester); ok {
		if refs := requester.AssetRefs(); len(refs) > 0 {
			if err := o.Assets.LoadAll(context.Background(), refs); err != nil {
				ctx.Reporter.ReportLifecycle(&errors.LifecycleHandlerError{
					Component: c.Name(),
					Phase:     "assets",
					Err:       err,
					Timestamp: time.Now(),
				})
			}
		}
	}
	c.VisitChildren(func(child *core.Component) bool {
		o.acquireAssets(ctx, child)
		return true
	})
}

func (o *Orchestrator) releaseAssets(c *core.Component) {
	if requester, ok := c.Behavior().(core.AssetRequester); ok {
		o.Assets.UnloadAll(requester.AssetRefs())
	}
	c.VisitChildren(func(child *core.Component) bool {
		o.releaseAssets(child)
		return true
	})
}

// activatePass activates top-down under the configured policy. Under
// ActivateValidOnly, a component with blocking findings is recorded as
// skipped along with its whole subtree; siblings still activate.
func (o *Orchestrator) activatePass(ctx *core.LifecycleContext, root *core.Component, report *Report) {
	activateCtx := *ctx
	if o.Policy == ActivateValidOnly {
		activateCtx.ActivationGate = func(c *core.Component) bool {
			if c.IsValid() {
				return true
			}
			report.Skipped = append(report.Skipped, c.ID())
			return false
		}
		if !root.IsValid() {
			report.Skipped = append(report.Skipped, root.ID())
			return
		}
	}
	if err := root.Activate(&activateCtx); err != nil {
		// Hook failures were already reported inside Activate; anything
		// else here is a state-machine misuse worth logging.
		ctx.Logger.Warn("root activation failed",
			zap.String("root", root.Name()),
			zap.Error(err))
	}
}
