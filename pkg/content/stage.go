package content

import (
	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/template"
)

// Stage holds one mounted template instantiation and supports hot reload:
// remounting from a changed template while skipping reloads whose content
// fingerprint is unchanged.
type Stage struct {
	orchestrator *Orchestrator
	root         *core.Component
	fingerprint  uint64
}

// NewStage creates a stage driven by the given orchestrator.
func NewStage(orchestrator *Orchestrator) *Stage {
	return &Stage{orchestrator: orchestrator}
}

// Root returns the currently mounted root, or nil.
func (s *Stage) Root() *core.Component {
	return s.root
}

// Mount tears down any current tree and builds the template.
func (s *Stage) Mount(ctx *core.LifecycleContext, tmpl *template.Template) (*Report, error) {
	if s.root != nil {
		s.orchestrator.Teardown(ctx, s.root)
		s.root = nil
	}
	root, report, err := s.orchestrator.Build(ctx, tmpl)
	if err != nil {
		return report, err
	}
	s.root = root
	s.fingerprint = tmpl.Fingerprint()
	return report, nil
}

// Reload remounts from tmpl unless its fingerprint matches the mounted
// tree's, in which case nothing happens. Returns whether a remount took
// place.
func (s *Stage) Reload(ctx *core.LifecycleContext, tmpl *template.Template) (*Report, bool, error) {
	fingerprint := tmpl.Fingerprint()
	if s.root != nil && fingerprint == s.fingerprint {
		ctx.Logger.Debug("template unchanged, reload skipped",
			zap.Uint64("fingerprint", fingerprint))
		return nil, false, nil
	}
	report, err := s.Mount(ctx, tmpl)
	if err != nil {
		return report, false, err
	}
	return report, true, nil
}
