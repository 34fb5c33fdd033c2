package services

import (
	"go.uber.org/zap"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/errors"
)

func provideReporter(logger *zap.Logger) errors.Reporter {
	return errors.NewLogReporter(logger)
}

func provideContext(logger *zap.Logger, reporter errors.Reporter, registry *Registry) *core.LifecycleContext {
	return core.NewLifecycleContext(logger, reporter, registry)
}
