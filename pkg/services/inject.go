//go:build wireinject
// +build wireinject

// The build tag keeps the injector stub out of ordinary builds; the
// generated implementation lives in wire_gen.go.

package services

import (
	"github.com/google/wire"

	"github.com/go-loom/loom/pkg/core"
	"github.com/go-loom/loom/pkg/log"
)

// InitializeContext assembles the default production lifecycle context:
// JSON logging, a log-backed reporter, and a fresh service registry.
func InitializeContext() (*core.LifecycleContext, error) {
	wire.Build(
		log.NewProduction,
		NewRegistry,
		provideReporter,
		provideContext,
	)
	return nil, nil
}
