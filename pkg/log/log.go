// Package log builds the zap loggers the runtime is wired with. Components
// never reach for a package-level logger; they receive one through their
// lifecycle context.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewProduction builds a JSON logger writing to stderr with sampling,
// suitable for shipped builds.
func NewProduction() (*zap.Logger, error) {
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}

// NewDevelopment builds a human-readable debug-level logger for local runs
// and tooling.
func NewDevelopment() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	return config.Build()
}
