// Package resources defines the core's boundary with the host's asset
// system: components declare asset references, the gateway drives the
// host-provided loader and surfaces failures, and the loading itself stays
// entirely on the host's side.
package resources

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service is implemented by the host's asset system. Load may block or fan
// out internally; the gateway calls it off the critical path and bounds
// concurrency.
type Service interface {
	Load(ctx context.Context, ref string) error
	Unload(ref string)
}

// Gateway reference-counts asset loads across components. Components
// sharing a ref load it once; the ref unloads when the last holder
// releases it.
//
// The bookkeeping is confined to the update thread; only the Service calls
// themselves run concurrently.
type Gateway struct {
	service Service
	logger  *zap.Logger
	held    map[string]int
	// Parallelism bounds concurrent Load calls. Zero means 4.
	Parallelism int
}

// NewGateway creates a gateway over the host service.
func NewGateway(service Service, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		service: service,
		logger:  logger,
		held:    make(map[string]int),
	}
}

// LoadAll acquires every ref, loading the ones not already held. Loads run
// concurrently; the first failure is returned and the remaining refs of
// this call are not retained.
func (g *Gateway) LoadAll(ctx context.Context, refs []string) error {
	var toLoad []string
	for _, ref := range refs {
		if g.held[ref] == 0 && !contains(toLoad, ref) {
			toLoad = append(toLoad, ref)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	limit := g.Parallelism
	if limit <= 0 {
		limit = 4
	}
	group.SetLimit(limit)
	var mu sync.Mutex
	var loaded []string
	for _, ref := range toLoad {
		group.Go(func() error {
			if err := g.service.Load(groupCtx, ref); err != nil {
				return fmt.Errorf("resources: load %s: %w", ref, err)
			}
			mu.Lock()
			loaded = append(loaded, ref)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		// Release only what this call actually loaded; refs whose Load
		// failed or never started are not the service's to undo.
		for _, ref := range loaded {
			g.service.Unload(ref)
		}
		return err
	}

	for _, ref := range refs {
		g.held[ref]++
	}
	g.logger.Debug("assets acquired", zap.Int("count", len(refs)), zap.Int("loaded", len(toLoad)))
	return nil
}

// UnloadAll releases the refs, unloading each one whose count reaches zero.
func (g *Gateway) UnloadAll(refs []string) {
	for _, ref := range refs {
		count, ok := g.held[ref]
		if !ok {
			continue
		}
		if count <= 1 {
			delete(g.held, ref)
			g.service.Unload(ref)
		} else {
			g.held[ref] = count - 1
		}
	}
}

// Held reports the current reference count for an asset ref.
func (g *Gateway) Held(ref string) int {
	return g.held[ref]
}

func contains(list []string, s string) bool {
	for _, existing := range list {
		if existing == s {
			return true
		}
	}
	return false
}
