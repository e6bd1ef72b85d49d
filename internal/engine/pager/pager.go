// Package pager drives the terrain engine over batches of tiles, standing in
// for a scene graph traversal: it applies deferred engine state, then builds
// tile models concurrently with a bounded number of workers.
package pager

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/progress"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Result collects the outcome of one batch.
type Result struct {
	Models   map[tile.Key]*tilemodel.Model
	Failed   map[tile.Key]error // includes models whose callbacks failed
	Canceled int
	Elapsed  time.Duration
}

// Pager builds tile batches on a node.
type Pager struct {
	n       *node.Node
	workers int64
	log     *zap.Logger
}

// Option configures a Pager.
type Option func(*Pager)

// WithWorkers bounds concurrent tile builds. Non-positive means GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(p *Pager) {
		if workers > 0 {
			p.workers = int64(workers)
		}
	}
}

// WithLogger sets the pager logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pager) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a pager for n.
func New(n *node.Node, opts ...Option) *Pager {
	p := &Pager{
		n:       n,
		workers: int64(runtime.GOMAXPROCS(0)),
		log:     logger.Named("pager"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build traverses the node and then builds every key under manifest.
// Canceled builds are counted, not failed. A shut down engine aborts the
// batch with node.ErrEngineShutDown.
func (p *Pager) Build(ctx context.Context, keys []tile.Key, manifest geomap.Manifest) (*Result, error) {
	start := time.Now()
	if err := p.n.Traverse(ctx); err != nil {
		return nil, err
	}

	res := &Result{
		Models: make(map[tile.Key]*tilemodel.Model, len(keys)),
		Failed: make(map[tile.Key]error),
	}
	var mu sync.Mutex
	sem := semaphore.NewWeighted(p.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i, key := range keys {
		if err := sem.Acquire(gctx, 1); err != nil {
			mu.Lock()
			res.Canceled += len(keys) - i
			mu.Unlock()
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			model, err := p.n.CreateTileModel(gctx, key, manifest, nil)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Models[key] = model
			case errors.Is(err, progress.ErrCanceled):
				res.Canceled++
			case errors.Is(err, node.ErrEngineShutDown):
				return err
			case errors.Is(err, node.ErrCallbackFailed):
				res.Models[key] = model
				res.Failed[key] = err
			default:
				res.Failed[key] = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Elapsed = time.Since(start)

	p.log.Info("tile batch built",
		zap.Int("requested", len(keys)),
		zap.Int("built", len(res.Models)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("canceled", res.Canceled),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// Rebuild builds the keys the node queued for rebuild after invalidation.
func (p *Pager) Rebuild(ctx context.Context, manifest geomap.Manifest) (*Result, error) {
	return p.Build(ctx, p.n.TakePending(), manifest)
}

// KeysForRegion lists the keys covering extent on every level in [minLOD, maxLOD],
// coarse levels first.
func KeysForRegion(profile tile.Profile, extent tile.Extent, minLOD, maxLOD uint32) []tile.Key {
	var keys []tile.Key
	for lod := max(minLOD, profile.FirstLOD); lod <= min(maxLOD, profile.MaxLOD); lod++ {
		keys = append(keys, profile.KeysIntersecting(extent, lod)...)
	}
	return keys
}
