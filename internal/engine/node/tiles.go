package node

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/progress"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilecache"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// CreateTileModel builds the model for key from the layers manifest selects,
// extended by the channels installed effects require.
//
// The build polls p and ctx; on cancellation it returns progress.ErrCanceled
// and no model, which callers treat as an early exit rather than a failure.
// After a successful build every create-tile-model callback runs in
// registration order. Callback errors are joined under ErrCallbackFailed and
// returned together with the model, which remains usable.
func (n *Node) CreateTileModel(ctx context.Context, key tile.Key, manifest geomap.Manifest, p progress.Progress) (*tilemodel.Model, error) {
	n.mu.RLock()
	shutdown, m, req := n.shutdown, n.m, n.req
	epoch := n.epoch.Load()
	n.mu.RUnlock()

	if shutdown {
		return nil, ErrEngineShutDown
	}
	if m == nil {
		return nil, ErrNoMap
	}
	if err := m.Profile().CheckKey(key); err != nil {
		return nil, err
	}

	ck := tilecache.KeyFor(key, manifest, m.Revision())
	if model, ok := n.cache.Get(ck); ok {
		return model, nil
	}

	model, err := n.factory.Create(m, key, manifest, req, progress.WithContext(ctx, p))
	if err != nil {
		return nil, err
	}

	if model.Bounds.Valid() {
		n.FireModifyTileBoundingBoxCallbacks(key, &model.Bounds)
	}

	var errs []error
	for _, e := range n.createCallbacks() {
		if err := e.fn(n, model); err != nil {
			n.log.Warn("create tile model callback failed",
				zap.Stringer("key", key),
				zap.Uint64("callback", uint64(e.id)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return model, fmt.Errorf("%w for %s: %w", ErrCallbackFailed, key, errors.Join(errs...))
	}

	// A model built across a reset may be stale; hand it out but do not keep it.
	n.mu.Lock()
	if n.epoch.Load() == epoch {
		n.cache.Put(ck, model)
	}
	delete(n.pending, key)
	n.mu.Unlock()
	return model, nil
}

// InvalidateRegion drops cached models whose extent intersects extent and
// whose level lies in [minLOD, maxLOD]; minLOD = maxLOD = 0 selects every
// level. With layers given, only models built from one of them are dropped.
// Dropped keys are queued for rebuild (see TakePending). It returns the
// number of models dropped.
func (n *Node) InvalidateRegion(extent tile.Extent, minLOD, maxLOD uint32, layers ...geomap.UID) int {
	allLODs := minLOD == 0 && maxLOD == 0
	removed := n.cache.InvalidateFunc(func(k tilecache.Key, model *tilemodel.Model) bool {
		if !allLODs && (k.Tile.LOD < minLOD || k.Tile.LOD > maxLOD) {
			return false
		}
		if !model.Extent.Intersects(extent) {
			return false
		}
		return len(layers) == 0 || model.UsesLayer(layers...)
	})

	n.mu.Lock()
	for _, k := range removed {
		n.pending[k.Tile] = struct{}{}
	}
	n.mu.Unlock()

	if len(removed) > 0 {
		n.log.Debug("region invalidated",
			zap.Int("models", len(removed)),
			zap.Uint32("minLOD", minLOD),
			zap.Uint32("maxLOD", maxLOD),
		)
	}
	return len(removed)
}

// TakePending returns the keys queued for rebuild, ordered by level then row
// and column, and clears the queue.
func (n *Node) TakePending() []tile.Key {
	n.mu.Lock()
	keys := make([]tile.Key, 0, len(n.pending))
	for k := range n.pending {
		keys = append(keys, k)
	}
	n.pending = make(map[tile.Key]struct{})
	n.mu.Unlock()

	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b tile.Key) int {
	switch {
	case a.LOD != b.LOD:
		return int(a.LOD) - int(b.LOD)
	case a.Y != b.Y:
		return int(a.Y) - int(b.Y)
	}
	return int(a.X) - int(b.X)
}

// DirtyTerrain schedules every cached model to be discarded on the next Traverse.
func (n *Node) DirtyTerrain() {
	n.mu.Lock()
	n.dirtyTerrain = true
	n.mu.Unlock()
}

// DirtyState schedules the sampler header to be recomposed on the next Traverse.
func (n *Node) DirtyState() {
	n.mu.Lock()
	n.dirtyState = true
	n.mu.Unlock()
}

// Traverse applies deferred terrain and state changes. The scene driver calls
// it once per frame or batch, before requesting tiles.
func (n *Node) Traverse(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return ErrEngineShutDown
	}
	stateDirty := n.dirtyState
	if n.dirtyTerrain {
		n.resetModelsLocked("terrain dirty")
	}
	n.dirtyTerrain, n.dirtyState = false, false
	n.mu.Unlock()

	if stateDirty {
		if err := n.recomposeState(); err != nil {
			return err
		}
	}
	return nil
}
