// Package node is the terrain engine node: it owns the texture unit registry,
// holds the current map, and runs the tile model pipeline through registered
// effects and callbacks.
package node

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities"
	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texunit"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilecache"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Node errors.
var (
	ErrEngineShutDown  = errors.New("terrain engine shut down")
	ErrNoMap           = errors.New("no map attached")
	ErrCallbackFailed  = errors.New("tile model callback failed")
	ErrDuplicateEffect = errors.New("effect already installed")
)

// Node is the terrain engine. It is safe for concurrent use: tile models may
// be created from many goroutines while effects and callbacks are added or
// removed.
type Node struct {
	log       *zap.Logger
	resources *texunit.Registry
	factory   *tilemodel.Factory
	cache     *tilecache.Cache

	// epoch is bumped, with mu held, whenever cached models are discarded.
	// A build caches its model only if the epoch it started under is current.
	epoch atomic.Int64

	mu           sync.RWMutex
	m            *geomap.Map
	req          tilemodel.Requirements
	effects      []Effect
	effectsByTag map[string]Effect
	createCBs    []createEntry
	bboxCBs      []bboxEntry
	nextID       CallbackID
	dirtyTerrain bool
	dirtyState   bool
	samplers     []shader.Sampler
	header       string
	pending      map[tile.Key]struct{}
	shutdown     bool
}

// Option configures a Node.
type Option func(*Node)

// WithLogger sets the node logger. The registry logs under the "texunit" child.
func WithLogger(l *zap.Logger) Option {
	return func(n *Node) {
		if l != nil {
			n.log = l
		}
	}
}

// WithFactory replaces the default tile model factory.
func WithFactory(f *tilemodel.Factory) Option {
	return func(n *Node) {
		if f != nil {
			n.factory = f
		}
	}
}

// WithCacheCapacity sets how many built models the node keeps.
func WithCacheCapacity(capacity int) Option {
	return func(n *Node) {
		n.cache = tilecache.New(capacity)
	}
}

// WithMap attaches a map at construction.
func WithMap(m *geomap.Map) Option {
	return func(n *Node) {
		n.m = m
	}
}

// New creates an engine node allocating texture units against caps.
func New(caps capabilities.Provider, opts ...Option) *Node {
	n := &Node{
		log:          logger.Named("engine"),
		effectsByTag: make(map[string]Effect),
		pending:      make(map[tile.Key]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.factory == nil {
		n.factory = tilemodel.NewFactory(tilemodel.WithLogger(n.log.Named("tilemodel")))
	}
	if n.cache == nil {
		n.cache = tilecache.New(tilecache.DefaultCapacity)
	}
	n.resources = texunit.NewRegistry(caps, texunit.WithLogger(n.log.Named("texunit")))
	return n
}

// Resources returns the texture unit registry the node owns.
func (n *Node) Resources() *texunit.Registry {
	return n.resources
}

// Map returns the attached map, or nil.
func (n *Node) Map() *geomap.Map {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.m
}

// SetMap attaches a map and marks the terrain dirty.
func (n *Node) SetMap(m *geomap.Map) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shutdown {
		return ErrEngineShutDown
	}
	n.m = m
	n.dirtyTerrain = true
	return nil
}

// Require adds auxiliary channels every tile model must carry. Adding a
// channel not already required marks the terrain dirty.
func (n *Node) Require(r tilemodel.Requirements) {
	n.mu.Lock()
	defer n.mu.Unlock()
	merged := n.req.Merge(r)
	if merged != n.req {
		n.req = merged
		n.dirtyTerrain = true
		n.log.Debug("tile requirements changed", zap.Stringer("requirements", merged))
	}
}

// Requirements returns the current requirement flags.
func (n *Node) Requirements() tilemodel.Requirements {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.req
}

// CacheStats returns the model cache counters.
func (n *Node) CacheStats() tilecache.Stats {
	return n.cache.Stats()
}

// Shutdown uninstalls every effect in reverse install order, drops all
// callbacks and cached models, and detaches the map. Later tile requests fail
// with ErrEngineShutDown. Calling it again does nothing.
func (n *Node) Shutdown() {
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return
	}
	n.shutdown = true
	effects := n.effects
	n.effects = nil
	n.effectsByTag = make(map[string]Effect)
	n.createCBs = nil
	n.bboxCBs = nil
	n.m = nil
	n.pending = make(map[tile.Key]struct{})
	n.resetModelsLocked("shutdown")
	n.mu.Unlock()

	for i := len(effects) - 1; i >= 0; i-- {
		effects[i].Uninstall(n)
	}
	n.log.Info("terrain engine shut down", zap.Int("effects", len(effects)))
}

// IsShutDown reports whether Shutdown was called.
func (n *Node) IsShutDown() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.shutdown
}

// resetModelsLocked discards every cached model. n.mu must be held for writing,
// which orders the reset against the epoch check in CreateTileModel.
func (n *Node) resetModelsLocked(reason string) {
	n.epoch.Add(1)
	n.cache.Purge()
	n.log.Debug("cached tile models discarded", zap.String("reason", reason))
}
