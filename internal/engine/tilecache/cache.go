// Package tilecache keeps recently built tile models so repeated requests for
// the same tile skip the factory.
package tilecache

import (
	"container/list"
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// DefaultCapacity is the number of models kept when no capacity is given.
const DefaultCapacity = 256

// Key identifies a cached model. Revision ties the entry to the map state it
// was built from, so a changed layer list never serves stale models.
type Key struct {
	Tile     tile.Key
	Manifest string
	Revision int64
}

// KeyFor returns the cache key for a tile built under manifest at revision.
func KeyFor(k tile.Key, manifest geomap.Manifest, revision int64) Key {
	return Key{Tile: k, Manifest: manifest.Fingerprint(), Revision: revision}
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	Entries   int
}

type entry struct {
	key   Key
	model *tilemodel.Model
}

// Cache is a bounded least-recently-used model cache. It is safe for concurrent use.
type Cache struct {
	capacity int

	mu    sync.Mutex
	order *list.List // front is most recent
	items map[Key]*list.Element

	hits      int
	misses    int
	evictions int
}

// New creates a cache holding up to capacity models.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the cached model and marks it recently used.
func (c *Cache) Get(key Key) (*tilemodel.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).model, true
}

// Put stores a model, evicting the least recently used one when full.
func (c *Cache) Put(key Key, model *tilemodel.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).model = model
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry{key: key, model: model})
	for c.order.Len() > c.capacity {
		c.removeLocked(c.order.Back())
		c.evictions++
	}
}

// InvalidateFunc drops every entry for which drop returns true and returns
// the keys removed.
func (c *Cache) InvalidateFunc(drop func(Key, *tilemodel.Model) bool) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []Key
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry)
		if drop(e.key, e.model) {
			removed = append(removed, e.key)
			c.removeLocked(el)
		}
		el = next
	}
	return removed
}

// Purge drops every entry. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[Key]*list.Element)
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.order.Len(),
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.items, e.key)
}
