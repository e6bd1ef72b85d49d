package tilecache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

func key(x uint32) Key {
	return KeyFor(tile.Key{LOD: 3, X: x}, geomap.Manifest{}, 1)
}

func model(x uint32) *tilemodel.Model {
	return &tilemodel.Model{Key: tile.Key{LOD: 3, X: x}}
}

func TestGetPut(t *testing.T) {
	c := New(4)
	_, ok := c.Get(key(1))
	assert.False(t, ok)

	m := model(1)
	c.Put(key(1), m)
	got, ok := c.Get(key(1))
	require.True(t, ok)
	assert.Same(t, m, got)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Entries: 1}, c.Stats())
}

func TestKeyDistinguishesManifestAndRevision(t *testing.T) {
	k := tile.Key{LOD: 1}
	assert.NotEqual(t, KeyFor(k, geomap.Manifest{}, 1), KeyFor(k, geomap.NewManifest(2), 1))
	assert.NotEqual(t, KeyFor(k, geomap.Manifest{}, 1), KeyFor(k, geomap.Manifest{}, 2))
	assert.Equal(t, KeyFor(k, geomap.NewManifest(2, 3), 1), KeyFor(k, geomap.NewManifest(3, 2), 1))
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put(key(1), model(1))
	c.Put(key(2), model(2))
	c.Get(key(1))
	c.Put(key(3), model(3))

	_, ok := c.Get(key(2))
	assert.False(t, ok, "2 was least recently used")
	_, ok = c.Get(key(1))
	assert.True(t, ok)
	assert.Equal(t, 1, c.Stats().Evictions)
	assert.Equal(t, 2, c.Len())
}

func TestPutReplaces(t *testing.T) {
	c := New(2)
	c.Put(key(1), model(1))
	m := model(1)
	c.Put(key(1), m)
	got, _ := c.Get(key(1))
	assert.Same(t, m, got)
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateFunc(t *testing.T) {
	c := New(8)
	for x := uint32(0); x < 5; x++ {
		c.Put(key(x), model(x))
	}
	removed := c.InvalidateFunc(func(k Key, _ *tilemodel.Model) bool {
		return k.Tile.X%2 == 0
	})
	assert.Len(t, removed, 3)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				x := uint32((g*100 + i) % 32)
				c.Put(key(x), model(x))
				c.Get(key(x))
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
