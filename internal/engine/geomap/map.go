package geomap

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
)

// Map errors.
var (
	ErrDuplicateLayer = errors.New("duplicate layer")
	ErrLayerNotFound  = errors.New("layer not found")
)

// Map is an ordered set of layers over a tiling profile. Readers get
// snapshots; the revision increases on every change to the layer list.
type Map struct {
	profile  tile.Profile
	revision atomic.Int64

	mu     sync.RWMutex
	layers []Layer
}

// New creates an empty map on the given profile.
func New(profile tile.Profile) (*Map, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Map{profile: profile}, nil
}

// Profile returns the tiling profile.
func (m *Map) Profile() tile.Profile {
	return m.profile
}

// Revision returns the layer list revision.
func (m *Map) Revision() int64 {
	return m.revision.Load()
}

// AddLayer appends a layer. Names and UIDs must be unique.
func (m *Map) AddLayer(l Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, have := range m.layers {
		if have.UID() == l.UID() || have.Name() == l.Name() {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, l.Name())
		}
	}
	m.layers = append(m.layers, l)
	m.revision.Add(1)
	return nil
}

// RemoveLayer removes the layer with the given UID.
func (m *Map) RemoveLayer(uid UID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, l := range m.layers {
		if l.UID() == uid {
			m.layers = append(m.layers[:i:i], m.layers[i+1:]...)
			m.revision.Add(1)
			return nil
		}
	}
	return fmt.Errorf("%w: uid %d", ErrLayerNotFound, uid)
}

// Layers returns a snapshot of all layers in order.
func (m *Map) Layers() []Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Layer(nil), m.layers...)
}

// LayerByName returns the named layer, or nil.
func (m *Map) LayerByName(name string) Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.layers {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

// ImageLayers returns the enabled image layers in order.
func (m *Map) ImageLayers() []ImageLayer {
	return layersOf[ImageLayer](m)
}

// ElevationLayers returns the enabled elevation layers in order.
func (m *Map) ElevationLayers() []ElevationLayer {
	return layersOf[ElevationLayer](m)
}

// LandCoverLayers returns the enabled land cover layers in order.
func (m *Map) LandCoverLayers() []LandCoverLayer {
	return layersOf[LandCoverLayer](m)
}

func layersOf[T Layer](m *Map) []T {
	var out []T
	for _, l := range m.Layers() {
		if !l.Enabled() {
			continue
		}
		if t, ok := l.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
