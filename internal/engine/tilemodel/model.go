// Package tilemodel builds the per-tile data model the terrain engine
// renders: color imagery, elevation, normals and land cover for one tile key.
package tilemodel

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
)

// ColorLayer is the imagery one image layer produced for the tile.
type ColorLayer struct {
	Layer geomap.UID
	Name  string
	Image *terrain.Image

	// Parent is the same layer's image for the parent tile, set when parent
	// textures are required. ParentScaleBias maps this tile's texture
	// coordinates into it: u' = u*S[0] + S[2], v' = v*S[1] + S[3].
	Parent          *terrain.Image
	ParentScaleBias [4]float32
}

// CoverageLayer is the land cover one layer produced for the tile.
type CoverageLayer struct {
	Layer    geomap.UID
	Name     string
	Coverage *terrain.Coverage
}

// Model is the data for one tile, built for a map revision and manifest.
// It is not modified after the create-tile-model callbacks ran, apart from
// Extensions which callbacks fill.
type Model struct {
	Key      tile.Key
	Extent   tile.Extent
	Revision int64
	Manifest geomap.Manifest

	Color     []ColorLayer
	Elevation *terrain.HeightField
	Normals   *terrain.NormalMap
	LandCover []CoverageLayer
	Bounds    tile.BoundingBox

	// Layers lists every layer that contributed data, in build order.
	Layers []geomap.UID

	Extensions map[string]any
}

// UsesLayer reports whether any contributing layer has one of the given UIDs.
func (m *Model) UsesLayer(uids ...geomap.UID) bool {
	for _, have := range m.Layers {
		for _, want := range uids {
			if have == want {
				return true
			}
		}
	}
	return false
}

// SetExtension attaches data under name.
func (m *Model) SetExtension(name string, v any) {
	if m.Extensions == nil {
		m.Extensions = make(map[string]any)
	}
	m.Extensions[name] = v
}

// Extension returns the data attached under name.
func (m *Model) Extension(name string) (any, bool) {
	v, ok := m.Extensions[name]
	return v, ok
}
