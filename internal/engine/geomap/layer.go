// Package geomap is the read-only map snapshot the terrain engine builds
// tiles from: a tiling profile, an ordered list of data layers, and a
// revision that changes whenever the layer list does.
package geomap

import (
	"sync/atomic"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
)

// UID identifies a layer for the lifetime of the process.
type UID uint32

var lastUID atomic.Uint32

// NextUID returns a fresh layer UID. UIDs start at 1.
func NextUID() UID {
	return UID(lastUID.Add(1))
}

// Kind is the data a layer contributes to a tile.
type Kind int

const (
	KindImage Kind = iota
	KindElevation
	KindLandCover
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindElevation:
		return "elevation"
	case KindLandCover:
		return "landcover"
	}
	return "unknown"
}

// Request describes the raster a layer is asked to produce for one tile.
type Request struct {
	Key    tile.Key
	Extent tile.Extent
	Size   int // samples across and down, border excluded
	Border int // extra samples on each side (elevation only)
}

// Layer is a map data source. Name also makes every layer usable as a
// texture unit owner.
type Layer interface {
	UID() UID
	Name() string
	Kind() Kind
	Enabled() bool
}

// ImageLayer produces color imagery.
type ImageLayer interface {
	Layer
	CreateImage(req Request) (*terrain.Image, error)
}

// ElevationLayer produces height fields.
type ElevationLayer interface {
	Layer
	CreateHeightField(req Request) (*terrain.HeightField, error)
}

// LandCoverLayer produces land cover classification grids.
type LandCoverLayer interface {
	Layer
	CreateCoverage(req Request) (*terrain.Coverage, error)
}

// Base carries the identity shared by every layer implementation. Embed it.
type Base struct {
	uid      UID
	name     string
	disabled atomic.Bool
}

// NewBase returns a base with a fresh UID.
func NewBase(name string) Base {
	return Base{uid: NextUID(), name: name}
}

// UID implements Layer.
func (b *Base) UID() UID { return b.uid }

// Name implements Layer.
func (b *Base) Name() string { return b.name }

// Enabled implements Layer.
func (b *Base) Enabled() bool { return !b.disabled.Load() }

// SetEnabled toggles whether tiles use the layer.
func (b *Base) SetEnabled(on bool) { b.disabled.Store(!on) }
