// Package terrain holds per-tile raster data: height fields, derived normal
// maps, land cover grids and lightmap atlases.
package terrain

import (
	"image"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// HeightField is a row-major grid of elevation samples. Row 0 is the north
// edge. Border samples surround the interior on every side and only exist to
// give edge normals real neighbors.
type HeightField struct {
	Width   int // samples across, border included
	Height  int // samples down, border included
	Border  int
	Heights []float32
}

// NormalMap holds one unit normal per interior height sample (x east, y up, z south).
type NormalMap struct {
	Width   int
	Height  int
	Normals []math.Vec3
}

// Coverage is a grid of land cover class codes. Zero means no data.
type Coverage struct {
	Width   int
	Height  int
	Classes []uint8
}

// Image is the RGBA raster color layers produce.
type Image = image.RGBA

// Lightmap is a single baked lightmap tile.
type Lightmap struct {
	Brightness []uint8 // one value per pixel
	ColorRGB   []uint8 // three values per pixel
}

// LightmapAtlas holds lightmap atlas data and metadata.
type LightmapAtlas struct {
	Data        []byte // RGBA pixel data
	Size        int32  // Atlas size in pixels (square)
	TilesPerRow int32
	TileWidth   int
	TileHeight  int
}
