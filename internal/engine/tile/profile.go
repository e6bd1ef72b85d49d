package tile

import "fmt"

// Extent is an axis-aligned rectangle in profile coordinates (degrees for geodetic profiles).
type Extent struct {
	XMin, YMin float64
	XMax, YMax float64
}

// Width returns the extent width.
func (e Extent) Width() float64 { return e.XMax - e.XMin }

// Height returns the extent height.
func (e Extent) Height() float64 { return e.YMax - e.YMin }

// Valid reports whether the extent has positive area.
func (e Extent) Valid() bool {
	return e.XMax > e.XMin && e.YMax > e.YMin
}

// Intersects reports whether two extents overlap (touching edges do not count).
func (e Extent) Intersects(o Extent) bool {
	return e.XMin < o.XMax && o.XMin < e.XMax && e.YMin < o.YMax && o.YMin < e.YMax
}

// Contains reports whether the point lies within the extent (inclusive of min edges).
func (e Extent) Contains(x, y float64) bool {
	return x >= e.XMin && x < e.XMax && y >= e.YMin && y < e.YMax
}

// Profile describes a tiling scheme: an extent split into a grid at LOD 0
// that quadruples at every following level.
type Profile struct {
	Name     string
	Extent   Extent
	TilesX   uint32 // tiles across at LOD 0
	TilesY   uint32 // tiles down at LOD 0
	FirstLOD uint32
	MaxLOD   uint32
}

// GlobalGeodetic returns the two-by-one WGS84 plate carree profile.
func GlobalGeodetic() Profile {
	return Profile{
		Name:   "global-geodetic",
		Extent: Extent{XMin: -180, YMin: -90, XMax: 180, YMax: 90},
		TilesX: 2,
		TilesY: 1,
		MaxLOD: 23,
	}
}

// Validate checks the profile is usable.
func (p Profile) Validate() error {
	if !p.Extent.Valid() {
		return fmt.Errorf("profile %q: empty extent", p.Name)
	}
	if p.TilesX == 0 || p.TilesY == 0 {
		return fmt.Errorf("profile %q: zero tiles at lod 0", p.Name)
	}
	if p.FirstLOD > p.MaxLOD {
		return fmt.Errorf("profile %q: first lod %d above max lod %d", p.Name, p.FirstLOD, p.MaxLOD)
	}
	if p.MaxLOD > 30 {
		return fmt.Errorf("profile %q: max lod %d out of range", p.Name, p.MaxLOD)
	}
	return nil
}

// TileCount returns the number of tiles across and down at a level.
func (p Profile) TileCount(lod uint32) (uint32, uint32) {
	return p.TilesX << lod, p.TilesY << lod
}

// Contains reports whether the key addresses a tile of this profile.
func (p Profile) Contains(k Key) bool {
	if k.LOD < p.FirstLOD || k.LOD > p.MaxLOD {
		return false
	}
	w, h := p.TileCount(k.LOD)
	return k.X < w && k.Y < h
}

// CheckKey returns ErrInvalidKey wrapped with detail when the key is outside the profile.
func (p Profile) CheckKey(k Key) error {
	if !p.Contains(k) {
		return fmt.Errorf("%w: %s not in profile %q", ErrInvalidKey, k, p.Name)
	}
	return nil
}

// TileExtent returns the extent covered by a key. Row 0 is the top (north) row.
func (p Profile) TileExtent(k Key) Extent {
	w, h := p.TileCount(k.LOD)
	dx := p.Extent.Width() / float64(w)
	dy := p.Extent.Height() / float64(h)
	xmin := p.Extent.XMin + float64(k.X)*dx
	ymax := p.Extent.YMax - float64(k.Y)*dy
	return Extent{XMin: xmin, YMin: ymax - dy, XMax: xmin + dx, YMax: ymax}
}

// KeysIntersecting returns every key at lod whose extent overlaps e, in row-major order.
func (p Profile) KeysIntersecting(e Extent, lod uint32) []Key {
	if !e.Intersects(p.Extent) {
		return nil
	}
	w, h := p.TileCount(lod)
	dx := p.Extent.Width() / float64(w)
	dy := p.Extent.Height() / float64(h)

	x0 := clampIndex((e.XMin-p.Extent.XMin)/dx, w)
	x1 := clampIndex((e.XMax-p.Extent.XMin)/dx, w)
	y0 := clampIndex((p.Extent.YMax-e.YMax)/dy, h)
	y1 := clampIndex((p.Extent.YMax-e.YMin)/dy, h)

	var keys []Key
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			k := Key{LOD: lod, X: x, Y: y}
			if p.TileExtent(k).Intersects(e) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func clampIndex(f float64, n uint32) uint32 {
	if f < 0 {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return uint32(f)
}
