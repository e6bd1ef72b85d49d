package tile

import (
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// BoundingBox is an axis-aligned box in tile-local world units (x east, y up, z south).
type BoundingBox struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyBox returns an inverted box that any Expand call will initialize.
func EmptyBox() BoundingBox {
	return BoundingBox{
		Min: math.Vec3{X: 1e10, Y: 1e10, Z: 1e10},
		Max: math.Vec3{X: -1e10, Y: -1e10, Z: -1e10},
	}
}

// Valid reports whether the box has been expanded at least once.
func (b BoundingBox) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Expand grows the box to include p.
func (b *BoundingBox) Expand(p math.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Pad grows the box by d on every side. Negative values shrink it.
func (b *BoundingBox) Pad(d float32) {
	b.Min = b.Min.Sub(math.Vec3{X: d, Y: d, Z: d})
	b.Max = b.Max.Add(math.Vec3{X: d, Y: d, Z: d})
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box dimensions.
func (b BoundingBox) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Radius returns the radius of the bounding sphere.
func (b BoundingBox) Radius() float32 {
	return b.Size().Length() * 0.5
}
