// Package tile provides terrain tile addressing: keys, tiling profiles, extents and bounding boxes.
package tile

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when a key does not address a tile in a profile.
var ErrInvalidKey = errors.New("invalid tile key")

// Key identifies a terrain tile by level of detail and column/row in a quadtree.
type Key struct {
	LOD uint32
	X   uint32
	Y   uint32
}

// String returns the key as "lod/x/y".
func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.LOD, k.X, k.Y)
}

// Parent returns the key one level up. The root keys return themselves with ok=false.
func (k Key) Parent() (Key, bool) {
	if k.LOD == 0 {
		return k, false
	}
	return Key{LOD: k.LOD - 1, X: k.X / 2, Y: k.Y / 2}, true
}

// Children returns the four keys one level down, in row-major order.
func (k Key) Children() [4]Key {
	lod := k.LOD + 1
	x, y := k.X*2, k.Y*2
	return [4]Key{
		{LOD: lod, X: x, Y: y},
		{LOD: lod, X: x + 1, Y: y},
		{LOD: lod, X: x, Y: y + 1},
		{LOD: lod, X: x + 1, Y: y + 1},
	}
}

// Quadrant returns which child of its parent this key is (0..3, row-major).
func (k Key) Quadrant() int {
	return int(k.X&1) + int(k.Y&1)*2
}
