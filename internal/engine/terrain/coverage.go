package terrain

import (
	"image"
)

// NewCoverage allocates an empty land cover grid.
func NewCoverage(width, height int) *Coverage {
	return &Coverage{
		Width:   width,
		Height:  height,
		Classes: make([]uint8, width*height),
	}
}

// At returns the class at (x, y), or 0 outside the grid.
func (c *Coverage) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return 0
	}
	return c.Classes[y*c.Width+x]
}

// Histogram counts samples per class.
func (c *Coverage) Histogram() map[uint8]int {
	out := make(map[uint8]int)
	for _, v := range c.Classes {
		out[v]++
	}
	return out
}

func newImage(width, height int) *Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// NewImage allocates a transparent RGBA image.
func NewImage(width, height int) *Image {
	return newImage(width, height)
}
