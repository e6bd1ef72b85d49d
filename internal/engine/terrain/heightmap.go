package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// NewHeightField allocates a flat field with width x height interior samples
// and border extra samples on every side.
func NewHeightField(width, height, border int) (*HeightField, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("height field %dx%d: need at least 2x2 samples", width, height)
	}
	if border < 0 {
		return nil, fmt.Errorf("height field: negative border %d", border)
	}
	w := width + 2*border
	h := height + 2*border
	return &HeightField{
		Width:   w,
		Height:  h,
		Border:  border,
		Heights: make([]float32, w*h),
	}, nil
}

// InteriorSize returns the sample counts without the border.
func (hf *HeightField) InteriorSize() (int, int) {
	return hf.Width - 2*hf.Border, hf.Height - 2*hf.Border
}

// At returns the sample at interior coordinates. Border samples are addressed
// with negative or past-the-end coordinates; anything beyond the border clamps.
func (hf *HeightField) At(x, y int) float32 {
	gx := clampi(x+hf.Border, 0, hf.Width-1)
	gy := clampi(y+hf.Border, 0, hf.Height-1)
	return hf.Heights[gy*hf.Width+gx]
}

// Set stores a sample at interior coordinates. Out of range writes are ignored.
func (hf *HeightField) Set(x, y int, v float32) {
	gx := x + hf.Border
	gy := y + hf.Border
	if gx < 0 || gy < 0 || gx >= hf.Width || gy >= hf.Height {
		return
	}
	hf.Heights[gy*hf.Width+gx] = v
}

// Fill sets every sample, border included, from fn. Coordinates passed to fn
// are interior coordinates, so border samples see -1 and width.
func (hf *HeightField) Fill(fn func(x, y int) float32) {
	for gy := range hf.Height {
		for gx := range hf.Width {
			hf.Heights[gy*hf.Width+gx] = fn(gx-hf.Border, gy-hf.Border)
		}
	}
}

// Sample returns the bilinearly interpolated height at normalized interior
// coordinates u, v in [0, 1]. Values outside the range clamp.
func (hf *HeightField) Sample(u, v float64) float32 {
	w, h := hf.InteriorSize()
	fx := clampf(float32(u), 0, 1) * float32(w-1)
	fy := clampf(float32(v), 0, 1) * float32(h-1)

	cx := min(int(fx), w-2)
	cy := min(int(fy), h-2)
	tx := fx - float32(cx)
	ty := fy - float32(cy)

	north := hf.At(cx, cy)*(1-tx) + hf.At(cx+1, cy)*tx
	south := hf.At(cx, cy+1)*(1-tx) + hf.At(cx+1, cy+1)*tx
	return north*(1-ty) + south*ty
}

// MinMax returns the lowest and highest interior samples.
func (hf *HeightField) MinMax() (float32, float32) {
	w, h := hf.InteriorSize()
	lo, hi := hf.At(0, 0), hf.At(0, 0)
	for y := range h {
		for x := range w {
			v := hf.At(x, y)
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

// Bounds returns the tile-local box spanned by the interior samples, spaced
// cellSize apart on the ground plane.
func (hf *HeightField) Bounds(cellSize float32) tile.BoundingBox {
	w, h := hf.InteriorSize()
	lo, hi := hf.MinMax()
	box := tile.EmptyBox()
	box.Expand(math.Vec3{X: 0, Y: lo, Z: 0})
	box.Expand(math.Vec3{X: float32(w-1) * cellSize, Y: hi, Z: float32(h-1) * cellSize})
	return box
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
