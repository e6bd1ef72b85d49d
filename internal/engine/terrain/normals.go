package terrain

import (
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// DeriveNormals computes a normal for every interior sample from the cross
// product of the surrounding edges. With a border the edge samples use real
// neighbors; without one the field clamps and edges come out flatter.
func DeriveNormals(hf *HeightField, cellSize float32) *NormalMap {
	w, h := hf.InteriorSize()
	nm := &NormalMap{
		Width:   w,
		Height:  h,
		Normals: make([]math.Vec3, w*h),
	}

	for y := range h {
		for x := range w {
			// East and south edges through the sample, two cells wide.
			east := math.Vec3{X: 2 * cellSize, Y: hf.At(x+1, y) - hf.At(x-1, y)}
			south := math.Vec3{Y: hf.At(x, y+1) - hf.At(x, y-1), Z: 2 * cellSize}
			nm.Normals[y*w+x] = south.Cross(east).Normalize()
		}
	}
	return nm
}

// At returns the normal at (x, y), clamped to the map.
func (nm *NormalMap) At(x, y int) math.Vec3 {
	x = clampi(x, 0, nm.Width-1)
	y = clampi(y, 0, nm.Height-1)
	return nm.Normals[y*nm.Width+x]
}

// SmoothNormals averages every normal with its four neighbors.
// This softens hard creases between adjacent cells.
func SmoothNormals(nm *NormalMap) {
	out := make([]math.Vec3, len(nm.Normals))
	for y := range nm.Height {
		for x := range nm.Width {
			sum := nm.At(x, y).
				Add(nm.At(x-1, y)).
				Add(nm.At(x+1, y)).
				Add(nm.At(x, y-1)).
				Add(nm.At(x, y+1))
			out[y*nm.Width+x] = sum.Normalize()
		}
	}
	nm.Normals = out
}

// EncodeRGBA packs the normals into an RGBA image, mapping [-1, 1] to [0, 255].
// This is the layout a normal texture bound to a sampler expects.
func (nm *NormalMap) EncodeRGBA() *Image {
	img := newImage(nm.Width, nm.Height)
	for i, n := range nm.Normals {
		img.Pix[i*4] = encodeUnit(n.X)
		img.Pix[i*4+1] = encodeUnit(n.Y)
		img.Pix[i*4+2] = encodeUnit(n.Z)
		img.Pix[i*4+3] = 255
	}
	return img
}

func encodeUnit(v float32) uint8 {
	return uint8(clampf((v*0.5+0.5)*255+0.5, 0, 255))
}
