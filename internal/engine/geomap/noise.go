package geomap

import "math"

// hash32 mixes 32-bit input into a well-distributed 32-bit output.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// hash2 returns a stable hash for 2D lattice coordinates and a seed.
func hash2(seed uint32, x, y int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	return hash32(h)
}

// lattice maps a lattice point to [-1, 1].
func lattice(seed uint32, x, y int32) float64 {
	return float64(hash2(seed, x, y))/float64(math.MaxUint32)*2 - 1
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

// valueNoise returns smoothly interpolated lattice noise in [-1, 1].
func valueNoise(seed uint32, x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix, iy := int32(x0), int32(y0)
	tx := smooth(x - x0)
	ty := smooth(y - y0)

	a := lattice(seed, ix, iy)
	b := lattice(seed, ix+1, iy)
	c := lattice(seed, ix, iy+1)
	d := lattice(seed, ix+1, iy+1)

	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// fbm sums octaves of value noise, halving amplitude and doubling frequency
// each time. The result is normalized back to [-1, 1].
func fbm(seed uint32, x, y float64, octaves int) float64 {
	octaves = max(octaves, 1)
	var sum, norm float64
	amp := 1.0
	for o := range octaves {
		sum += amp * valueNoise(seed+uint32(o)*1013, x, y)
		norm += amp
		amp *= 0.5
		x *= 2
		y *= 2
	}
	return sum / norm
}
