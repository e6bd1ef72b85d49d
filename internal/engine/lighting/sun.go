// Package lighting converts sun angles into the light directions terrain
// effects bake with.
package lighting

import (
	stdmath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// SunDirection converts compass angles to a unit vector pointing towards the sun.
// Azimuth is degrees clockwise from north (0-360), elevation is degrees above
// the horizon (0-90). The frame matches tile normals: X east, Y up, Z south.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	az := float64(azimuth) * stdmath.Pi / 180.0
	el := float64(elevation) * stdmath.Pi / 180.0

	return math.Vec3{
		X: float32(stdmath.Cos(el) * stdmath.Sin(az)),
		Y: float32(stdmath.Sin(el)),
		Z: float32(-stdmath.Cos(el) * stdmath.Cos(az)),
	}
}
