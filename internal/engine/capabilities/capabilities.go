// Package capabilities reports GPU limits the terrain engine allocates against.
package capabilities

import "sync/atomic"

// DefaultMaxTextureUnits is the GL 4.1 core minimum for combined texture image units.
const DefaultMaxTextureUnits = 16

// Provider reports hardware capabilities. Implementations must be safe for concurrent use.
type Provider interface {
	MaxGPUTextureUnits() int
}

// Static is a Provider with a fixed, adjustable texture unit count.
// It is used headless and in tests.
type Static struct {
	units atomic.Int64
}

// NewStatic returns a Static provider reporting units texture units.
func NewStatic(units int) *Static {
	s := &Static{}
	s.units.Store(int64(units))
	return s
}

// MaxGPUTextureUnits implements Provider.
func (s *Static) MaxGPUTextureUnits() int {
	return int(s.units.Load())
}

// SetMaxGPUTextureUnits changes the reported count. Registries see the new value on their next call.
func (s *Static) SetMaxGPUTextureUnits(units int) {
	s.units.Store(int64(units))
}

// SamplerUnits returns how many units terrain shaders can sample from, given
// the driver's per-fragment-stage and combined limits. Every unit handed out
// must be sampleable by the fragment stage, so the smaller positive limit
// wins. Non-positive limits are ignored; with neither known the default applies.
func SamplerUnits(fragment, combined int) int {
	switch {
	case fragment > 0 && combined > 0:
		return min(fragment, combined)
	case fragment > 0:
		return fragment
	case combined > 0:
		return combined
	default:
		return DefaultMaxTextureUnits
	}
}
