// Package glcaps probes texture unit limits from a live OpenGL context.
package glcaps

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// GL is a capabilities.Provider reading limits from the current OpenGL context.
//
// GL calls are only legal on the thread owning the context, while registries
// query the provider from any goroutine. Probe must run on the context thread;
// MaxGPUTextureUnits then returns the probed value.
type GL struct {
	units    atomic.Int64
	version  string
	renderer string
}

// NewGL initializes the GL function pointers for the current context and probes limits.
// IMPORTANT: Must be called AFTER an OpenGL context is created and made current.
func NewGL() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	g := &GL{
		version:  gl.GoStr(gl.GetString(gl.VERSION)),
		renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}
	g.Probe()

	logger.Named("capabilities").Info("OpenGL capabilities probed",
		zap.String("version", g.version),
		zap.String("renderer", g.renderer),
		zap.Int("maxTextureUnits", g.MaxGPUTextureUnits()),
	)
	return g, nil
}

// Probe re-reads the limits from the driver. Call it on the context thread.
// Units are sampled by the terrain fragment shader, so the fragment stage
// limit caps the combined one.
func (g *GL) Probe() {
	var fragment, combined int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &fragment)
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &combined)
	g.units.Store(int64(capabilities.SamplerUnits(int(fragment), int(combined))))
}

// MaxGPUTextureUnits implements capabilities.Provider.
func (g *GL) MaxGPUTextureUnits() int {
	return int(g.units.Load())
}

// Version returns the GL_VERSION string.
func (g *GL) Version() string { return g.version }

// Renderer returns the GL_RENDERER string.
func (g *GL) Renderer() string { return g.renderer }

var _ capabilities.Provider = (*GL)(nil)
