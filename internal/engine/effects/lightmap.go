package effects

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Lightmap bakes directional lighting from tile normals into a lightmap atlas.
type Lightmap struct {
	unitEffect

	Sun     math.Vec3
	Ambient float32
	Size    int // lightmap tile edge in pixels
}

// NewLightmap creates the effect with an afternoon sun in the south-west.
func NewLightmap() *Lightmap {
	return &Lightmap{
		Sun:     lighting.SunDirection(225, 55),
		Ambient: 0.35,
		Size:    terrain.DefaultLightmapSize,
	}
}

// Tag implements node.Effect.
func (e *Lightmap) Tag() string { return "lightmap" }

// Install implements node.Effect.
func (e *Lightmap) Install(n *node.Node) error {
	if err := e.install(n, "lightmap", e.decorate); err != nil {
		return err
	}
	n.Require(tilemodel.Requirements{NormalTextures: true})
	return nil
}

// Uninstall implements node.Effect.
func (e *Lightmap) Uninstall(n *node.Node) {
	e.uninstall(n)
}

// Samplers implements node.Effect.
func (e *Lightmap) Samplers() []shader.Sampler {
	return e.sampler("oe_lightmap")
}

func (e *Lightmap) decorate(_ *node.Node, model *tilemodel.Model) error {
	if model.Normals == nil {
		return nil
	}
	lms := terrain.BakeLightmaps(model.Normals, e.Sun, e.Ambient, e.Size)
	model.SetExtension(ExtLightmap, terrain.BuildLightmapAtlas(lms, e.Size, e.Size))
	return nil
}
