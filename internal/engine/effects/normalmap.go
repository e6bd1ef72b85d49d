package effects

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// NormalMap samples per-tile normal textures derived from elevation.
type NormalMap struct {
	unitEffect

	// Smooth averages neighboring normals before encoding.
	Smooth bool
}

// NewNormalMap creates the effect.
func NewNormalMap() *NormalMap {
	return &NormalMap{}
}

// Tag implements node.Effect.
func (e *NormalMap) Tag() string { return "normalmap" }

// Install implements node.Effect.
func (e *NormalMap) Install(n *node.Node) error {
	if err := e.install(n, "normal map", e.decorate); err != nil {
		return err
	}
	n.Require(tilemodel.Requirements{NormalTextures: true, ElevationBorder: true})
	return nil
}

// Uninstall implements node.Effect.
func (e *NormalMap) Uninstall(n *node.Node) {
	e.uninstall(n)
}

// Samplers implements node.Effect.
func (e *NormalMap) Samplers() []shader.Sampler {
	return e.sampler("oe_normal_map")
}

func (e *NormalMap) decorate(_ *node.Node, model *tilemodel.Model) error {
	if model.Normals == nil {
		return nil
	}
	nm := model.Normals
	if e.Smooth {
		nm = &terrain.NormalMap{
			Width:   nm.Width,
			Height:  nm.Height,
			Normals: append(nm.Normals[:0:0], nm.Normals...),
		}
		terrain.SmoothNormals(nm)
	}
	model.SetExtension(ExtNormalMap, nm.EncodeRGBA())
	return nil
}
