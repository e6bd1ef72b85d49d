package effects

import (
	"errors"
	"strings"
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texunit"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// ErrNoLandCover is returned when the map has no land cover layer to draw.
var ErrNoLandCover = errors.New("map has no land cover layers")

// LandCover samples one coverage texture per land cover layer, each on a
// unit reserved for that layer.
type LandCover struct {
	mu    sync.Mutex
	units []layerUnit
	cbID  node.CallbackID
}

type layerUnit struct {
	layer geomap.Layer
	res   *texunit.Reservation
}

// LandCoverStats is attached to tile models: sample counts per class, per layer name.
type LandCoverStats map[string]map[uint8]int

// NewLandCover creates the effect.
func NewLandCover() *LandCover {
	return &LandCover{}
}

// Tag implements node.Effect.
func (e *LandCover) Tag() string { return "landcover" }

// Install implements node.Effect. It reserves a unit for every enabled land
// cover layer of the current map; if any reservation fails, the ones already
// made are released.
func (e *LandCover) Install(n *node.Node) error {
	m := n.Map()
	if m == nil {
		return node.ErrNoMap
	}
	layers := m.LandCoverLayers()
	if len(layers) == 0 {
		return ErrNoLandCover
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range layers {
		res := &texunit.Reservation{}
		if err := n.ReserveScopedTextureImageUnitForLayer(res, l, "land cover "+l.Name()); err != nil {
			e.releaseLocked()
			return err
		}
		e.units = append(e.units, layerUnit{layer: l, res: res})
	}
	e.cbID = n.AddCreateTileModelCallback(e.decorate)
	n.Require(tilemodel.Requirements{LandCoverTextures: true})
	return nil
}

// Uninstall implements node.Effect.
func (e *LandCover) Uninstall(n *node.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n.RemoveCreateTileModelCallback(e.cbID)
	e.cbID = 0
	e.releaseLocked()
}

// Samplers implements node.Effect.
func (e *LandCover) Samplers() []shader.Sampler {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]shader.Sampler, 0, len(e.units))
	for _, u := range e.units {
		out = append(out, shader.Sampler{
			Name: "oe_landcover_" + samplerSuffix(u.layer.Name()),
			Unit: u.res.Unit(),
			Type: "usampler2D",
		})
	}
	return out
}

// Units returns the unit reserved for each layer, by layer name.
func (e *LandCover) Units() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int, len(e.units))
	for _, u := range e.units {
		out[u.layer.Name()] = u.res.Unit()
	}
	return out
}

func (e *LandCover) releaseLocked() {
	for _, u := range e.units {
		u.res.Release()
	}
	e.units = nil
}

func (e *LandCover) decorate(_ *node.Node, model *tilemodel.Model) error {
	if len(model.LandCover) == 0 {
		return nil
	}
	stats := make(LandCoverStats, len(model.LandCover))
	for _, lc := range model.LandCover {
		stats[lc.Name] = lc.Coverage.Histogram()
	}
	model.SetExtension(ExtLandCover, stats)
	return nil
}

// samplerSuffix turns a layer name into a GLSL identifier fragment.
func samplerSuffix(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
}
