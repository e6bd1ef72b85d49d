package effects

import (
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// BoundsDebug pads tile bounding boxes and attaches their wireframe to tile
// models for drawing. It samples no textures.
type BoundsDebug struct {
	Padding float32

	mu       sync.Mutex
	bboxID   node.CallbackID
	createID node.CallbackID
}

// NewBoundsDebug creates the effect with the default padding.
func NewBoundsDebug() *BoundsDebug {
	return &BoundsDebug{Padding: debug.DefaultBBoxPadding}
}

// Tag implements node.Effect.
func (e *BoundsDebug) Tag() string { return "boundsdebug" }

// Install implements node.Effect.
func (e *BoundsDebug) Install(n *node.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bboxID = n.AddModifyTileBoundingBoxCallback(func(_ tile.Key, box *tile.BoundingBox) {
		box.Pad(e.Padding)
	})
	e.createID = n.AddCreateTileModelCallback(func(_ *node.Node, model *tilemodel.Model) error {
		if v := debug.GenerateBBoxWireframeFromBox(model.Bounds, 0); v != nil {
			model.SetExtension(ExtBoundsBox, v)
		}
		return nil
	})
	return nil
}

// Uninstall implements node.Effect.
func (e *BoundsDebug) Uninstall(n *node.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n.RemoveModifyTileBoundingBoxCallback(e.bboxID)
	n.RemoveCreateTileModelCallback(e.createID)
	e.bboxID, e.createID = 0, 0
}

// Samplers implements node.Effect.
func (e *BoundsDebug) Samplers() []shader.Sampler { return nil }

var (
	_ node.Effect = (*NormalMap)(nil)
	_ node.Effect = (*Lightmap)(nil)
	_ node.Effect = (*LandCover)(nil)
	_ node.Effect = (*BoundsDebug)(nil)
)
