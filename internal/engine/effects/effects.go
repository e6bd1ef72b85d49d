// Package effects holds the terrain effects shipped with the engine. Each
// effect reserves the texture units it samples from, declares the tile
// channels it needs and decorates tile models through node callbacks.
package effects

import (
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texunit"
)

// Extension keys effects attach to tile models.
const (
	ExtNormalMap = "normalmap"
	ExtLightmap  = "lightmap"
	ExtLandCover = "landcover"
	ExtBoundsBox = "bounds.wireframe"
)

// unitEffect is the shared state of an effect sampling one engine-wide unit.
type unitEffect struct {
	mu   sync.Mutex
	res  texunit.Reservation
	cbID node.CallbackID
}

func (u *unitEffect) install(n *node.Node, requestor string, cb node.CreateTileModelCallback) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := n.ReserveScopedTextureImageUnit(&u.res, requestor); err != nil {
		return err
	}
	u.cbID = n.AddCreateTileModelCallback(cb)
	return nil
}

func (u *unitEffect) uninstall(n *node.Node) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n.RemoveCreateTileModelCallback(u.cbID)
	u.cbID = 0
	u.res.Release()
}

func (u *unitEffect) sampler(name string) []shader.Sampler {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.res.Valid() {
		return nil
	}
	return []shader.Sampler{{Name: name, Unit: u.res.Unit()}}
}

// Unit returns the reserved unit, -1 when not installed.
func (u *unitEffect) Unit() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.res.Unit()
}
