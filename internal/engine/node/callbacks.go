package node

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// CallbackID identifies a registered callback for removal. Zero is never
// issued; it is returned when registration is refused.
type CallbackID uint64

// CreateTileModelCallback runs after a tile model is built and may attach
// data to model.Extensions. A returned error is reported to the caller of
// CreateTileModel; the remaining callbacks still run.
type CreateTileModelCallback func(n *Node, model *tilemodel.Model) error

// ModifyTileBoundingBoxCallback adjusts a tile's bounding box in place.
type ModifyTileBoundingBoxCallback func(key tile.Key, box *tile.BoundingBox)

type createEntry struct {
	id CallbackID
	fn CreateTileModelCallback
}

type bboxEntry struct {
	id CallbackID
	fn ModifyTileBoundingBoxCallback
}

// AddCreateTileModelCallback registers cb. Callbacks run in registration order.
// Cached models are discarded so every later tile passes through cb. After
// Shutdown nothing is registered and the zero ID is returned.
func (n *Node) AddCreateTileModelCallback(cb CreateTileModelCallback) CallbackID {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shutdown {
		n.log.Warn("callback registered after shutdown", zap.String("kind", "create tile model"))
		return 0
	}
	n.nextID++
	n.createCBs = append(n.createCBs, createEntry{id: n.nextID, fn: cb})
	n.resetModelsLocked("create tile model callback added")
	return n.nextID
}

// RemoveCreateTileModelCallback unregisters a callback. Unknown ids are ignored.
func (n *Node) RemoveCreateTileModelCallback(id CallbackID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.createCBs {
		if e.id == id {
			n.createCBs = append(n.createCBs[:i:i], n.createCBs[i+1:]...)
			n.resetModelsLocked("create tile model callback removed")
			return
		}
	}
}

// AddModifyTileBoundingBoxCallback registers cb. Callbacks run in registration
// order. Like AddCreateTileModelCallback it discards cached models and refuses
// registration after Shutdown.
func (n *Node) AddModifyTileBoundingBoxCallback(cb ModifyTileBoundingBoxCallback) CallbackID {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shutdown {
		n.log.Warn("callback registered after shutdown", zap.String("kind", "modify tile bounding box"))
		return 0
	}
	n.nextID++
	n.bboxCBs = append(n.bboxCBs, bboxEntry{id: n.nextID, fn: cb})
	n.resetModelsLocked("bounding box callback added")
	return n.nextID
}

// RemoveModifyTileBoundingBoxCallback unregisters a callback. Unknown ids are ignored.
func (n *Node) RemoveModifyTileBoundingBoxCallback(id CallbackID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.bboxCBs {
		if e.id == id {
			n.bboxCBs = append(n.bboxCBs[:i:i], n.bboxCBs[i+1:]...)
			n.resetModelsLocked("bounding box callback removed")
			return
		}
	}
}

// FireModifyTileBoundingBoxCallbacks passes box through every bounding box
// callback in registration order.
func (n *Node) FireModifyTileBoundingBoxCallbacks(key tile.Key, box *tile.BoundingBox) {
	n.mu.RLock()
	cbs := n.bboxCBs
	n.mu.RUnlock()

	for _, e := range cbs {
		e.fn(key, box)
	}
}

func (n *Node) createCallbacks() []createEntry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.createCBs
}
