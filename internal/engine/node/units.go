package node

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/texunit"
)

// ReserveTextureImageUnit reserves a unit engine-wide.
func (n *Node) ReserveTextureImageUnit(requestor string) (int, error) {
	return n.resources.ReserveGlobal(requestor)
}

// ReserveTextureImageUnitForLayer reserves a unit for a map layer. A nil
// layer reserves engine-wide.
func (n *Node) ReserveTextureImageUnitForLayer(layer geomap.Layer, requestor string) (int, error) {
	return n.resources.ReserveForOwner(owner(layer), requestor)
}

// ReserveScopedTextureImageUnit reserves a unit engine-wide into res.
func (n *Node) ReserveScopedTextureImageUnit(res *texunit.Reservation, requestor string) error {
	return n.resources.ReserveScoped(res, requestor)
}

// ReserveScopedTextureImageUnitForLayer reserves a unit for layer into res.
// The layer must not be nil.
func (n *Node) ReserveScopedTextureImageUnitForLayer(res *texunit.Reservation, layer geomap.Layer, requestor string) error {
	return n.resources.ReserveScopedForOwner(res, owner(layer), requestor)
}

// ReleaseTextureImageUnit returns a unit reserved engine-wide.
func (n *Node) ReleaseTextureImageUnit(unit int) {
	n.resources.Release(unit)
}

// ReleaseTextureImageUnitForLayer returns a unit reserved for layer.
func (n *Node) ReleaseTextureImageUnitForLayer(unit int, layer geomap.Layer) {
	n.resources.ReleaseForOwner(unit, owner(layer))
}

// SetTextureImageUnitOffLimits keeps unit away from the allocator.
func (n *Node) SetTextureImageUnitOffLimits(unit int) error {
	return n.resources.SetOffLimits(unit)
}

// owner keeps a nil layer a nil owner.
func owner(layer geomap.Layer) texunit.Owner {
	if layer == nil {
		return nil
	}
	return layer
}
