package texunit

import (
	"runtime"
	"weak"
)

// Reservation is an exclusive hold on one texture image unit.
//
// The zero value holds nothing. A successful ReserveScoped or
// ReserveScopedForOwner fills it; Release gives the unit back. Use it with
// defer so the unit is returned on every exit path:
//
//	var res texunit.Reservation
//	if err := reg.ReserveScoped(&res, "normal map"); err != nil {
//		return err
//	}
//	defer res.Release()
//
// The reservation points at its registry weakly: it never keeps the registry
// alive, and releasing after the registry was collected is a no-op. A
// reservation dropped without Release is released when it is garbage collected.
//
// Reservations must not be copied; use Move to hand one over.
type Reservation struct {
	_ noCopy

	valid    bool
	unit     int
	owner    Owner
	token    uint64
	registry weak.Pointer[Registry]
	cleanup  runtime.Cleanup
}

// hold is the state the collection-time cleanup needs. It must not point back
// at the Reservation, or the reservation would never become unreachable.
type hold struct {
	unit     int
	owner    Owner
	token    uint64
	registry weak.Pointer[Registry]
}

func (h hold) release() {
	if reg := h.registry.Value(); reg != nil {
		reg.releaseHold(h.unit, h.owner, h.token)
	}
}

// Unit returns the reserved unit, or -1 when the reservation holds nothing.
func (res *Reservation) Unit() int {
	if !res.valid {
		return -1
	}
	return res.unit
}

// Owner returns the owner the unit was reserved for, nil for global reservations.
func (res *Reservation) Owner() Owner {
	return res.owner
}

// Valid reports whether the reservation currently holds a unit.
func (res *Reservation) Valid() bool {
	return res.valid
}

// Release returns the unit to the registry that issued it. It is safe to call
// more than once and after the registry is gone. If the unit was already
// released through the registry, Release leaves any later holder alone.
func (res *Reservation) Release() {
	if !res.valid {
		return
	}
	res.cleanup.Stop()
	h := res.hold()
	res.clear()
	h.release()
}

// Move transfers the hold to a new reservation. The receiver is left empty.
func (res *Reservation) Move() *Reservation {
	out := &Reservation{}
	if !res.valid {
		return out
	}
	res.cleanup.Stop()
	h := res.hold()
	res.clear()
	out.set(h)
	return out
}

func (res *Reservation) fill(reg *Registry, unit int, owner Owner, token uint64) {
	res.set(hold{unit: unit, owner: owner, token: token, registry: weak.Make(reg)})
}

func (res *Reservation) set(h hold) {
	res.valid = true
	res.unit = h.unit
	res.owner = h.owner
	res.token = h.token
	res.registry = h.registry
	res.cleanup = runtime.AddCleanup(res, hold.release, h)
}

func (res *Reservation) hold() hold {
	return hold{unit: res.unit, owner: res.owner, token: res.token, registry: res.registry}
}

func (res *Reservation) clear() {
	res.valid = false
	res.unit = -1
	res.owner = nil
	res.token = 0
	res.registry = weak.Pointer[Registry]{}
	res.cleanup = runtime.Cleanup{}
}

// noCopy lets go vet's copylocks check flag copied reservations.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
