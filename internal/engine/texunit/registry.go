// Package texunit allocates GPU texture image units to terrain layers, effects
// and engine passes.
//
// Units are a small, hardware-capped index space shared by every shader the
// terrain engine composes. A Registry hands out the lowest free unit, either
// engine-wide (global) or on behalf of an Owner such as a map layer, and takes
// it back on release. Running out of units is an expected condition reported
// as ErrNoUnitsAvailable: callers disable the feature that needed the unit.
package texunit

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Registry errors.
var (
	ErrNoUnitsAvailable = errors.New("no texture image units available")
	ErrIllegalUsage     = errors.New("illegal texture unit usage")
	ErrUnitInUse        = errors.New("texture image unit already reserved")
)

// Owner identifies a per-owner reservation scope, typically a map layer.
// Owners are used as map keys and must be comparable (pointer types are).
// The registry never keeps an owner alive beyond its reservations.
type Owner interface {
	Name() string
}

// Registry tracks reserved texture image units. It is safe for concurrent use.
//
// A unit is held by at most one scope at a time: the global set or exactly
// one owner's set. Owner entries are removed as soon as they become empty.
type Registry struct {
	caps capabilities.Provider
	log  *zap.Logger

	mu       sync.Mutex
	global   *UnitSet
	perOwner map[Owner]*UnitSet
	holds    map[int]uint64 // unit -> token of its current hold
	lastHold uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates a registry allocating against the provider's texture unit limit.
func NewRegistry(caps capabilities.Provider, opts ...Option) *Registry {
	r := &Registry{
		caps:     caps,
		log:      logger.Named("texunit"),
		global:   NewUnitSet(),
		perOwner: make(map[Owner]*UnitSet),
		holds:    make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReserveGlobal reserves the lowest free unit engine-wide.
func (r *Registry) ReserveGlobal(requestor string) (int, error) {
	unit, _, err := r.reserve(nil, requestor)
	return unit, err
}

// ReserveForOwner reserves the lowest free unit on behalf of owner.
// A nil owner reserves globally.
func (r *Registry) ReserveForOwner(owner Owner, requestor string) (int, error) {
	unit, _, err := r.reserve(owner, requestor)
	return unit, err
}

// ReserveScoped reserves the lowest free unit engine-wide into res.
// res must not already hold a unit.
func (r *Registry) ReserveScoped(res *Reservation, requestor string) error {
	if err := r.checkReservation(res, requestor); err != nil {
		return err
	}
	unit, token, err := r.reserve(nil, requestor)
	if err != nil {
		return err
	}
	res.fill(r, unit, nil, token)
	return nil
}

// ReserveScopedForOwner reserves the lowest free unit for owner into res.
// Unlike ReserveForOwner, owner must be non-nil.
func (r *Registry) ReserveScopedForOwner(res *Reservation, owner Owner, requestor string) error {
	if owner == nil {
		return r.illegal(requestor, "owner must be non-nil")
	}
	if err := r.checkReservation(res, requestor); err != nil {
		return err
	}
	unit, token, err := r.reserve(owner, requestor)
	if err != nil {
		return err
	}
	res.fill(r, unit, owner, token)
	return nil
}

// Release returns a globally reserved unit. Releasing a unit that is not
// globally reserved does nothing.
func (r *Registry) Release(unit int) {
	r.mu.Lock()
	removed := r.removeLocked(unit, nil)
	r.mu.Unlock()

	if removed {
		r.logRelease(unit, nil)
	}
}

// ReleaseForOwner returns a unit held by owner. A nil owner releases globally.
func (r *Registry) ReleaseForOwner(unit int, owner Owner) {
	if owner == nil {
		r.Release(unit)
		return
	}

	r.mu.Lock()
	removed := r.removeLocked(unit, owner)
	r.mu.Unlock()

	if removed {
		r.logRelease(unit, owner)
	}
}

// releaseHold releases unit only if it is still held under token. A
// reservation whose unit was released directly and handed to someone else
// must not free the new holder's unit.
func (r *Registry) releaseHold(unit int, owner Owner, token uint64) {
	r.mu.Lock()
	removed := false
	if r.holds[unit] == token {
		removed = r.removeLocked(unit, owner)
	}
	r.mu.Unlock()

	if removed {
		r.logRelease(unit, owner)
	}
}

// removeLocked drops unit from owner's set, or the global set for a nil
// owner, pruning the owner entry once it is empty.
func (r *Registry) removeLocked(unit int, owner Owner) bool {
	var removed bool
	if owner == nil {
		removed = r.global.Remove(unit)
	} else if set, ok := r.perOwner[owner]; ok {
		removed = set.Remove(unit)
		if set.IsEmpty() {
			delete(r.perOwner, owner)
		}
	}
	if removed {
		delete(r.holds, unit)
	}
	return removed
}

func (r *Registry) logRelease(unit int, owner Owner) {
	if owner == nil {
		r.log.Debug("texture unit released", zap.Int("unit", unit))
		return
	}
	r.log.Debug("texture unit released",
		zap.Int("unit", unit),
		zap.String("owner", owner.Name()),
	)
}

// SetOffLimits reserves a specific unit globally so the allocator never hands
// it out, e.g. a unit bound by fixed-function code outside the engine.
// It fails with ErrUnitInUse if anyone already holds the unit.
func (r *Registry) SetOffLimits(unit int) error {
	if unit < 0 {
		return r.illegal("", fmt.Sprintf("negative unit %d", unit))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.global.Contains(unit) {
		return fmt.Errorf("%w: unit %d held globally", ErrUnitInUse, unit)
	}
	for owner, set := range r.perOwner {
		if set.Contains(unit) {
			return fmt.Errorf("%w: unit %d held by %s", ErrUnitInUse, unit, owner.Name())
		}
	}
	r.global.Add(unit)
	r.holdLocked(unit)
	r.log.Info("texture unit marked off-limits", zap.Int("unit", unit))
	return nil
}

// Reserved returns the globally reserved units in ascending order.
func (r *Registry) Reserved() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.global.Units()
}

// OwnerUnits returns the units held by owner in ascending order.
func (r *Registry) OwnerUnits(owner Owner) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.perOwner[owner]; ok {
		return set.Units()
	}
	return nil
}

// Owners returns the number of owners currently holding units.
func (r *Registry) Owners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.perOwner)
}

// InUse reports whether any scope holds unit.
func (r *Registry) InUse(unit int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.takenLocked().Contains(unit)
}

// Free returns how many units below the current hardware limit are unreserved.
func (r *Registry) Free() int {
	maxUnits := r.caps.MaxGPUTextureUnits()

	r.mu.Lock()
	defer r.mu.Unlock()
	taken := r.takenLocked()
	free := 0
	for u := 0; u < maxUnits; u++ {
		if !taken.Contains(u) {
			free++
		}
	}
	return free
}

func (r *Registry) reserve(owner Owner, requestor string) (int, uint64, error) {
	maxUnits := r.caps.MaxGPUTextureUnits()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserveLocked(owner, maxUnits, requestor)
}

// reserveLocked scans [0, maxUnits) for the lowest unit held by nobody and
// records it in owner's set, or the global set when owner is nil. It returns
// the unit and the token of the new hold.
func (r *Registry) reserveLocked(owner Owner, maxUnits int, requestor string) (int, uint64, error) {
	unit, ok := r.takenLocked().FirstFree(maxUnits)
	if !ok {
		r.log.Warn("no texture units available",
			zap.String("requestor", requestorName(requestor)),
			zap.Int("maxUnits", maxUnits),
		)
		return -1, 0, fmt.Errorf("%w: all %d units in use, requested by %s",
			ErrNoUnitsAvailable, maxUnits, requestorName(requestor))
	}

	fields := []zap.Field{
		zap.Int("unit", unit),
		zap.String("requestor", requestorName(requestor)),
	}
	if owner == nil {
		r.global.Add(unit)
	} else {
		set, ok := r.perOwner[owner]
		if !ok {
			set = NewUnitSet()
			r.perOwner[owner] = set
		}
		set.Add(unit)
		fields = append(fields, zap.String("owner", owner.Name()))
	}
	token := r.holdLocked(unit)
	r.log.Info("texture unit reserved", fields...)
	return unit, token, nil
}

// holdLocked issues a fresh token for unit. Tokens are never reused.
func (r *Registry) holdLocked(unit int) uint64 {
	r.lastHold++
	r.holds[unit] = r.lastHold
	return r.lastHold
}

// takenLocked returns the union of every reserved unit.
func (r *Registry) takenLocked() *UnitSet {
	taken := r.global.Clone()
	for _, set := range r.perOwner {
		taken.Union(set)
	}
	return taken
}

func (r *Registry) checkReservation(res *Reservation, requestor string) error {
	if res == nil {
		return r.illegal(requestor, "nil reservation")
	}
	if res.Valid() {
		return r.illegal(requestor, fmt.Sprintf("reservation already holds unit %d", res.Unit()))
	}
	return nil
}

func (r *Registry) illegal(requestor, reason string) error {
	r.log.Warn("illegal texture unit usage",
		zap.String("requestor", requestorName(requestor)),
		zap.String("reason", reason),
	)
	return fmt.Errorf("%w: %s", ErrIllegalUsage, reason)
}

func requestorName(requestor string) string {
	if requestor == "" {
		return "unnamed"
	}
	return requestor
}
