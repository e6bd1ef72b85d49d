package texunit

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities"
)

func TestReservationZeroValueInvalid(t *testing.T) {
	var res Reservation
	assert.False(t, res.Valid())
	assert.Equal(t, -1, res.Unit())
	assert.Nil(t, res.Owner())
	assert.NotPanics(t, res.Release)
}

func TestScopedReservationReleasesOnScopeExit(t *testing.T) {
	reg, _ := newTestRegistry(2)

	func() {
		var res Reservation
		require.NoError(t, reg.ReserveScoped(&res, "shadow pass"))
		defer res.Release()

		assert.True(t, res.Valid())
		assert.Equal(t, 0, res.Unit())
		assert.True(t, reg.InUse(0))
	}()

	assert.False(t, reg.InUse(0))
	unit, err := reg.ReserveForOwner(&testOwner{name: "any"}, "next")
	require.NoError(t, err)
	assert.Equal(t, 0, unit, "unit is available to any party after release")
}

func TestScopedReservationForOwner(t *testing.T) {
	reg, _ := newTestRegistry(4)
	owner := &testOwner{name: "imagery"}

	var res Reservation
	require.NoError(t, reg.ReserveScopedForOwner(&res, owner, "color"))
	assert.Equal(t, owner, res.Owner())
	assert.Equal(t, []int{res.Unit()}, reg.OwnerUnits(owner))

	res.Release()
	res.Release()
	assert.False(t, res.Valid())
	assert.Zero(t, reg.Owners())
}

func TestScopedReservationForNilOwnerIsIllegal(t *testing.T) {
	reg, logs := newTestRegistry(4)

	var res Reservation
	err := reg.ReserveScopedForOwner(&res, nil, "color")
	assert.ErrorIs(t, err, ErrIllegalUsage)
	assert.False(t, res.Valid())
	assert.Equal(t, 4, reg.Free())
	assert.Equal(t, 1, logs.FilterMessage("illegal texture unit usage").Len())
}

func TestScopedReservationRejectsReuse(t *testing.T) {
	reg, _ := newTestRegistry(4)

	var res Reservation
	require.NoError(t, reg.ReserveScoped(&res, "first"))
	assert.ErrorIs(t, reg.ReserveScoped(&res, "second"), ErrIllegalUsage)
	assert.ErrorIs(t, reg.ReserveScoped(nil, "nil"), ErrIllegalUsage)
	assert.Equal(t, []int{0}, reg.Reserved())
}

func TestScopedReservationExhausted(t *testing.T) {
	reg, _ := newTestRegistry(1)

	var a, b Reservation
	require.NoError(t, reg.ReserveScoped(&a, "a"))
	assert.ErrorIs(t, reg.ReserveScoped(&b, "b"), ErrNoUnitsAvailable)
	assert.False(t, b.Valid())
}

func TestReservationMove(t *testing.T) {
	reg, _ := newTestRegistry(4)

	var res Reservation
	require.NoError(t, reg.ReserveScoped(&res, "handoff"))
	unit := res.Unit()

	moved := res.Move()
	assert.False(t, res.Valid(), "moved-from reservation is empty")
	assert.True(t, moved.Valid())
	assert.Equal(t, unit, moved.Unit())

	res.Release()
	assert.True(t, reg.InUse(unit), "releasing the moved-from reservation is a no-op")

	moved.Release()
	assert.False(t, reg.InUse(unit))

	empty := res.Move()
	assert.False(t, empty.Valid())
}

func TestReservationOutlivesRegistry(t *testing.T) {
	res := reserveFromDroppedRegistry(t)
	runtime.GC()
	runtime.GC()

	assert.NotPanics(t, res.Release)
	assert.False(t, res.Valid())
}

func reserveFromDroppedRegistry(t *testing.T) *Reservation {
	t.Helper()
	reg := NewRegistry(capabilities.NewStatic(2), WithLogger(zap.NewNop()))
	res := &Reservation{}
	require.NoError(t, reg.ReserveScoped(res, "orphan"))
	return res
}

func TestDroppedReservationReleasedByCollector(t *testing.T) {
	reg, _ := newTestRegistry(2)

	func() {
		res := &Reservation{}
		require.NoError(t, reg.ReserveScoped(res, "leaked"))
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return !reg.InUse(0)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStaleReservationLeavesNewHolderAlone(t *testing.T) {
	reg, _ := newTestRegistry(4)

	var res Reservation
	require.NoError(t, reg.ReserveScoped(&res, "first"))
	reg.Release(res.Unit())

	unit, err := reg.ReserveGlobal("second")
	require.NoError(t, err)
	require.Equal(t, res.Unit(), unit, "lowest unit is reused")

	res.Release()
	assert.False(t, res.Valid())
	assert.True(t, reg.InUse(unit), "second holder keeps the unit")

	reg.Release(unit)
	assert.False(t, reg.InUse(unit))
}

func TestStaleOwnerReservationLeavesNewHolderAlone(t *testing.T) {
	reg, _ := newTestRegistry(4)
	owner := &testOwner{name: "imagery"}

	var res Reservation
	require.NoError(t, reg.ReserveScopedForOwner(&res, owner, "color"))
	reg.ReleaseForOwner(res.Unit(), owner)

	unit, err := reg.ReserveForOwner(owner, "color again")
	require.NoError(t, err)
	require.Equal(t, res.Unit(), unit)

	res.Release()
	assert.Equal(t, []int{unit}, reg.OwnerUnits(owner))
}

func TestCollectedStaleReservationLeavesNewHolderAlone(t *testing.T) {
	reg, _ := newTestRegistry(2)

	func() {
		res := &Reservation{}
		require.NoError(t, reg.ReserveScoped(res, "leaked"))
		reg.Release(res.Unit())
	}()
	unit, err := reg.ReserveGlobal("current")
	require.NoError(t, err)
	require.Equal(t, 0, unit)

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, reg.InUse(0))
}
