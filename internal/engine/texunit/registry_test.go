package texunit

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities"
)

type testOwner struct{ name string }

func (o *testOwner) Name() string { return o.name }

func newTestRegistry(units int) (*Registry, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRegistry(capabilities.NewStatic(units), WithLogger(zap.New(core))), logs
}

func TestReserveGlobalLowestFirst(t *testing.T) {
	reg, _ := newTestRegistry(4)

	for want := 0; want < 3; want++ {
		unit, err := reg.ReserveGlobal("test")
		require.NoError(t, err)
		assert.Equal(t, want, unit)
	}

	reg.Release(1)
	unit, err := reg.ReserveGlobal("test")
	require.NoError(t, err)
	assert.Equal(t, 1, unit, "freed lowest index is reused")

	unit, err = reg.ReserveGlobal("test")
	require.NoError(t, err)
	assert.Equal(t, 3, unit)

	_, err = reg.ReserveGlobal("test")
	assert.ErrorIs(t, err, ErrNoUnitsAvailable)
}

func TestReserveForOwnerExhaustion(t *testing.T) {
	reg, logs := newTestRegistry(2)
	x := &testOwner{name: "x"}
	y := &testOwner{name: "y"}

	unit, err := reg.ReserveForOwner(x, "x-first")
	require.NoError(t, err)
	assert.Equal(t, 0, unit)

	unit, err = reg.ReserveForOwner(y, "y-first")
	require.NoError(t, err)
	assert.Equal(t, 1, unit)

	unit, err = reg.ReserveForOwner(x, "x-second")
	assert.ErrorIs(t, err, ErrNoUnitsAvailable)
	assert.Equal(t, -1, unit)
	assert.Equal(t, 1, logs.FilterMessage("no texture units available").Len())
}

func TestReserveForOwnerSkipsGlobalUnits(t *testing.T) {
	reg, _ := newTestRegistry(4)
	owner := &testOwner{name: "imagery"}

	_, err := reg.ReserveGlobal("engine")
	require.NoError(t, err)

	unit, err := reg.ReserveForOwner(owner, "imagery")
	require.NoError(t, err)
	assert.Equal(t, 1, unit)
	assert.Equal(t, []int{1}, reg.OwnerUnits(owner))
	assert.Equal(t, []int{0}, reg.Reserved())
}

func TestReserveForNilOwnerIsGlobal(t *testing.T) {
	reg, _ := newTestRegistry(4)

	unit, err := reg.ReserveForOwner(nil, "engine")
	require.NoError(t, err)
	assert.Equal(t, []int{unit}, reg.Reserved())
	assert.Zero(t, reg.Owners())

	reg.ReleaseForOwner(unit, nil)
	assert.Empty(t, reg.Reserved())
}

func TestReleaseIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(4)
	owner := &testOwner{name: "elevation"}

	unit, err := reg.ReserveForOwner(owner, "elevation")
	require.NoError(t, err)

	reg.Release(unit) // wrong scope, no effect
	assert.True(t, reg.InUse(unit))

	reg.ReleaseForOwner(unit, owner)
	reg.ReleaseForOwner(unit, owner)
	reg.Release(7)
	reg.ReleaseForOwner(3, &testOwner{name: "stranger"})

	assert.False(t, reg.InUse(unit))
	assert.Zero(t, reg.Owners(), "empty owner entries are pruned")
	assert.Equal(t, 4, reg.Free())
}

func TestOwnerEntryPrunedOnlyWhenEmpty(t *testing.T) {
	reg, _ := newTestRegistry(4)
	owner := &testOwner{name: "landcover"}

	a, err := reg.ReserveForOwner(owner, "a")
	require.NoError(t, err)
	b, err := reg.ReserveForOwner(owner, "b")
	require.NoError(t, err)

	reg.ReleaseForOwner(a, owner)
	assert.Equal(t, 1, reg.Owners())
	assert.Equal(t, []int{b}, reg.OwnerUnits(owner))

	reg.ReleaseForOwner(b, owner)
	assert.Zero(t, reg.Owners())
	assert.Nil(t, reg.OwnerUnits(owner))
}

func TestSetOffLimits(t *testing.T) {
	reg, _ := newTestRegistry(4)
	owner := &testOwner{name: "imagery"}

	require.NoError(t, reg.SetOffLimits(0))
	assert.ErrorIs(t, reg.SetOffLimits(0), ErrUnitInUse)

	unit, err := reg.ReserveForOwner(owner, "imagery")
	require.NoError(t, err)
	assert.Equal(t, 1, unit)
	assert.ErrorIs(t, reg.SetOffLimits(1), ErrUnitInUse)

	unit, err = reg.ReserveGlobal("engine")
	require.NoError(t, err)
	assert.Equal(t, 2, unit, "off-limits unit is never handed out")

	// Off-limits units live in the global set and come back through Release.
	reg.Release(0)
	unit, err = reg.ReserveGlobal("engine")
	require.NoError(t, err)
	assert.Equal(t, 0, unit)

	assert.ErrorIs(t, reg.SetOffLimits(-1), ErrIllegalUsage)
}

func TestSetOffLimitsBeyondHardwareLimit(t *testing.T) {
	reg, _ := newTestRegistry(2)
	require.NoError(t, reg.SetOffLimits(5))
	assert.Equal(t, 2, reg.Free())
}

func TestCapacityQueriedPerCall(t *testing.T) {
	caps := capabilities.NewStatic(1)
	reg := NewRegistry(caps, WithLogger(zap.NewNop()))

	_, err := reg.ReserveGlobal("a")
	require.NoError(t, err)
	_, err = reg.ReserveGlobal("b")
	require.ErrorIs(t, err, ErrNoUnitsAvailable)

	caps.SetMaxGPUTextureUnits(2)
	unit, err := reg.ReserveGlobal("b")
	require.NoError(t, err)
	assert.Equal(t, 1, unit)
}

func TestReservationsDisjoint(t *testing.T) {
	reg, _ := newTestRegistry(16)
	owners := []Owner{nil, &testOwner{name: "a"}, &testOwner{name: "b"}, &testOwner{name: "c"}}
	type held struct {
		unit  int
		owner Owner
	}
	var holds []held
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 2000; step++ {
		if len(holds) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(holds))
			reg.ReleaseForOwner(holds[i].unit, holds[i].owner)
			holds = append(holds[:i], holds[i+1:]...)
		} else {
			owner := owners[rng.Intn(len(owners))]
			unit, err := reg.ReserveForOwner(owner, "prop")
			if errors.Is(err, ErrNoUnitsAvailable) {
				require.Len(t, holds, 16, "exhaustion only when every unit is held")
				continue
			}
			require.NoError(t, err)
			holds = append(holds, held{unit: unit, owner: owner})
		}
		assertDisjoint(t, reg, owners)
	}
}

func assertDisjoint(t *testing.T, reg *Registry, owners []Owner) {
	t.Helper()
	seen := make(map[int]bool)
	check := func(units []int) {
		for _, u := range units {
			require.False(t, seen[u], "unit %d reserved twice", u)
			seen[u] = true
		}
	}
	check(reg.Reserved())
	for _, o := range owners[1:] {
		check(reg.OwnerUnits(o))
	}
}

func TestReserveGlobalAlwaysLowestFree(t *testing.T) {
	reg, _ := newTestRegistry(8)
	rng := rand.New(rand.NewSource(11))
	held := make(map[int]bool)

	for step := 0; step < 500; step++ {
		if len(held) > 0 && rng.Intn(2) == 0 {
			for u := range held {
				reg.Release(u)
				delete(held, u)
				break
			}
			continue
		}
		want := -1
		for u := 0; u < 8; u++ {
			if !held[u] {
				want = u
				break
			}
		}
		unit, err := reg.ReserveGlobal("prop")
		if want < 0 {
			require.ErrorIs(t, err, ErrNoUnitsAvailable)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, want, unit)
		held[unit] = true
	}
}

func TestConcurrentReserveRelease(t *testing.T) {
	reg := NewRegistry(capabilities.NewStatic(32), WithLogger(zap.NewNop()))
	owners := []*testOwner{{name: "a"}, {name: "b"}, {name: "c"}, {name: "d"}}

	var wg sync.WaitGroup
	var mu sync.Mutex
	inUse := make(map[int]bool)
	var failures []string

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			owner := owners[g%len(owners)]
			for i := 0; i < 200; i++ {
				unit, err := reg.ReserveForOwner(owner, "worker")
				if err != nil {
					continue
				}
				mu.Lock()
				if inUse[unit] {
					failures = append(failures, "double reservation")
				}
				inUse[unit] = true
				mu.Unlock()

				runtime.Gosched()

				mu.Lock()
				delete(inUse, unit)
				mu.Unlock()
				reg.ReleaseForOwner(unit, owner)
			}
		}(g)
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Zero(t, reg.Owners())
	assert.Equal(t, 32, reg.Free())
}

func TestReservationLogsRequestor(t *testing.T) {
	reg, logs := newTestRegistry(4)

	_, err := reg.ReserveGlobal("")
	require.NoError(t, err)
	_, err = reg.ReserveForOwner(&testOwner{name: "imagery"}, "color blend")
	require.NoError(t, err)

	reserved := logs.FilterMessage("texture unit reserved").All()
	require.Len(t, reserved, 2)
	assert.Equal(t, "unnamed", reserved[0].ContextMap()["requestor"])
	assert.Equal(t, "color blend", reserved[1].ContextMap()["requestor"])
	assert.Equal(t, "imagery", reserved[1].ContextMap()["owner"])
}
