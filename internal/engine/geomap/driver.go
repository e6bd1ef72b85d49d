package geomap

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
)

// ErrUnknownDriver reports a layer spec naming an unregistered driver.
var ErrUnknownDriver = errors.New("unknown layer driver")

// Spec declares one layer by driver name and string options, the shape the
// YAML map section decodes into.
type Spec struct {
	Name     string            `yaml:"name"`
	Driver   string            `yaml:"driver"`
	Disabled bool              `yaml:"disabled,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// DriverFunc builds a layer from a spec. built holds the layers created
// before this one, so drivers can refer to them by name.
type DriverFunc func(spec Spec, built *Map) (Layer, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFunc{
		"noise":     noiseDriver,
		"checker":   checkerDriver,
		"threshold": thresholdDriver,
	}
)

// RegisterDriver makes a layer driver available to Build. Registering an
// existing name replaces it.
func RegisterDriver(name string, fn DriverFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = fn
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates a map on profile and adds a layer per spec, in order.
func Build(profile tile.Profile, specs []Spec) (*Map, error) {
	m, err := New(profile)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		driversMu.RLock()
		fn, ok := drivers[spec.Driver]
		driversMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("layer %q: %w %q", spec.Name, ErrUnknownDriver, spec.Driver)
		}
		l, err := fn(spec, m)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", spec.Name, err)
		}
		if spec.Disabled {
			if t, ok := l.(interface{ SetEnabled(bool) }); ok {
				t.SetEnabled(false)
			}
		}
		if err := m.AddLayer(l); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func noiseDriver(spec Spec, _ *Map) (Layer, error) {
	o := options(spec.Options)
	seed, err := o.uint32("seed", 1)
	if err != nil {
		return nil, err
	}
	amp, err := o.float("amplitude", 1000)
	if err != nil {
		return nil, err
	}
	freq, err := o.float("frequency", 0.05)
	if err != nil {
		return nil, err
	}
	octaves, err := o.int("octaves", 4)
	if err != nil {
		return nil, err
	}
	return NewNoiseElevation(spec.Name, seed, float32(amp), freq, octaves), nil
}

func checkerDriver(spec Spec, _ *Map) (Layer, error) {
	o := options(spec.Options)
	a, err := o.color("color1", color.RGBA{R: 0x33, G: 0x66, B: 0x33, A: 0xff})
	if err != nil {
		return nil, err
	}
	b, err := o.color("color2", color.RGBA{R: 0x99, G: 0xcc, B: 0x66, A: 0xff})
	if err != nil {
		return nil, err
	}
	cell, err := o.float("cell_size", 1)
	if err != nil {
		return nil, err
	}
	return NewCheckerImage(spec.Name, a, b, cell), nil
}

func thresholdDriver(spec Spec, built *Map) (Layer, error) {
	o := options(spec.Options)
	srcName := o["source"]
	src, ok := built.LayerByName(srcName).(*NoiseElevation)
	if !ok {
		return nil, fmt.Errorf("source %q is not a noise elevation layer defined earlier", srcName)
	}
	l := NewThresholdLandCover(spec.Name, src)
	rock, err := o.float("rock_above", float64(l.RockAbove))
	if err != nil {
		return nil, err
	}
	snow, err := o.float("snow_above", float64(l.SnowAbove))
	if err != nil {
		return nil, err
	}
	l.RockAbove, l.SnowAbove = float32(rock), float32(snow)
	return l, nil
}

type options map[string]string

func (o options) float(key string, def float64) (float64, error) {
	s, ok := o[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return v, nil
}

func (o options) int(key string, def int) (int, error) {
	s, ok := o[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return v, nil
}

func (o options) uint32(key string, def uint32) (uint32, error) {
	s, ok := o[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return uint32(v), nil
}

// color parses #rrggbb or #rrggbbaa.
func (o options) color(key string, def color.RGBA) (color.RGBA, error) {
	s, ok := o[key]
	if !ok {
		return def, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return def, fmt.Errorf("option %s: bad color %q", key, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return def, fmt.Errorf("option %s: %w", key, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
