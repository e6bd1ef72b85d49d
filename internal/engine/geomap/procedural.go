package geomap

import (
	"fmt"
	"image/color"
	"math"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// NoiseElevation synthesizes terrain from fractal value noise over geographic
// coordinates, so neighboring tiles line up at their shared edges.
type NoiseElevation struct {
	Base
	Seed      uint32
	Amplitude float32 // peak height in meters
	Frequency float64 // noise cycles per degree
	Octaves   int
}

// NewNoiseElevation creates a noise elevation layer.
func NewNoiseElevation(name string, seed uint32, amplitude float32, frequency float64, octaves int) *NoiseElevation {
	return &NoiseElevation{
		Base:      NewBase(name),
		Seed:      seed,
		Amplitude: amplitude,
		Frequency: frequency,
		Octaves:   octaves,
	}
}

// Kind implements Layer.
func (l *NoiseElevation) Kind() Kind { return KindElevation }

// HeightAt returns the height at a geographic position.
func (l *NoiseElevation) HeightAt(x, y float64) float32 {
	return float32(fbm(l.Seed, x*l.Frequency, y*l.Frequency, l.Octaves)) * l.Amplitude
}

// CreateHeightField implements ElevationLayer.
func (l *NoiseElevation) CreateHeightField(req Request) (*terrain.HeightField, error) {
	hf, err := terrain.NewHeightField(req.Size, req.Size, req.Border)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name(), err)
	}
	dx := req.Extent.Width() / float64(req.Size-1)
	dy := req.Extent.Height() / float64(req.Size-1)
	hf.Fill(func(x, y int) float32 {
		return l.HeightAt(req.Extent.XMin+float64(x)*dx, req.Extent.YMax-float64(y)*dy)
	})
	return hf, nil
}

// CheckerImage paints a two-color checkerboard aligned to a geographic grid.
type CheckerImage struct {
	Base
	Colors   [2]color.RGBA
	CellSize float64 // degrees
}

// NewCheckerImage creates a checkerboard imagery layer.
func NewCheckerImage(name string, a, b color.RGBA, cellSize float64) *CheckerImage {
	return &CheckerImage{
		Base:     NewBase(name),
		Colors:   [2]color.RGBA{a, b},
		CellSize: cellSize,
	}
}

// Kind implements Layer.
func (l *CheckerImage) Kind() Kind { return KindImage }

// CreateImage implements ImageLayer.
func (l *CheckerImage) CreateImage(req Request) (*terrain.Image, error) {
	if l.CellSize <= 0 {
		return nil, fmt.Errorf("layer %q: cell size must be positive", l.Name())
	}
	img := terrain.NewImage(req.Size, req.Size)
	px := req.Extent.Width() / float64(req.Size)
	py := req.Extent.Height() / float64(req.Size)
	for y := range req.Size {
		for x := range req.Size {
			gx := req.Extent.XMin + (float64(x)+0.5)*px
			gy := req.Extent.YMax - (float64(y)+0.5)*py
			cell := int64(math.Floor(gx/l.CellSize)) + int64(math.Floor(gy/l.CellSize))
			img.SetRGBA(x, y, l.Colors[cell&1])
		}
	}
	return img, nil
}

// Land cover class codes produced by ThresholdLandCover.
const (
	ClassWater uint8 = iota + 1
	ClassGrass
	ClassRock
	ClassSnow
)

// ThresholdLandCover classifies terrain by the height of a noise elevation
// source: water below zero, then grass, rock and snow by fraction of amplitude.
type ThresholdLandCover struct {
	Base
	Source    *NoiseElevation
	RockAbove float32 // fraction of source amplitude
	SnowAbove float32
}

// NewThresholdLandCover creates a land cover layer driven by src.
func NewThresholdLandCover(name string, src *NoiseElevation) *ThresholdLandCover {
	return &ThresholdLandCover{
		Base:      NewBase(name),
		Source:    src,
		RockAbove: 0.4,
		SnowAbove: 0.7,
	}
}

// Kind implements Layer.
func (l *ThresholdLandCover) Kind() Kind { return KindLandCover }

// Classify returns the class for a height.
func (l *ThresholdLandCover) Classify(h float32) uint8 {
	amp := l.Source.Amplitude
	switch {
	case h < 0:
		return ClassWater
	case h >= l.SnowAbove*amp:
		return ClassSnow
	case h >= l.RockAbove*amp:
		return ClassRock
	}
	return ClassGrass
}

// CreateCoverage implements LandCoverLayer.
func (l *ThresholdLandCover) CreateCoverage(req Request) (*terrain.Coverage, error) {
	if l.Source == nil {
		return nil, fmt.Errorf("layer %q: no elevation source", l.Name())
	}
	cov := terrain.NewCoverage(req.Size, req.Size)
	px := req.Extent.Width() / float64(req.Size)
	py := req.Extent.Height() / float64(req.Size)
	for y := range req.Size {
		for x := range req.Size {
			h := l.Source.HeightAt(req.Extent.XMin+(float64(x)+0.5)*px, req.Extent.YMax-(float64(y)+0.5)*py)
			cov.Classes[y*req.Size+x] = l.Classify(h)
		}
	}
	return cov, nil
}
