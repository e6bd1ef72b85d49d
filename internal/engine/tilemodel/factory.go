package tilemodel

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/progress"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Default raster sizes.
const (
	DefaultImageSize     = 64
	DefaultElevationSize = 17
)

// MetersPerDegree converts geodetic tile extents to ground distances for
// bounds and normals. It is the equatorial value; tiles far from the equator
// come out wider than they are.
const MetersPerDegree = 111320.0

// Factory builds tile models from a map snapshot.
// It is stateless between calls and safe for concurrent use.
type Factory struct {
	log           *zap.Logger
	imageSize     int
	elevationSize int
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the factory logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

// WithImageSize sets the color and land cover raster size.
func WithImageSize(n int) Option {
	return func(f *Factory) {
		if n > 0 {
			f.imageSize = n
		}
	}
}

// WithElevationSize sets the number of height samples across a tile.
func WithElevationSize(n int) Option {
	return func(f *Factory) {
		if n >= 2 {
			f.elevationSize = n
		}
	}
}

// NewFactory creates a factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		log:           logger.Named("tilemodel"),
		imageSize:     DefaultImageSize,
		elevationSize: DefaultElevationSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the model for key from the layers manifest selects, plus
// whatever req forces in. p is polled before every layer; when it reports
// cancellation Create returns progress.ErrCanceled and no model.
//
// A layer that fails to produce data is logged and left out of the model.
func (f *Factory) Create(m *geomap.Map, key tile.Key, manifest geomap.Manifest, req Requirements, p progress.Progress) (*Model, error) {
	profile := m.Profile()
	if err := profile.CheckKey(key); err != nil {
		return nil, err
	}
	if req.FullDataAtFirstLOD && key.LOD == profile.FirstLOD {
		manifest = geomap.Manifest{}
	}

	b := &build{
		f:        f,
		p:        p,
		req:      req,
		manifest: manifest,
		profile:  profile,
		model: &Model{
			Key:      key,
			Extent:   profile.TileExtent(key),
			Revision: m.Revision(),
			Manifest: manifest,
		},
	}

	steps := []func(*geomap.Map) error{b.color, b.elevation, b.normals, b.landCover}
	for _, step := range steps {
		if err := step(m); err != nil {
			f.log.Debug("tile model build canceled", zap.Stringer("key", key))
			return nil, err
		}
	}
	return b.model, nil
}

// build carries the state of one Create call.
type build struct {
	f        *Factory
	p        progress.Progress
	req      Requirements
	manifest geomap.Manifest
	profile  tile.Profile
	model    *Model
}

func (b *build) stage(name string) error {
	if progress.Canceled(b.p) {
		return progress.ErrCanceled
	}
	if b.p != nil {
		b.p.SetStage(name)
	}
	return nil
}

func (b *build) poll() error {
	if progress.Canceled(b.p) {
		return progress.ErrCanceled
	}
	return nil
}

func (b *build) record(l geomap.Layer, start time.Time) {
	if b.p != nil {
		b.p.RecordStat("layer."+l.Name(), time.Since(start))
	}
}

func (b *build) failed(l geomap.Layer, err error) {
	b.f.log.Warn("layer produced no data",
		zap.String("layer", l.Name()),
		zap.Stringer("key", b.model.Key),
		zap.Error(err),
	)
}

func (b *build) request(key tile.Key, size, border int) geomap.Request {
	return geomap.Request{Key: key, Extent: b.profile.TileExtent(key), Size: size, Border: border}
}

func (b *build) color(m *geomap.Map) error {
	if err := b.stage("color"); err != nil {
		return err
	}
	key := b.model.Key
	parent, hasParent := key.Parent()
	hasParent = hasParent && b.profile.Contains(parent)

	for _, l := range m.ImageLayers() {
		if !b.manifest.Includes(l.UID()) {
			continue
		}
		if err := b.poll(); err != nil {
			return err
		}
		start := time.Now()
		img, err := l.CreateImage(b.request(key, b.f.imageSize, 0))
		if err != nil {
			b.failed(l, err)
			continue
		}
		cl := ColorLayer{Layer: l.UID(), Name: l.Name(), Image: img}
		if b.req.ParentTextures && hasParent {
			if pimg, err := l.CreateImage(b.request(parent, b.f.imageSize, 0)); err == nil {
				cl.Parent = pimg
				cl.ParentScaleBias = [4]float32{0.5, 0.5, 0.5 * float32(key.X&1), 0.5 * float32(key.Y&1)}
			} else {
				b.failed(l, err)
			}
		}
		b.record(l, start)
		b.model.Color = append(b.model.Color, cl)
		b.model.Layers = append(b.model.Layers, l.UID())
	}
	return nil
}

// elevation takes the topmost enabled layer that produces data.
func (b *build) elevation(m *geomap.Map) error {
	if err := b.stage("elevation"); err != nil {
		return err
	}
	forced := b.req.NeedsElevation()
	border := 0
	if b.req.ElevationBorder {
		border = 1
	}

	layers := m.ElevationLayers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !forced && !b.manifest.Includes(l.UID()) {
			continue
		}
		if err := b.poll(); err != nil {
			return err
		}
		start := time.Now()
		hf, err := l.CreateHeightField(b.request(b.model.Key, b.f.elevationSize, border))
		if err != nil {
			b.failed(l, err)
			continue
		}
		b.record(l, start)
		b.model.Elevation = hf
		b.model.Bounds = hf.Bounds(b.cellSize(hf))
		b.model.Layers = append(b.model.Layers, l.UID())
		return nil
	}
	return nil
}

func (b *build) normals(*geomap.Map) error {
	if !b.req.NormalTextures || b.model.Elevation == nil {
		return nil
	}
	if err := b.stage("normals"); err != nil {
		return err
	}
	start := time.Now()
	b.model.Normals = terrain.DeriveNormals(b.model.Elevation, b.cellSize(b.model.Elevation))
	if b.p != nil {
		b.p.RecordStat("normals", time.Since(start))
	}
	return nil
}

func (b *build) landCover(m *geomap.Map) error {
	if err := b.stage("landcover"); err != nil {
		return err
	}
	for _, l := range m.LandCoverLayers() {
		if !b.req.LandCoverTextures && !b.manifest.Includes(l.UID()) {
			continue
		}
		if err := b.poll(); err != nil {
			return err
		}
		start := time.Now()
		cov, err := l.CreateCoverage(b.request(b.model.Key, b.f.imageSize, 0))
		if err != nil {
			b.failed(l, err)
			continue
		}
		b.record(l, start)
		b.model.LandCover = append(b.model.LandCover, CoverageLayer{Layer: l.UID(), Name: l.Name(), Coverage: cov})
		b.model.Layers = append(b.model.Layers, l.UID())
	}
	return nil
}

func (b *build) cellSize(hf *terrain.HeightField) float32 {
	w, _ := hf.InteriorSize()
	return float32(b.model.Extent.Width() * MetersPerDegree / float64(w-1))
}
