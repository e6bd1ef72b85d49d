// Package config handles terrain engine configuration loading and management.
package config

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// Config holds all engine settings.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Map      MapConfig      `yaml:"map"`
	Pager    PagerConfig    `yaml:"pager"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    DebugConfig    `yaml:"debug"`
}

// EngineConfig holds terrain engine node settings.
type EngineConfig struct {
	// MaxTextureUnits overrides the hardware limit. Zero means probe the GPU
	// when graphics.use_gl is set, or use the built-in default otherwise.
	MaxTextureUnits int          `yaml:"max_texture_units"`
	OffLimitsUnits  []int        `yaml:"off_limits_units"`
	Require         RequireFlags `yaml:"require"`
	CacheCapacity   int          `yaml:"cache_capacity"`
	ImageSize       int          `yaml:"image_size"`
	ElevationSize   int          `yaml:"elevation_size"`
	Effects         EffectsFlags `yaml:"effects"`
	Sun             SunConfig    `yaml:"sun"`
}

// SunConfig places the light the lightmap effect bakes with.
type SunConfig struct {
	Azimuth   float32 `yaml:"azimuth"`   // degrees clockwise from north
	Elevation float32 `yaml:"elevation"` // degrees above the horizon
	Ambient   float32 `yaml:"ambient"`
}

// RequireFlags mirrors tilemodel.Requirements for declarative setup.
type RequireFlags struct {
	NormalTextures     bool `yaml:"normal_textures"`
	ElevationTextures  bool `yaml:"elevation_textures"`
	LandCoverTextures  bool `yaml:"landcover_textures"`
	ParentTextures     bool `yaml:"parent_textures"`
	ElevationBorder    bool `yaml:"elevation_border"`
	FullDataAtFirstLOD bool `yaml:"full_data_at_first_lod"`
}

// Requirements converts the flags for Node.Require.
func (f RequireFlags) Requirements() tilemodel.Requirements {
	return tilemodel.Requirements{
		NormalTextures:     f.NormalTextures,
		ElevationTextures:  f.ElevationTextures,
		LandCoverTextures:  f.LandCoverTextures,
		ParentTextures:     f.ParentTextures,
		ElevationBorder:    f.ElevationBorder,
		FullDataAtFirstLOD: f.FullDataAtFirstLOD,
	}
}

// EffectsFlags selects the terrain effects installed at startup.
type EffectsFlags struct {
	NormalMap   bool `yaml:"normal_map"`
	Lightmap    bool `yaml:"lightmap"`
	LandCover   bool `yaml:"landcover"`
	BoundsDebug bool `yaml:"bounds_debug"`
}

// MapConfig describes the tiling profile and the layer stack.
type MapConfig struct {
	Profile ProfileConfig `yaml:"profile"`
	Layers  []geomap.Spec `yaml:"layers"`
}

// ProfileConfig holds the tiling profile.
type ProfileConfig struct {
	Name     string       `yaml:"name"`
	Extent   ExtentConfig `yaml:"extent"`
	TilesX   uint32       `yaml:"tiles_x"` // tiles across at LOD 0
	TilesY   uint32       `yaml:"tiles_y"`
	FirstLOD uint32       `yaml:"first_lod"`
	MaxLOD   uint32       `yaml:"max_lod"`
}

// ExtentConfig is a rectangle in profile units.
type ExtentConfig struct {
	XMin float64 `yaml:"xmin"`
	YMin float64 `yaml:"ymin"`
	XMax float64 `yaml:"xmax"`
	YMax float64 `yaml:"ymax"`
}

// Extent converts to a tile.Extent.
func (e ExtentConfig) Extent() tile.Extent {
	return tile.Extent{XMin: e.XMin, YMin: e.YMin, XMax: e.XMax, YMax: e.YMax}
}

// TileProfile converts to a tile.Profile.
func (p ProfileConfig) TileProfile() tile.Profile {
	return tile.Profile{
		Name:     p.Name,
		Extent:   p.Extent.Extent(),
		TilesX:   p.TilesX,
		TilesY:   p.TilesY,
		FirstLOD: p.FirstLOD,
		MaxLOD:   p.MaxLOD,
	}
}

// PagerConfig holds batch build settings.
type PagerConfig struct {
	Workers int          `yaml:"workers"`
	MinLOD  uint32       `yaml:"min_lod"`
	MaxLOD  uint32       `yaml:"max_lod"`
	Extent  ExtentConfig `yaml:"extent"`
}

// GraphicsConfig holds GPU context settings.
type GraphicsConfig struct {
	UseGL  bool `yaml:"use_gl"` // Probe a real GL context for unit limits
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn, error
	LogFile string `yaml:"log_file"` // Path to log file (empty = no file logging)
}

// DebugConfig holds diagnostic output settings.
type DebugConfig struct {
	DumpDir string `yaml:"dump_dir"` // Write built tile channels as PNG (empty = off)
}

// Default returns a config with sensible defaults.
func Default() *Config {
	geo := tile.GlobalGeodetic()
	return &Config{
		Engine: EngineConfig{
			CacheCapacity: 256,
			ImageSize:     tilemodel.DefaultImageSize,
			ElevationSize: tilemodel.DefaultElevationSize,
			Effects: EffectsFlags{
				NormalMap: true,
				Lightmap:  true,
				LandCover: true,
			},
			Sun: SunConfig{Azimuth: 225, Elevation: 55, Ambient: 0.35},
		},
		Map: MapConfig{
			Profile: ProfileConfig{
				Name: geo.Name,
				Extent: ExtentConfig{
					XMin: geo.Extent.XMin, YMin: geo.Extent.YMin,
					XMax: geo.Extent.XMax, YMax: geo.Extent.YMax,
				},
				TilesX:   geo.TilesX,
				TilesY:   geo.TilesY,
				FirstLOD: geo.FirstLOD,
				MaxLOD:   geo.MaxLOD,
			},
			Layers: []geomap.Spec{
				{Name: "dem", Driver: "noise", Options: map[string]string{"seed": "1", "amplitude": "3000"}},
				{Name: "imagery", Driver: "checker"},
				{Name: "landcover", Driver: "threshold", Options: map[string]string{"source": "dem"}},
			},
		},
		Pager: PagerConfig{
			Workers: 4,
			MinLOD:  0,
			MaxLOD:  2,
			Extent:  ExtentConfig{XMin: -180, YMin: -90, XMax: 180, YMax: 90},
		},
		Graphics: GraphicsConfig{
			Width:  320,
			Height: 240,
			VSync:  false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
