package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Zero(t, cfg.Engine.MaxTextureUnits, "zero means probe or built-in default")
	assert.Empty(t, cfg.Engine.OffLimitsUnits)
	assert.Equal(t, 256, cfg.Engine.CacheCapacity)
	assert.Equal(t, tilemodel.DefaultImageSize, cfg.Engine.ImageSize)
	assert.Equal(t, tilemodel.DefaultElevationSize, cfg.Engine.ElevationSize)
	assert.True(t, cfg.Engine.Effects.NormalMap)
	assert.False(t, cfg.Engine.Effects.BoundsDebug)
	assert.Equal(t, SunConfig{Azimuth: 225, Elevation: 55, Ambient: 0.35}, cfg.Engine.Sun)

	assert.Equal(t, tile.GlobalGeodetic(), cfg.Map.Profile.TileProfile())
	require.Len(t, cfg.Map.Layers, 3)
	assert.Equal(t, "threshold", cfg.Map.Layers[2].Driver)

	assert.Equal(t, 4, cfg.Pager.Workers)
	assert.False(t, cfg.Graphics.UseGL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.LogFile)
	assert.Empty(t, cfg.Debug.DumpDir)

	require.NoError(t, cfg.Validate())
}

func TestDefaultMapBuilds(t *testing.T) {
	cfg := Default()
	m, err := geomap.Build(cfg.Map.Profile.TileProfile(), cfg.Map.Layers)
	require.NoError(t, err)
	assert.Len(t, m.Layers(), 3)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
engine:
  max_texture_units: 8
  off_limits_units: [0, 1]
  require:
    normal_textures: true
    elevation_border: true
  effects:
    lightmap: false

map:
  layers:
    - name: hills
      driver: noise
      options:
        seed: "42"

pager:
  workers: 2
  max_lod: 4

graphics:
  use_gl: true

logging:
  level: "debug"
  log_file: "terrain.log"

debug:
  dump_dir: "out"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, configPath))

	assert.Equal(t, 8, cfg.Engine.MaxTextureUnits)
	assert.Equal(t, []int{0, 1}, cfg.Engine.OffLimitsUnits)
	assert.Equal(t, tilemodel.Requirements{NormalTextures: true, ElevationBorder: true},
		cfg.Engine.Require.Requirements())
	assert.False(t, cfg.Engine.Effects.Lightmap)
	assert.True(t, cfg.Engine.Effects.NormalMap, "unset keys keep their defaults")

	require.Len(t, cfg.Map.Layers, 1, "layer list replaces the defaults")
	assert.Equal(t, geomap.Spec{Name: "hills", Driver: "noise", Options: map[string]string{"seed": "42"}},
		cfg.Map.Layers[0])

	assert.Equal(t, 2, cfg.Pager.Workers)
	assert.Equal(t, uint32(4), cfg.Pager.MaxLOD)
	assert.True(t, cfg.Graphics.UseGL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "terrain.log", cfg.Logging.LogFile)
	assert.Equal(t, "out", cfg.Debug.DumpDir)
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
engine:
  max_texture_units: not a number
  invalid syntax here
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	assert.Error(t, loadFromFile(Default(), configPath))
}

func TestLoadFromFileMissing(t *testing.T) {
	assert.Error(t, loadFromFile(Default(), "/nonexistent/path/config.yaml"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative unit limit", func(c *Config) { c.Engine.MaxTextureUnits = -1 }},
		{"negative off-limits unit", func(c *Config) { c.Engine.OffLimitsUnits = []int{3, -2} }},
		{"tiny image", func(c *Config) { c.Engine.ImageSize = 1 }},
		{"no workers", func(c *Config) { c.Pager.Workers = 0 }},
		{"inverted lod range", func(c *Config) { c.Pager.MinLOD, c.Pager.MaxLOD = 3, 1 }},
		{"empty profile", func(c *Config) { c.Map.Profile.TilesX = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir), "ConfigDir should return absolute path, got %s", dir)
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	assert.Empty(t, findConfigFile())

	require.NoError(t, os.WriteFile("terraind.yaml", []byte("pager:\n  workers: 3\n"), 0644))
	assert.Equal(t, "./terraind.yaml", findConfigFile())
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "gl flag",
			setup: func() { *flagGL = true },
			verify: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Graphics.UseGL)
			},
			teardown: func() { *flagGL = false },
		},
		{
			name: "engine and pager flags",
			setup: func() {
				*flagMaxUnits = 6
				*flagWorkers = 9
				*flagMaxLOD = 0
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6, cfg.Engine.MaxTextureUnits)
				assert.Equal(t, 9, cfg.Pager.Workers)
				assert.Equal(t, uint32(0), cfg.Pager.MaxLOD)
			},
			teardown: func() {
				*flagMaxUnits = 0
				*flagWorkers = 0
				*flagMaxLOD = -1
			},
		},
		{
			name: "debug output flags",
			setup: func() {
				*flagDumpDir = "tiles"
				*flagBoundsDbg = true
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "tiles", cfg.Debug.DumpDir)
				assert.True(t, cfg.Engine.Effects.BoundsDebug)
			},
			teardown: func() {
				*flagDumpDir = ""
				*flagBoundsDbg = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
pager:
  workers: 3
  max_lod: 5
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	*flagConfig = configPath
	*flagMaxLOD = 1
	defer func() {
		*flagConfig = ""
		*flagMaxLOD = -1
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint32(1), cfg.Pager.MaxLOD, "flag wins over file")
	assert.Equal(t, 3, cfg.Pager.Workers, "file wins over default")
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("pager:\n  workers: 0\n"), 0644))

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Engine.OffLimitsUnits = []int{2}
	cfg.Debug.DumpDir = "dump"
	require.NoError(t, cfg.SaveTo(path))

	loaded := &Config{}
	require.NoError(t, loadFromFile(loaded, path))
	assert.Equal(t, cfg, loaded)
}
