package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid reports a config that loaded but cannot drive the engine.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the standard locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	if c.Engine.MaxTextureUnits < 0 {
		return fmt.Errorf("%w: engine.max_texture_units %d is negative", ErrInvalid, c.Engine.MaxTextureUnits)
	}
	for _, u := range c.Engine.OffLimitsUnits {
		if u < 0 {
			return fmt.Errorf("%w: engine.off_limits_units has negative unit %d", ErrInvalid, u)
		}
	}
	if c.Engine.ImageSize < 2 || c.Engine.ElevationSize < 2 {
		return fmt.Errorf("%w: engine image and elevation sizes must be at least 2", ErrInvalid)
	}
	if c.Pager.Workers < 1 {
		return fmt.Errorf("%w: pager.workers must be positive", ErrInvalid)
	}
	if c.Pager.MinLOD > c.Pager.MaxLOD {
		return fmt.Errorf("%w: pager.min_lod %d above max_lod %d", ErrInvalid, c.Pager.MinLOD, c.Pager.MaxLOD)
	}
	if err := c.Map.Profile.TileProfile().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./terraind.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MidgardTerrain")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardTerrain")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "midgard-terrain")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "midgard-terrain")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Sequences such as map.layers replace the defaults rather than append.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
