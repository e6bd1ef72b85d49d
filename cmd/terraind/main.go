// Package main is the entry point for the terrain engine driver. It builds a
// map from config, installs the configured effects and pages a region of
// tiles through the engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities"
	"github.com/Faultbox/midgard-terrain/internal/engine/capabilities/glcaps"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/effects"
	"github.com/Faultbox/midgard-terrain/internal/engine/geomap"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/node"
	"github.com/Faultbox/midgard-terrain/internal/engine/pager"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader/program"
	"github.com/Faultbox/midgard-terrain/internal/engine/texunit"
	"github.com/Faultbox/midgard-terrain/internal/engine/tile"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("=== Midgard Terrain ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		logger.Error("terrain run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("terrain run finished")
	logger.Sync()
}

func run(ctx context.Context, cfg *config.Config) error {
	caps, win, err := probeCapabilities(cfg)
	if err != nil {
		return err
	}
	if win != nil {
		defer win.Close()
	}

	profile := cfg.Map.Profile.TileProfile()
	m, err := geomap.Build(profile, cfg.Map.Layers)
	if err != nil {
		return fmt.Errorf("building map: %w", err)
	}

	n := node.New(caps,
		node.WithMap(m),
		node.WithCacheCapacity(cfg.Engine.CacheCapacity),
		node.WithFactory(tilemodel.NewFactory(
			tilemodel.WithImageSize(cfg.Engine.ImageSize),
			tilemodel.WithElevationSize(cfg.Engine.ElevationSize),
		)),
	)
	defer n.Shutdown()

	for _, unit := range cfg.Engine.OffLimitsUnits {
		if err := n.SetTextureImageUnitOffLimits(unit); err != nil {
			return fmt.Errorf("reserving off-limits unit: %w", err)
		}
	}
	n.Require(cfg.Engine.Require.Requirements())
	installEffects(n, cfg.Engine.Effects, cfg.Engine.Sun)

	if win != nil {
		if err := compileTerrainProgram(n); err != nil {
			return err
		}
	}

	keys := pager.KeysForRegion(profile, cfg.Pager.Extent.Extent(), cfg.Pager.MinLOD, cfg.Pager.MaxLOD)
	p := pager.New(n, pager.WithWorkers(cfg.Pager.Workers))
	res, err := p.Build(ctx, keys, geomap.NewManifest())
	if err != nil {
		return fmt.Errorf("paging tiles: %w", err)
	}
	for key, ferr := range res.Failed {
		logger.Warn("tile build failed", zap.Stringer("key", key), zap.Error(ferr))
	}

	stats := n.CacheStats()
	logger.Info("tile cache",
		zap.Int("hits", stats.Hits),
		zap.Int("misses", stats.Misses),
		zap.Int("entries", stats.Entries),
	)

	if cfg.Debug.DumpDir != "" {
		return dumpModels(cfg.Debug.DumpDir, res.Models)
	}
	return nil
}

// probeCapabilities returns the unit limit provider. With graphics.use_gl set
// it opens a hidden GL context and keeps it for shader compilation.
func probeCapabilities(cfg *config.Config) (capabilities.Provider, *window.Window, error) {
	if !cfg.Graphics.UseGL {
		units := cfg.Engine.MaxTextureUnits
		if units == 0 {
			units = capabilities.DefaultMaxTextureUnits
		}
		return capabilities.NewStatic(units), nil, nil
	}

	win, err := window.New(window.Config{
		Title:  "Midgard Terrain",
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
		Hidden: true,
		VSync:  cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating GL context: %w", err)
	}
	probed, err := glcaps.NewGL()
	if err != nil {
		win.Close()
		return nil, nil, err
	}
	if cfg.Engine.MaxTextureUnits > 0 {
		logger.Info("texture unit limit overridden",
			zap.Int("probed", probed.MaxGPUTextureUnits()),
			zap.Int("configured", cfg.Engine.MaxTextureUnits),
		)
		return capabilities.NewStatic(cfg.Engine.MaxTextureUnits), win, nil
	}
	return probed, win, nil
}

// installEffects adds the enabled effects. Running out of texture units
// disables the effect that asked for one; the engine keeps going without it.
func installEffects(n *node.Node, flags config.EffectsFlags, sun config.SunConfig) {
	var list []node.Effect
	if flags.NormalMap {
		list = append(list, effects.NewNormalMap())
	}
	if flags.Lightmap {
		lm := effects.NewLightmap()
		lm.Sun = lighting.SunDirection(sun.Azimuth, sun.Elevation)
		lm.Ambient = sun.Ambient
		list = append(list, lm)
	}
	if flags.LandCover {
		list = append(list, effects.NewLandCover())
	}
	if flags.BoundsDebug {
		list = append(list, effects.NewBoundsDebug())
	}

	for _, e := range list {
		err := n.AddEffect(e)
		switch {
		case err == nil:
		case errors.Is(err, texunit.ErrNoUnitsAvailable), errors.Is(err, effects.ErrNoLandCover):
			logger.Warn("effect disabled", zap.String("effect", e.Tag()), zap.Error(err))
		default:
			logger.Error("effect install failed", zap.String("effect", e.Tag()), zap.Error(err))
		}
	}
}

func compileTerrainProgram(n *node.Node) error {
	// Traverse applies the effects' sampler state before the header is read.
	if err := n.Traverse(context.Background()); err != nil {
		return err
	}
	samplers := n.Samplers()
	prog, err := program.Build(shader.TerrainVertex, shader.TerrainFragment, samplers)
	if err != nil {
		return fmt.Errorf("compiling terrain program: %w", err)
	}
	logger.Info("terrain program compiled",
		zap.Uint32("program", prog),
		zap.Int("samplers", len(samplers)),
	)
	return nil
}

func dumpModels(dir string, models map[tile.Key]*tilemodel.Model) error {
	dumper := debug.NewModelDumper(dir)
	written := 0
	for _, model := range models {
		files, err := dumper.Dump(model)
		if err != nil {
			return fmt.Errorf("dumping %s: %w", model.Key, err)
		}
		written += len(files)
	}
	logger.Info("tile channels dumped", zap.String("dir", dir), zap.Int("files", written))
	return nil
}
