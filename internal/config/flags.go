package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagGL        = flag.Bool("gl", false, "Probe texture unit limits from a real OpenGL context")
	flagMaxUnits  = flag.Int("max-units", 0, "Override the texture image unit limit")
	flagWorkers   = flag.Int("workers", 0, "Number of concurrent tile builds")
	flagMaxLOD    = flag.Int("max-lod", -1, "Deepest level of detail to build")
	flagDumpDir   = flag.String("dump", "", "Write built tile channels as PNG into this directory")
	flagBoundsDbg = flag.Bool("bounds-debug", false, "Attach bounding box wireframes to tiles")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGL {
		cfg.Graphics.UseGL = true
	}
	if *flagMaxUnits > 0 {
		cfg.Engine.MaxTextureUnits = *flagMaxUnits
	}
	if *flagWorkers > 0 {
		cfg.Pager.Workers = *flagWorkers
	}
	if *flagMaxLOD >= 0 {
		cfg.Pager.MaxLOD = uint32(*flagMaxLOD)
	}
	if *flagDumpDir != "" {
		cfg.Debug.DumpDir = *flagDumpDir
	}
	if *flagBoundsDbg {
		cfg.Engine.Effects.BoundsDebug = true
	}
}
