package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/fcurrie/hub75-golang/internal/config"
	"github.com/fcurrie/hub75-golang/internal/display"
	"github.com/fcurrie/hub75-golang/internal/types"
	"github.com/fcurrie/hub75-golang/pkg/gpio"
	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file (.json, .yaml or .yml)")
		backend    = flag.String("backend", "", "Line backend: chardev | gpiomem | periph | sim")
		file       = flag.String("file", "", "Raw frame file to play")
		svg        = flag.String("svg", "", "SVG file to show")
		text       = flag.String("text", "", "Text to scroll across the panel")
		pattern    = flag.String("pattern", "", "Test pattern: red | green | blue | white | checkerboard | gradient")
		writeTime  = flag.Duration("write-time", 100*time.Nanosecond, "Estimated cost of one line write, for the refresh estimate")
		stats      = flag.Duration("stats", 5*time.Second, "Interval between stats lines (debug level)")
		verbose    = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Load configuration
	cfg := config.DefaultConfig()
	if *configPath != "" {
		c, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
		}
		cfg = c
	}
	if *backend != "" {
		cfg.Backend.Name = *backend
	}
	if src := (types.SourceConfig{File: *file, SVG: *svg, Text: *text, Pattern: *pattern}); src != (types.SourceConfig{}) {
		cfg.Source = src
	}

	frames, err := display.LoadFrames(cfg.Source, cfg.Panel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load frames")
	}

	p := cfg.Panel
	est := hub75.Timing{WriteTime: *writeTime, Opts: cfg.RendererOptions()}
	log.Info().
		Int("width", p.Width).
		Int("height", p.Height).
		Int("depth", p.Depth).
		Int("frames", len(frames)).
		Uint64("scan_passes", hub75.ScanPasses(p.Depth)).
		Str("est_refresh", est.RefreshRate(p.Depth, p.Rows(), p.Width).String()).
		Int("max_depth_100hz", est.MaxDepth(p.Rows(), p.Width, 100*physic.Hertz)).
		Msg("Panel configured")

	open, err := gpio.NewOpener(gpio.Config{
		Backend: gpio.Backend(cfg.Backend.Name),
		Chip:    cfg.Backend.Chip,
		MemPath: cfg.Backend.MemPath,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to select backend")
	}

	pins, err := hub75.NewPins(cfg.Pins.Assignment(), open)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to acquire pins")
	}
	renderer, err := hub75.NewRenderer(pins, cfg.RendererOptions())
	if err != nil {
		pins.Close()
		log.Fatal().Err(err).Msg("Failed to create renderer")
	}
	defer renderer.Close()

	player, err := display.NewPlayer(renderer, frames, cfg.Timing.FrameInterval.D(), log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create player")
		return
	}

	// Handle shutdown gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *stats > 0 {
		go player.LogStats(ctx, *stats)
	}

	if err := player.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Player failed")
	}
	log.Info().Msg("Shutting down...")
}
