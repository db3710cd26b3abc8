package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fcurrie/hub75-golang/internal/config"
	"github.com/fcurrie/hub75-golang/pkg/gpio"
	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (.json, .yaml or .yml)")
	chip := flag.String("chip", "", "GPIO chip, overrides the configuration")
	role := flag.String("role", "", "Toggle only this signal, e.g. CLK or R1")
	dwell := flag.Duration("dwell", time.Second, "How long each line stays high")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.DefaultConfig()
	if *configPath != "" {
		c, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
		}
		cfg = c
	}
	if *chip != "" {
		cfg.Backend.Chip = *chip
	}

	asg := cfg.Pins.Assignment()
	roles := make([]hub75.LogicalPin, 0, hub75.NumPins)
	for p := hub75.LogicalPin(0); int(p) < hub75.NumPins; p++ {
		if *role == "" || strings.EqualFold(*role, p.String()) {
			roles = append(roles, p)
		}
	}
	if len(roles) == 0 {
		log.Fatal().Str("role", *role).Msg("Unknown signal")
	}

	offsets := asg.Offsets()
	log.Info().Str("chip", cfg.Backend.Chip).Ints("offsets", offsets).Msg("Requesting GPIO lines...")
	lines, err := gpiocdev.RequestLines(cfg.Backend.Chip, offsets,
		gpiocdev.AsOutput(make([]int, len(offsets))...),
		gpiocdev.WithConsumer(gpio.Consumer+"-linetest"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to request lines")
	}
	defer lines.Close()

	// Set up signal handler for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index := make(map[int]int, len(offsets))
	for i, o := range offsets {
		index[o] = i
	}
	values := make([]int, len(offsets))

	ticker := time.NewTicker(*dwell)
	defer ticker.Stop()
	for n := 0; ; n++ {
		p := roles[n%len(roles)]
		line := asg.Line(p)

		for i := range values {
			values[i] = 0
		}
		values[index[line]] = 1
		if err := lines.SetValues(values); err != nil {
			log.Error().Err(err).Stringer("signal", p).Msg("Failed to set values")
		} else {
			log.Info().Stringer("signal", p).Int("line", line).Msg("Line high")
		}

		select {
		case <-ctx.Done():
			for i := range values {
				values[i] = 0
			}
			if err := lines.SetValues(values); err != nil {
				log.Warn().Err(err).Msg("Failed to drive lines low")
			}
			log.Info().Msg("Shutting down...")
			return
		case <-ticker.C:
		}
	}
}
