package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fcurrie/hub75-golang/internal/types"
	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// Config represents the application configuration
type Config struct {
	Panel   types.PanelConfig   `json:"panel" yaml:"panel"`
	Pins    types.PinConfig     `json:"pins" yaml:"pins"`
	Backend types.BackendConfig `json:"backend" yaml:"backend"`
	Timing  types.TimingConfig  `json:"timing" yaml:"timing"`
	Source  types.SourceConfig  `json:"source" yaml:"source"`
}

// LoadConfig loads the configuration from a file. Files ending in .yaml or
// .yml are read as YAML, anything else as JSON. Fields missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		err = dec.Decode(config)
	default:
		dec := json.NewDecoder(file)
		dec.DisallowUnknownFields()
		err = dec.Decode(config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return config, nil
}

// DefaultConfig returns the default configuration: a 64x32 panel on the
// Raspberry Pi header, driven through the GPIO character device.
func DefaultConfig() *Config {
	return &Config{
		Panel: types.PanelConfig{
			Width:  64,
			Height: 32,
			Depth:  6,
		},
		Pins: types.PinConfig{
			R1: 5, G1: 7, B1: 8,
			R2: 9, G2: 10, B2: 12,
			A: 16, B: 17, C: 18, D: 19,
			CLK: 20, LAT: 21, OE: 22,
		},
		Backend: types.BackendConfig{
			Name: "chardev",
			Chip: "gpiochip0",
		},
		Timing: types.TimingConfig{
			FrameInterval: types.Duration(100 * time.Millisecond),
		},
		Source: types.SourceConfig{
			Pattern: "gradient",
		},
	}
}

// Validate checks the panel geometry, timing and pin assignment
func (c *Config) Validate() error {
	p := c.Panel
	if p.Width < 1 {
		return fmt.Errorf("panel width %d, want at least 1", p.Width)
	}
	if p.Height < 2 || p.Height%2 != 0 {
		return fmt.Errorf("panel height %d, want a positive even number", p.Height)
	}
	if p.Rows() > hub75.MaxRows {
		return fmt.Errorf("panel height %d, want at most %d", p.Height, 2*hub75.MaxRows)
	}
	if p.Depth < 1 || p.Depth > hub75.MaxDepth {
		return fmt.Errorf("panel depth %d, want 1..%d", p.Depth, hub75.MaxDepth)
	}

	t := c.Timing
	if t.LatchHold < 0 || t.RowHold < 0 || t.FrameInterval < 0 {
		return errors.New("timing values must not be negative")
	}

	return c.Pins.Assignment().Validate()
}

// RendererOptions returns the renderer holds from the timing section
func (c *Config) RendererOptions() hub75.Options {
	return hub75.Options{
		LatchHold: c.Timing.LatchHold.D(),
		RowHold:   c.Timing.RowHold.D(),
	}
}
