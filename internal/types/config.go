package types

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// Duration is a time.Duration written as "2us" or "100ms" in config files
type Duration time.Duration

// D returns the value as a time.Duration
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// PanelConfig represents the geometry of the attached panel
type PanelConfig struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	// Depth is the number of bitplanes per frame
	Depth int `json:"depth" yaml:"depth"`
}

// Rows is the number of multiplexed rows, half the panel height
func (p PanelConfig) Rows() int { return p.Height / 2 }

// PinConfig represents the GPIO line number of each HUB75 signal
type PinConfig struct {
	R1  int `json:"r1" yaml:"r1"`
	G1  int `json:"g1" yaml:"g1"`
	B1  int `json:"b1" yaml:"b1"`
	R2  int `json:"r2" yaml:"r2"`
	G2  int `json:"g2" yaml:"g2"`
	B2  int `json:"b2" yaml:"b2"`
	A   int `json:"a" yaml:"a"`
	B   int `json:"b" yaml:"b"`
	C   int `json:"c" yaml:"c"`
	D   int `json:"d" yaml:"d"`
	CLK int `json:"clk" yaml:"clk"`
	LAT int `json:"lat" yaml:"lat"`
	OE  int `json:"oe" yaml:"oe"`
}

// Assignment converts the config into a pin assignment
func (p PinConfig) Assignment() hub75.PinAssignment {
	return hub75.PinAssignment{
		R1Pin: p.R1, G1Pin: p.G1, B1Pin: p.B1,
		R2Pin: p.R2, G2Pin: p.G2, B2Pin: p.B2,
		APin: p.A, BPin: p.B, CPin: p.C, DPin: p.D,
		CLKPin: p.CLK, LATPin: p.LAT, OEPin: p.OE,
	}
}

// BackendConfig selects how the lines are driven
type BackendConfig struct {
	// Name is one of chardev, gpiomem, periph or sim
	Name    string `json:"name" yaml:"name"`
	Chip    string `json:"chip" yaml:"chip"`
	MemPath string `json:"mem_path,omitempty" yaml:"mem_path,omitempty"`
}

// TimingConfig represents the optional holds and the animation rate
type TimingConfig struct {
	LatchHold     Duration `json:"latch_hold" yaml:"latch_hold"`
	RowHold       Duration `json:"row_hold" yaml:"row_hold"`
	FrameInterval Duration `json:"frame_interval" yaml:"frame_interval"`
}

// SourceConfig represents what to show. The first non-empty field wins, in
// the order File, SVG, Text, Pattern.
type SourceConfig struct {
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	SVG     string `json:"svg,omitempty" yaml:"svg,omitempty"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}
