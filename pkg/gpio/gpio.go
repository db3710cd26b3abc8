// Package gpio binds hub75.Lines to real output lines on Linux boards.
//
// Three backends are available:
//   - chardev: the GPIO character device through go-gpiocdev; portable and
//     slow, each call is an ioctl.
//   - gpiomem: claims the lines through the character device, then writes
//     the BCM283x set/clear registers through /dev/gpiomem, one 32-bit store
//     per call.
//   - periph: periph.io pin drivers, one pin at a time.
//
// The "sim" backend drives an in-memory linesim.Sim.
package gpio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
	"github.com/fcurrie/hub75-golang/pkg/linesim"
)

// Backend names a line driver.
type Backend string

const (
	BackendChardev Backend = "chardev"
	BackendGpiomem Backend = "gpiomem"
	BackendPeriph  Backend = "periph"
	BackendSim     Backend = "sim"
)

// Consumer is the label the kernel shows for lines we hold.
const Consumer = "hub75"

// Config selects and parameterises a backend.
type Config struct {
	Backend Backend
	// Chip is the GPIO character device, e.g. "gpiochip0".
	Chip string
	// MemPath is the register device for the gpiomem backend.
	MemPath string
}

// NewOpener returns an opener for the configured backend. Nothing is
// acquired until the opener is called.
func NewOpener(cfg Config, log zerolog.Logger) (hub75.Opener, error) {
	switch cfg.Backend {
	case BackendChardev:
		return Chardev(cfg.Chip, log), nil
	case BackendGpiomem:
		path := cfg.MemPath
		if path == "" {
			path = DefaultMemPath
		}
		return Gpiomem(cfg.Chip, path, log), nil
	case BackendPeriph:
		return Periph(log), nil
	case BackendSim:
		log.Info().Msg("Driving simulated lines")
		return linesim.New(false).Opener(), nil
	}
	return nil, fmt.Errorf("gpio: unknown backend %q", cfg.Backend)
}

// lineMask converts offsets into a 32-bit mask.
func lineMask(offsets []int) (uint32, error) {
	var m uint32
	for _, o := range offsets {
		if o < 0 || o > hub75.MaxLine {
			return 0, fmt.Errorf("gpio: line %d outside the 32-bit bank", o)
		}
		m |= 1 << uint(o)
	}
	return m, nil
}
