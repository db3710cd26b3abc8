package gpio

import (
	"fmt"
	"math/bits"

	"github.com/rs/zerolog"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/bcm283x"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// PeriphLines drives the lines through periph.io. On a BCM283x with its
// GPIO registers mapped, a mask is written with one bank store; otherwise
// pins change one at a time with the strobe lines changing last on set and
// first on clear.
type PeriphLines struct {
	pins   [hub75.MaxLine + 1]pgpio.PinOut
	owned  uint32
	strobe uint32
	log    zerolog.Logger

	// set0 and clear0 write bank 0 in a single store; nil when unavailable.
	set0, clear0 func(mask uint32)
}

// Periph returns an opener that initialises the periph.io host drivers and
// looks the lines up as "GPIO<n>".
func Periph(log zerolog.Logger) hub75.Opener {
	return func(offsets []int) (hub75.Lines, error) {
		state, err := host.Init()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize periph host: %w", err)
		}
		for _, d := range state.Loaded {
			log.Debug().Str("driver", d.String()).Msg("Loaded periph driver")
		}

		p, err := newPeriphLines(gpioreg.ByName, offsets, log)
		if err != nil {
			return nil, err
		}
		if set0, clear0, ok := bcmBank(); ok {
			p.set0, p.clear0 = set0, clear0
			log.Info().Msg("Using BCM283x bank writes")
		}
		return p, nil
	}
}

// bcmBank returns the BCM283x bank 0 set/clear functions when the register
// block is mapped. Without the mapping they dereference nil, so a read is
// tried first.
func bcmBank() (set0, clear0 func(uint32), ok bool) {
	if !bcm283x.Present() {
		return nil, nil, false
	}
	defer func() {
		if recover() != nil {
			set0, clear0, ok = nil, nil, false
		}
	}()
	bcm283x.PinsRead0To31()
	return bcm283x.PinsSet0To31, bcm283x.PinsClear0To31, true
}

func newPeriphLines(byName func(string) pgpio.PinIO, offsets []int, log zerolog.Logger) (*PeriphLines, error) {
	owned, err := lineMask(offsets)
	if err != nil {
		return nil, err
	}

	p := &PeriphLines{owned: owned, log: log}
	for i, o := range offsets {
		name := fmt.Sprintf("GPIO%d", o)
		pin := byName(name)
		if pin == nil {
			p.halt(offsets[:i])
			return nil, fmt.Errorf("gpio: no periph pin %s", name)
		}
		if err := pin.Out(pgpio.Low); err != nil {
			p.halt(offsets[:i])
			return nil, fmt.Errorf("failed to set %s as output: %w", name, err)
		}
		p.pins[o] = pin
	}
	log.Info().Ints("offsets", offsets).Msg("Configured periph pins")
	return p, nil
}

// SetStrobe marks the clock lines.
func (p *PeriphLines) SetStrobe(mask uint32) { p.strobe = mask & p.owned }

func (p *PeriphLines) SetBits(mask uint32) {
	mask &= p.owned
	if p.set0 != nil {
		p.set0(mask)
		return
	}
	p.drive(mask&^p.strobe, pgpio.High)
	p.drive(mask&p.strobe, pgpio.High)
}

func (p *PeriphLines) ClearBits(mask uint32) {
	mask &= p.owned
	if p.clear0 != nil {
		p.clear0(mask)
		return
	}
	p.drive(mask&p.strobe, pgpio.Low)
	p.drive(mask&^p.strobe, pgpio.Low)
}

func (p *PeriphLines) drive(mask uint32, l pgpio.Level) {
	for m := mask; m != 0; m &= m - 1 {
		p.pins[bits.TrailingZeros32(m)].Out(l)
	}
}

func (p *PeriphLines) halt(offsets []int) {
	for _, o := range offsets {
		if err := p.pins[o].Halt(); err != nil {
			p.log.Warn().Err(err).Int("line", o).Msg("Failed to halt pin")
		}
	}
}

// Close halts every pin.
func (p *PeriphLines) Close() error {
	var first error
	for m := p.owned; m != 0; m &= m - 1 {
		if err := p.pins[bits.TrailingZeros32(m)].Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
