package gpio

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// lineRequest is the part of *gpiocdev.Lines the chardev backend uses.
type lineRequest interface {
	SetValues(values []int) error
	Close() error
}

// ChardevLines drives a requested set of lines through the character
// device. The request's values are rewritten from a shadow of the 32-line
// state on every call.
type ChardevLines struct {
	req     lineRequest
	offsets []int
	values  []int
	state   uint32
	errs    int
	lastErr error
	log     zerolog.Logger
}

// Chardev returns an opener requesting the lines from chip as outputs,
// initially low.
func Chardev(chip string, log zerolog.Logger) hub75.Opener {
	return func(offsets []int) (hub75.Lines, error) {
		if _, err := lineMask(offsets); err != nil {
			return nil, err
		}
		log.Info().Str("chip", chip).Ints("offsets", offsets).Msg("Requesting GPIO lines")

		req, err := gpiocdev.RequestLines(chip, offsets,
			gpiocdev.AsOutput(make([]int, len(offsets))...),
			gpiocdev.WithConsumer(Consumer))
		if err != nil {
			return nil, fmt.Errorf("failed to request lines on %s: %w", chip, err)
		}
		return newChardevLines(req, offsets, log), nil
	}
}

func newChardevLines(req lineRequest, offsets []int, log zerolog.Logger) *ChardevLines {
	return &ChardevLines{
		req:     req,
		offsets: append([]int(nil), offsets...),
		values:  make([]int, len(offsets)),
		log:     log,
	}
}

func (c *ChardevLines) SetBits(mask uint32)   { c.write(c.state | mask) }
func (c *ChardevLines) ClearBits(mask uint32) { c.write(c.state &^ mask) }

func (c *ChardevLines) write(state uint32) {
	if state == c.state {
		return
	}
	c.state = state
	for i, o := range c.offsets {
		c.values[i] = int(state >> uint(o) & 1)
	}
	// There is no one to report to mid-frame; failures are counted and
	// logged on Close.
	if err := c.req.SetValues(c.values); err != nil {
		c.errs++
		c.lastErr = err
	}
}

// Close releases the lines.
func (c *ChardevLines) Close() error {
	if c.errs > 0 {
		c.log.Warn().Err(c.lastErr).Int("failures", c.errs).Msg("GPIO writes failed")
	}
	c.log.Info().Ints("offsets", c.offsets).Msg("Releasing GPIO lines")
	return c.req.Close()
}
