package gpio

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
	"github.com/fcurrie/hub75-golang/pkg/mmap"
)

// DefaultMemPath exposes the BCM283x GPIO block without root.
const DefaultMemPath = "/dev/gpiomem"

// BCM283x GPIO register offsets, bank 0 (lines 0..31).
const (
	regGPFSEL0 = 0x00
	regGPSET0  = 0x1c
	regGPCLR0  = 0x28

	gpioBlockSize = 0xb4

	fselOutput = 0b001
)

// RegisterLines writes the set/clear registers of a mapped GPIO block. Each
// call is a single 32-bit store, so all lines in the mask change together.
type RegisterLines struct {
	mem   *mmap.MemoryMap
	owned uint32
	req   lineRequest
	log   zerolog.Logger
}

// Gpiomem returns an opener that claims the lines through chip, so no other
// process can request them, then drives them through the register block
// mapped from path.
func Gpiomem(chip, path string, log zerolog.Logger) hub75.Opener {
	return func(offsets []int) (hub75.Lines, error) {
		if _, err := lineMask(offsets); err != nil {
			return nil, err
		}
		log.Info().Str("chip", chip).Ints("offsets", offsets).Msg("Claiming GPIO lines")

		req, err := gpiocdev.RequestLines(chip, offsets,
			gpiocdev.AsOutput(make([]int, len(offsets))...),
			gpiocdev.WithConsumer(Consumer))
		if err != nil {
			return nil, fmt.Errorf("failed to request lines on %s: %w", chip, err)
		}

		mem, err := mmap.Open(path, 0, gpioBlockSize)
		if err != nil {
			req.Close()
			return nil, err
		}
		log.Info().Str("device", path).Msg("Mapped GPIO registers")

		r, err := NewRegisterLines(mem, offsets, log)
		if err != nil {
			mem.Close()
			req.Close()
			return nil, err
		}
		r.req = req
		return r, nil
	}
}

// NewRegisterLines configures offsets as outputs in mem's function select
// registers and drives them low.
func NewRegisterLines(mem *mmap.MemoryMap, offsets []int, log zerolog.Logger) (*RegisterLines, error) {
	owned, err := lineMask(offsets)
	if err != nil {
		return nil, err
	}
	if mem.Len() < gpioBlockSize {
		return nil, fmt.Errorf("gpio: register block is %d bytes, want %d", mem.Len(), gpioBlockSize)
	}

	for _, o := range offsets {
		reg := uintptr(regGPFSEL0 + 4*(o/10))
		shift := uint(3 * (o % 10))
		v := mem.Read32(reg)
		v = v&^(0b111<<shift) | fselOutput<<shift
		mem.Write32(reg, v)
	}
	mem.Write32(regGPCLR0, owned)

	return &RegisterLines{mem: mem, owned: owned, log: log}, nil
}

func (r *RegisterLines) SetBits(mask uint32) {
	r.mem.Write32(regGPSET0, mask&r.owned)
}

func (r *RegisterLines) ClearBits(mask uint32) {
	r.mem.Write32(regGPCLR0, mask&r.owned)
}

// Close unmaps the registers and releases the claim. Line levels are left
// as they are so a blanked panel stays blank.
func (r *RegisterLines) Close() error {
	err := r.mem.Close()
	if r.req != nil {
		if cerr := r.req.Close(); err == nil {
			err = cerr
		}
	}
	r.log.Info().Msg("Released GPIO registers")
	return err
}
