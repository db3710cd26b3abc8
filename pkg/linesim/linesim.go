// Package linesim is an in-memory 32-line output port. It stands in for
// panel hardware in tests and dry runs: it keeps the current line state,
// counts calls and rising edges per line, and can log every call.
package linesim

import (
	"math/bits"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// OpKind is the kind of a logged call.
type OpKind int

const (
	Set OpKind = iota
	Clear
)

func (k OpKind) String() string {
	if k == Set {
		return "set"
	}
	return "clear"
}

// Op is one logged SetBits or ClearBits call.
type Op struct {
	Kind OpKind
	Mask uint32
	// State is the line state after the call.
	State uint32
}

// Sim records what a renderer does to its lines. It is not safe for
// concurrent use, matching the single-writer contract of the renderer.
type Sim struct {
	record bool

	state   uint32
	sets    int
	clears  int
	rises   [32]int
	ops     []Op
	offsets []int
	closed  bool
}

// New returns a Sim with every line low. With record set every call is
// appended to Ops.
func New(record bool) *Sim {
	return &Sim{record: record}
}

// SetBits drives the lines in mask high.
func (s *Sim) SetBits(mask uint32) {
	s.sets++
	rising := mask &^ s.state
	for rising != 0 {
		i := bits.TrailingZeros32(rising)
		s.rises[i]++
		rising &^= 1 << uint(i)
	}
	s.state |= mask
	if s.record {
		s.ops = append(s.ops, Op{Kind: Set, Mask: mask, State: s.state})
	}
}

// ClearBits drives the lines in mask low.
func (s *Sim) ClearBits(mask uint32) {
	s.clears++
	s.state &^= mask
	if s.record {
		s.ops = append(s.ops, Op{Kind: Clear, Mask: mask, State: s.state})
	}
}

// Close marks the port closed.
func (s *Sim) Close() error {
	s.closed = true
	return nil
}

// Opener returns an opener handing out s. It records the requested
// offsets.
func (s *Sim) Opener() hub75.Opener {
	return func(offsets []int) (hub75.Lines, error) {
		s.offsets = append([]int(nil), offsets...)
		return s, nil
	}
}

// State is the current level of all 32 lines.
func (s *Sim) State() uint32 { return s.state }

// High reports whether every line in mask is high.
func (s *Sim) High(mask uint32) bool { return s.state&mask == mask }

// Calls returns the number of SetBits and ClearBits calls.
func (s *Sim) Calls() (sets, clears int) { return s.sets, s.clears }

// Rises returns the number of low-to-high transitions on line.
func (s *Sim) Rises(line int) int { return s.rises[line] }

// RisesOf returns the rising edge count of the single line in mask.
func (s *Sim) RisesOf(mask uint32) int {
	return s.rises[bits.TrailingZeros32(mask)]
}

// Ops returns the logged calls.
func (s *Sim) Ops() []Op { return s.ops }

// Offsets returns the lines requested through Opener.
func (s *Sim) Offsets() []int { return s.offsets }

// Closed reports whether Close was called.
func (s *Sim) Closed() bool { return s.closed }

// Reset clears counters and the log but keeps the line state.
func (s *Sim) Reset() {
	s.sets, s.clears = 0, 0
	s.rises = [32]int{}
	s.ops = s.ops[:0]
}
