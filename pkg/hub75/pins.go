package hub75

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
)

// MaxLine is the highest line number a single 32-bit set/clear write covers.
const MaxLine = 31

// LogicalPin is a role on the HUB75 connector.
type LogicalPin int

const (
	R1 LogicalPin = iota // Red data for upper half
	G1                   // Green data for upper half
	B1                   // Blue data for upper half
	R2                   // Red data for lower half
	G2                   // Green data for lower half
	B2                   // Blue data for lower half
	A                    // Address bit A
	B                    // Address bit B
	C                    // Address bit C
	D                    // Address bit D
	CLK                  // Clock signal
	LAT                  // Latch signal
	OE                   // Output enable

	NumPins = int(OE) + 1
)

var pinNames = [NumPins]string{"R1", "G1", "B1", "R2", "G2", "B2", "A", "B", "C", "D", "CLK", "LAT", "OE"}

func (p LogicalPin) String() string {
	if p < 0 || int(p) >= NumPins {
		return fmt.Sprintf("LogicalPin(%d)", int(p))
	}
	return pinNames[p]
}

// PinAssignment binds every logical pin to a physical line number.
//
// The renderer turns one packed byte into line bits with two shifts, which
// only works when the lines keep the byte layout's spacing:
//   - A, B, C, D contiguous and ascending
//   - G1 = R1+2, B1 = G1+1
//   - G2 = R2+1, B2 = G2+2
type PinAssignment struct {
	R1Pin  int
	G1Pin  int
	B1Pin  int
	R2Pin  int
	G2Pin  int
	B2Pin  int
	APin   int
	BPin   int
	CPin   int
	DPin   int
	CLKPin int
	LATPin int
	OEPin  int
}

func (a *PinAssignment) field(p LogicalPin) *int {
	switch p {
	case R1:
		return &a.R1Pin
	case G1:
		return &a.G1Pin
	case B1:
		return &a.B1Pin
	case R2:
		return &a.R2Pin
	case G2:
		return &a.G2Pin
	case B2:
		return &a.B2Pin
	case A:
		return &a.APin
	case B:
		return &a.BPin
	case C:
		return &a.CPin
	case D:
		return &a.DPin
	case CLK:
		return &a.CLKPin
	case LAT:
		return &a.LATPin
	case OE:
		return &a.OEPin
	}
	return nil
}

// Set binds p to line. Unknown roles are ignored.
func (a *PinAssignment) Set(p LogicalPin, line int) {
	if f := a.field(p); f != nil {
		*f = line
	}
}

// Line returns the line bound to p, or -1 for an unknown role.
func (a PinAssignment) Line(p LogicalPin) int {
	if f := a.field(p); f != nil {
		return *f
	}
	return -1
}

// Offsets returns the 13 line numbers in LogicalPin order.
func (a PinAssignment) Offsets() []int {
	offsets := make([]int, NumPins)
	for p := LogicalPin(0); int(p) < NumPins; p++ {
		offsets[p] = a.Line(p)
	}
	return offsets
}

var (
	ErrLineRange         = errors.New("hub75: line number out of range")
	ErrDuplicateLine     = errors.New("hub75: line bound to more than one pin")
	ErrAddressContiguity = errors.New("hub75: address lines not contiguous")
	ErrColorOffset       = errors.New("hub75: color line offsets broken")
	ErrLinesInUse        = errors.New("hub75: lines already claimed")
	ErrPinsBound         = errors.New("hub75: pins already bound to a renderer")
	ErrClosed            = errors.New("hub75: pins closed")
)

// PinError reports which wiring rule failed and with which values.
type PinError struct {
	Err  error
	Pin  LogicalPin
	Line int
	// For relative rules Pin must be on Want, derived from Ref's line.
	Ref     LogicalPin
	RefLine int
	Want    int
}

func (e *PinError) Error() string {
	switch e.Err {
	case ErrLineRange:
		return fmt.Sprintf("%v: %v=%d, want 0..%d", e.Err, e.Pin, e.Line, MaxLine)
	case ErrDuplicateLine:
		return fmt.Sprintf("%v: %v and %v both on line %d", e.Err, e.Ref, e.Pin, e.Line)
	}
	return fmt.Sprintf("%v: %v=%d, want %d (%v=%d)", e.Err, e.Pin, e.Line, e.Want, e.Ref, e.RefLine)
}

func (e *PinError) Unwrap() error { return e.Err }

// offsetRules lists each role that must sit at a fixed distance from another.
var offsetRules = []struct {
	ref, pin LogicalPin
	delta    int
	err      error
}{
	{A, B, 1, ErrAddressContiguity},
	{B, C, 1, ErrAddressContiguity},
	{C, D, 1, ErrAddressContiguity},
	{R1, G1, 2, ErrColorOffset},
	{G1, B1, 1, ErrColorOffset},
	{R2, G2, 1, ErrColorOffset},
	{G2, B2, 2, ErrColorOffset},
}

// Validate checks the assignment without touching any hardware.
func (a PinAssignment) Validate() error {
	for p := LogicalPin(0); int(p) < NumPins; p++ {
		if l := a.Line(p); l < 0 || l > MaxLine {
			return &PinError{Err: ErrLineRange, Pin: p, Line: l}
		}
	}
	for _, r := range offsetRules {
		ref := a.Line(r.ref)
		if got := a.Line(r.pin); got != ref+r.delta {
			return &PinError{Err: r.err, Pin: r.pin, Line: got, Ref: r.ref, RefLine: ref, Want: ref + r.delta}
		}
	}
	var seen [MaxLine + 1]LogicalPin
	var used uint32
	for p := LogicalPin(0); int(p) < NumPins; p++ {
		l := a.Line(p)
		if used&(1<<uint(l)) != 0 {
			return &PinError{Err: ErrDuplicateLine, Pin: p, Line: l, Ref: seen[l]}
		}
		used |= 1 << uint(l)
		seen[l] = p
	}
	return nil
}

// Masks are the line bit masks derived from a valid PinAssignment.
type Masks struct {
	RGB   uint32 // all six color lines
	Addr  uint32 // A..D
	Clock uint32
	Latch uint32
	OE    uint32

	// AddrShift is A's line number; row r drives r<<AddrShift.
	AddrShift uint
	// Upper- and lower-half color bits are moved from their codec position
	// to their line position by a left then right shift; one of each pair is
	// always zero.
	upperLeft, upperRight uint
	lowerLeft, lowerRight uint
}

func bit(line int) uint32 { return 1 << uint(line) }

func computeMasks(a PinAssignment) Masks {
	m := Masks{
		RGB:       bit(a.R1Pin) | bit(a.G1Pin) | bit(a.B1Pin) | bit(a.R2Pin) | bit(a.G2Pin) | bit(a.B2Pin),
		Addr:      bit(a.APin) | bit(a.BPin) | bit(a.CPin) | bit(a.DPin),
		Clock:     bit(a.CLKPin),
		Latch:     bit(a.LATPin),
		OE:        bit(a.OEPin),
		AddrShift: uint(a.APin),
	}
	m.upperLeft, m.upperRight = shifts(a.R1Pin - upperRedBit)
	m.lowerLeft, m.lowerRight = shifts(a.R2Pin - lowerRedBit)
	return m
}

func shifts(d int) (left, right uint) {
	if d >= 0 {
		return uint(d), 0
	}
	return 0, uint(-d)
}

// LineBits converts one packed column byte into color line bits.
func (m *Masks) LineBits(b byte) uint32 {
	v := uint32(b)
	return (v&upperMask)<<m.upperLeft>>m.upperRight | (v&lowerMask)<<m.lowerLeft>>m.lowerRight
}

// AddrBits returns the address line bits selecting multiplex row r.
func (m *Masks) AddrBits(r int) uint32 {
	return uint32(r) << m.AddrShift & m.Addr
}

// Lines is the two-operation line capability the renderer drives. Both
// operations touch only the bits set in mask and must be safe to call with
// no allocation.
type Lines interface {
	SetBits(mask uint32)
	ClearBits(mask uint32)
	Close() error
}

// Opener acquires the given physical lines as outputs.
type Opener func(offsets []int) (Lines, error)

// Strober is implemented by Lines that change the bits of a mask one line
// at a time. NewPins passes them the clock mask; those lines must change
// last in SetBits and first in ClearBits so data is settled on every edge.
type Strober interface {
	SetStrobe(mask uint32)
}

// claimed holds every line owned by a live Pins in this process.
var (
	claimMu sync.Mutex
	claimed uint32
)

func claim(mask uint32) error {
	claimMu.Lock()
	defer claimMu.Unlock()
	if busy := claimed & mask; busy != 0 {
		return fmt.Errorf("%w: line %d", ErrLinesInUse, bits.TrailingZeros32(busy))
	}
	claimed |= mask
	return nil
}

func release(mask uint32) {
	claimMu.Lock()
	claimed &^= mask
	claimMu.Unlock()
}

// Pins owns the 13 panel lines for its lifetime. Obtain one with NewPins;
// it can be bound to a single Renderer.
type Pins struct {
	asg   PinAssignment
	masks Masks
	all   uint32
	lines Lines

	mu     sync.Mutex
	bound  bool
	closed bool
}

// NewPins validates asg, claims its lines for this process and opens them.
// On a validation error open is never called.
func NewPins(asg PinAssignment, open Opener) (*Pins, error) {
	if open == nil {
		return nil, errors.New("hub75: nil opener")
	}
	if err := asg.Validate(); err != nil {
		return nil, err
	}

	m := computeMasks(asg)
	all := m.RGB | m.Addr | m.Clock | m.Latch | m.OE
	if err := claim(all); err != nil {
		return nil, err
	}

	lines, err := open(asg.Offsets())
	if err != nil {
		release(all)
		return nil, fmt.Errorf("hub75: failed to open lines: %w", err)
	}
	if s, ok := lines.(Strober); ok {
		s.SetStrobe(m.Clock)
	}

	return &Pins{
		asg:   asg,
		masks: m,
		all:   all,
		lines: lines,
	}, nil
}

// Masks returns the derived line masks.
func (p *Pins) Masks() Masks { return p.masks }

// Assignment returns the validated assignment.
func (p *Pins) Assignment() PinAssignment { return p.asg }

func (p *Pins) bind() (Lines, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.bound {
		return nil, ErrPinsBound
	}
	p.bound = true
	return p.lines, nil
}

// Close releases the lines. It is safe to call more than once.
func (p *Pins) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.lines.Close()
	release(p.all)
	return err
}
