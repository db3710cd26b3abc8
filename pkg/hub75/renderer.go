package hub75

import (
	"fmt"
	"time"
)

// Options tune inter-line timing. The zero value issues line writes back to
// back, which is enough for panels whose shift registers keep up with the
// host's write rate.
type Options struct {
	// LatchHold keeps LAT asserted for at least this long.
	LatchHold time.Duration
	// RowHold keeps each row lit for at least this long before the next row
	// is blanked.
	RowHold time.Duration
}

// Renderer scans frames onto the panel with binary coded modulation.
//
// Render must run on a single goroutine and nothing else may write the
// panel lines while the renderer is live.
type Renderer struct {
	pins  *Pins
	lines Lines
	masks Masks
	opts  Options
}

// NewRenderer binds pins to a new renderer. A Pins can be bound only once.
func NewRenderer(pins *Pins, opts Options) (*Renderer, error) {
	if pins == nil {
		return nil, fmt.Errorf("hub75: nil pins")
	}
	lines, err := pins.bind()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		pins:  pins,
		lines: lines,
		masks: pins.Masks(),
		opts:  opts,
	}
	// Blank and select row 0 before the first frame.
	lines.SetBits(r.masks.OE)
	lines.ClearBits(r.masks.RGB | r.masks.Addr | r.masks.Clock | r.masks.Latch)
	return r, nil
}

// Masks returns the masks the renderer drives.
func (r *Renderer) Masks() Masks { return r.masks }

// Render displays f once. Bitplane n (n = depth-1 for the first plane in
// storage) is scanned 2^n times, so a full call makes 2^depth-1 passes over
// every row. Output is left disabled on return.
//
// Render does not allocate, lock, log or yield to the caller; it always
// completes the whole frame.
func (r *Renderer) Render(f *Frame) {
	lines := r.lines
	m := &r.masks
	oe, lat, clk, rgb, addrMask := m.OE, m.Latch, m.Clock, m.RGB, m.Addr
	rows, cols := f.rows, f.columns
	planeSize := rows * cols

	for i := 0; i < f.depth; i++ {
		plane := f.pix[i*planeSize : (i+1)*planeSize]
		passes := uint64(1) << uint(f.depth-1-i)

		for pass := uint64(0); pass < passes; pass++ {
			for row := 0; row < rows; row++ {
				// Blank while the shift register still drives the previous row.
				lines.SetBits(oe)

				for _, b := range plane[row*cols : (row+1)*cols] {
					bits := m.LineBits(b)
					lines.ClearBits((^bits & rgb) | clk)
					lines.SetBits(bits | clk)
				}

				lines.SetBits(lat)
				spin(r.opts.LatchHold)
				lines.ClearBits(lat)

				addr := m.AddrBits(row)
				lines.ClearBits(^addr & addrMask)
				lines.SetBits(addr)

				lines.ClearBits(oe)
				spin(r.opts.RowHold)
			}
		}
	}

	lines.SetBits(oe)
}

// Close releases the panel lines.
func (r *Renderer) Close() error {
	return r.pins.Close()
}

// spin busy-waits without giving up the thread.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}
