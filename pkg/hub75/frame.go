package hub75

import (
	"errors"
	"fmt"
	"io"
)

// MaxRows is the number of multiplex rows four address lines can select.
const MaxRows = 16

// MaxDepth bounds the bit depth only so the pass count of the most
// significant plane fits the renderer's counter. It is not a refresh limit;
// use Timing.MaxDepth to find the deepest frame a panel can show flicker
// free.
const MaxDepth = 32

// Frame is a packed, read-only frame buffer: depth bitplanes, most
// significant first, each rows×columns bytes in row-major order.
type Frame struct {
	depth   int
	rows    int
	columns int
	pix     []byte
}

// NewFrame wraps pix as a frame. pix is not copied and must not be modified
// while the frame is being rendered.
func NewFrame(depth, rows, columns int, pix []byte) (*Frame, error) {
	if err := checkGeometry(depth, rows, columns); err != nil {
		return nil, err
	}
	if want := FrameSize(depth, rows, columns); len(pix) != want {
		return nil, fmt.Errorf("hub75: frame is %d bytes, want %d (%dx%dx%d)", len(pix), want, depth, rows, columns)
	}
	return &Frame{depth: depth, rows: rows, columns: columns, pix: pix}, nil
}

func checkGeometry(depth, rows, columns int) error {
	if depth < 1 || depth > MaxDepth {
		return fmt.Errorf("hub75: bit depth %d, want 1..%d", depth, MaxDepth)
	}
	if rows < 1 || rows > MaxRows {
		return fmt.Errorf("hub75: row count %d, want 1..%d", rows, MaxRows)
	}
	if columns < 1 {
		return fmt.Errorf("hub75: column count %d, want at least 1", columns)
	}
	return nil
}

// FrameSize is the storage size of one frame.
func FrameSize(depth, rows, columns int) int {
	return depth * rows * columns
}

func (f *Frame) Depth() int   { return f.depth }
func (f *Frame) Rows() int    { return f.rows }
func (f *Frame) Columns() int { return f.columns }

// Bytes returns the underlying storage.
func (f *Frame) Bytes() []byte { return f.pix }

// Plane returns bitplane i in storage order; plane 0 is the most
// significant.
func (f *Frame) Plane(i int) []byte {
	n := f.rows * f.columns
	return f.pix[i*n : (i+1)*n]
}

// Row returns multiplex row r of plane i.
func (f *Frame) Row(i, r int) []byte {
	off := (i*f.rows + r) * f.columns
	return f.pix[off : off+f.columns]
}

// ReadFrames reads consecutive frames of the given geometry until EOF.
// A trailing partial frame is an error.
func ReadFrames(r io.Reader, depth, rows, columns int) ([]*Frame, error) {
	if err := checkGeometry(depth, rows, columns); err != nil {
		return nil, err
	}
	size := FrameSize(depth, rows, columns)

	var frames []*Frame
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("hub75: partial frame %d: %d of %d bytes", len(frames), n, size)
		}
		if err != nil {
			return nil, fmt.Errorf("hub75: failed to read frame %d: %w", len(frames), err)
		}
		frames = append(frames, &Frame{depth: depth, rows: rows, columns: columns, pix: buf})
	}
}
