package hub75_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
	"github.com/fcurrie/hub75-golang/pkg/linesim"
)

func newRenderer(t *testing.T) (*hub75.Renderer, *linesim.Sim) {
	t.Helper()
	pins, sim := newPins(t, testAssignment())
	r, err := hub75.NewRenderer(pins, hub75.Options{})
	require.NoError(t, err)
	sim.Reset()
	return r, sim
}

func filledFrame(t *testing.T, depth, rows, cols int, planeByte func(i int) byte) *hub75.Frame {
	t.Helper()
	pix := make([]byte, hub75.FrameSize(depth, rows, cols))
	for i := 0; i < depth; i++ {
		plane := pix[i*rows*cols : (i+1)*rows*cols]
		for j := range plane {
			plane[j] = planeByte(i)
		}
	}
	f, err := hub75.NewFrame(depth, rows, cols, pix)
	require.NoError(t, err)
	return f
}

func TestRenderSingleBitTwoRows(t *testing.T) {
	r, sim := newRenderer(t)
	m := r.Masks()
	white := hub75.Encode(hub75.Triplet{R: true, G: true, B: true}, hub75.Triplet{R: true, G: true, B: true})
	f := filledFrame(t, 1, 2, 1, func(int) byte { return white })

	r.Render(f)

	rowA := uint32(1) << 12
	want := []linesim.Op{
		// row 0
		{Kind: linesim.Set, Mask: m.OE},
		{Kind: linesim.Clear, Mask: m.Clock},
		{Kind: linesim.Set, Mask: m.RGB | m.Clock},
		{Kind: linesim.Set, Mask: m.Latch},
		{Kind: linesim.Clear, Mask: m.Latch},
		{Kind: linesim.Clear, Mask: m.Addr},
		{Kind: linesim.Set, Mask: 0},
		{Kind: linesim.Clear, Mask: m.OE},
		// row 1
		{Kind: linesim.Set, Mask: m.OE},
		{Kind: linesim.Clear, Mask: m.Clock},
		{Kind: linesim.Set, Mask: m.RGB | m.Clock},
		{Kind: linesim.Set, Mask: m.Latch},
		{Kind: linesim.Clear, Mask: m.Latch},
		{Kind: linesim.Clear, Mask: m.Addr &^ rowA},
		{Kind: linesim.Set, Mask: rowA},
		{Kind: linesim.Clear, Mask: m.OE},
		// blank after the frame
		{Kind: linesim.Set, Mask: m.OE},
	}

	ops := sim.Ops()
	require.Len(t, ops, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, ops[i].Kind, "op %d", i)
		assert.Equal(t, want[i].Mask, ops[i].Mask, "op %d", i)
	}
	assert.Equal(t, 2, sim.RisesOf(m.Latch))
	assert.True(t, sim.High(m.OE), "output left enabled")
	assert.Equal(t, int(hub75.FrameWrites(1, 2, 1)), len(ops))
}

func TestRenderPassCount(t *testing.T) {
	for depth := 1; depth <= 8; depth++ {
		r, sim := newRenderer(t)
		const rows, cols = 16, 4
		f := filledFrame(t, depth, rows, cols, func(i int) byte { return byte(i) })

		r.Render(f)

		m := r.Masks()
		passes := (1 << uint(depth)) - 1
		assert.Equal(t, passes*rows, sim.RisesOf(m.Latch), "depth %d", depth)
		assert.Equal(t, passes*rows*cols, sim.RisesOf(m.Clock), "depth %d", depth)
		assert.Equal(t, uint64(passes), hub75.ScanPasses(depth))
		require.NoError(t, r.Close())
	}
}

func TestRenderPlaneWeights(t *testing.T) {
	r, sim := newRenderer(t)
	m := r.Masks()
	asg := testAssignment()
	const rows, cols = 4, 3

	// One channel per plane so the latched data names its plane.
	planeColor := []hub75.Triplet{{R: true}, {G: true}, {B: true}}
	f := filledFrame(t, 3, rows, cols, func(i int) byte {
		return hub75.Encode(planeColor[i], hub75.Triplet{})
	})
	lineOf := map[uint32]int{
		1 << uint(asg.R1Pin): 0,
		1 << uint(asg.G1Pin): 1,
		1 << uint(asg.B1Pin): 2,
	}

	r.Render(f)

	latches := make([]int, 3)
	for _, op := range sim.Ops() {
		if op.Kind != linesim.Set || op.Mask != m.Latch {
			continue
		}
		plane, ok := lineOf[op.State&m.RGB]
		require.True(t, ok, "unexpected color lines %032b at latch", op.State&m.RGB)
		latches[plane]++
	}

	for i, want := range []int{4, 2, 1} {
		assert.Equal(t, want*rows, latches[i], "plane %d", i)
		assert.Equal(t, uint64(want), hub75.PlanePasses(3, i))
	}
}

func TestRenderBlanksWhileShifting(t *testing.T) {
	r, sim := newRenderer(t)
	m := r.Masks()
	const rows, cols = 8, 5
	f := filledFrame(t, 2, rows, cols, func(i int) byte { return 0x90 >> uint(i) })

	r.Render(f)

	row := 0
	for i, op := range sim.Ops() {
		switch {
		case op.Mask&m.Clock != 0, op.Mask == m.Latch:
			assert.Equal(t, m.OE, op.State&m.OE, "op %d changed data with output enabled", i)
		case op.Kind == linesim.Clear && op.Mask == m.OE:
			assert.Equal(t, uint32(row)<<12, op.State&m.Addr, "op %d lit the wrong row", i)
			assert.Zero(t, op.State&m.Latch, "op %d lit with latch held", i)
			row = (row + 1) % rows
		}
	}
	assert.True(t, sim.High(m.OE))
}

func TestRenderColumnOrder(t *testing.T) {
	r, sim := newRenderer(t)
	m := r.Masks()
	const cols = 6
	pix := make([]byte, cols)
	for c := range pix {
		pix[c] = hub75.Encode(hub75.Triplet{R: c&1 != 0, G: c&2 != 0, B: c&4 != 0}, hub75.Triplet{G: c%3 == 0})
	}
	f, err := hub75.NewFrame(1, 1, cols, pix)
	require.NoError(t, err)

	r.Render(f)

	var shifted []uint32
	for _, op := range sim.Ops() {
		if op.Kind == linesim.Set && op.Mask&m.Clock != 0 {
			shifted = append(shifted, op.State&m.RGB)
		}
	}
	require.Len(t, shifted, cols)
	for c := range pix {
		assert.Equal(t, m.LineBits(pix[c]), shifted[c], "column %d", c)
	}
}

func TestRenderDoesNotAllocate(t *testing.T) {
	pins, err := hub75.NewPins(testAssignment(), linesim.New(false).Opener())
	require.NoError(t, err)
	t.Cleanup(func() { pins.Close() })
	r, err := hub75.NewRenderer(pins, hub75.Options{})
	require.NoError(t, err)
	f := filledFrame(t, 4, 16, 32, func(i int) byte { return 0xFF })

	allocs := testing.AllocsPerRun(10, func() { r.Render(f) })
	assert.Zero(t, allocs)
}

func TestRendererBindsPinsOnce(t *testing.T) {
	pins, _ := newPins(t, testAssignment())
	_, err := hub75.NewRenderer(pins, hub75.Options{})
	require.NoError(t, err)

	_, err = hub75.NewRenderer(pins, hub75.Options{})
	assert.ErrorIs(t, err, hub75.ErrPinsBound)

	require.NoError(t, pins.Close())
	_, err = hub75.NewRenderer(pins, hub75.Options{})
	assert.ErrorIs(t, err, hub75.ErrClosed)
}

func TestNewRendererBlanksPanel(t *testing.T) {
	pins, sim := newPins(t, testAssignment())
	_, err := hub75.NewRenderer(pins, hub75.Options{})
	require.NoError(t, err)

	m := pins.Masks()
	assert.True(t, sim.High(m.OE))
	assert.Zero(t, sim.State()&(m.RGB|m.Addr|m.Clock|m.Latch))
}
