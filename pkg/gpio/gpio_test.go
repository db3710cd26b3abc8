package gpio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
	"github.com/fcurrie/hub75-golang/pkg/mmap"
)

type fakeRequest struct {
	writes [][]int
	err    error
	closed bool
}

func (f *fakeRequest) SetValues(values []int) error {
	f.writes = append(f.writes, append([]int(nil), values...))
	return f.err
}

func (f *fakeRequest) Close() error {
	f.closed = true
	return nil
}

func TestChardevLinesShadowState(t *testing.T) {
	req := &fakeRequest{}
	c := newChardevLines(req, []int{2, 4, 5, 26}, zerolog.Nop())

	c.SetBits(1<<4 | 1<<26)
	c.SetBits(1 << 26) // no change, no write
	c.ClearBits(1<<4 | 1<<7)
	c.SetBits(1<<2 | 1<<5)

	assert.Equal(t, [][]int{
		{0, 1, 0, 1},
		{0, 0, 0, 1},
		{1, 0, 1, 1},
	}, req.writes)

	require.NoError(t, c.Close())
	assert.True(t, req.closed)
}

func TestChardevLinesCountsFailures(t *testing.T) {
	req := &fakeRequest{err: errors.New("EBUSY")}
	c := newChardevLines(req, []int{0}, zerolog.Nop())

	c.SetBits(1)
	c.ClearBits(1)
	assert.Equal(t, 2, c.errs)
	assert.NoError(t, c.Close())
}

func TestRegisterLines(t *testing.T) {
	words := make([]uint32, gpioBlockSize/4)
	words[0] = 0b111 << 6 // line 2 in some alternate function
	words[1] = 0b100      // line 10 untouched
	mem := mmap.FromWords(words)

	r, err := NewRegisterLines(mem, []int{2, 4, 5, 12, 26}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, uint32(fselOutput<<6|fselOutput<<12|fselOutput<<15), words[0])
	assert.Equal(t, uint32(0b100|fselOutput<<6), words[1])
	assert.Equal(t, uint32(fselOutput<<18), words[2])
	assert.Equal(t, uint32(1<<2|1<<4|1<<5|1<<12|1<<26), words[regGPCLR0/4])

	r.SetBits(1<<4 | 1<<9)
	assert.Equal(t, uint32(1<<4), words[regGPSET0/4], "unowned line written")

	r.ClearBits(1 << 26)
	assert.Equal(t, uint32(1<<26), words[regGPCLR0/4])

	assert.NoError(t, r.Close())
	assert.Panics(t, func() { r.SetBits(1 << 4) }, "write after close reached the register block")
}

func TestRegisterLinesRejectsShortBlock(t *testing.T) {
	_, err := NewRegisterLines(mmap.FromWords(make([]uint32, 4)), []int{2}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRegisterLines(mmap.FromWords(make([]uint32, gpioBlockSize/4)), []int{40}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPeriphLines(t *testing.T) {
	pins := map[string]*gpiotest.Pin{}
	byName := func(name string) pgpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}
	for _, n := range []int{3, 8, 9} {
		p := &gpiotest.Pin{N: fmt.Sprintf("GPIO%d", n), Num: n, L: pgpio.High}
		pins[p.N] = p
	}

	lines, err := newPeriphLines(byName, []int{3, 8, 9}, zerolog.Nop())
	require.NoError(t, err)
	for name, p := range pins {
		assert.Equal(t, pgpio.Low, p.Read(), "%s not driven low", name)
	}

	lines.SetBits(1<<8 | 1<<9 | 1<<20)
	assert.Equal(t, pgpio.Low, pins["GPIO3"].Read())
	assert.Equal(t, pgpio.High, pins["GPIO8"].Read())
	assert.Equal(t, pgpio.High, pins["GPIO9"].Read())

	lines.ClearBits(1 << 9)
	assert.Equal(t, pgpio.High, pins["GPIO8"].Read())
	assert.Equal(t, pgpio.Low, pins["GPIO9"].Read())

	assert.NoError(t, lines.Close())

	_, err = newPeriphLines(byName, []int{3, 11}, zerolog.Nop())
	assert.ErrorContains(t, err, "GPIO11")
}

// eventPin logs every level change and halt to a shared list.
type eventPin struct {
	*gpiotest.Pin
	events *[]string
}

func (p *eventPin) Out(l pgpio.Level) error {
	*p.events = append(*p.events, fmt.Sprintf("%s=%s", p.N, l))
	return p.Pin.Out(l)
}

func (p *eventPin) Halt() error {
	*p.events = append(*p.events, p.N+" halt")
	return p.Pin.Halt()
}

func eventPins(events *[]string, lines ...int) func(string) pgpio.PinIO {
	pins := map[string]pgpio.PinIO{}
	for _, n := range lines {
		name := fmt.Sprintf("GPIO%d", n)
		pins[name] = &eventPin{Pin: &gpiotest.Pin{N: name, Num: n}, events: events}
	}
	return func(name string) pgpio.PinIO { return pins[name] }
}

func indexOf(events []string, e string) int {
	for i, v := range events {
		if v == e {
			return i
		}
	}
	return -1
}

func TestPeriphLinesClockChangesAroundData(t *testing.T) {
	// CLK sits between R1 and G1, so ascending order would clock too early.
	asg := hub75.PinAssignment{
		R1Pin: 0, G1Pin: 2, B1Pin: 3,
		R2Pin: 4, G2Pin: 5, B2Pin: 7,
		APin: 8, BPin: 9, CPin: 10, DPin: 11,
		CLKPin: 1, LATPin: 12, OEPin: 13,
	}
	var events []string
	byName := eventPins(&events, 0, 1, 2, 3, 4, 5, 7, 8, 9, 10, 11, 12, 13)

	pins, err := hub75.NewPins(asg, func(offsets []int) (hub75.Lines, error) {
		return newPeriphLines(byName, offsets, zerolog.Nop())
	})
	require.NoError(t, err)
	r, err := hub75.NewRenderer(pins, hub75.Options{})
	require.NoError(t, err)
	defer r.Close()

	f, err := hub75.NewFrame(1, 1, 1, []byte{0xd0})
	require.NoError(t, err)
	events = events[:0]
	r.Render(f)

	rise := indexOf(events, "GPIO1=High")
	require.NotEqual(t, -1, rise)
	for _, data := range []string{"GPIO0=High", "GPIO2=High", "GPIO3=High"} {
		i := indexOf(events, data)
		require.NotEqual(t, -1, i, data)
		assert.Less(t, i, rise, "clock rose before %s", data)
	}

	fall := indexOf(events, "GPIO1=Low")
	require.NotEqual(t, -1, fall)
	assert.Less(t, fall, indexOf(events, "GPIO4=Low"), "data changed before the clock fell")
	assert.Less(t, fall, rise)
}

func TestPeriphLinesBankWrites(t *testing.T) {
	var events []string
	lines, err := newPeriphLines(eventPins(&events, 3, 8), []int{3, 8}, zerolog.Nop())
	require.NoError(t, err)

	var set, cleared []uint32
	lines.set0 = func(m uint32) { set = append(set, m) }
	lines.clear0 = func(m uint32) { cleared = append(cleared, m) }
	events = events[:0]

	lines.SetBits(1<<8 | 1<<20)
	lines.ClearBits(1<<3 | 1<<8)
	assert.Equal(t, []uint32{1 << 8}, set)
	assert.Equal(t, []uint32{1<<3 | 1<<8}, cleared)
	assert.Empty(t, events, "bank writes fell back to pin writes")
}

func TestPeriphLinesHaltsOnFailure(t *testing.T) {
	var events []string
	_, err := newPeriphLines(eventPins(&events, 3, 8), []int{3, 8, 11}, zerolog.Nop())
	require.ErrorContains(t, err, "GPIO11")
	assert.Equal(t, []string{"GPIO3=Low", "GPIO8=Low", "GPIO3 halt", "GPIO8 halt"}, events)
}

func TestNewOpener(t *testing.T) {
	for _, b := range []Backend{BackendChardev, BackendGpiomem, BackendPeriph, BackendSim} {
		open, err := NewOpener(Config{Backend: b, Chip: "gpiochip0"}, zerolog.Nop())
		require.NoError(t, err, b)
		assert.NotNil(t, open, b)
	}

	_, err := NewOpener(Config{Backend: "pio"}, zerolog.Nop())
	assert.ErrorContains(t, err, `unknown backend "pio"`)

	open, _ := NewOpener(Config{Backend: BackendSim}, zerolog.Nop())
	lines, err := open([]int{1, 2, 3})
	require.NoError(t, err)
	lines.SetBits(0b110)
	assert.NoError(t, lines.Close())
}

func TestOpenersRejectWideLines(t *testing.T) {
	_, err := Chardev("gpiochip0", zerolog.Nop())([]int{2, 33})
	assert.ErrorContains(t, err, "line 33")

	_, err = Gpiomem("gpiochip0", DefaultMemPath, zerolog.Nop())([]int{-1})
	assert.Error(t, err)
}
