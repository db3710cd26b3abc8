package hub75

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Calls Render makes per row besides the two per column: blank, latch
// pulse (2), address (2) and unblank.
const rowOverheadWrites = 6

// ScanPasses is the number of full row scans one frame of the given depth
// takes: 2^depth - 1.
func ScanPasses(depth int) uint64 {
	return uint64(1)<<uint(depth) - 1
}

// PlanePasses is the number of scans of plane i (storage order, 0 is the
// most significant) in a frame of the given depth.
func PlanePasses(depth, i int) uint64 {
	return uint64(1) << uint(depth-1-i)
}

// FrameWrites is the number of line interface calls Render makes for one
// frame.
func FrameWrites(depth, rows, columns int) uint64 {
	perRow := uint64(2*columns + rowOverheadWrites)
	return ScanPasses(depth)*uint64(rows)*perRow + 1
}

// Timing estimates how long frames take given the cost of one line write.
type Timing struct {
	WriteTime time.Duration
	Opts      Options
}

// FrameTime estimates one Render call for the given geometry.
func (t Timing) FrameTime(depth, rows, columns int) time.Duration {
	scans := ScanPasses(depth) * uint64(rows)
	d := time.Duration(FrameWrites(depth, rows, columns)) * t.WriteTime
	return d + time.Duration(scans)*(t.Opts.LatchHold+t.Opts.RowHold)
}

// RefreshRate is the number of complete frames per second.
func (t Timing) RefreshRate(depth, rows, columns int) physic.Frequency {
	ft := t.FrameTime(depth, rows, columns)
	if ft <= 0 {
		return 0
	}
	return physic.PeriodToFrequency(ft)
}

// MaxDepth returns the largest bit depth whose refresh rate is at least
// floor, or 0 if even depth 1 is too slow.
func (t Timing) MaxDepth(rows, columns int, floor physic.Frequency) int {
	depth := 0
	for d := 1; d <= MaxDepth; d++ {
		if t.RefreshRate(d, rows, columns) < floor {
			break
		}
		depth = d
	}
	return depth
}
