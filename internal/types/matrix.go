package types

import (
	"time"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// Panel is the output a player scans frames out to
type Panel interface {
	// Render scans one frame out; it blocks until the frame is done
	Render(f *hub75.Frame)
	// Close blanks the panel and releases its lines
	Close() error
}

// PlayerStats is a snapshot of a running player
type PlayerStats struct {
	// Renders is the number of completed Render calls
	Renders uint64
	// Advances is the number of frame changes
	Advances uint64
	// Frame is the index of the frame currently on the panel
	Frame int
	// LastRender is how long the most recent Render call took
	LastRender time.Duration
}

// RefreshRate estimates full frames per second from the last render
func (s PlayerStats) RefreshRate() float64 {
	if s.LastRender <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.LastRender)
}
