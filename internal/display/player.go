// Package display keeps a panel refreshed with a sequence of frames.
package display

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fcurrie/hub75-golang/internal/types"
	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// Player renders frames back to back on a single locked OS thread. With
// more than one frame it moves to the next one every FrameInterval, always
// between two Render calls so a frame is never torn.
type Player struct {
	panel    types.Panel
	frames   []*hub75.Frame
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	renders    atomic.Uint64
	advances   atomic.Uint64
	frame      atomic.Int64
	lastRender atomic.Int64
}

// NewPlayer creates a player for frames. An interval of zero shows the
// first frame only.
func NewPlayer(panel types.Panel, frames []*hub75.Frame, interval time.Duration, log zerolog.Logger) (*Player, error) {
	if len(frames) == 0 {
		return nil, errors.New("display: no frames to play")
	}
	for i, f := range frames {
		if f == nil {
			return nil, fmt.Errorf("display: nil frame at index %d", i)
		}
	}
	return &Player{
		panel:    panel,
		frames:   frames,
		interval: interval,
		log:      log,
		now:      time.Now,
	}, nil
}

// Run refreshes the panel until ctx is done and returns ctx.Err(). A
// cancellation is noticed after the Render call in progress completes.
func (p *Player) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	p.log.Info().
		Int("frames", len(p.frames)).
		Dur("interval", p.interval).
		Msg("Starting player")

	idx := int(p.frame.Load())
	animate := len(p.frames) > 1 && p.interval > 0
	next := p.now().Add(p.interval)
	for {
		select {
		case <-ctx.Done():
			s := p.Stats()
			p.log.Info().
				Uint64("renders", s.Renders).
				Uint64("advances", s.Advances).
				Dur("last_render", s.LastRender).
				Msg("Player stopped")
			return ctx.Err()
		default:
		}

		start := p.now()
		p.panel.Render(p.frames[idx])
		end := p.now()
		p.lastRender.Store(int64(end.Sub(start)))
		p.renders.Add(1)

		if animate && !end.Before(next) {
			idx = (idx + 1) % len(p.frames)
			p.frame.Store(int64(idx))
			p.advances.Add(1)
			next = end.Add(p.interval)
		}
	}
}

// Stats returns a snapshot of the player's counters. It is safe to call
// while Run is active.
func (p *Player) Stats() types.PlayerStats {
	return types.PlayerStats{
		Renders:    p.renders.Load(),
		Advances:   p.advances.Load(),
		Frame:      int(p.frame.Load()),
		LastRender: time.Duration(p.lastRender.Load()),
	}
}

// LogStats writes a stats line every period until ctx is done.
func (p *Player) LogStats(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := p.Stats()
			p.log.Debug().
				Uint64("renders", s.Renders).
				Int("frame", s.Frame).
				Float64("refresh_hz", s.RefreshRate()).
				Msg("Player stats")
		}
	}
}
