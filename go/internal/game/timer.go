package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundTimer counts a round down once per second. It never touches session
// state; ticks are reported to the caller.
type RoundTimer struct {
	clock clockwork.Clock
}

// NewRoundTimer creates a timer driven by clock.
func NewRoundTimer(clock clockwork.Clock) *RoundTimer {
	return &RoundTimer{clock: clock}
}

// Run calls tick with the remaining seconds after every elapsed second. It
// returns true once the countdown reached zero and false if ctx ended first.
func (t *RoundTimer) Run(ctx context.Context, seconds uint, tick func(remaining uint)) bool {
	if seconds == 0 {
		return false
	}

	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	var elapsed uint
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.Chan():
			elapsed++
			remaining := seconds - min(elapsed, seconds)
			tick(remaining)
			if remaining == 0 {
				return true
			}
		}
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
