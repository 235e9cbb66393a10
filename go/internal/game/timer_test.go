package game

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestRoundTimerCountsDown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewRoundTimer(clock)

	ticks := make(chan uint, 8)
	done := make(chan bool, 1)
	go func() {
		done <- timer.Run(context.Background(), 3, func(remaining uint) { ticks <- remaining })
	}()
	blockUntil(t, clock, 1)

	for _, want := range []uint{2, 1, 0} {
		clock.Advance(time.Second)
		select {
		case got := <-ticks:
			if got != want {
				t.Fatalf("expected %d remaining, got %d", want, got)
			}
		case <-time.After(waitTimeout):
			t.Fatalf("timed out waiting for tick %d", want)
		}
	}

	if expired := <-done; !expired {
		t.Fatal("expected timer to expire")
	}
}

func TestRoundTimerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewRoundTimer(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		done <- timer.Run(ctx, 10, func(uint) {})
	}()
	blockUntil(t, clock, 1)
	cancel()

	if expired := <-done; expired {
		t.Fatal("expected cancelled timer not to expire")
	}
}

func TestRoundTimerDisabled(t *testing.T) {
	timer := NewRoundTimer(clockwork.NewFakeClock())
	if timer.Run(context.Background(), 0, func(uint) { t.Fatal("unexpected tick") }) {
		t.Fatal("expected disabled timer not to expire")
	}
}
