// Package machine implements the round clock: a single countdown source
// for the active round.
package machine

import "fmt"

// Clock counts one round down from its configured duration. It is owned
// by the engine goroutine and is not safe for concurrent use; concurrent
// readers go through the round usecase, which serializes on its own lock.
type Clock struct {
	durationSeconds int
	windowSeconds   int

	roundID uint64
	elapsed int
	closed  bool
}

// NewClock builds a clock from the recognized options
// round_duration_seconds and betting_window_seconds (window <= duration).
func NewClock(durationSeconds, windowSeconds int) (*Clock, error) {
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("round duration must be positive, got %d", durationSeconds)
	}
	if windowSeconds <= 0 || windowSeconds > durationSeconds {
		return nil, fmt.Errorf("betting window %d out of range (0, %d]", windowSeconds, durationSeconds)
	}
	return &Clock{
		durationSeconds: durationSeconds,
		windowSeconds:   windowSeconds,
	}, nil
}

// Bind resets the countdown for a new round
func (c *Clock) Bind(roundID uint64) {
	c.roundID = roundID
	c.elapsed = 0
	c.closed = false
}

// RoundID returns the round the clock is counting for
func (c *Clock) RoundID() uint64 {
	return c.roundID
}

// Tick advances elapsed time by one second and returns the remaining
// seconds (>= 0). close is true exactly once per round, on the tick that
// reaches zero; later ticks return (0, false).
func (c *Clock) Tick() (remaining int, close bool) {
	c.elapsed++
	remaining = c.durationSeconds - c.elapsed
	if remaining <= 0 {
		remaining = 0
		if !c.closed {
			c.closed = true
			return 0, true
		}
	}
	return remaining, false
}

// Remaining returns the current countdown value without advancing
func (c *Clock) Remaining() int {
	remaining := c.durationSeconds - c.elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// InBettingWindow reports whether ticks so far are still inside the
// betting window. The admission gate enforces the same boundary against
// wall-clock time.
func (c *Clock) InBettingWindow() bool {
	return c.elapsed <= c.windowSeconds
}
