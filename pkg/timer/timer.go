// Package timer provides the two one-second clocks used by a meeting room:
// the session countdown and the gated recording counter.
//
// Both clocks are advanced explicitly through Tick so that they can be driven
// by a real ticker (Run) in production and stepped deterministically in tests.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FormatClock renders a seconds count as mm:ss. Minutes are not wrapped into
// hours, so 3600 renders as "60:00".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Countdown counts down from an initial number of seconds and fires its
// expiry callback exactly once when it reaches zero.
//
// Thread-safety: all methods are safe for concurrent use. The expiry callback
// runs outside the internal lock.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	expired   bool
	onExpire  func()
}

// NewCountdown creates a countdown starting at seconds. onExpire may be nil.
// A countdown created with seconds <= 0 is already expired and never fires.
func NewCountdown(seconds int, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		expired:   seconds == 0,
		onExpire:  onExpire,
	}
}

// Tick decrements the countdown by one second. The tick that reaches zero
// invokes the expiry callback; every later tick is a no-op.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.expired {
		c.mu.Unlock()
		return
	}
	c.remaining--
	fire := c.remaining == 0
	if fire {
		c.expired = true
	}
	cb := c.onExpire
	c.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown has reached zero.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Counter counts elapsed seconds, advancing only while its gate reports true.
type Counter struct {
	mu      sync.Mutex
	elapsed int
	gate    func() bool
}

// NewCounter creates a counter gated by gate. A nil gate always allows ticks.
func NewCounter(gate func() bool) *Counter {
	return &Counter{gate: gate}
}

// Tick advances the counter by one second if the gate is open.
func (c *Counter) Tick() {
	if c.gate != nil && !c.gate() {
		return
	}
	c.mu.Lock()
	c.elapsed++
	c.mu.Unlock()
}

// Reset sets the elapsed time back to zero.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.elapsed = 0
	c.mu.Unlock()
}

// Elapsed returns the elapsed seconds.
func (c *Counter) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Run calls tick every interval until ctx is cancelled. It blocks; callers
// run it in its own goroutine and cancel ctx on teardown.
func Run(ctx context.Context, interval time.Duration, tick func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick()
		case <-ctx.Done():
			return nil
		}
	}
}
