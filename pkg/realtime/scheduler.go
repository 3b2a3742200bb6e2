package realtime

import "time"

// Timer is a pending callback scheduled on a Scheduler.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback was still pending.
	Stop() bool
}

// Scheduler runs callbacks on a single owner goroutine. Game state that is
// driven by a Scheduler must only be touched from its callbacks or from
// tasks posted to the same owner.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs fn once, d after now.
	AfterFunc(d time.Duration, fn func(now time.Time)) Timer
	// RequestFrame runs fn once on the next animation frame.
	RequestFrame(fn func(now time.Time)) Timer
}

// DefaultFrameInterval is roughly one display refresh at 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

type callback struct {
	fn      func(now time.Time)
	stopped bool
	fired   bool
	stop    func()
}

func (c *callback) Stop() bool {
	if c.stopped || c.fired {
		return false
	}
	c.stopped = true
	if c.stop != nil {
		c.stop()
	}
	return true
}

func (c *callback) run(now time.Time) {
	if c.stopped || c.fired {
		return
	}
	c.fired = true
	c.fn(now)
}
