package realtime

import (
	"sort"
	"time"
)

// ManualClock is a deterministic Scheduler for tests. Time only moves when
// Advance is called.
type ManualClock struct {
	FrameInterval time.Duration

	now    time.Time
	seq    int
	timers []*manualTimer
	frames []*callback
}

type manualTimer struct {
	*callback
	due time.Time
	seq int
}

// NewManualClock starts a clock at start with DefaultFrameInterval frames.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{FrameInterval: DefaultFrameInterval, now: start}
}

func (c *ManualClock) Now() time.Time {
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func(now time.Time)) Timer {
	c.seq++
	t := &manualTimer{callback: &callback{fn: fn}, due: c.now.Add(d), seq: c.seq}
	c.timers = append(c.timers, t)
	return t
}

func (c *ManualClock) RequestFrame(fn func(now time.Time)) Timer {
	cb := &callback{fn: fn}
	c.frames = append(c.frames, cb)
	return cb
}

// Pending returns the number of live timers and frames.
func (c *ManualClock) Pending() (timers, frames int) {
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			timers++
		}
	}
	for _, f := range c.frames {
		if !f.stopped && !f.fired {
			frames++
		}
	}
	return timers, frames
}

// Advance moves time forward by d in frame-sized steps. Each step fires the
// timers that came due, in due order, and then the frames requested before it.
func (c *ManualClock) Advance(d time.Duration) {
	interval := c.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	end := c.now.Add(d)
	for {
		step := c.now.Add(interval)
		if step.After(end) {
			step = end
		}
		c.fireTimers(step)
		c.now = step
		c.fireFrames()
		if !c.now.Before(end) {
			return
		}
	}
}

func (c *ManualClock) fireTimers(until time.Time) {
	for {
		live := c.timers[:0]
		for _, t := range c.timers {
			if !t.stopped && !t.fired {
				live = append(live, t)
			}
		}
		c.timers = live
		sort.Slice(c.timers, func(i, j int) bool {
			if c.timers[i].due.Equal(c.timers[j].due) {
				return c.timers[i].seq < c.timers[j].seq
			}
			return c.timers[i].due.Before(c.timers[j].due)
		})
		if len(c.timers) == 0 || c.timers[0].due.After(until) {
			return
		}
		next := c.timers[0]
		if next.due.After(c.now) {
			c.now = next.due
		}
		next.run(c.now)
	}
}

func (c *ManualClock) fireFrames() {
	pending := c.frames
	c.frames = nil
	for _, f := range pending {
		f.run(c.now)
	}
}
