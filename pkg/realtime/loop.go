package realtime

import (
	"context"
	"errors"
	"time"
)

var ErrLoopClosed = errors.New("loop closed")

// Loop is a single goroutine that executes posted tasks, timer callbacks and
// frame callbacks one at a time. It implements Scheduler; Now, AfterFunc and
// RequestFrame must be called from the loop goroutine.
type Loop struct {
	frameInterval time.Duration
	tasks         chan func()
	done          chan struct{}

	frames []*callback
}

// NewLoop creates a loop. A non-positive interval uses DefaultFrameInterval.
func NewLoop(frameInterval time.Duration) *Loop {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Loop{
		frameInterval: frameInterval,
		tasks:         make(chan func(), 64),
		done:          make(chan struct{}),
	}
}

// Run processes work until ctx is cancelled. It must be called once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	// The frame ticker only runs while a frame is pending.
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		if len(l.frames) > 0 && ticker == nil {
			ticker = time.NewTicker(l.frameInterval)
			tick = ticker.C
		}
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		case <-tick:
			pending := l.frames
			l.frames = nil
			now := time.Now()
			for _, f := range pending {
				f.run(now)
			}
			if len(l.frames) == 0 {
				ticker.Stop()
				ticker, tick = nil, nil
			}
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn on the loop. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) AfterFunc(d time.Duration, fn func(now time.Time)) Timer {
	cb := &callback{fn: fn}
	t := time.AfterFunc(d, func() {
		l.Post(func() { cb.run(time.Now()) })
	})
	cb.stop = func() { t.Stop() }
	return cb
}

func (l *Loop) RequestFrame(fn func(now time.Time)) Timer {
	cb := &callback{fn: fn}
	l.frames = append(l.frames, cb)
	return cb
}
