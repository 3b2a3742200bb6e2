// Package run hosts one player's session: a sequencer, its trace surface
// and the controller that keeps coins and lives, all owned by a single
// realtime.Loop goroutine. Every exported method is safe for concurrent use.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"skrawl/internal/catalog"
	"skrawl/internal/config"
	"skrawl/internal/geometry"
	"skrawl/internal/sequencer"
	"skrawl/internal/trace"
	"skrawl/pkg/realtime"
)

// Events published through Options.Notify.
const (
	EventBoard = "board"
	EventHUD   = "hud"
	EventPhase = "phase"
	// CuePrefix precedes a sequencer cue name.
	CuePrefix = "cue:"
)

var (
	ErrNotFound = errors.New("run not found")
	ErrClosed   = errors.New("run closed")
	ErrEmpty    = errors.New("stroke has no samples")
	// ErrInactive is returned for strokes that arrive while nothing is traceable.
	ErrInactive = errors.New("no shape to trace")
)

// Settings are chosen when a run is created.
type Settings struct {
	Difficulty    config.Difficulty
	MinigameID    string
	Brush         trace.Brush
	DevMode       bool
	SkipCountdown bool
}

// Options wire a run to its host. Zero values give a headless run that
// records draw calls and measures whatever the client last reported.
type Options struct {
	Canvas   trace.Canvas
	Measurer trace.Measurer
	Cues     func(c sequencer.Cue)
	Notify   func(event string)
	// Clock replaces the run's own loop, mainly for tests. The caller must
	// then serialize calls itself.
	Clock realtime.Scheduler
}

// Run is one player's session.
type Run struct {
	ID       string
	Settings Settings
	Created  time.Time

	loop    *realtime.Loop
	clock   realtime.Scheduler
	cancel  context.CancelFunc
	notify  func(string)
	seq     *sequencer.Sequencer
	ctl     *Controller
	surface *trace.Surface
	rec     *trace.Recorder

	vp        trace.Viewport
	lastPhase sequencer.Phase
	over      atomic.Bool
}

// New assembles a run. Call Go to start its loop unless Options.Clock is set.
func New(id string, settings Settings, cat *catalog.Catalog, opts Options) *Run {
	r := &Run{
		ID:       id,
		Settings: settings,
		Created:  time.Now().UTC(),
		notify:   opts.Notify,
	}
	if r.notify == nil {
		r.notify = func(string) {}
	}
	if opts.Clock != nil {
		r.clock = opts.Clock
	} else {
		r.loop = realtime.NewLoop(realtime.DefaultFrameInterval)
		r.clock = r.loop
	}

	canvas := opts.Canvas
	if canvas == nil {
		r.rec = &trace.Recorder{}
		canvas = r.rec
	}
	measurer := opts.Measurer
	if measurer == nil {
		measurer = trace.MeasurerFunc(func() (trace.Viewport, error) {
			if !r.vp.Valid() {
				return trace.Viewport{}, trace.ErrNotMeasured
			}
			return r.vp, nil
		})
	}
	cues := sequencer.CuesFunc(func(c sequencer.Cue) {
		if opts.Cues != nil {
			opts.Cues(c)
		}
		r.notify(CuePrefix + string(c))
	})

	level := settings.Difficulty.Level()
	r.ctl = NewController(r.clock, level, settings.DevMode, r.notify)
	r.seq = sequencer.New(sequencer.Config{
		Duration:      level.Duration,
		SkipCountdown: settings.SkipCountdown,
		MinigameID:    settings.MinigameID,
		Untimed:       settings.DevMode,
	}, cat, host{r}, r.clock, cues, func() geometry.Bounds { return r.surface.Bounds() })
	r.ctl.Attach(r.seq)
	r.surface = trace.NewSurface(measurer, r.seq, canvas, settings.Brush)
	r.lastPhase = r.seq.Phase()
	return r
}

// host forwards sequencer callbacks to the controller and repaints the
// surface when the board changes.
type host struct{ r *Run }

func (h host) Attempt(success bool, reward int) {
	h.r.ctl.Attempt(success, reward)
	h.r.over.Store(h.r.ctl.Over())
}

func (h host) Tick(remaining time.Duration) { h.r.ctl.Tick(remaining) }

func (h host) TimeUp() {
	h.r.ctl.TimeUp()
	h.r.over.Store(h.r.ctl.Over())
}

func (h host) Changed() {
	if h.r.surface != nil {
		h.r.surface.Redraw()
	}
	h.r.ctl.Changed()
	if p := h.r.seq.Phase(); p != h.r.lastPhase {
		h.r.lastPhase = p
		h.r.notify(EventPhase)
	}
}

// Go runs the loop until ctx is cancelled or Close is called.
func (r *Run) Go(ctx context.Context) {
	if r.loop == nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop.Run(ctx)
}

// Close stops the loop. Pending timers are dropped with it.
func (r *Run) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Over reports whether the run has ended. It may be called from any goroutine.
func (r *Run) Over() bool { return r.over.Load() }

func (r *Run) do(ctx context.Context, fn func()) error {
	if r.loop == nil {
		fn()
		return nil
	}
	if err := r.loop.Do(ctx, fn); err != nil {
		if errors.Is(err, realtime.ErrLoopClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Post queues fn on the run's goroutine without waiting.
func (r *Run) Post(fn func()) bool {
	if r.loop == nil {
		fn()
		return true
	}
	return r.loop.Post(fn)
}

// Start records the client viewport and starts the sequencer.
func (r *Run) Start(ctx context.Context, vp trace.Viewport) error {
	var err error
	if doErr := r.do(ctx, func() {
		if vp.Valid() {
			r.vp = vp
		}
		err = r.seq.Start()
		if err == nil {
			r.over.Store(false)
			r.ctl.applyFreeze()
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Restart begins a new run after game over, keeping the id. The countdown
// is not replayed.
func (r *Run) Restart(ctx context.Context) error {
	var err error
	if doErr := r.do(ctx, func() {
		r.seq.Stop()
		r.ctl.Reset()
		err = r.seq.Start()
		r.ctl.applyFreeze()
		r.over.Store(false)
	}); doErr != nil {
		return doErr
	}
	return err
}

// SetFrozen pauses or resumes the timer for a client-side overlay. A
// pending "-1 Life" notice keeps the timer frozen until it expires.
func (r *Run) SetFrozen(ctx context.Context, frozen bool) error {
	return r.do(ctx, func() { r.ctl.SetPaused(frozen) })
}

// Redraw repaints the board, for example after the host canvas resized.
func (r *Run) Redraw(ctx context.Context) error {
	return r.do(ctx, func() { r.surface.Redraw() })
}

// SetBrush changes the cosmetic brush.
func (r *Run) SetBrush(ctx context.Context, b trace.Brush) error {
	return r.do(ctx, func() { r.surface.SetBrush(b) })
}

// Stroke replays a captured stroke in client coordinates: the first sample
// is the pointer-down, the rest are moves, then the pointer is released.
func (r *Run) Stroke(ctx context.Context, vp trace.Viewport, samples []geometry.Point) (trace.Verdict, error) {
	if len(samples) == 0 {
		return trace.Verdict{}, ErrEmpty
	}
	var (
		v   trace.Verdict
		ok  bool
		err error
	)
	if doErr := r.do(ctx, func() {
		r.vp = vp
		if err = r.surface.PointerDown(samples[0].X, samples[0].Y); err != nil {
			return
		}
		r.surface.PointerMoves(samples[1:])
		v, ok = r.surface.PointerUp()
	}); doErr != nil {
		return trace.Verdict{}, doErr
	}
	if err != nil {
		return trace.Verdict{}, fmt.Errorf("stroke: %w", err)
	}
	if !ok {
		return trace.Verdict{}, ErrInactive
	}
	return v, nil
}

// PointerDown, PointerMoves and PointerUp feed live pointer events. They
// return immediately; the verdict reaches the host through the controller.
func (r *Run) PointerDown(x, y float64) {
	r.Post(func() { _ = r.surface.PointerDown(x, y) })
}

// PointerMoves feeds a batch of client samples with a single repaint.
func (r *Run) PointerMoves(samples []geometry.Point) {
	r.Post(func() { r.surface.PointerMoves(samples) })
}

func (r *Run) PointerUp() {
	r.Post(func() { r.surface.PointerUp() })
}

// View is a consistent snapshot of a run for rendering.
type View struct {
	ID       string
	Settings Settings
	Seq      sequencer.Snapshot
	HUD      HUD
	Bounds   geometry.Bounds
	Ops      []trace.Op
	Brush    trace.Brush
}

func (r *Run) View(ctx context.Context) (View, error) {
	var v View
	err := r.do(ctx, func() {
		v = View{
			ID:       r.ID,
			Settings: r.Settings,
			Seq:      r.seq.Snapshot(),
			HUD:      r.ctl.HUD(),
			Bounds:   r.surface.Bounds(),
			Brush:    r.surface.Brush(),
		}
		if r.rec != nil {
			v.Ops = append([]trace.Op(nil), r.rec.Ops()...)
		}
	})
	return v, err
}

// Cue extracts a cue name from a published event.
func Cue(event string) (string, bool) {
	return strings.CutPrefix(event, CuePrefix)
}
