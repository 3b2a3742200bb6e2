// Package sequencer drives a run through countdown, per-shape progress,
// transitions and the frame-driven timer. A Sequencer is not safe for
// concurrent use: every method and every scheduler callback must run on
// the scheduler's owner goroutine.
package sequencer

import (
	"errors"
	"fmt"
	"time"

	"skrawl/internal/catalog"
	"skrawl/internal/geometry"
	"skrawl/pkg/realtime"
)

// Phase is the sequencer state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCountdown  Phase = "countdown"
	PhaseActive     Phase = "active"
	PhaseTransition Phase = "transition"
	PhaseOver       Phase = "over"
)

// Cue names a sound played on a state change.
type Cue string

const (
	CueCountdown Cue = "countdown"
	CueGo        Cue = "go"
	CueSuccess   Cue = "success"
	CueFail      Cue = "fail"
	CueComplete  Cue = "complete"
	CueTimeUp    Cue = "timeup"
)

// Cues plays sound cues. Implementations must not block.
type Cues interface {
	Play(c Cue)
}

// CuesFunc adapts a function to Cues.
type CuesFunc func(c Cue)

func (f CuesFunc) Play(c Cue) { f(c) }

type silent struct{}

func (silent) Play(Cue) {}

// Host receives the outcome of every attempt and every timer tick. It owns
// lives, coins and multipliers; reward is always the nominal value.
type Host interface {
	Attempt(success bool, reward int)
	Tick(remaining time.Duration)
	TimeUp()
	Changed()
}

// Source generates minigame instances sized to the canvas.
type Source interface {
	Random(b geometry.Bounds) catalog.Instance
	Instance(id string, b geometry.Bounds) (catalog.Instance, error)
}

// CountdownLabels are shown in order before the first minigame.
var CountdownLabels = []string{"3", "2", "1", "SKRAWL!"}

const (
	DefaultCountdownStep   = time.Second
	DefaultTransitionDelay = time.Second
)

var ErrRunning = errors.New("sequencer already running")

type Config struct {
	// Duration is the time allowed per minigame instance.
	Duration        time.Duration
	CountdownStep   time.Duration
	TransitionDelay time.Duration
	SkipCountdown   bool
	// MinigameID pins the run to one template. Empty means random.
	MinigameID string
	// Untimed never starts the timer.
	Untimed bool
}

// Sequencer is the minigame state machine.
type Sequencer struct {
	cfg    Config
	src    Source
	host   Host
	clock  realtime.Scheduler
	cues   Cues
	bounds func() geometry.Bounds

	phase          Phase
	label          string
	countdownShown bool
	step           int
	stepTimer      realtime.Timer

	inst       catalog.Instance
	pending    catalog.Instance
	index      int
	sides      *SideTracker
	transition realtime.Timer

	remaining time.Duration
	timerOn   bool
	frozen    bool
	gen       int
	lastTick  time.Time
	frame     realtime.Timer
}

// New creates an idle sequencer. cues and bounds may be nil.
func New(cfg Config, src Source, host Host, clock realtime.Scheduler, cues Cues, bounds func() geometry.Bounds) *Sequencer {
	if cfg.CountdownStep <= 0 {
		cfg.CountdownStep = DefaultCountdownStep
	}
	if cfg.TransitionDelay <= 0 {
		cfg.TransitionDelay = DefaultTransitionDelay
	}
	if cues == nil {
		cues = silent{}
	}
	if bounds == nil {
		bounds = func() geometry.Bounds { return geometry.DefaultBounds }
	}
	return &Sequencer{
		cfg:    cfg,
		src:    src,
		host:   host,
		clock:  clock,
		cues:   cues,
		bounds: bounds,
		phase:  PhaseIdle,
	}
}

// Start picks the first instance and begins the countdown, or goes straight
// to Active when the countdown was skipped or already shown.
func (s *Sequencer) Start() error {
	if s.phase != PhaseIdle && s.phase != PhaseOver {
		return ErrRunning
	}
	inst, err := s.next()
	if err != nil {
		return err
	}
	s.load(inst)
	s.frozen = false

	if s.cfg.SkipCountdown || s.countdownShown {
		s.enterActive()
		return nil
	}
	s.countdownShown = true
	s.phase = PhaseCountdown
	s.step = 0
	s.showStep()
	return nil
}

func (s *Sequencer) showStep() {
	s.label = CountdownLabels[s.step]
	if s.step == len(CountdownLabels)-1 {
		s.cues.Play(CueGo)
	} else {
		s.cues.Play(CueCountdown)
	}
	s.stepTimer = s.clock.AfterFunc(s.cfg.CountdownStep, func(time.Time) { s.advanceCountdown() })
	s.host.Changed()
}

func (s *Sequencer) advanceCountdown() {
	if s.phase != PhaseCountdown {
		return
	}
	s.step++
	if s.step < len(CountdownLabels) {
		s.showStep()
		return
	}
	s.stepTimer = nil
	s.enterActive()
}

func (s *Sequencer) enterActive() {
	s.phase = PhaseActive
	s.label = ""
	s.timerOn = true
	s.resumeTimer()
	s.host.Tick(s.remaining)
	s.host.Changed()
}

// next generates the instance that follows the current one.
func (s *Sequencer) next() (catalog.Instance, error) {
	b := s.bounds()
	if s.cfg.MinigameID != "" {
		inst, err := s.src.Instance(s.cfg.MinigameID, b)
		if err != nil {
			return catalog.Instance{}, fmt.Errorf("pinned minigame: %w", err)
		}
		return inst, nil
	}
	return s.src.Random(b), nil
}

func (s *Sequencer) load(inst catalog.Instance) {
	s.inst = inst
	s.index = 0
	s.sides = nil
	if inst.Mode == catalog.ModeSides {
		s.sides = NewSideTracker(inst.Len())
	}
	s.remaining = s.cfg.Duration
}

// Attempt reports the verdict of one stroke on the current shape. The
// shape reward is informational; the instance's TotalReward is credited
// when the last shape completes. Attempts outside Active are ignored.
func (s *Sequencer) Attempt(success bool, _ int) {
	if s.phase != PhaseActive {
		return
	}
	if !success {
		s.fail()
		return
	}

	complete := false
	if s.sides != nil {
		s.index, complete = s.sides.Draw(s.index)
	} else {
		s.index++
		complete = s.index >= s.inst.Len()
	}
	if complete {
		s.complete()
		return
	}
	s.cues.Play(CueSuccess)
	s.host.Attempt(true, 0)
	s.host.Changed()
}

func (s *Sequencer) fail() {
	if fresh, err := s.src.Instance(s.inst.ID, s.bounds()); err == nil {
		s.load(fresh)
	} else {
		s.load(s.inst)
	}
	if s.frame != nil {
		s.pauseTimer()
		s.resumeTimer()
	}
	s.cues.Play(CueFail)
	s.host.Attempt(false, 0)
	s.host.Tick(s.remaining)
	s.host.Changed()
}

func (s *Sequencer) complete() {
	s.pauseTimer()
	s.timerOn = false
	reward := s.inst.TotalReward

	pending, err := s.next()
	if err != nil {
		pending = s.inst
	}
	s.pending = pending
	s.phase = PhaseTransition
	s.label = pending.TransitionLabel
	if s.label == "" {
		s.label = catalog.DefaultTransitionLabel
	}
	s.transition = s.clock.AfterFunc(s.cfg.TransitionDelay, func(time.Time) { s.finishTransition() })

	s.cues.Play(CueComplete)
	s.host.Attempt(true, reward)
	s.host.Changed()
}

func (s *Sequencer) finishTransition() {
	if s.phase != PhaseTransition {
		return
	}
	s.transition = nil
	s.load(s.pending)
	s.pending = catalog.Instance{}
	s.enterActive()
}

// SetFrozen pauses or resumes the timer without resetting it. Unfreezing
// during a countdown or transition leaves the timer to the state that ends it.
func (s *Sequencer) SetFrozen(frozen bool) {
	if s.frozen == frozen {
		return
	}
	s.frozen = frozen
	if frozen {
		s.pauseTimer()
	} else {
		s.resumeTimer()
	}
	s.host.Changed()
}

// Stop ends the run. Pending countdown, transition and frame callbacks are
// cancelled.
func (s *Sequencer) Stop() {
	if s.phase == PhaseOver {
		return
	}
	s.end()
	s.host.Changed()
}

func (s *Sequencer) end() {
	s.pauseTimer()
	s.timerOn = false
	for _, t := range []realtime.Timer{s.stepTimer, s.transition} {
		if t != nil {
			t.Stop()
		}
	}
	s.stepTimer, s.transition = nil, nil
	s.phase = PhaseOver
	s.label = ""
}

func (s *Sequencer) pauseTimer() {
	s.gen++
	if s.frame != nil {
		s.frame.Stop()
		s.frame = nil
	}
}

func (s *Sequencer) resumeTimer() {
	if s.phase != PhaseActive || !s.timerOn || s.frozen || s.cfg.Untimed || s.frame != nil {
		return
	}
	s.gen++
	s.lastTick = s.clock.Now()
	s.schedule(s.gen)
}

func (s *Sequencer) schedule(gen int) {
	s.frame = s.clock.RequestFrame(func(now time.Time) { s.onFrame(gen, now) })
}

// onFrame subtracts the time since the previous frame. A callback from an
// earlier generation is stale and does nothing.
func (s *Sequencer) onFrame(gen int, now time.Time) {
	if gen != s.gen || s.phase != PhaseActive || !s.timerOn || s.frozen {
		return
	}
	s.remaining -= now.Sub(s.lastTick)
	s.lastTick = now
	if s.remaining <= 0 {
		s.remaining = 0
		s.frame = nil
		s.end()
		s.cues.Play(CueTimeUp)
		s.host.Tick(0)
		s.host.TimeUp()
		s.host.Changed()
		return
	}
	s.host.Tick(s.remaining)
	s.schedule(gen)
}

// Current returns the shape to trace and its threshold while Active.
func (s *Sequencer) Current() (geometry.Shape, float64, bool) {
	if s.phase != PhaseActive {
		return nil, 0, false
	}
	shape, ok := s.inst.Shape(s.index)
	if !ok {
		return nil, 0, false
	}
	return shape, s.inst.Threshold, true
}

// Guides returns the decorative shapes of the current instance while Active.
func (s *Sequencer) Guides() []geometry.Shape {
	if s.phase != PhaseActive {
		return nil
	}
	return s.inst.Guides
}

// Phase returns the current state.
func (s *Sequencer) Phase() Phase { return s.phase }

// Snapshot is a read-only view of the sequencer for rendering.
type Snapshot struct {
	Phase        Phase
	Label        string
	MinigameID   string
	MinigameName string
	Mode         catalog.Mode
	Index        int
	Shapes       int
	Drawn        []int
	Remaining    time.Duration
	Duration     time.Duration
	Frozen       bool
	Timed        bool
	TotalReward  int
}

func (s *Sequencer) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:        s.phase,
		Label:        s.label,
		MinigameID:   s.inst.ID,
		MinigameName: s.inst.Name,
		Mode:         s.inst.Mode,
		Index:        s.index,
		Shapes:       s.inst.Len(),
		Remaining:    s.remaining,
		Duration:     s.cfg.Duration,
		Frozen:       s.frozen,
		Timed:        !s.cfg.Untimed,
		TotalReward:  s.inst.TotalReward,
	}
	if s.sides != nil {
		snap.Drawn = s.sides.Drawn()
	}
	return snap
}
