package tui

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"skrawl/internal/catalog"
	"skrawl/internal/geometry"
	"skrawl/internal/run"
	"skrawl/internal/sequencer"
	"skrawl/internal/sfx"
	"skrawl/internal/trace"
)

const (
	// RenderInterval is how often the HUD is repainted when something changed.
	RenderInterval = 50 * time.Millisecond
	// SampleStep is the largest gap, in client pixels, between drag samples.
	SampleStep = 2.0
	// VolumeStep is the change per volume key press.
	VolumeStep = 0.1
)

var brushes = []trace.Brush{trace.BrushSmooth, trace.BrushPixel, trace.BrushRainbow}

var (
	hudStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	labelStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	noticeStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
)

// App drives one run on a terminal screen.
type App struct {
	screen tcell.Screen
	canvas *Canvas
	run    *run.Run
	player *sfx.Player

	dirty    atomic.Bool
	dragging bool
	last     geometry.Point
	frozen   bool
	brush    int
}

// New creates the run for settings and binds it to screen. player may be
// nil for a silent game.
func New(screen tcell.Screen, cat *catalog.Catalog, settings run.Settings, player *sfx.Player) *App {
	a := &App{screen: screen, canvas: NewCanvas(screen), player: player}
	for i, b := range brushes {
		if b == settings.Brush {
			a.brush = i
		}
	}
	a.run = run.New("tui", settings, cat, run.Options{
		Canvas:   a.canvas,
		Measurer: a.canvas,
		Cues:     a.cue,
		Notify:   func(string) { a.dirty.Store(true) },
	})
	return a
}

// Run returns the underlying session.
func (a *App) Run() *run.Run { return a.run }

func (a *App) cue(c sequencer.Cue) {
	if a.player != nil {
		a.player.Play(sfx.Sound(c))
	}
}

// Serve starts the run and processes terminal events until the player
// quits or ctx is cancelled. The screen must already be initialized.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.screen.EnableMouse()
	a.screen.Clear()
	a.run.Go(ctx)
	defer a.run.Close()

	if err := a.run.Start(ctx, trace.Viewport{}); err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(RenderInterval)
	defer ticker.Stop()
	a.dirty.Store(true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if a.Handle(ctx, ev) {
				return nil
			}
		case <-ticker.C:
			if a.dirty.Swap(false) {
				if err := a.Render(ctx); err != nil {
					return err
				}
			}
		}
	}
}

// Handle applies one terminal event and reports whether the player quit.
func (a *App) Handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		if err := a.run.Redraw(ctx); err != nil {
			log.Printf("tui redraw: %v", err)
		}
		a.dirty.Store(true)
	case *tcell.EventMouse:
		a.mouse(ev)
	case *tcell.EventKey:
		return a.key(ctx, ev)
	}
	return false
}

func (a *App) mouse(ev *tcell.EventMouse) {
	x, y := Client(ev.Position())
	pressed := ev.Buttons()&tcell.Button1 != 0
	switch {
	case pressed && !a.dragging:
		a.dragging = true
		a.last = geometry.Point{X: x, Y: y}
		a.run.PointerDown(x, y)
	case pressed:
		a.dragTo(x, y)
	case a.dragging:
		a.dragging = false
		a.dragTo(x, y)
		a.run.PointerUp()
	}
}

// dragTo fills the jump between two mouse cells with samples at most
// SampleStep apart, since the terminal reports one event per cell.
func (a *App) dragTo(x, y float64) {
	to := geometry.Point{X: x, Y: y}
	if to == a.last {
		return
	}
	a.run.PointerMoves(Interpolate(a.last, to, SampleStep))
	a.last = to
}

// Interpolate returns the points after from up to and including to, spaced
// no more than step apart.
func Interpolate(from, to geometry.Point, step float64) []geometry.Point {
	n := int(math.Ceil(from.Dist(to) / step))
	if n < 1 {
		n = 1
	}
	out := make([]geometry.Point, n)
	for i := 1; i <= n; i++ {
		f := float64(i) / float64(n)
		out[i-1] = geometry.Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f}
	}
	return out
}

func (a *App) key(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}
	var err error
	switch ev.Rune() {
	case 'q':
		return true
	case 'r':
		if a.run.Over() {
			err = a.run.Restart(ctx)
		}
	case 'p':
		a.frozen = !a.frozen
		err = a.run.SetFrozen(ctx, a.frozen)
	case 'b':
		a.brush = (a.brush + 1) % len(brushes)
		err = a.run.SetBrush(ctx, brushes[a.brush])
	case '-':
		a.nudgeVolume(-VolumeStep)
	case '+', '=':
		a.nudgeVolume(VolumeStep)
	}
	if err != nil {
		log.Printf("tui key %q: %v", ev.Rune(), err)
	}
	a.dirty.Store(true)
	return false
}

func (a *App) nudgeVolume(d float64) {
	if a.player == nil {
		return
	}
	a.player.SetVolume(a.player.Volume() + d)
}

// Render paints the HUD row and any phase label over the board.
func (a *App) Render(ctx context.Context) error {
	v, err := a.run.View(ctx)
	if err != nil {
		return err
	}
	w, h := a.screen.Size()
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, 0, ' ', nil, hudStyle)
	}
	line := HUDLine(v)
	if a.player != nil {
		line += fmt.Sprintf("  vol %d%%", int(math.Round(a.player.Volume()*100)))
	}
	end := a.text(0, 0, line, hudStyle)
	if v.HUD.Notice != "" {
		a.text(end+2, 0, v.HUD.Notice, noticeStyle)
	}

	if label := Overlay(v); label != "" {
		a.text((w-len([]rune(label)))/2, Top+(h-Top)/2, label, labelStyle)
	}
	a.screen.Show()
	return nil
}

func (a *App) text(x, y int, s string, st tcell.Style) int {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, st)
		x++
	}
	return x
}

// HUDLine summarizes a run on one row.
func HUDLine(v run.View) string {
	name := v.Seq.MinigameName
	if name == "" {
		name = "-"
	}
	timer := "--"
	if v.Seq.Timed {
		timer = fmt.Sprintf("%ds", int(math.Ceil(v.HUD.Remaining.Seconds())))
	}
	line := fmt.Sprintf(" %s  lives %d/%d  coins %d  time %s  brush %s", name, v.HUD.Lives, v.HUD.MaxLives, v.HUD.Coins, timer, v.Brush)
	if v.HUD.DevMode {
		line += "  [dev]"
	}
	return line
}

// Overlay is the centered text for the current phase, if any.
func Overlay(v run.View) string {
	switch {
	case v.HUD.Over && v.HUD.Reason == run.ReasonTime:
		return fmt.Sprintf("Time's up! %d coins  (r restart, q quit)", v.HUD.Coins)
	case v.HUD.Over:
		return fmt.Sprintf("Game over! %d coins  (r restart, q quit)", v.HUD.Coins)
	case v.Seq.Phase == sequencer.PhaseCountdown, v.Seq.Phase == sequencer.PhaseTransition:
		return v.Seq.Label
	case v.HUD.Paused:
		return "Paused (p to resume)"
	}
	return ""
}
