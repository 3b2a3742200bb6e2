package tui

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"skrawl/internal/catalog"
	"skrawl/internal/config"
	"skrawl/internal/geometry"
	"skrawl/internal/run"
	"skrawl/internal/sequencer"
	"skrawl/internal/sfx"
	"skrawl/internal/trace"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func newApp(t *testing.T, settings run.Settings) (*App, tcell.SimulationScreen, context.Context) {
	t.Helper()
	templates, err := catalog.LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	cat := catalog.New(catalog.Enabled(templates, false), rand.New(rand.NewPCG(7, 11)))
	screen := newScreen(t)
	app := New(screen, cat, settings, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.Run().Go(ctx)
	t.Cleanup(app.Run().Close)
	if err := app.Run().Start(ctx, trace.Viewport{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return app, screen, ctx
}

func row(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestCanvas_Measure(t *testing.T) {
	c := NewCanvas(newScreen(t))
	vp, err := c.Measure()
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	want := trace.Viewport{Top: 16, Width: 640, Height: 368, DPR: 1}
	if vp != want {
		t.Errorf("viewport %+v, want %+v", vp, want)
	}

	x, y := Client(10, 5)
	if cx, cy := cell(vp.Map(x, y)); cx != 10 || cy != 5 {
		t.Errorf("round trip cell (%d,%d), want (10,5)", cx, cy)
	}
}

func TestCanvas_PolylineKeepsHUDRow(t *testing.T) {
	screen := newScreen(t)
	c := NewCanvas(screen)
	red := colorful.Color{R: 1}
	c.Polyline([]geometry.Point{{X: 0, Y: -40}, {X: 80, Y: 40}}, red, 4)
	c.Flush()

	if r, _, _, _ := screen.GetContent(0, 0); r != ' ' {
		t.Errorf("HUD row painted with %q", r)
	}
	r, _, st, _ := screen.GetContent(10, 3)
	if r != '█' {
		t.Fatalf("end cell %q, want ink", r)
	}
	fg, _, _ := st.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("foreground %v, want red", fg)
	}

	c.Clear(geometry.DefaultBounds)
	if r, _, _, _ := screen.GetContent(10, 3); r != ' ' {
		t.Errorf("cleared cell %q, want blank", r)
	}
}

func TestCanvas_EllipseStaysOnScreen(t *testing.T) {
	screen := newScreen(t)
	c := NewCanvas(screen)
	c.Ellipse(geometry.Point{X: 320, Y: 184}, 2000, 2000, 0, colorful.Color{G: 1}, 4)
	c.Dot(geometry.Point{X: 320, Y: 184}, 6, colorful.Color{B: 1})
	if r, _, _, _ := screen.GetContent(40, 12); r != '●' {
		t.Errorf("dot cell %q, want a dot", r)
	}
}

func TestApp_RendersBoardAndHUD(t *testing.T) {
	app, screen, ctx := newApp(t, run.Settings{Difficulty: config.Easy, MinigameID: "m1", SkipCountdown: true})
	if err := app.Render(ctx); err != nil {
		t.Fatalf("Render: %v", err)
	}
	hud := row(screen, 0)
	for _, want := range []string{"Trace the Lines", "lives 3/3", "coins 0", "time 20s", "brush smooth"} {
		if !strings.Contains(hud, want) {
			t.Errorf("HUD %q missing %q", hud, want)
		}
	}

	inked := 0
	w, h := screen.Size()
	for y := Top; y < h; y++ {
		for x := 0; x < w; x++ {
			if r, _, _, _ := screen.GetContent(x, y); r != ' ' {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("board has no target drawn")
	}
}

func TestApp_FailedDragCostsALife(t *testing.T) {
	app, screen, ctx := newApp(t, run.Settings{MinigameID: "m1", SkipCountdown: true})

	app.Handle(ctx, tcell.NewEventMouse(0, 1, tcell.Button1, tcell.ModNone))
	app.Handle(ctx, tcell.NewEventMouse(1, 1, tcell.Button1, tcell.ModNone))
	app.Handle(ctx, tcell.NewEventMouse(1, 1, tcell.ButtonNone, tcell.ModNone))

	if err := app.Render(ctx); err != nil {
		t.Fatalf("Render: %v", err)
	}
	hud := row(screen, 0)
	if !strings.Contains(hud, "lives 2/3") || !strings.Contains(hud, run.NoticeLifeLost) {
		t.Errorf("HUD %q, want a lost life and its notice", hud)
	}
}

// inkedBox returns the cell bounds of everything drawn below the HUD row.
func inkedBox(t *testing.T, screen tcell.SimulationScreen) (minX, minY, maxX, maxY int) {
	t.Helper()
	w, h := screen.Size()
	minX, minY, maxX, maxY = w, h, -1, -1
	for y := Top; y < h; y++ {
		for x := 0; x < w; x++ {
			if r, _, _, _ := screen.GetContent(x, y); r == ' ' {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		t.Fatal("nothing drawn on the board")
	}
	return minX, minY, maxX, maxY
}

func TestApp_DraggedLoopPassesCircle(t *testing.T) {
	app, screen, ctx := newApp(t, run.Settings{MinigameID: "m4", SkipCountdown: true})
	minX, minY, maxX, maxY := inkedBox(t, screen)
	cx := float64(minX+maxX+1) / 2 * CellW
	cy := float64(minY+maxY+1) / 2 * CellH
	radius := float64(maxX-minX+1) / 2 * CellW

	var cells [][2]int
	for deg := 0; deg <= 360; deg += 2 {
		a := float64(deg) * math.Pi / 180
		c := [2]int{
			int(math.Floor((cx + radius*math.Cos(a)) / CellW)),
			int(math.Floor((cy + radius*math.Sin(a)) / CellH)),
		}
		if len(cells) == 0 || cells[len(cells)-1] != c {
			cells = append(cells, c)
		}
	}
	for _, c := range cells {
		app.Handle(ctx, tcell.NewEventMouse(c[0], c[1], tcell.Button1, tcell.ModNone))
	}
	last := cells[len(cells)-1]
	app.Handle(ctx, tcell.NewEventMouse(last[0], last[1], tcell.ButtonNone, tcell.ModNone))

	v, err := app.Run().View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.HUD.Lives != 3 {
		t.Fatalf("lives %d after a loop over %d cells, want the circle traced", v.HUD.Lives, len(cells))
	}
	if v.Seq.Index == 0 && v.Seq.Phase != sequencer.PhaseTransition {
		t.Errorf("index %d phase %s, want progress past the first circle", v.Seq.Index, v.Seq.Phase)
	}
}

func TestInterpolate(t *testing.T) {
	from, to := geometry.Point{X: 4, Y: 8}, geometry.Point{X: 12, Y: 24}
	pts := Interpolate(from, to, SampleStep)
	if len(pts) != 9 {
		t.Fatalf("%d samples, want 9", len(pts))
	}
	if pts[len(pts)-1] != to {
		t.Errorf("last sample %v, want %v", pts[len(pts)-1], to)
	}
	prev := from
	for _, p := range pts {
		if d := prev.Dist(p); d > SampleStep {
			t.Errorf("gap %.2f exceeds %v", d, SampleStep)
		}
		prev = p
	}
	if got := Interpolate(from, from, SampleStep); len(got) != 1 {
		t.Errorf("zero-length jump gave %d samples, want 1", len(got))
	}
}

func TestApp_Keys(t *testing.T) {
	app, _, ctx := newApp(t, run.Settings{SkipCountdown: true})

	if app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'b', tcell.ModNone)) {
		t.Fatal("b should not quit")
	}
	app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	v, err := app.Run().View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Brush != trace.BrushPixel {
		t.Errorf("brush %q, want pixel", v.Brush)
	}
	if !v.Seq.Frozen || !v.HUD.Paused || Overlay(v) == "" {
		t.Errorf("frozen %v paused %v overlay %q, want paused", v.Seq.Frozen, v.HUD.Paused, Overlay(v))
	}

	if !app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q should quit")
	}
	if !app.Handle(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc should quit")
	}
}

func TestHUDLine_Untimed(t *testing.T) {
	v := run.View{
		Seq:   sequencer.Snapshot{MinigameName: "Draw the Square"},
		HUD:   run.HUD{Lives: 3, MaxLives: 3, Coins: 4, DevMode: true, Remaining: 3 * time.Second},
		Brush: trace.BrushRainbow,
	}
	line := HUDLine(v)
	if !strings.Contains(line, "time --") || !strings.Contains(line, "[dev]") {
		t.Errorf("line %q, want no timer and a dev marker", line)
	}
}

func TestOverlay(t *testing.T) {
	cases := []struct {
		name string
		v    run.View
		want string
	}{
		{"countdown", run.View{Seq: sequencer.Snapshot{Phase: sequencer.PhaseCountdown, Label: "3"}}, "3"},
		{"active", run.View{Seq: sequencer.Snapshot{Phase: sequencer.PhaseActive}}, ""},
		{"time up", run.View{HUD: run.HUD{Over: true, Reason: run.ReasonTime, Coins: 9}}, "Time's up! 9 coins"},
		{"lives", run.View{HUD: run.HUD{Over: true, Reason: run.ReasonLives}}, "Game over!"},
		{"notice freeze", run.View{Seq: sequencer.Snapshot{Frozen: true}, HUD: run.HUD{Notice: run.NoticeLifeLost}}, ""},
	}
	for _, tc := range cases {
		got := Overlay(tc.v)
		if tc.want == "" && got != "" || !strings.HasPrefix(got, tc.want) {
			t.Errorf("%s: overlay %q, want prefix %q", tc.name, got, tc.want)
		}
	}
}

func TestApp_VolumeKeys(t *testing.T) {
	templates, err := catalog.LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	cat := catalog.New(catalog.Enabled(templates, false), rand.New(rand.NewPCG(7, 11)))
	screen := newScreen(t)
	player := sfx.NewPlayer(0.5)
	app := New(screen, cat, run.Settings{SkipCountdown: true}, player)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.Run().Go(ctx)
	t.Cleanup(app.Run().Close)
	if err := app.Run().Start(ctx, trace.Viewport{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 3; i++ {
		app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, '-', tcell.ModNone))
	}
	app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	if got := player.Volume(); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("volume %v, want 0.3", got)
	}
	for i := 0; i < 20; i++ {
		app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, '=', tcell.ModNone))
	}
	if err := app.Render(ctx); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hud := row(screen, 0); !strings.Contains(hud, "vol 100%") {
		t.Errorf("HUD %q, want vol 100%%", hud)
	}
}
