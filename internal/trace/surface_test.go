package trace

import (
	"errors"
	"math"
	"testing"

	"skrawl/internal/geometry"
)

type fakeTarget struct {
	shape     geometry.Shape
	threshold float64
	guides    []geometry.Shape
	inactive  bool
	attempts  [][2]int
}

func (f *fakeTarget) Current() (geometry.Shape, float64, bool) {
	if f.inactive {
		return nil, 0, false
	}
	return f.shape, f.threshold, true
}

func (f *fakeTarget) Guides() []geometry.Shape { return f.guides }

func (f *fakeTarget) Attempt(success bool, reward int) {
	s := 0
	if success {
		s = 1
	}
	f.attempts = append(f.attempts, [2]int{s, reward})
}

func lineTarget() *fakeTarget {
	return &fakeTarget{
		shape: geometry.Polygon{
			Meta:   geometry.Meta{ID: "horizontalLine", Reward: 5, StrokeColor: "#cccccc"},
			Points: []geometry.Point{{X: 100, Y: 100}, {X: 300, Y: 100}},
		},
		threshold: 10,
	}
}

var desk = Viewport{Left: 0, Top: 0, Width: 800, Height: 600, DPR: 1}

func stroke(s *Surface, from, to geometry.Point, n int) {
	_ = s.PointerDown(from.X, from.Y)
	for i := 1; i < n; i++ {
		f := float64(i) / float64(n-1)
		s.PointerMove(from.X+(to.X-from.X)*f, from.Y+(to.Y-from.Y)*f)
	}
}

func TestSurface_SuccessfulStroke(t *testing.T) {
	target := lineTarget()
	rec := &Recorder{}
	s := NewSurface(Fixed(desk), target, rec, BrushSmooth)
	stroke(s, geometry.Point{X: 100, Y: 102}, geometry.Point{X: 300, Y: 98}, 20)

	v, ok := s.PointerUp()
	if !ok {
		t.Fatal("PointerUp reported no stroke")
	}
	if !v.Success || v.Reward != 5 || v.ShapeID != "horizontalLine" || v.Samples != 20 {
		t.Errorf("verdict %+v, want success reward 5 on horizontalLine with 20 samples", v)
	}
	if len(target.attempts) != 1 || target.attempts[0] != [2]int{1, 5} {
		t.Errorf("attempts %v, want [[1 5]]", target.attempts)
	}
	if len(s.Path()) != 0 || s.Drawing() {
		t.Error("path should be cleared after PointerUp")
	}
}

func TestSurface_FailedStrokeReportsNominalReward(t *testing.T) {
	target := lineTarget()
	s := NewSurface(Fixed(desk), target, &Recorder{}, BrushSmooth)
	stroke(s, geometry.Point{X: 100, Y: 200}, geometry.Point{X: 300, Y: 200}, 20)
	v, _ := s.PointerUp()
	if v.Success || v.Reward != 0 {
		t.Errorf("verdict %+v, want failure without reward", v)
	}
	if target.attempts[0] != [2]int{0, 5} {
		t.Errorf("attempt %v, want [0 5]", target.attempts[0])
	}
}

func TestSurface_NotMeasured(t *testing.T) {
	target := lineTarget()
	cases := []Measurer{
		Fixed(Viewport{}),
		MeasurerFunc(func() (Viewport, error) { return Viewport{}, errors.New("detached") }),
	}
	for _, m := range cases {
		s := NewSurface(m, target, &Recorder{}, BrushSmooth)
		if err := s.PointerDown(10, 10); !errors.Is(err, ErrNotMeasured) {
			t.Errorf("PointerDown err %v, want ErrNotMeasured", err)
		}
		s.PointerMove(20, 20)
		if _, ok := s.PointerUp(); ok {
			t.Error("PointerUp after failed measurement should report no stroke")
		}
		if got := s.Bounds(); got != geometry.DefaultBounds {
			t.Errorf("Bounds %v, want default", got)
		}
	}
	if len(target.attempts) != 0 {
		t.Errorf("attempts %v, want none", target.attempts)
	}
}

func TestSurface_PointerDownDiscardsPreviousPath(t *testing.T) {
	s := NewSurface(Fixed(desk), lineTarget(), &Recorder{}, BrushSmooth)
	stroke(s, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 50, Y: 50}, 8)
	_ = s.PointerDown(5, 5)
	if got := s.Path(); len(got) != 1 || got[0] != (geometry.Point{X: 5, Y: 5}) {
		t.Errorf("path %v, want only the new sample", got)
	}
}

func TestSurface_PointerMovesBatch(t *testing.T) {
	s := NewSurface(Fixed(Viewport{Left: 10, Top: 20, Width: 800, Height: 600, DPR: 1}), lineTarget(), &Recorder{}, BrushSmooth)
	s.PointerMoves([]geometry.Point{{X: 30, Y: 40}})
	if len(s.Path()) != 0 {
		t.Fatal("moves before PointerDown should be ignored")
	}

	_ = s.PointerDown(10, 20)
	s.PointerMoves([]geometry.Point{{X: 20, Y: 30}, {X: 30, Y: 40}})
	want := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}}
	got := s.Path()
	if len(got) != len(want) {
		t.Fatalf("path %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSurface_NoTarget(t *testing.T) {
	target := lineTarget()
	target.inactive = true
	s := NewSurface(Fixed(desk), target, &Recorder{}, BrushSmooth)
	stroke(s, geometry.Point{X: 100, Y: 100}, geometry.Point{X: 300, Y: 100}, 20)
	if _, ok := s.PointerUp(); ok {
		t.Error("PointerUp without a target should report no verdict")
	}
	if len(target.attempts) != 0 {
		t.Errorf("attempts %v, want none", target.attempts)
	}
}

func TestViewport_Map(t *testing.T) {
	cases := []struct {
		name string
		vp   Viewport
		x, y float64
		want geometry.Point
	}{
		{"identity", desk, 40, 30, geometry.Point{X: 40, Y: 30}},
		{"offset", Viewport{Left: 10, Top: 20, Width: 800, Height: 600, DPR: 1}, 50, 70, geometry.Point{X: 40, Y: 50}},
		{"hidpi", Viewport{Width: 800, Height: 600, DPR: 2}, 400, 300, geometry.Point{X: 400, Y: 300}},
		{"zero dpr", Viewport{Width: 100, Height: 100}, 25, 75, geometry.Point{X: 25, Y: 75}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.vp.Map(tc.x, tc.y)
			if math.Abs(got.X-tc.want.X) > 1e-9 || math.Abs(got.Y-tc.want.Y) > 1e-9 {
				t.Errorf("Map = %v, want %v", got, tc.want)
			}
		})
	}

	// Fractional backing sizes are floored, and mapping follows the backing store.
	vp := Viewport{Width: 333, Height: 100, DPR: 1.5}
	if w, _ := vp.Backing(); w != 499 {
		t.Errorf("backing width %d, want 499", w)
	}
	got := vp.Map(333, 0)
	if want := 499 / 1.5; math.Abs(got.X-want) > 1e-9 {
		t.Errorf("Map right edge %v, want %v", got.X, want)
	}
}

func TestRedraw_GuideOrder(t *testing.T) {
	target := lineTarget()
	target.guides = []geometry.Shape{
		geometry.Circle{Meta: geometry.Meta{ID: "over", Order: geometry.OrderOver}, Radius: 5},
		geometry.Polygon{Meta: geometry.Meta{ID: "under", Order: geometry.OrderUnder}, Points: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
	}
	rec := &Recorder{}
	s := NewSurface(Fixed(desk), target, rec, BrushSmooth)
	s.Redraw()
	ops := rec.Ops()
	if len(ops) != 3 {
		t.Fatalf("ops %d, want 3", len(ops))
	}
	if ops[0].Kind != "polyline" || ops[1].Kind != "polyline" || ops[2].Kind != "ellipse" {
		t.Errorf("op order %s,%s,%s, want under guide, target, over guide", ops[0].Kind, ops[1].Kind, ops[2].Kind)
	}
	if ops[1].Points[0] != (geometry.Point{X: 100, Y: 100}) {
		t.Errorf("second op should be the target, got %v", ops[1].Points)
	}
	if rec.Flushes() != 1 {
		t.Errorf("flushes %d, want 1", rec.Flushes())
	}
}

func TestRedraw_DotsStyle(t *testing.T) {
	target := &fakeTarget{shape: geometry.Polygon{
		Points: []geometry.Point{{X: 10, Y: 10}, {X: 90, Y: 90}},
		Style:  geometry.StyleDots,
	}}
	rec := &Recorder{}
	NewSurface(Fixed(desk), target, rec, BrushSmooth).Redraw()
	if rec.Count("dot") != 2 || rec.Count("polyline") != 0 {
		t.Errorf("dots %d polylines %d, want 2 and 0", rec.Count("dot"), rec.Count("polyline"))
	}
}
