package catalog

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"skrawl/internal/geometry"
)

func newTestCatalog(t *testing.T, extras bool) *Catalog {
	t.Helper()
	templates, err := LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	return New(Enabled(templates, extras), rand.New(rand.NewPCG(1, 2)))
}

func TestLoadTemplates_Default(t *testing.T) {
	templates, err := LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	if len(templates) != 5 {
		t.Fatalf("len(templates) %d, want 5", len(templates))
	}
	square := templates[1]
	if square.ID != "m2" || square.Mode != ModeSides {
		t.Errorf("templates[1] = %s/%s, want m2/sides", square.ID, square.Mode)
	}
	if square.Count != (Range{Min: SquareSides, Max: SquareSides}) {
		t.Errorf("sides count %v, want 4..4", square.Count)
	}
	if templates[0].TransitionLabel != DefaultTransitionLabel {
		t.Errorf("label %q, want %q", templates[0].TransitionLabel, DefaultTransitionLabel)
	}
	if templates[2].TransitionLabel != "Connect!" {
		t.Errorf("dots label %q, want Connect!", templates[2].TransitionLabel)
	}
}

func TestEnabled(t *testing.T) {
	templates, err := LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	var ids []string
	for _, tpl := range Enabled(templates, false) {
		ids = append(ids, tpl.ID)
	}
	if got := strings.Join(ids, ","); got != "m1,m2,m4" {
		t.Errorf("enabled %s, want m1,m2,m4", got)
	}
	if got := len(Enabled(templates, true)); got != 5 {
		t.Errorf("with extras %d, want 5", got)
	}
}

func TestParseTemplates_Invalid(t *testing.T) {
	doc := `
minigames:
  - id: a
    name: A
    kind: line
    threshold: 10
  - id: a
    name: Dup
    kind: hexagon
    threshold: 10
  - id: c
    name: C
    kind: circle
    mode: sides
    threshold: 0
`
	_, err := ParseTemplates([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"duplicated", "kind must be", "sides requires kind square", "threshold must be"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
	if _, err := ParseTemplates([]byte("minigames: []")); err == nil {
		t.Error("empty catalog should fail")
	}
	if _, err := ParseTemplates([]byte("minigames: [")); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func inside(lo, hi geometry.Point, b geometry.Bounds) bool {
	return lo.X >= 0 && lo.Y >= 0 && hi.X <= b.Width && hi.Y <= b.Height
}

func TestInstance_ShapesWithinBounds(t *testing.T) {
	c := newTestCatalog(t, true)
	for _, b := range []geometry.Bounds{{Width: 800, Height: 600}, {Width: 320, Height: 900}, {Width: 120, Height: 60}} {
		for i := 0; i < 200; i++ {
			for _, in := range c.RandomSet(b) {
				for _, s := range append(append([]geometry.Shape{}, in.Shapes...), in.Guides...) {
					lo, hi := geometry.Extent(s)
					if !inside(lo, hi, b) {
						t.Fatalf("%s shape %s extent %v..%v outside %v", in.ID, s.Info().ID, lo, hi, b)
					}
				}
			}
		}
	}
}

func TestInstance_Counts(t *testing.T) {
	c := newTestCatalog(t, true)
	for i := 0; i < 100; i++ {
		for _, in := range c.RandomSet(geometry.DefaultBounds) {
			tpl, _ := c.Template(in.ID)
			if in.Len() < tpl.Count.Min || in.Len() > tpl.Count.Max {
				t.Fatalf("%s has %d shapes, want %d..%d", in.ID, in.Len(), tpl.Count.Min, tpl.Count.Max)
			}
			if in.TotalReward != in.Len()*tpl.Reward {
				t.Fatalf("%s total reward %d, want %d", in.ID, in.TotalReward, in.Len()*tpl.Reward)
			}
		}
	}
}

func TestInstance_Sides(t *testing.T) {
	c := newTestCatalog(t, false)
	in, err := c.Instance("m2", geometry.DefaultBounds)
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	if in.Mode != ModeSides || in.Len() != SquareSides {
		t.Fatalf("mode %s len %d, want sides 4", in.Mode, in.Len())
	}
	if in.TotalReward != 16 {
		t.Errorf("TotalReward %d, want 16", in.TotalReward)
	}
	if len(in.Guides) != 1 || in.Guides[0].Info().Order != geometry.OrderUnder {
		t.Fatalf("guides %v, want one outline under the targets", in.Guides)
	}
	for i := 0; i < SquareSides; i++ {
		cur := in.Shapes[i].(geometry.Polygon)
		next := in.Shapes[(i+1)%SquareSides].(geometry.Polygon)
		if cur.Points[1] != next.Points[0] {
			t.Errorf("side %d does not meet side %d", i, (i+1)%SquareSides)
		}
		if want := "square-side-" + string(rune('0'+i)); cur.ID != want {
			t.Errorf("side id %q, want %q", cur.ID, want)
		}
	}
}

func TestInstance_DotIDsUnique(t *testing.T) {
	c := newTestCatalog(t, true)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		in, err := c.Instance("m3", geometry.DefaultBounds)
		if err != nil {
			t.Fatalf("Instance: %v", err)
		}
		for _, s := range in.Shapes {
			id := s.Info().ID
			if seen[id] {
				t.Fatalf("duplicate dot id %s", id)
			}
			seen[id] = true
			if s.(geometry.Polygon).Style != geometry.StyleDots {
				t.Errorf("dot %s not drawn as dots", id)
			}
		}
	}
}

func TestInstance_Unknown(t *testing.T) {
	c := newTestCatalog(t, false)
	if _, err := c.Instance("m3", geometry.DefaultBounds); !errors.Is(err, ErrUnknownMinigame) {
		t.Errorf("disabled extra: err %v, want ErrUnknownMinigame", err)
	}
	if _, err := c.Instance("nope", geometry.DefaultBounds); !errors.Is(err, ErrUnknownMinigame) {
		t.Errorf("err %v, want ErrUnknownMinigame", err)
	}
}

func TestRandom_EmptyBoundsUseDefault(t *testing.T) {
	c := newTestCatalog(t, false)
	in := c.Random(geometry.Bounds{})
	if in.Len() == 0 {
		t.Fatal("Random returned an empty instance")
	}
	for _, s := range in.Shapes {
		lo, hi := geometry.Extent(s)
		if !inside(lo, hi, geometry.DefaultBounds) {
			t.Errorf("shape %s outside default bounds", s.Info().ID)
		}
	}
}

func TestInstance_FreshGeometrySameMetadata(t *testing.T) {
	c := newTestCatalog(t, false)
	tmpl, ok := c.Template("m1")
	if !ok {
		t.Fatal("m1 missing")
	}
	a, err := c.Instance("m1", geometry.DefaultBounds)
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	b, err := c.Instance("m1", geometry.DefaultBounds)
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}

	if a.ID != b.ID || a.Threshold != b.Threshold || a.Name != b.Name || a.Mode != b.Mode {
		t.Errorf("metadata differs: %s/%v/%s vs %s/%v/%s", a.ID, a.Threshold, a.Mode, b.ID, b.Threshold, b.Mode)
	}
	for _, in := range []Instance{a, b} {
		for i, s := range in.Shapes {
			if got := s.Info().Reward; got != tmpl.Reward {
				t.Errorf("shape %d reward %d, want %d", i, got, tmpl.Reward)
			}
		}
	}

	pa := a.Shapes[0].(geometry.Polygon)
	pb := b.Shapes[0].(geometry.Polygon)
	if pa.Points[0] == pb.Points[0] && pa.Points[1] == pb.Points[1] {
		t.Errorf("both instances start with the same line %v", pa.Points)
	}

	want := pb.Points[0]
	pa.Points[0].X = -999
	if pb.Points[0] != want {
		t.Errorf("mutating one instance moved the other to %v", pb.Points[0])
	}
	again, _ := c.Instance("m1", geometry.DefaultBounds)
	for _, s := range again.Shapes {
		if s.(geometry.Polygon).Points[0].X == -999 {
			t.Error("a later instance shares points with a mutated one")
		}
	}
}
