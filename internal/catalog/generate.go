package catalog

import (
	"fmt"
	"math"
	"math/rand/v2"

	"skrawl/internal/geometry"
)

const (
	// SquareSides is the number of sides drawn in sides mode.
	SquareSides = 4

	TargetColor = "#cccccc"
	GuideColor  = "#ebe7f2"

	dotsAttempts = 12
)

// generator draws random geometry relative to the canvas bounds.
type generator struct {
	rng  *rand.Rand
	b    geometry.Bounds
	dots *int
}

// draw reproduces floor(u*(max-min+1))+min and keeps the result in range.
func (g generator) draw(lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	v := math.Floor(g.rng.Float64()*(hi-lo+1)) + lo
	return math.Min(v, hi)
}

func (g generator) count(r Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + g.rng.IntN(r.Max-r.Min+1)
}

// point returns a point at least pad away from every canvas edge.
func (g generator) point(pad float64) geometry.Point {
	return geometry.Point{
		X: g.draw(pad, g.b.Width-pad),
		Y: g.draw(pad, g.b.Height-pad),
	}
}

func (g generator) padding() float64 {
	return g.b.Min() * 0.1
}

func meta(id string, reward int) geometry.Meta {
	return geometry.Meta{ID: id, Reward: reward, StrokeColor: TargetColor}
}

func (g generator) line(t Template) geometry.Shape {
	pad := g.padding()
	length := g.draw(g.b.Width*0.2, g.b.Width*0.4)
	y := g.draw(pad, g.b.Height-pad)
	x := g.draw(pad, g.b.Width-pad-length)
	return geometry.Polygon{
		Meta:   meta("horizontalLine", t.Reward),
		Points: []geometry.Point{{X: x, Y: y}, {X: x + length, Y: y}},
		Style:  geometry.StyleLine,
	}
}

// squareCorners returns the clockwise corners of a random square.
func (g generator) squareCorners() [SquareSides]geometry.Point {
	maxSize := g.b.Min() * 0.3
	size := g.draw(maxSize*0.5, maxSize)
	pad := math.Min(size*0.5, g.padding())
	x := g.draw(pad, g.b.Width-pad-size)
	y := g.draw(pad, g.b.Height-pad-size)
	return [SquareSides]geometry.Point{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func (g generator) square(t Template) geometry.Shape {
	c := g.squareCorners()
	return geometry.Polygon{
		Meta:   meta("square", t.Reward),
		Points: []geometry.Point{c[0], c[1], c[2], c[3], c[0]},
		Style:  geometry.StyleLine,
	}
}

// squareSides splits one square into four side targets plus its outline guide.
func (g generator) squareSides(t Template) (sides []geometry.Shape, guide geometry.Shape) {
	c := g.squareCorners()
	sides = make([]geometry.Shape, 0, SquareSides)
	for i := 0; i < SquareSides; i++ {
		sides = append(sides, geometry.Polygon{
			Meta:   meta(fmt.Sprintf("square-side-%d", i), t.Reward),
			Points: []geometry.Point{c[i], c[(i+1)%SquareSides]},
			Style:  geometry.StyleLine,
		})
	}
	guide = geometry.Polygon{
		Meta:   geometry.Meta{ID: "square-outline", StrokeColor: GuideColor, Order: geometry.OrderUnder},
		Points: []geometry.Point{c[0], c[1], c[2], c[3], c[0]},
		Style:  geometry.StyleLine,
	}
	return sides, guide
}

func (g generator) circle(t Template) geometry.Shape {
	maxRadius := g.b.Min() * 0.15
	r := g.draw(maxRadius*0.6, maxRadius)
	pad := g.padding() + r
	return geometry.Circle{
		Meta:   meta("circle", t.Reward),
		Center: g.point(pad),
		Radius: r,
	}
}

func (g generator) ellipse(t Template) geometry.Shape {
	m := g.b.Min()
	rx := g.draw(m*0.09, m*0.18)
	ry := g.draw(m*0.06, m*0.12)
	pad := g.padding()
	return geometry.Ellipse{
		Meta: meta("ellipse", t.Reward),
		Center: geometry.Point{
			X: g.draw(pad+rx, g.b.Width-pad-rx),
			Y: g.draw(pad+ry, g.b.Height-pad-ry),
		},
		RadiusX: rx,
		RadiusY: ry,
	}
}

func (g generator) within(p geometry.Point, pad float64) bool {
	return p.X >= pad && p.X <= g.b.Width-pad && p.Y >= pad && p.Y <= g.b.Height-pad
}

// dot draws a connect-the-dots segment at a random angle.
func (g generator) dot(t Template) geometry.Shape {
	m := g.b.Min()
	pad := m * 0.15
	maxLen := m * 0.35
	minLen := m * 0.18

	start := g.point(g.padding())
	var end geometry.Point
	found := false
	for attempt := 0; attempt < dotsAttempts; attempt++ {
		length := g.draw(minLen, maxLen)
		angle := g.rng.Float64() * math.Pi * 2
		candidate := geometry.Point{
			X: start.X + math.Cos(angle)*length,
			Y: start.Y + math.Sin(angle)*length,
		}
		if g.within(candidate, pad) {
			end, found = candidate, true
			break
		}
		start = g.point(g.padding())
	}
	if !found {
		end = geometry.Point{
			X: math.Min(math.Max(start.X+maxLen, pad), g.b.Width-pad),
			Y: math.Min(math.Max(start.Y, pad), g.b.Height-pad),
		}
	}

	id := fmt.Sprintf("connectDots-%d", *g.dots)
	*g.dots++
	return geometry.Polygon{
		Meta:   meta(id, t.Reward),
		Points: []geometry.Point{start, end},
		Style:  geometry.StyleDots,
	}
}

func (g generator) instance(t Template) Instance {
	in := Instance{
		ID:              t.ID,
		Name:            t.Name,
		Mode:            t.Mode,
		Threshold:       t.Threshold,
		TransitionLabel: t.TransitionLabel,
	}
	if t.Mode == ModeSides {
		sides, guide := g.squareSides(t)
		in.Shapes = sides
		in.Guides = []geometry.Shape{guide}
	} else {
		var next func(Template) geometry.Shape
		switch t.Kind {
		case KindLine:
			next = g.line
		case KindSquare:
			next = g.square
		case KindCircle:
			next = g.circle
		case KindDots:
			next = g.dot
		case KindEllipse:
			next = g.ellipse
		default:
			return in
		}
		n := g.count(t.Count)
		in.Shapes = make([]geometry.Shape, 0, n)
		for i := 0; i < n; i++ {
			in.Shapes = append(in.Shapes, next(t))
		}
	}
	for _, s := range in.Shapes {
		in.TotalReward += s.Info().Reward
	}
	return in
}
