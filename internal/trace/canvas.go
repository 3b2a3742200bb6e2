package trace

import (
	"github.com/lucasb-eyer/go-colorful"

	"skrawl/internal/geometry"
)

// Canvas is a 2D drawing target in canvas coordinates.
type Canvas interface {
	Clear(b geometry.Bounds)
	Polyline(pts []geometry.Point, c colorful.Color, width float64)
	Ellipse(center geometry.Point, rx, ry, rotation float64, c colorful.Color, width float64)
	Rect(x, y, w, h float64, c colorful.Color)
	Dot(center geometry.Point, r float64, c colorful.Color)
	Flush()
}

const (
	ShapeWidth = 8.0
	DotRadius  = 10.0
)

var fallbackStroke = colorful.Color{R: 0.8, G: 0.8, B: 0.8}

// StrokeColor parses a shape's hex stroke color.
func StrokeColor(m geometry.Meta) colorful.Color {
	c, err := colorful.Hex(m.StrokeColor)
	if err != nil {
		return fallbackStroke
	}
	return c
}

// painter draws shapes onto a Canvas.
type painter struct {
	c Canvas
}

func (p painter) VisitPolygon(s geometry.Polygon) {
	color := StrokeColor(s.Meta)
	if s.Style == geometry.StyleDots {
		for _, pt := range s.Points {
			p.c.Dot(pt, DotRadius, color)
		}
		return
	}
	p.c.Polyline(s.Points, color, ShapeWidth)
}

func (p painter) VisitCircle(s geometry.Circle) {
	p.c.Ellipse(s.Center, s.Radius, s.Radius, 0, StrokeColor(s.Meta), ShapeWidth)
}

func (p painter) VisitEllipse(s geometry.Ellipse) {
	p.c.Ellipse(s.Center, s.RadiusX, s.RadiusY, s.Rotation, StrokeColor(s.Meta), ShapeWidth)
}

// Paint draws one shape.
func Paint(c Canvas, s geometry.Shape) {
	s.Accept(painter{c: c})
}

// PaintScene draws the target between its under and over guides.
func PaintScene(c Canvas, target geometry.Shape, guides []geometry.Shape) {
	for _, g := range guides {
		if g.Info().Order != geometry.OrderOver {
			Paint(c, g)
		}
	}
	if target != nil {
		Paint(c, target)
	}
	for _, g := range guides {
		if g.Info().Order == geometry.OrderOver {
			Paint(c, g)
		}
	}
}

// Op is one recorded draw call.
type Op struct {
	Kind   string
	Points []geometry.Point
	Color  colorful.Color
	Width  float64
	RX, RY float64
}

// Recorder is an in-memory Canvas that keeps the operations since the last Clear.
type Recorder struct {
	Bounds  geometry.Bounds
	ops     []Op
	flushes int
}

func (r *Recorder) Clear(b geometry.Bounds) {
	r.Bounds = b
	r.ops = r.ops[:0]
}

func (r *Recorder) Polyline(pts []geometry.Point, c colorful.Color, width float64) {
	r.ops = append(r.ops, Op{Kind: "polyline", Points: append([]geometry.Point(nil), pts...), Color: c, Width: width})
}

func (r *Recorder) Ellipse(center geometry.Point, rx, ry, _ float64, c colorful.Color, width float64) {
	r.ops = append(r.ops, Op{Kind: "ellipse", Points: []geometry.Point{center}, Color: c, Width: width, RX: rx, RY: ry})
}

func (r *Recorder) Rect(x, y, w, h float64, c colorful.Color) {
	r.ops = append(r.ops, Op{Kind: "rect", Points: []geometry.Point{{X: x, Y: y}, {X: x + w, Y: y + h}}, Color: c})
}

func (r *Recorder) Dot(center geometry.Point, rad float64, c colorful.Color) {
	r.ops = append(r.ops, Op{Kind: "dot", Points: []geometry.Point{center}, Color: c, RX: rad, RY: rad})
}

func (r *Recorder) Flush() { r.flushes++ }

// Ops returns the recorded operations.
func (r *Recorder) Ops() []Op { return r.ops }

// Count returns the number of operations of a kind.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) Flushes() int { return r.flushes }
