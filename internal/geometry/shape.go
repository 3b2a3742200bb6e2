package geometry

import "math"

// Point is a coordinate in canvas pixel space.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Bounds is the drawable canvas size in CSS pixels.
type Bounds struct {
	Width  float64
	Height float64
}

// Min returns the shorter side.
func (b Bounds) Min() float64 {
	return math.Min(b.Width, b.Height)
}

// Empty reports whether the bounds have no drawable area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// DefaultBounds is used until a canvas has been measured.
var DefaultBounds = Bounds{Width: 800, Height: 600}

// Order places a guide relative to the traced target.
type Order string

const (
	OrderUnder Order = "under"
	OrderOver  Order = "over"
)

// Style selects how a polygon target is drawn.
type Style string

const (
	StyleLine Style = "line"
	StyleDots Style = "dots"
)

// Meta is shared by every shape variant.
type Meta struct {
	ID          string
	Reward      int
	StrokeColor string
	Order       Order
}

// Info returns the shape metadata.
func (m Meta) Info() Meta { return m }

// Shape is a closed sum type: Polygon, Circle and Ellipse are the only
// implementations. Dispatch goes through Accept so that adding a variant
// breaks every Visitor at compile time.
type Shape interface {
	Info() Meta
	Accept(v Visitor)
}

// Visitor has one method per shape variant.
type Visitor interface {
	VisitPolygon(p Polygon)
	VisitCircle(c Circle)
	VisitEllipse(e Ellipse)
}

// Polygon is a chain of connected segments. It is closed only when the
// last point repeats the first.
type Polygon struct {
	Meta
	Points []Point
	Style  Style
}

func (p Polygon) Accept(v Visitor) { v.VisitPolygon(p) }

// Circle is a circle outline.
type Circle struct {
	Meta
	Center Point
	Radius float64
}

func (c Circle) Accept(v Visitor) { v.VisitCircle(c) }

// Ellipse is an ellipse outline. Rotation is in radians and only affects
// rendering.
type Ellipse struct {
	Meta
	Center   Point
	RadiusX  float64
	RadiusY  float64
	Rotation float64
}

func (e Ellipse) Accept(v Visitor) { v.VisitEllipse(e) }

// Segments returns the segments of a polygon as point pairs.
func (p Polygon) Segments() [][2]Point {
	if len(p.Points) < 2 {
		return nil
	}
	out := make([][2]Point, 0, len(p.Points)-1)
	for i := 1; i < len(p.Points); i++ {
		out = append(out, [2]Point{p.Points[i-1], p.Points[i]})
	}
	return out
}

// PathLength is the summed length of consecutive points.
func PathLength(pts []Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	return total
}

// SegmentDistance returns the distance from p to the segment ab and the
// clamped projection parameter t in [0,1].
func SegmentDistance(p, a, b Point) (dist float64, t float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a), 0
	}
	t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	proj := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return p.Dist(proj), t
}

// Extent returns the axis-aligned box of a shape as min and max corners.
func Extent(s Shape) (lo, hi Point) {
	x := extentVisitor{}
	s.Accept(&x)
	return x.lo, x.hi
}

type extentVisitor struct {
	lo, hi Point
}

func (x *extentVisitor) VisitPolygon(p Polygon) {
	if len(p.Points) == 0 {
		return
	}
	x.lo, x.hi = p.Points[0], p.Points[0]
	for _, pt := range p.Points[1:] {
		x.lo.X = math.Min(x.lo.X, pt.X)
		x.lo.Y = math.Min(x.lo.Y, pt.Y)
		x.hi.X = math.Max(x.hi.X, pt.X)
		x.hi.Y = math.Max(x.hi.Y, pt.Y)
	}
}

func (x *extentVisitor) VisitCircle(c Circle) {
	x.lo = Point{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius}
	x.hi = Point{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius}
}

func (x *extentVisitor) VisitEllipse(e Ellipse) {
	// Axis-aligned extent of the rotated ellipse.
	cos, sin := math.Cos(e.Rotation), math.Sin(e.Rotation)
	hw := math.Hypot(e.RadiusX*cos, e.RadiusY*sin)
	hh := math.Hypot(e.RadiusX*sin, e.RadiusY*cos)
	x.lo = Point{X: e.Center.X - hw, Y: e.Center.Y - hh}
	x.hi = Point{X: e.Center.X + hw, Y: e.Center.Y + hh}
}
