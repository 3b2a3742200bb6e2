// Package trace captures one pointer stroke at a time, renders it over the
// current target and reports the verdict back to the target.
package trace

import (
	"github.com/lucasb-eyer/go-colorful"

	"skrawl/internal/geometry"
)

// Target supplies the shape being traced and receives the verdicts.
type Target interface {
	Current() (shape geometry.Shape, threshold float64, ok bool)
	Guides() []geometry.Shape
	Attempt(success bool, reward int)
}

// Verdict is the outcome of one stroke.
type Verdict struct {
	ShapeID string `json:"shapeId"`
	Success bool   `json:"success"`
	Reward  int    `json:"reward"`
	Samples int    `json:"samples"`
}

type Surface struct {
	measurer Measurer
	target   Target
	canvas   Canvas
	brush    Brush
	ink      colorful.Color

	vp       Viewport
	measured bool
	path     []geometry.Point
	drawing  bool
}

func NewSurface(m Measurer, target Target, canvas Canvas, brush Brush) *Surface {
	if brush == "" {
		brush = BrushSmooth
	}
	return &Surface{measurer: m, target: target, canvas: canvas, brush: brush, ink: Ink}
}

// PointerDown starts a new stroke, discarding any unfinished one. The
// viewport is re-measured first; without a drawable area no stroke starts.
func (s *Surface) PointerDown(clientX, clientY float64) error {
	s.path = s.path[:0]
	s.drawing = false
	vp, err := s.measurer.Measure()
	if err != nil || !vp.Valid() {
		return ErrNotMeasured
	}
	s.vp, s.measured = vp, true
	s.drawing = true
	s.path = append(s.path, vp.Map(clientX, clientY))
	s.Redraw()
	return nil
}

// PointerMove extends the stroke. Moves without a stroke are ignored.
func (s *Surface) PointerMove(clientX, clientY float64) {
	if !s.drawing {
		return
	}
	s.path = append(s.path, s.vp.Map(clientX, clientY))
	s.Redraw()
}

// PointerMoves extends the stroke by several client samples and redraws once.
func (s *Surface) PointerMoves(samples []geometry.Point) {
	if !s.drawing || len(samples) == 0 {
		return
	}
	for _, p := range samples {
		s.path = append(s.path, s.vp.Map(p.X, p.Y))
	}
	s.Redraw()
}

// PointerUp ends the stroke, scores it against the current target and
// reports the verdict. ok is false when no stroke or no target was active.
func (s *Surface) PointerUp() (v Verdict, ok bool) {
	if !s.drawing {
		return Verdict{}, false
	}
	s.drawing = false
	path := s.path
	s.path = nil
	defer s.Redraw()

	shape, threshold, ok := s.target.Current()
	if !ok {
		return Verdict{}, false
	}
	meta := shape.Info()
	v = Verdict{
		ShapeID: meta.ID,
		Success: geometry.Evaluate(path, shape, threshold),
		Samples: len(path),
	}
	if v.Success {
		v.Reward = meta.Reward
	}
	s.target.Attempt(v.Success, meta.Reward)
	return v, true
}

// Drawing reports whether a stroke is in progress.
func (s *Surface) Drawing() bool { return s.drawing }

// Path returns a copy of the stroke in progress.
func (s *Surface) Path() []geometry.Point {
	return append([]geometry.Point(nil), s.path...)
}

func (s *Surface) SetBrush(b Brush) {
	s.brush = b
	s.Redraw()
}

func (s *Surface) Brush() Brush { return s.brush }

// Bounds returns the last measured canvas size, or the default before the
// first measurement.
func (s *Surface) Bounds() geometry.Bounds {
	if !s.measured {
		if vp, err := s.measurer.Measure(); err == nil && vp.Valid() {
			s.vp, s.measured = vp, true
		} else {
			return geometry.DefaultBounds
		}
	}
	return s.vp.Bounds()
}

// Redraw repaints the target, its guides and the live stroke.
func (s *Surface) Redraw() {
	s.canvas.Clear(s.Bounds())
	shape, _, ok := s.target.Current()
	if !ok {
		shape = nil
	}
	PaintScene(s.canvas, shape, s.target.Guides())
	s.brush.paint(s.canvas, s.path, s.ink)
	s.canvas.Flush()
}
