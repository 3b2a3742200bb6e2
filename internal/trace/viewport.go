package trace

import (
	"errors"
	"math"

	"skrawl/internal/geometry"
)

var ErrNotMeasured = errors.New("canvas not measured")

// Viewport is the on-screen rectangle of the canvas in CSS pixels and the
// device pixel ratio it is rendered at.
type Viewport struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr"`
}

func (v Viewport) ratio() float64 {
	if v.DPR <= 0 {
		return 1
	}
	return v.DPR
}

// Valid reports whether the viewport has a drawable area.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0 && !math.IsNaN(v.Width) && !math.IsNaN(v.Height)
}

// Backing returns the integer size of the canvas backing store.
func (v Viewport) Backing() (w, h int) {
	r := v.ratio()
	return int(math.Floor(v.Width * r)), int(math.Floor(v.Height * r))
}

// Map converts client coordinates to canvas coordinates, correcting for the
// rounding of the backing store.
func (v Viewport) Map(clientX, clientY float64) geometry.Point {
	r := v.ratio()
	bw, bh := v.Backing()
	return geometry.Point{
		X: (clientX - v.Left) * float64(bw) / (v.Width * r),
		Y: (clientY - v.Top) * float64(bh) / (v.Height * r),
	}
}

func (v Viewport) Bounds() geometry.Bounds {
	return geometry.Bounds{Width: v.Width, Height: v.Height}
}

// Measurer reports the current canvas viewport.
type Measurer interface {
	Measure() (Viewport, error)
}

type MeasurerFunc func() (Viewport, error)

func (f MeasurerFunc) Measure() (Viewport, error) { return f() }

// Fixed always measures v.
func Fixed(v Viewport) Measurer {
	return MeasurerFunc(func() (Viewport, error) { return v, nil })
}
