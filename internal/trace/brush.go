package trace

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"skrawl/internal/geometry"
)

// Brush selects how the live stroke is drawn.
type Brush string

const (
	BrushSmooth  Brush = "smooth"
	BrushPixel   Brush = "pixel"
	BrushRainbow Brush = "rainbow"
)

const (
	InkWidth = 6.0

	PixelSize = 10.0
	pixelStep = PixelSize * 0.6

	rainbowStep = 6.0
	rainbowHue  = 12.0
)

var ErrUnknownBrush = errors.New("unknown brush")

func ParseBrush(s string) (Brush, error) {
	switch b := Brush(s); b {
	case BrushSmooth, BrushPixel, BrushRainbow:
		return b, nil
	case "":
		return BrushSmooth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBrush, s)
}

// Ink is the default stroke color.
var Ink = colorful.Color{R: 0.29, G: 0.23, B: 0.89}

func (b Brush) paint(c Canvas, path []geometry.Point, ink colorful.Color) {
	if len(path) == 0 {
		return
	}
	switch b {
	case BrushPixel:
		paintPixels(c, path, ink)
	case BrushRainbow:
		paintRainbow(c, path)
	default:
		c.Polyline(path, ink, InkWidth)
	}
}

// paintPixels stamps squares along the path, interpolating gaps wider than
// the stamp step.
func paintPixels(c Canvas, path []geometry.Point, ink colorful.Color) {
	stamp := func(p geometry.Point) {
		c.Rect(p.X-PixelSize/2, p.Y-PixelSize/2, PixelSize, PixelSize, ink)
	}
	stamp(path[0])
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		d := a.Dist(b)
		steps := int(math.Floor(d / pixelStep))
		for s := 1; s <= steps; s++ {
			f := float64(s) * pixelStep / d
			stamp(geometry.Point{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f})
		}
		if d > 0 {
			stamp(b)
		}
	}
}

// paintRainbow cycles the hue with the distance travelled.
func paintRainbow(c Canvas, path []geometry.Point) {
	if len(path) == 1 {
		c.Dot(path[0], InkWidth/2, colorful.Hsl(0, 1, 0.5))
		return
	}
	travelled := 0.0
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		hue := math.Mod(travelled/rainbowStep*rainbowHue, 360)
		c.Polyline([]geometry.Point{a, b}, colorful.Hsl(hue, 1, 0.5), InkWidth)
		travelled += a.Dist(b)
	}
}
