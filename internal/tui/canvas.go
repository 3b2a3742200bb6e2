// Package tui plays runs in a terminal. Each cell stands for a block of
// canvas pixels, and dragging with the left mouse button is a stroke.
package tui

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"skrawl/internal/geometry"
	"skrawl/internal/trace"
)

const (
	// CellW and CellH are the canvas pixels covered by one cell.
	CellW = 8.0
	CellH = 16.0
	// Top is the number of rows reserved for the HUD.
	Top = 1
)

// Canvas rasterizes draw calls onto a tcell screen below the HUD rows.
type Canvas struct {
	screen tcell.Screen
}

func NewCanvas(s tcell.Screen) *Canvas {
	return &Canvas{screen: s}
}

// Measure reports the drawable area in canvas pixels. Client coordinates
// come from Client, so the viewport sits one HUD row down.
func (c *Canvas) Measure() (trace.Viewport, error) {
	w, h := c.screen.Size()
	if w <= 0 || h <= Top {
		return trace.Viewport{}, trace.ErrNotMeasured
	}
	return trace.Viewport{
		Top:    Top * CellH,
		Width:  float64(w) * CellW,
		Height: float64(h-Top) * CellH,
		DPR:    1,
	}, nil
}

// Client converts a cell position to client coordinates at the cell center.
func Client(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * CellW, (float64(y) + 0.5) * CellH
}

// cell maps a canvas point to a screen cell.
func cell(p geometry.Point) (int, int) {
	return int(math.Floor(p.X / CellW)), int(math.Floor(p.Y/CellH)) + Top
}

func style(c colorful.Color) tcell.Style {
	r, g, b := c.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func (c *Canvas) set(x, y int, ch rune, st tcell.Style) {
	w, h := c.screen.Size()
	if x < 0 || y < Top || x >= w || y >= h {
		return
	}
	c.screen.SetContent(x, y, ch, nil, st)
}

func (c *Canvas) Clear(geometry.Bounds) {
	w, h := c.screen.Size()
	for y := Top; y < h; y++ {
		for x := 0; x < w; x++ {
			c.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

// Polyline walks each segment in half-cell steps.
func (c *Canvas) Polyline(pts []geometry.Point, col colorful.Color, _ float64) {
	st := style(col)
	if len(pts) == 1 {
		x, y := cell(pts[0])
		c.set(x, y, '•', st)
		return
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X)/(CellW/2), math.Abs(b.Y-a.Y)/(CellH/2))))
		for s := 0; s <= steps; s++ {
			f := 0.0
			if steps > 0 {
				f = float64(s) / float64(steps)
			}
			x, y := cell(geometry.Point{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f})
			c.set(x, y, '█', st)
		}
	}
}

func (c *Canvas) Ellipse(center geometry.Point, rx, ry, rotation float64, col colorful.Color, _ float64) {
	st := style(col)
	n := int(math.Max(32, 2*math.Pi*math.Max(rx, ry)/(CellW/2)))
	cos, sin := math.Cos(rotation), math.Sin(rotation)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ex, ey := rx*math.Cos(a), ry*math.Sin(a)
		x, y := cell(geometry.Point{X: center.X + ex*cos - ey*sin, Y: center.Y + ex*sin + ey*cos})
		c.set(x, y, '█', st)
	}
}

func (c *Canvas) Rect(x, y, w, h float64, col colorful.Color) {
	st := style(col)
	x0, y0 := cell(geometry.Point{X: x, Y: y})
	x1, y1 := cell(geometry.Point{X: x + w, Y: y + h})
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			c.set(cx, cy, '▪', st)
		}
	}
}

func (c *Canvas) Dot(center geometry.Point, _ float64, col colorful.Color) {
	x, y := cell(center)
	c.set(x, y, '●', style(col))
}

func (c *Canvas) Flush() {
	c.screen.Show()
}
