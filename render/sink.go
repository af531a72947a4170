// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/sink.go
// Summary: tcell-backed replay sink rasterizing commands into terminal cells.
//
// Protocol coordinates are canvas cell units: x is a column, y is a row.
// Geometry is clipped to the canvas area, which is the screen minus the
// status row at the bottom.

package render

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/sketchwire/canvas"
)

// ScreenSink replays canvas commands onto a tcell screen. It implements
// canvas.Sink. Not safe for concurrent use; the render loop owns it.
type ScreenSink struct {
	screen tcell.Screen
	width  int
	height int
	bg     tcell.Color
}

// NewScreenSink builds a sink over screen. Call BeginFrame before each
// replay to pick up the current size.
func NewScreenSink(screen tcell.Screen) *ScreenSink {
	return &ScreenSink{screen: screen, bg: tcell.ColorBlack}
}

// BeginFrame resets the sink for one frame: it adopts the given canvas area
// and paints it with the default background, so a batch that sets no
// background never shows remnants of an older batch.
func (s *ScreenSink) BeginFrame(width, height int) {
	s.width = width
	s.height = height
	s.bg = tcell.ColorBlack
	s.fill(0, 0, width, height, s.bg)
}

// Background fills the whole canvas area.
func (s *ScreenSink) Background(color uint32) {
	s.bg = hexColor(color)
	s.fill(0, 0, s.width, s.height, s.bg)
}

// FillRect fills an axis-aligned cell rectangle, clipped to the canvas.
func (s *ScreenSink) FillRect(x, y, w, h float64, color uint32) {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := int(math.Ceil(x + w))
	y1 := int(math.Ceil(y + h))
	s.fill(x0, y0, x1-x0, y1-y0, hexColor(color))
}

// FillTriangle fills every cell whose center lies inside the triangle. Edge
// functions are evaluated with both windings accepted, so producers need not
// care about vertex order.
func (s *ScreenSink) FillTriangle(x1, y1, x2, y2, x3, y3 float64, color uint32) {
	minX := clampInt(int(math.Floor(min3(x1, x2, x3))), 0, s.width)
	maxX := clampInt(int(math.Ceil(max3(x1, x2, x3))), 0, s.width)
	minY := clampInt(int(math.Floor(min3(y1, y2, y3))), 0, s.height)
	maxY := clampInt(int(math.Ceil(max3(y1, y2, y3))), 0, s.height)

	st := tcell.StyleDefault.Background(hexColor(color))
	for cy := minY; cy < maxY; cy++ {
		for cx := minX; cx < maxX; cx++ {
			px := float64(cx) + 0.5
			py := float64(cy) + 0.5
			d1 := edge(px, py, x1, y1, x2, y2)
			d2 := edge(px, py, x2, y2, x3, y3)
			d3 := edge(px, py, x3, y3, x1, y1)
			neg := d1 < 0 || d2 < 0 || d3 < 0
			pos := d1 > 0 || d2 > 0 || d3 > 0
			if !(neg && pos) {
				s.screen.SetContent(cx, cy, ' ', nil, st)
			}
		}
	}
}

// Text draws a string starting at (x, y), advancing by display width so wide
// runes occupy their two cells. Sizes of 2 and up render bold; a terminal
// cannot scale glyphs, so weight is the closest available cue.
func (s *ScreenSink) Text(text []byte, x, y float64, color uint32, size float64) {
	row := int(math.Floor(y))
	if row < 0 || row >= s.height {
		return
	}
	st := tcell.StyleDefault.Foreground(hexColor(color)).Background(s.bg)
	if size >= 2 {
		st = st.Bold(true)
	}
	col := int(math.Floor(x))
	for _, r := range string(text) {
		if r == '\n' || r == '\r' {
			continue
		}
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col >= s.width {
			break
		}
		if col >= 0 {
			s.screen.SetContent(col, row, r, nil, st)
		}
		col += w
	}
}

func (s *ScreenSink) fill(x, y, w, h int, color tcell.Color) {
	x0 := clampInt(x, 0, s.width)
	y0 := clampInt(y, 0, s.height)
	x1 := clampInt(x+w, 0, s.width)
	y1 := clampInt(y+h, 0, s.height)
	st := tcell.StyleDefault.Background(color)
	for cy := y0; cy < y1; cy++ {
		for cx := x0; cx < x1; cx++ {
			s.screen.SetContent(cx, cy, ' ', nil, st)
		}
	}
}

// hexColor converts packed 0xRRGGBB to a tcell color.
func hexColor(c uint32) tcell.Color {
	return tcell.NewHexColor(int32(c & 0xFFFFFF))
}

func edge(px, py, ax, ay, bx, by float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }

var _ canvas.Sink = (*ScreenSink)(nil)
