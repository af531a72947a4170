// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/status.go
// Summary: Single-row status bar showing reader lifecycle and ingest counters.

package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/sketchwire/protocol"
)

// StatusBar renders one line of operator-facing state: whether the producer
// has started, is streaming, or has closed its end, plus batch and drop
// counters.
type StatusBar struct {
	screen tcell.Screen
	reader *protocol.Reader
}

// NewStatusBar binds the bar to the reader whose lifecycle it reports.
func NewStatusBar(screen tcell.Screen, reader *protocol.Reader) *StatusBar {
	return &StatusBar{screen: screen, reader: reader}
}

// Draw paints the bar on the given row across width columns. The bar colors
// derive from the canvas background so the bar stays legible whatever the
// producer paints.
func (b *StatusBar) Draw(row, width int, canvasBg tcell.Color) {
	stats := b.reader.Stats()
	text := fmt.Sprintf(" %s | %d cmds | %d batches | %d dropped ",
		b.reader.Status(), stats.Commands.Load(), stats.Batches.Load(), stats.Dropped())

	bg, fg := barColors(canvasBg)
	st := tcell.StyleDefault.Background(bg).Foreground(fg)

	col := 0
	for _, r := range text {
		if col >= width {
			break
		}
		b.screen.SetContent(col, row, r, nil, st)
		col += runewidth.RuneWidth(r)
	}
	for ; col < width; col++ {
		b.screen.SetContent(col, row, ' ', nil, st)
	}
}

// barColors blends the canvas background toward grey for the bar background
// and picks black or white text by luminance.
func barColors(canvasBg tcell.Color) (tcell.Color, tcell.Color) {
	r, g, bl := canvasBg.RGB()
	base := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(bl) / 255}
	barBg := base.BlendLab(colorful.Color{R: 0.5, G: 0.5, B: 0.5}, 0.7).Clamped()

	fg := tcell.ColorBlack
	if l, _, _ := barBg.Lab(); l < 0.5 {
		fg = tcell.ColorWhite
	}
	rr, gg, bb := barBg.RGB255()
	return tcell.NewRGBColor(int32(rr), int32(gg), int32(bb)), fg
}
