// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: canvas/command.go
// Summary: The drawing command variant and the sink interface it replays into.

package canvas

// Op tags a Command with its drawing primitive. The set is closed: every op
// the protocol can produce is listed here and Replay switches over all of them.
type Op uint8

const (
	// OpBackground fills the whole canvas with Color.
	OpBackground Op = iota
	// OpFillRect fills the axis-aligned rectangle (X1,Y1)-(X1+W,Y1+H).
	OpFillRect
	// OpFillTriangle fills the triangle (X1,Y1),(X2,Y2),(X3,Y3).
	OpFillTriangle
	// OpText draws Text at (X1,Y1) with FontSize.
	OpText
)

// TextRef locates a text payload inside the owning buffer's pool. A TextRef is
// only meaningful to the Buffer whose pool allocated it; copying a Command to
// another buffer without copying the referenced bytes produces garbage.
type TextRef struct {
	Off uint32
	Len uint32
}

// Command is one drawing instruction. It is a flat tagged struct rather than
// an interface so that a Buffer can hold commands in a fixed array without
// per-command allocation. Fields beyond what the Op uses are zero.
type Command struct {
	Op Op

	// Color is packed 0xRRGGBB.
	Color uint32

	X1, Y1 float64
	X2, Y2 float64
	X3, Y3 float64
	W, H   float64

	FontSize float64
	Text     TextRef
}

// Sink receives replayed commands. Implementations must treat the text slice
// as borrowed: it aliases the buffer's pool and is invalidated by Clear.
type Sink interface {
	Background(color uint32)
	FillRect(x, y, w, h float64, color uint32)
	FillTriangle(x1, y1, x2, y2, x3, y3 float64, color uint32)
	Text(text []byte, x, y float64, color uint32, size float64)
}
