// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: canvas/buffer.go
// Summary: Fixed-capacity command buffer with its private text pool.

package canvas

// Default sizing for the three shared buffers. A few hundred commands covers
// a full terminal canvas redraw with room to spare; a flooded producer hits
// silent backpressure (Push returning false) rather than growing the heap.
const (
	DefaultCommandCap  = 512
	DefaultTextPoolCap = 16 * 1024
)

// Buffer owns a fixed array of commands and the pool their text ranges point
// into. Buffers are append-only between clears and are never safe for
// concurrent mutation: the triple-buffer role protocol guarantees a single
// exclusive owner at any time, so Buffer itself carries no lock.
type Buffer struct {
	cmds []Command
	n    int
	pool TextPool
}

// NewBuffer allocates a buffer with the given command and pool capacities.
// All storage is allocated up front; the buffer never reallocates.
func NewBuffer(cmdCap, poolCap int) *Buffer {
	return &Buffer{
		cmds: make([]Command, cmdCap),
		pool: newTextPool(poolCap),
	}
}

// Push appends cmd and reports whether it fit. A false return is not an
// error; it is the bounded-canvas backpressure contract.
func (b *Buffer) Push(cmd Command) bool {
	if b.n >= len(b.cmds) {
		return false
	}
	b.cmds[b.n] = cmd
	b.n++
	return true
}

// Clear empties the buffer and rewinds its pool. Only the current writer-role
// owner may call this.
func (b *Buffer) Clear() {
	b.n = 0
	b.pool.Reset()
}

// Len returns the number of valid commands.
func (b *Buffer) Len() int {
	return b.n
}

// Text resolves a command's text range against this buffer's pool. The result
// is borrowed and dies with the next Clear.
func (b *Buffer) Text(ref TextRef) []byte {
	return b.pool.Bytes(ref)
}

// Replay feeds every valid command to sink in append order. Text payloads are
// resolved through the pool before the sink sees them, so sinks never touch
// TextRef directly.
func (b *Buffer) Replay(sink Sink) {
	for i := 0; i < b.n; i++ {
		c := &b.cmds[i]
		switch c.Op {
		case OpBackground:
			sink.Background(c.Color)
		case OpFillRect:
			sink.FillRect(c.X1, c.Y1, c.W, c.H, c.Color)
		case OpFillTriangle:
			sink.FillTriangle(c.X1, c.Y1, c.X2, c.Y2, c.X3, c.Y3, c.Color)
		case OpText:
			sink.Text(b.pool.Bytes(c.Text), c.X1, c.Y1, c.Color, c.FontSize)
		}
	}
}
