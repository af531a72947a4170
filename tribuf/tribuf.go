// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: tribuf/tribuf.go
// Summary: Lock-free triple buffer rotating three slots between a single
// writer and a single reader.
//
// The writer and the reader each own exactly one slot at any instant; the
// third slot sits in a shared mailbox. Hand-off is one atomic Swap per side,
// so neither side ever waits on the other and neither can observe a slot the
// other is mutating.

package tribuf

import "sync/atomic"

const (
	indexMask = 0x3
	readyBit  = 0x4
)

// TripleBuffer coordinates three instances of T between one writer goroutine
// and one reader goroutine. The zero value is not usable; construct with New.
//
// Exactly one goroutine may call Writer/CommitWriter and exactly one may call
// Display/TryAcquireDisplay. The two sides need no further synchronisation.
type TripleBuffer[T any] struct {
	slots [3]*T

	// state packs the mailbox slot index (low two bits) with the ready bit.
	// Packing them into one word makes each role transition a single Swap,
	// which is what keeps the {writer, mailbox, display} indices a permutation
	// under every interleaving.
	state atomic.Uint32

	// writer and display are plain fields: each is read and written only by
	// its owning goroutine.
	writer  uint32
	display uint32
}

// New builds a triple buffer over three distinct slots. Slot a starts as the
// writer, b as the (empty, not-ready) mailbox, and c as the display.
func New[T any](a, b, c *T) *TripleBuffer[T] {
	t := &TripleBuffer[T]{slots: [3]*T{a, b, c}}
	t.writer = 0
	t.state.Store(1)
	t.display = 2
	return t
}

// Writer returns the slot currently owned by the writer side. The writer may
// mutate it freely until CommitWriter.
func (t *TripleBuffer[T]) Writer() *T {
	return t.slots[t.writer]
}

// Display returns the slot currently owned by the reader side, whether or not
// the last TryAcquireDisplay adopted a new one.
func (t *TripleBuffer[T]) Display() *T {
	return t.slots[t.display]
}

// CommitWriter publishes the writer slot to the mailbox with the ready bit
// set and adopts the previous mailbox slot as the new writer slot. The
// returned slot is stale — it holds whatever batch last passed through it —
// and the caller must reset it before writing the next batch.
func (t *TripleBuffer[T]) CommitWriter() *T {
	old := t.state.Swap(t.writer | readyBit)
	t.writer = old & indexMask
	return t.slots[t.writer]
}

// TryAcquireDisplay adopts the mailbox slot as the new display slot if a
// commit has been published since the last acquire. When nothing is ready it
// returns the current display slot unchanged, which is what keeps the last
// batch on screen while the writer is idle. The boolean reports whether a new
// batch was adopted. Never blocks.
func (t *TripleBuffer[T]) TryAcquireDisplay() (*T, bool) {
	if t.state.Load()&readyBit == 0 {
		return t.slots[t.display], false
	}
	old := t.state.Swap(t.display)
	t.display = old & indexMask
	return t.slots[t.display], true
}

// roles reports the current slot index of each role, for invariant checks in
// tests. Only meaningful while both sides are quiescent.
func (t *TripleBuffer[T]) roles() (writer, mailbox, display uint32) {
	return t.writer, t.state.Load() & indexMask, t.display
}
