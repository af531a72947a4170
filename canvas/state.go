// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: canvas/state.go
// Summary: The process-wide trio of buffers shared by reader and renderer.

package canvas

import "github.com/framegrace/sketchwire/tribuf"

// SharedState owns the three canvas buffers and the triple buffer that
// rotates them. One instance is constructed in main before either goroutine
// starts and handed to both; there is no package-level singleton.
type SharedState struct {
	tb *tribuf.TripleBuffer[Buffer]
}

// NewSharedState allocates the three buffers with identical capacities. All
// storage the steady state ever uses is allocated here.
func NewSharedState(cmdCap, poolCap int) *SharedState {
	return &SharedState{
		tb: tribuf.New(
			NewBuffer(cmdCap, poolCap),
			NewBuffer(cmdCap, poolCap),
			NewBuffer(cmdCap, poolCap),
		),
	}
}

// Writer returns the buffer the ingestion side may currently fill.
func (s *SharedState) Writer() *Buffer {
	return s.tb.Writer()
}

// Commit publishes the writer buffer as a completed batch and clears the
// buffer adopted in exchange, so the next batch starts from empty rather than
// leaking commands from two batches ago.
func (s *SharedState) Commit() {
	s.tb.CommitWriter().Clear()
}

// Acquire returns the buffer the renderer should replay this frame and
// whether it is a newly committed batch. When false, the previous display
// buffer is returned unchanged.
func (s *SharedState) Acquire() (*Buffer, bool) {
	return s.tb.TryAcquireDisplay()
}
