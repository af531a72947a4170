// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/integration_test.go
// Summary: Runs ingestion and consumption concurrently and checks batch
// atomicity end to end.

package protocol

import (
	"fmt"
	"strings"
	"testing"

	"github.com/framegrace/sketchwire/canvas"
)

// TestConcurrentIngestAndAcquire streams many batches where every command in
// batch n carries x == n, while a consumer goroutine acquires and replays as
// fast as it can. Any acquired batch must be internally consistent: all
// commands from the same commit, in order, never a prefix mixed with another
// batch.
func TestConcurrentIngestAndAcquire(t *testing.T) {
	const batches = 500
	const perBatch = 8

	var sb strings.Builder
	for n := 1; n <= batches; n++ {
		for j := 0; j < perBatch; j++ {
			fmt.Fprintf(&sb, `{"tool":"fill_rect","x":%d,"y":0,"w":1,"h":1,"color":"ffffff"}`+"\n", n)
		}
		sb.WriteByte('\n')
	}

	state := canvas.NewSharedState(64, 4096)
	r := NewReader(strings.NewReader(sb.String()), state, nil)
	readerDone := make(chan error, 1)
	go func() { readerDone <- r.Run() }()

	var lastBatch float64
	for {
		buf, fresh := state.Acquire()
		if fresh {
			sink := &captureSink{}
			buf.Replay(sink)
			if len(sink.xs) != perBatch {
				t.Fatalf("acquired batch with %d commands, want %d", len(sink.xs), perBatch)
			}
			for _, x := range sink.xs {
				if x != sink.xs[0] {
					t.Fatalf("acquired a mixed batch: %v", sink.xs)
				}
			}
			if sink.xs[0] < lastBatch {
				t.Fatalf("batch %g observed after %g", sink.xs[0], lastBatch)
			}
			lastBatch = sink.xs[0]
			continue
		}
		select {
		case err := <-readerDone:
			if err != nil {
				t.Fatalf("reader error: %v", err)
			}
			// Drain the final committed batch if it raced with shutdown.
			if buf, fresh := state.Acquire(); fresh {
				sink := &captureSink{}
				buf.Replay(sink)
				if len(sink.xs) != perBatch {
					t.Fatalf("final batch has %d commands, want %d", len(sink.xs), perBatch)
				}
			}
			if lastBatch == 0 {
				t.Fatal("consumer never observed a batch")
			}
			return
		default:
		}
	}
}
