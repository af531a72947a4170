// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/reader.go
// Summary: Streaming line-protocol reader feeding the shared canvas state.
// Notes: Runs on its own goroutine; blocks only on the underlying Read.

package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync/atomic"

	"github.com/framegrace/sketchwire/canvas"
)

// MaxLineLen bounds a single protocol line, newline included. A line that
// does not fit is discarded whole — draining a truncated JSON prefix through
// the decoder would risk accepting a fragment as a valid command.
const MaxLineLen = 4096

// Status is the reader lifecycle as published to the rest of the process.
type Status int32

const (
	// StatusIdle means Run has not been called yet.
	StatusIdle Status = iota
	// StatusReading means the reader goroutine is consuming input.
	StatusReading
	// StatusClosed means input ended (EOF or read error) and the final batch,
	// if any, has been committed. Terminal.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "waiting"
	case StatusReading:
		return "reading"
	case StatusClosed:
		return "input closed"
	default:
		return "unknown"
	}
}

// BatchInfo summarises one committed batch for observers.
type BatchInfo struct {
	Seq      uint64
	Commands int
	Bytes    int
	// Dropped is the cumulative drop count across all causes at commit time.
	Dropped uint64
}

// BatchObserver is notified on the reader goroutine after each commit.
// Implementations must not block for long; the observer runs between batches,
// not concurrently with them.
type BatchObserver interface {
	BatchCommitted(info BatchInfo)
}

// Stats are cumulative ingestion counters, safe to read from any goroutine.
type Stats struct {
	Lines       atomic.Uint64
	Commands    atomic.Uint64
	Batches     atomic.Uint64
	Malformed   atomic.Uint64
	Unsupported atomic.Uint64
	Oversized   atomic.Uint64
	PoolFull    atomic.Uint64
	BufferFull  atomic.Uint64
}

// Dropped totals every skipped line or command across causes.
func (s *Stats) Dropped() uint64 {
	return s.Malformed.Load() + s.Unsupported.Load() + s.Oversized.Load() +
		s.PoolFull.Load() + s.BufferFull.Load()
}

// Reader ingests newline-delimited JSON commands into the writer-role buffer
// and commits batches on blank lines and end-of-input.
type Reader struct {
	br       *bufio.Reader
	state    *canvas.SharedState
	observer BatchObserver

	status atomic.Int32
	stats  Stats

	seq          uint64
	pending      int
	pendingBytes int
}

// NewReader wraps src with a line buffer of exactly MaxLineLen. The observer
// may be nil.
func NewReader(src io.Reader, state *canvas.SharedState, observer BatchObserver) *Reader {
	return &Reader{
		br:       bufio.NewReaderSize(src, MaxLineLen),
		state:    state,
		observer: observer,
	}
}

// Status returns the last published lifecycle state.
func (r *Reader) Status() Status {
	return Status(r.status.Load())
}

// Stats exposes the cumulative counters for the status bar and journal.
func (r *Reader) Stats() *Stats {
	return &r.stats
}

// Run consumes input until EOF or an unrecoverable read error, committing a
// final pending batch either way. It publishes StatusClosed exactly once
// before returning. The returned error is nil on clean EOF.
func (r *Reader) Run() error {
	r.status.Store(int32(StatusReading))
	defer r.status.Store(int32(StatusClosed))

	for {
		line, readErr := r.br.ReadSlice('\n')

		switch {
		case readErr == nil:
			r.handleLine(trimLine(line))

		case errors.Is(readErr, bufio.ErrBufferFull):
			if err := r.drainOversized(); err != nil {
				r.flush()
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

		case errors.Is(readErr, io.EOF):
			// A final unterminated line still counts.
			if len(line) > 0 {
				r.handleLine(trimLine(line))
			}
			r.flush()
			return nil

		default:
			debugLog.Printf("read error: %v", readErr)
			r.flush()
			return readErr
		}
	}
}

// handleLine routes one complete, delimiter-stripped line: blank lines commit,
// anything else goes through the decoder. Decode and push failures are
// counted and skipped; they never stop ingestion.
func (r *Reader) handleLine(line []byte) {
	r.stats.Lines.Add(1)

	if len(line) == 0 {
		if r.pending > 0 {
			r.commit()
		}
		return
	}

	cmd, err := canvas.DecodeLine(r.state.Writer(), line)
	if err != nil {
		switch {
		case errors.Is(err, canvas.ErrUnsupportedTool):
			r.stats.Unsupported.Add(1)
		case errors.Is(err, canvas.ErrTextPoolFull):
			r.stats.PoolFull.Add(1)
		default:
			r.stats.Malformed.Add(1)
		}
		debugLog.Printf("skipping line: %v", err)
		return
	}

	if !r.state.Writer().Push(cmd) {
		r.stats.BufferFull.Add(1)
		debugLog.Printf("writer buffer full, dropping %q command", cmdName(cmd.Op))
		return
	}
	r.stats.Commands.Add(1)
	r.pending++
	r.pendingBytes += len(line)
}

// commit publishes the accumulated batch and resets the pending counters.
func (r *Reader) commit() {
	r.state.Commit()
	r.seq++
	r.stats.Batches.Add(1)
	if r.observer != nil {
		r.observer.BatchCommitted(BatchInfo{
			Seq:      r.seq,
			Commands: r.pending,
			Bytes:    r.pendingBytes,
			Dropped:  r.stats.Dropped(),
		})
	}
	r.pending = 0
	r.pendingBytes = 0
}

// flush commits a trailing partial batch at end-of-input.
func (r *Reader) flush() {
	if r.pending > 0 {
		r.commit()
	}
}

// drainOversized discards the remainder of a line that overflowed the read
// buffer, so ingestion resumes cleanly at the next newline. Returns the read
// error that ended the drain, io.EOF included.
func (r *Reader) drainOversized() error {
	r.stats.Oversized.Add(1)
	debugLog.Printf("discarding line over %d bytes", MaxLineLen)
	for {
		_, err := r.br.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// trimLine strips the trailing newline and an optional carriage return, so
// producers attached through a pty (which emits \r\n) frame identically to
// plain pipes.
func trimLine(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

func cmdName(op canvas.Op) string {
	switch op {
	case canvas.OpBackground:
		return "set_background"
	case canvas.OpFillRect:
		return "fill_rect"
	case canvas.OpFillTriangle:
		return "fill_triangle"
	case canvas.OpText:
		return "draw_text"
	default:
		return "unknown"
	}
}
