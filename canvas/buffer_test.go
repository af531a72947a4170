// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: canvas/buffer_test.go
// Summary: Exercises buffer capacity, pool bounds and replay ordering.

package canvas

import (
	"bytes"
	"fmt"
	"testing"
)

// recordSink captures replayed calls in order for assertions.
type recordSink struct {
	calls []string
	texts [][]byte
}

func (r *recordSink) Background(color uint32) {
	r.calls = append(r.calls, fmt.Sprintf("bg:%06x", color))
}

func (r *recordSink) FillRect(x, y, w, h float64, color uint32) {
	r.calls = append(r.calls, fmt.Sprintf("rect:%g,%g,%g,%g:%06x", x, y, w, h, color))
}

func (r *recordSink) FillTriangle(x1, y1, x2, y2, x3, y3 float64, color uint32) {
	r.calls = append(r.calls, fmt.Sprintf("tri:%g,%g,%g,%g,%g,%g:%06x", x1, y1, x2, y2, x3, y3, color))
}

func (r *recordSink) Text(text []byte, x, y float64, color uint32, size float64) {
	copied := append([]byte(nil), text...)
	r.texts = append(r.texts, copied)
	r.calls = append(r.calls, fmt.Sprintf("text:%s:%g,%g", copied, x, y))
}

func TestPushUntilFull(t *testing.T) {
	buf := NewBuffer(4, 64)
	for i := 0; i < 4; i++ {
		if !buf.Push(Command{Op: OpFillRect}) {
			t.Fatalf("push %d should succeed", i)
		}
	}
	if buf.Push(Command{Op: OpFillRect}) {
		t.Fatal("push beyond capacity should report false")
	}
	if got := buf.Len(); got != 4 {
		t.Fatalf("Len = %d, want 4", got)
	}

	buf.Clear()
	if got := buf.Len(); got != 0 {
		t.Fatalf("Len after Clear = %d, want 0", got)
	}
	if !buf.Push(Command{Op: OpFillRect}) {
		t.Fatal("push after Clear should succeed")
	}
}

func TestReplayOrder(t *testing.T) {
	buf := NewBuffer(8, 64)
	buf.Push(Command{Op: OpBackground, Color: 0x112233})
	buf.Push(Command{Op: OpFillRect, X1: 1, Y1: 2, W: 3, H: 4, Color: 0xFF0000})
	buf.Push(Command{Op: OpFillTriangle, X1: 0, Y1: 0, X2: 5, Y2: 0, X3: 0, Y3: 5, Color: 0x00FF00})

	ref, ok := buf.pool.Alloc([]byte("hello"))
	if !ok {
		t.Fatal("pool alloc failed")
	}
	buf.Push(Command{Op: OpText, Text: ref, X1: 7, Y1: 8, FontSize: 1})

	sink := &recordSink{}
	buf.Replay(sink)

	want := []string{
		"bg:112233",
		"rect:1,2,3,4:ff0000",
		"tri:0,0,5,0,0,5:00ff00",
		"text:hello:7,8",
	}
	if len(sink.calls) != len(want) {
		t.Fatalf("replay produced %d calls, want %d: %v", len(sink.calls), len(want), sink.calls)
	}
	for i := range want {
		if sink.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, sink.calls[i], want[i])
		}
	}
}

func TestTextPoolBound(t *testing.T) {
	pool := newTextPool(10)

	a, ok := pool.Alloc([]byte("abcd"))
	if !ok {
		t.Fatal("first alloc should fit")
	}
	b, ok := pool.Alloc([]byte("efgh"))
	if !ok {
		t.Fatal("second alloc should fit")
	}

	// Only two bytes left; this must be refused whole, not truncated.
	if _, ok := pool.Alloc([]byte("xyz")); ok {
		t.Fatal("overflowing alloc should be refused")
	}

	// Earlier ranges must be intact after the refused write.
	if got := pool.Bytes(a); !bytes.Equal(got, []byte("abcd")) {
		t.Fatalf("range a = %q, want abcd", got)
	}
	if got := pool.Bytes(b); !bytes.Equal(got, []byte("efgh")) {
		t.Fatalf("range b = %q, want efgh", got)
	}

	// An alloc that exactly fits the remainder succeeds.
	if _, ok := pool.Alloc([]byte("xy")); !ok {
		t.Fatal("exact-fit alloc should succeed")
	}
	if pool.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", pool.Remaining())
	}

	pool.Reset()
	if pool.Remaining() != 10 {
		t.Fatalf("Remaining after Reset = %d, want 10", pool.Remaining())
	}
}

func TestClearResetsPool(t *testing.T) {
	buf := NewBuffer(4, 8)
	if _, ok := buf.pool.Alloc([]byte("12345678")); !ok {
		t.Fatal("alloc should fill the pool")
	}
	if _, ok := buf.pool.Alloc([]byte("x")); ok {
		t.Fatal("pool should be full")
	}
	buf.Clear()
	if _, ok := buf.pool.Alloc([]byte("x")); !ok {
		t.Fatal("pool should be empty after Clear")
	}
}
