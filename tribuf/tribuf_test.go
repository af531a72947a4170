// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: tribuf/tribuf_test.go
// Summary: Exercises role rotation invariants under sequential fuzz and
// concurrent stress.

package tribuf

import (
	"math/rand"
	"sync"
	"testing"
)

// assertPermutation checks the three role indices cover {0,1,2}.
func assertPermutation[T any](t *testing.T, tb *TripleBuffer[T]) {
	t.Helper()
	w, m, d := tb.roles()
	var seen [3]bool
	for _, idx := range []uint32{w, m, d} {
		if idx > 2 {
			t.Fatalf("role index %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("duplicate role index %d (w=%d m=%d d=%d)", idx, w, m, d)
		}
		seen[idx] = true
	}
}

func TestInitialRoles(t *testing.T) {
	a, b, c := new(int), new(int), new(int)
	tb := New(a, b, c)
	assertPermutation(t, tb)
	if tb.Writer() != a {
		t.Fatal("slot a should start as writer")
	}
	if tb.Display() != c {
		t.Fatal("slot c should start as display")
	}
}

func TestCommitRotatesWriter(t *testing.T) {
	a, b, c := new(int), new(int), new(int)
	tb := New(a, b, c)

	*tb.Writer() = 1
	next := tb.CommitWriter()
	if next != b {
		t.Fatal("commit should adopt the previous mailbox as writer")
	}
	assertPermutation(t, tb)

	got, fresh := tb.TryAcquireDisplay()
	if !fresh {
		t.Fatal("acquire after commit should adopt a new batch")
	}
	if got != a || *got != 1 {
		t.Fatalf("display should be the committed slot, got %v", *got)
	}
	assertPermutation(t, tb)
}

func TestIdleStability(t *testing.T) {
	tb := New(new(int), new(int), new(int))

	*tb.Writer() = 7
	tb.CommitWriter()
	first, fresh := tb.TryAcquireDisplay()
	if !fresh || *first != 7 {
		t.Fatalf("first acquire: fresh=%v val=%d", fresh, *first)
	}

	// With no commit in between, repeated acquires must return the identical
	// slot and report nothing new. This is what prevents frame flicker.
	for i := 0; i < 5; i++ {
		got, fresh := tb.TryAcquireDisplay()
		if fresh {
			t.Fatalf("acquire %d reported a fresh batch with no commit", i)
		}
		if got != first {
			t.Fatalf("acquire %d changed display identity", i)
		}
	}
}

func TestUnacquiredCommitsCoalesce(t *testing.T) {
	tb := New(new(int), new(int), new(int))

	*tb.Writer() = 1
	tb.CommitWriter()
	*tb.Writer() = 2
	tb.CommitWriter()
	*tb.Writer() = 3
	tb.CommitWriter()

	got, fresh := tb.TryAcquireDisplay()
	if !fresh {
		t.Fatal("acquire should see the latest commit")
	}
	if *got != 3 {
		t.Fatalf("display = %d, want the most recent batch 3", *got)
	}
}

func TestSequentialFuzzPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tb := New(new(int), new(int), new(int))

	for i := 0; i < 10000; i++ {
		if rng.Intn(2) == 0 {
			tb.CommitWriter()
		} else {
			tb.TryAcquireDisplay()
		}
		assertPermutation(t, tb)
		if tb.Writer() == tb.Display() {
			t.Fatal("writer and display alias the same slot")
		}
	}
}

// batch is a slot type large enough that a torn hand-off would be visible:
// every element of a committed batch carries the same stamp.
type batch struct {
	vals [64]uint64
}

func (b *batch) fill(stamp uint64) {
	for i := range b.vals {
		b.vals[i] = stamp
	}
}

func (b *batch) torn() bool {
	for _, v := range b.vals {
		if v != b.vals[0] {
			return true
		}
	}
	return false
}

// TestNoPartialBatch runs writer and reader concurrently. The reader must
// never observe a batch whose elements disagree, and stamps must be adopted
// in non-decreasing order (committed batches may be skipped, never reordered).
func TestNoPartialBatch(t *testing.T) {
	tb := New(new(batch), new(batch), new(batch))

	const commits = 50000
	writerDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer close(writerDone)
		for stamp := uint64(1); stamp <= commits; stamp++ {
			tb.Writer().fill(stamp)
			tb.CommitWriter()
		}
	}()

	go func() {
		defer wg.Done()
		var last uint64
		for {
			got, fresh := tb.TryAcquireDisplay()
			if !fresh {
				select {
				case <-writerDone:
					// One final acquire in case the last commit landed after
					// the check above.
					if got, fresh := tb.TryAcquireDisplay(); fresh && got.torn() {
						t.Errorf("observed a torn batch: %v...", got.vals[:4])
					}
					return
				default:
					continue
				}
			}
			if got.torn() {
				t.Errorf("observed a torn batch: %v...", got.vals[:4])
				return
			}
			stamp := got.vals[0]
			if stamp < last {
				t.Errorf("batch order went backwards: %d after %d", stamp, last)
				return
			}
			last = stamp
		}
	}()

	wg.Wait()
}
