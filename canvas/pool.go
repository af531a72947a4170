// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: canvas/pool.go
// Summary: Fixed-size byte arena backing text command payloads.

package canvas

// TextPool is a bump arena with a single write cursor. It is allocated once at
// buffer construction and never grows; an allocation that does not fit is
// refused outright so a command can be dropped whole instead of truncated into
// a neighbouring range.
type TextPool struct {
	buf []byte
	cur uint32
}

func newTextPool(capacity int) TextPool {
	return TextPool{buf: make([]byte, capacity)}
}

// Alloc copies b into the pool and returns its range. The second return is
// false when the pool cannot hold b; the pool is left untouched in that case.
func (p *TextPool) Alloc(b []byte) (TextRef, bool) {
	if uint32(len(b)) > uint32(len(p.buf))-p.cur {
		return TextRef{}, false
	}
	ref := TextRef{Off: p.cur, Len: uint32(len(b))}
	copy(p.buf[p.cur:], b)
	p.cur += uint32(len(b))
	return ref, true
}

// Bytes resolves a range to a borrowed slice. The slice is valid until the
// next Reset of this pool.
func (p *TextPool) Bytes(ref TextRef) []byte {
	return p.buf[ref.Off : ref.Off+ref.Len]
}

// Reset rewinds the cursor. Previously handed out ranges become invalid.
func (p *TextPool) Reset() {
	p.cur = 0
}

// Remaining reports how many bytes the pool can still accept.
func (p *TextPool) Remaining() int {
	return len(p.buf) - int(p.cur)
}
