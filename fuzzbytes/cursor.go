// Package fuzzbytes turns an opaque fuzz input into typed values.
//
// Every read is bounds-checked. When the input runs out the caller gets a
// well-defined default and the cursor does not move, so decoding is total over
// all inputs including the empty one.
package fuzzbytes

import "errors"

// ErrStarved reports that the input ran out before anything meaningful could
// be decoded. Harnesses treat it as a normal, non-crashing outcome.
var ErrStarved = errors.New("fuzzbytes: input exhausted")

// Cursor is a read position over an immutable byte buffer.
// The offset never decreases and never passes len(data).
type Cursor struct {
	data []byte
	off  int
}

// NewCursor returns a cursor at the start of data. data is never modified.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the total length of the buffer.
func (c *Cursor) Len() int { return len(c.data) }

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.off }

// Exhausted reports whether every byte has been consumed.
func (c *Cursor) Exhausted() bool { return c.off >= len(c.data) }

// Byte reads one byte. It returns false without advancing when the buffer is
// exhausted.
func (c *Cursor) Byte() (byte, bool) {
	if c.off >= len(c.data) {
		return 0, false
	}
	b := c.data[c.off]
	c.off++
	return b, true
}

// ByteOr reads one byte or returns def.
func (c *Cursor) ByteOr(def byte) byte {
	if b, ok := c.Byte(); ok {
		return b
	}
	return def
}

// take returns the next n bytes and advances, or reports false and leaves the
// cursor untouched when fewer than n bytes remain.
func (c *Cursor) take(n int) ([]byte, bool) {
	if n < 0 || n > len(c.data)-c.off {
		return nil, false
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, true
}

// Bytes copies up to n bytes into a fresh slice of length n. Missing bytes are
// zero and the cursor advances by the number of bytes actually copied.
func (c *Cursor) Bytes(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, n)
	copied := copy(out, c.data[c.off:])
	c.off += copied
	return out
}

// Rest consumes and returns a copy of every remaining byte.
func (c *Cursor) Rest() []byte {
	return c.Bytes(c.Remaining())
}
