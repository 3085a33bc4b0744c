// Package primitives collects the low-level byte-cursor, variable-length
// quantity, endian, string-trim, and tempo arithmetic shared by every
// decoder in this module. None of it is format-specific.
package primitives

import "errors"

// ErrExhausted is returned by the checked Cursor operations when fewer
// bytes remain than requested.
var ErrExhausted = errors.New("primitives: cursor exhausted")

// Cursor walks a byte slice with bounds-checked peek/take, replacing the
// hand-rolled pointer arithmetic each decoder would otherwise repeat.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor wraps data for cursor-style reading starting at offset 0.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// SeekTo repositions the cursor at an absolute offset. Out-of-range offsets
// clamp to [0, len(data)].
func (c *Cursor) SeekTo(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(c.data) {
		pos = len(c.data)
	}
	c.pos = pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Len returns the total length of the wrapped buffer.
func (c *Cursor) Len() int { return len(c.data) }

// AtEnd reports whether the cursor has consumed the whole buffer.
func (c *Cursor) AtEnd() bool { return c.pos >= len(c.data) }

// PeekByte returns the next byte without consuming it. ok is false at end
// of buffer.
func (c *Cursor) PeekByte() (b byte, ok bool) {
	if c.pos >= len(c.data) {
		return 0, false
	}
	return c.data[c.pos], true
}

// TakeByte consumes and returns the next byte.
func (c *Cursor) TakeByte() (b byte, ok bool) {
	if c.pos >= len(c.data) {
		return 0, false
	}
	b = c.data[c.pos]
	c.pos++
	return b, true
}

// Take consumes and returns the next n bytes. ok is false, and the cursor
// is left unmoved, if fewer than n bytes remain.
func (c *Cursor) Take(n int) (b []byte, ok bool) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, false
	}
	b = c.data[c.pos : c.pos+n]
	c.pos += n
	return b, true
}

// TakeStrict is Take but returns ErrExhausted instead of ok=false, for
// call sites that want the error propagated rather than branched on.
func (c *Cursor) TakeStrict(n int) ([]byte, error) {
	b, ok := c.Take(n)
	if !ok {
		return nil, ErrExhausted
	}
	return b, nil
}

// Skip advances the cursor by n bytes, clamped to the buffer length.
func (c *Cursor) Skip(n int) {
	c.pos += n
	if c.pos > len(c.data) {
		c.pos = len(c.data)
	}
	if c.pos < 0 {
		c.pos = 0
	}
}

// Rest returns every unread byte without consuming it.
func (c *Cursor) Rest() []byte {
	return c.data[c.pos:]
}
