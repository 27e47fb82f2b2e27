/*
Package cursor implements a sequential reader over an immutable byte buffer.

A Cursor tracks its position explicitly and never discards the underlying
buffer, so callers can always report the absolute offset of a failure. Fixed
width integers and floats are read using the byte order the Cursor was
created with.
*/
package cursor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ShortError is returned when fewer bytes remain than a read requires.
type ShortError struct {
	Offset int
	Want   int
	Have   int
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("cursor: need %d bytes at offset %#x, have %d", e.Want, e.Offset, e.Have)
}

// Is reports a ShortError as io.ErrUnexpectedEOF.
func (e *ShortError) Is(target error) bool {
	return target == io.ErrUnexpectedEOF
}

// Cursor reads sequentially from a byte slice.
type Cursor struct {
	b     []byte
	off   int
	base  int
	order binary.ByteOrder
}

// New returns a Cursor positioned at the start of b.
func New(b []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{b: b, order: order}
}

// NewAt returns a Cursor over b that reports offsets as if b started at
// position base of some enclosing buffer.
func NewAt(b []byte, base int, order binary.ByteOrder) *Cursor {
	return &Cursor{b: b, base: base, order: order}
}

// Order returns the byte order used for numeric reads.
func (c *Cursor) Order() binary.ByteOrder { return c.order }

// Offset returns the absolute position of the next read. For a cursor
// created by Sub this includes the parent's position.
func (c *Cursor) Offset() int { return c.base + c.off }

// Len returns the number of unread bytes.
func (c *Cursor) Len() int { return len(c.b) - c.off }

// Bytes returns the whole underlying buffer, read and unread.
func (c *Cursor) Bytes() []byte { return c.b }

// Next returns the next n bytes and advances past them. The returned slice
// aliases the underlying buffer and must not be modified.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > c.Len() {
		return nil, &ShortError{Offset: c.Offset(), Want: n, Have: c.Len()}
	}
	b := c.b[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// Sub returns a cursor over the next n bytes and advances past them. Offsets
// reported by the returned cursor stay absolute.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	base := c.Offset()
	b, err := c.Next(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{b: b, base: base, order: c.order}, nil
}

// Uint8 reads a single byte.
func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint32 reads an unsigned 32-bit integer.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Next(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// Int32 reads a signed 32-bit integer.
func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

// Float32 reads an IEEE-754 single precision float.
func (c *Cursor) Float32() (float32, error) {
	v, err := c.Uint32()
	return math.Float32frombits(v), err
}
