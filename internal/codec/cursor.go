// Package codec provides the byte cursor and the primitive field decoders
// shared by every GSM layer: digit codecs, text alphabets, radio math and
// descriptive name tables.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is wrapped by every cursor error caused by a read past the
// end of the payload.
var ErrShortBuffer = errors.New("short buffer")

// Cursor is a seekable, length-bounded reader over one packet payload.
// All multi-byte reads are big-endian.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the first byte of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the total payload length.
func (c *Cursor) Len() int { return len(c.buf) }

// Tell returns the current read offset.
func (c *Cursor) Tell() int { return c.pos }

// Left returns the number of unread bytes.
func (c *Cursor) Left() int { return len(c.buf) - c.pos }

func (c *Cursor) short(op string, n int) error {
	return fmt.Errorf("%s %d bytes at offset %d of %d: %w", op, n, c.pos, len(c.buf), ErrShortBuffer)
}

// Seek moves to an absolute offset. Seeking to Len() is allowed.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return fmt.Errorf("seek to %d of %d: %w", off, len(c.buf), ErrShortBuffer)
	}
	c.pos = off
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 || n > c.Left() {
		return c.short("skip", n)
	}
	c.pos += n
	return nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if c.Left() < 1 {
		return 0, c.short("read", 1)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadU16 reads a big-endian 16-bit value.
func (c *Cursor) ReadU16() (uint16, error) {
	if c.Left() < 2 {
		return 0, c.short("read", 2)
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian 32-bit value.
func (c *Cursor) ReadU32() (uint32, error) {
	if c.Left() < 4 {
		return 0, c.short("read", 4)
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadBytes returns the next n bytes. The slice aliases the payload.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Left() {
		return nil, c.short("read", n)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// PeekU8 returns the next byte without consuming it.
func (c *Cursor) PeekU8() (uint8, error) {
	if c.Left() < 1 {
		return 0, c.short("peek", 1)
	}
	return c.buf[c.pos], nil
}

// PeekAt returns the byte at offset off relative to the current position.
func (c *Cursor) PeekAt(off int) (uint8, error) {
	if off < 0 || off >= c.Left() {
		return 0, fmt.Errorf("peek at +%d from offset %d of %d: %w", off, c.pos, len(c.buf), ErrShortBuffer)
	}
	return c.buf[c.pos+off], nil
}

// Remaining returns the unread bytes without consuming them.
func (c *Cursor) Remaining() []byte {
	return c.buf[c.pos:]
}

// Bytes returns the whole payload.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// ConsumeTag consumes the next byte if it equals tag. It reports whether
// the tag was present. An exhausted cursor reports false.
func (c *Cursor) ConsumeTag(tag uint8) bool {
	if c.Left() < 1 || c.buf[c.pos] != tag {
		return false
	}
	c.pos++
	return true
}

// ConsumeTagMasked is ConsumeTag for half-octet IEIs: the next byte matches
// when b&mask == tag.
func (c *Cursor) ConsumeTagMasked(tag, mask uint8) (uint8, bool) {
	if c.Left() < 1 || c.buf[c.pos]&mask != tag {
		return 0, false
	}
	b := c.buf[c.pos]
	c.pos++
	return b, true
}

// NextIs reports whether the next byte equals tag without consuming it.
func (c *Cursor) NextIs(tag uint8) bool {
	return c.Left() > 0 && c.buf[c.pos] == tag
}

// ReadLV reads a one-byte length followed by that many bytes.
func (c *Cursor) ReadLV() ([]byte, error) {
	n, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	return c.ReadBytes(int(n))
}

// SkipLV skips a one-byte length and its value.
func (c *Cursor) SkipLV() error {
	_, err := c.ReadLV()
	return err
}

// Sub returns a cursor over the next n bytes and advances past them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return NewCursor(b), nil
}
