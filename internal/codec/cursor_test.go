package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCursor_ReadsBigEndian(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})

	b, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), b)

	w, err := c.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), w)

	d, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04050607), d)
	assert.Equal(t, 0, c.Left())
}

func TestCursor_ShortReadWrapsSentinel(t *testing.T) {
	c := NewCursor([]byte{0x01})
	_, err := c.ReadU16()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortBuffer))
	assert.Equal(t, 0, c.Tell(), "failed read must not move the cursor")

	assert.ErrorIs(t, c.Skip(2), ErrShortBuffer)
	assert.ErrorIs(t, c.Seek(5), ErrShortBuffer)
	assert.NoError(t, c.Seek(1))
}

func TestCursor_ConsumeTag(t *testing.T) {
	c := NewCursor([]byte{0x13, 0x02})
	assert.False(t, c.ConsumeTag(0x14))
	assert.True(t, c.NextIs(0x13))
	assert.True(t, c.ConsumeTag(0x13))
	assert.Equal(t, 1, c.Tell())

	b, ok := c.ConsumeTagMasked(0x00, 0xf0)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x02), b)
	assert.False(t, c.ConsumeTag(0x02), "exhausted cursor never matches")
}

func TestCursor_ReadLV(t *testing.T) {
	c := NewCursor([]byte{0x02, 0xaa, 0xbb, 0x05, 0x01})
	v, err := c.ReadLV()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, v)

	_, err = c.ReadLV()
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestCursor_PeekDoesNotConsume(t *testing.T) {
	c := NewCursor([]byte{0x10, 0x20})
	b, err := c.PeekU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x10), b)
	b, err = c.PeekAt(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x20), b)
	_, err = c.PeekAt(2)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Tell())
}

func TestCursor_SubBoundsTheNextLayer(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03, 0x2b})
	sub, err := c.Sub(2)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 1, c.Left())

	_, err = c.Sub(2)
	assert.True(t, errors.Is(err, ErrShortBuffer))
}

func TestCursor_NeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buf := rapid.SliceOf(rapid.Byte()).Draw(t, "buf")
		c := NewCursor(buf)
		ops := rapid.SliceOf(rapid.IntRange(0, 7)).Draw(t, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				_, _ = c.ReadU8()
			case 1:
				_, _ = c.ReadU16()
			case 2:
				_, _ = c.ReadU32()
			case 3:
				_ = c.Skip(rapid.IntRange(-2, 10).Draw(t, "n"))
			case 4:
				_, _ = c.ReadLV()
			case 5:
				_ = c.Seek(rapid.IntRange(-2, len(buf)+2).Draw(t, "off"))
			case 6:
				_, _ = c.PeekAt(rapid.IntRange(-1, 4).Draw(t, "at"))
			case 7:
				_, _ = c.ReadBytes(rapid.IntRange(-1, 8).Draw(t, "len"))
			}
			if c.Tell() < 0 || c.Tell() > c.Len() {
				t.Fatalf("cursor out of bounds: %d of %d", c.Tell(), c.Len())
			}
		}
	})
}
