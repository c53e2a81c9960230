package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// packSeptets packs raw septet values, bypassing the alphabet.
func packSeptets(septets []uint8) []byte {
	out := make([]byte, OctetLen(len(septets)))
	for i, s := range septets {
		bit := i * 7
		out[bit/8] |= s << uint(bit%8)
		if bit%8 > 1 && bit/8+1 < len(out) {
			out[bit/8+1] |= s >> uint(8-bit%8)
		}
	}
	return out
}

func TestDecodeGSM7_Hello(t *testing.T) {
	ud := []byte{0xc8, 0x32, 0x9b, 0xfd, 0x06}
	assert.Equal(t, "Hello", DecodeGSM7(ud, 5, false))

	packed, n := PackGSM7("Hello")
	assert.Equal(t, ud, packed)
	assert.Equal(t, 5, n)
}

func TestDecodeGSM7_ExtensionTable(t *testing.T) {
	packed, n := PackGSM7("5€ [x]")
	assert.Equal(t, 9, n)
	assert.Equal(t, "5€ [x]", DecodeGSM7(packed, n, false))
}

func TestDecodeGSM7_TrailingEscapeIsSpace(t *testing.T) {
	ud := packSeptets([]uint8{0x41, gsm7Escape})
	assert.Equal(t, "A ", DecodeGSM7(ud, 2, false))
}

func TestDecodeGSM7_SkipsUserDataHeader(t *testing.T) {
	hdr := []byte{0x05, 0x00, 0x03, 0x2a, 0x02, 0x01}
	septets := make([]uint8, 0, 9)
	for i := 0; i < 7; i++ {
		septets = append(septets, unpackSeptet(hdr, i))
	}
	septets = append(septets, 0x48, 0x69)
	ud := packSeptets(septets)
	assert.Equal(t, hdr, ud[:len(hdr)])
	assert.Equal(t, "Hi", DecodeGSM7(ud, len(septets), true))
}

func TestDecodeGSM7_SanitizesColumns(t *testing.T) {
	packed, n := PackGSM7("a\"b\nc")
	assert.Equal(t, `a\"b c`, DecodeGSM7(packed, n, false))
}

func TestDecodeGSM7_RoundTrip(t *testing.T) {
	var alphabet []rune
	for i, r := range gsm7Default {
		if i != gsm7Escape {
			alphabet = append(alphabet, r)
		}
	}
	for _, r := range gsm7Extension {
		alphabet = append(alphabet, r)
	}
	rapid.Check(t, func(t *rapid.T) {
		s := string(rapid.SliceOf(rapid.SampledFrom(alphabet)).Draw(t, "text"))
		packed, n := PackGSM7(s)
		if got := DecodeGSM7(packed, n, false); got != Sanitize(s) {
			t.Fatalf("round trip of %q gave %q", s, got)
		}
	})
}

func TestDecodeUCS2(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte{0x00, 0x48, 0x00, 0x69}, "Hi"},
		{"bmp", []byte{0x00, 0xe9, 0x20, 0xac}, "é€"},
		{"surrogate pair", []byte{0xd8, 0x3d, 0xde, 0x00}, "😀"},
		{"lead at end", []byte{0x00, 0x41, 0xd8, 0x3d}, "A."},
		{"lead without trail", []byte{0xd8, 0x3d, 0x00, 0x41, 0x00, 0x42}, ".B"},
		{"lone trail", []byte{0xdc, 0x00, 0x00, 0x41}, ".A"},
		{"odd byte", []byte{0x00, 0x48, 0x00}, "H."},
		{"escaped quote", []byte{0x00, 0x22}, `\"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeUCS2(tt.in))
		})
	}
}
