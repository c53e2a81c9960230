// Package amr extracts AMR speech frames from traffic channel payloads and
// writes them to storage-format (RFC 4867 section 5) speech files.
package amr

// Magic starts every storage-format AMR file.
const Magic = "#!AMR\n"

// Layout is the bit layout of the two header octets of a frame.
type Layout uint8

const (
	// LayoutSplit has the CMR in the high nibble of the first octet and
	// the frame type split across both octets.
	LayoutSplit Layout = iota + 1
	// LayoutOctet has the CMR in the low nibble of the first octet and the
	// frame type inside the second.
	LayoutOctet
)

// SID is the AMR comfort noise frame type, the last one extracted.
const SID uint8 = 8

// minPayload is the shortest payload probed for a frame.
const minPayload = 7

// speechBytes is the speech data length of each frame type.
var speechBytes = [16]int{12, 13, 15, 17, 19, 20, 26, 31, 5}

// FrameLen returns the storage length of a frame of type ft, header
// included.
func FrameLen(ft uint8) int { return speechBytes[ft&0x0f] + 1 }

// Header is one interpretation of the frame header.
type Header struct {
	Layout Layout
	CMR    uint8
	F      uint8
	FT     uint8
	Q      uint8
	// TypeQ is the storage-format header octet: frame type and quality.
	TypeQ uint8
}

// Type is the frame type carried in the storage header.
func (h Header) Type() uint8 { return (h.TypeQ & 0x78) >> 3 }

// Good reports the quality bit of the storage header.
func (h Header) Good() bool { return h.TypeQ&0x04 != 0 }

func splitHeader(b0, b1 uint8) Header {
	return Header{
		Layout: LayoutSplit,
		CMR:    b0 >> 4,
		F:      (b0 & 0x08) >> 3,
		FT:     (b0&0x07)<<1 | b1>>7,
		Q:      (b1 & 0x40) >> 6,
		TypeQ:  (b0&0x0f)<<4 | (b1&0xc0)>>4,
	}
}

func octetHeader(b0, b1 uint8) Header {
	return Header{
		Layout: LayoutOctet,
		CMR:    b0 & 0x0f,
		F:      b1 >> 7,
		FT:     (b1 & 0x78) >> 3,
		Q:      (b1 & 0x04) >> 2,
		TypeQ:  b1 & 0xfc,
	}
}

// valid checks a header against a payload of n octets. One trailing
// padding octet is tolerated.
func (h Header) valid(n int) bool {
	if h.F != 0 || h.FT > SID {
		return false
	}
	if h.CMR != 0x0f && h.CMR >= SID {
		return false
	}
	want := FrameLen(h.FT)
	return n == want || n-1 == want
}

// Detect chooses the header layout of payload p. When both layouts are
// consistent, the split layout is kept only if its Q bit is set and the
// octet layout's is not.
func Detect(p []byte) (Header, bool) {
	if len(p) < minPayload {
		return Header{}, false
	}
	split, octet := splitHeader(p[0], p[1]), octetHeader(p[0], p[1])
	isSplit, isOctet := split.valid(len(p)), octet.valid(len(p))
	if isOctet {
		if isSplit && split.Q == 1 {
			isSplit, isOctet = octet.Q == 0, octet.Q == 1
		} else {
			isSplit = false
		}
	}
	switch {
	case isSplit:
		return split, true
	case isOctet:
		return octet, true
	}
	return Header{}, false
}

// StorageFrame realigns the speech bits of p behind the storage header.
// Bits past the end of p read as zero.
func StorageFrame(p []byte, h Header) []byte {
	n := FrameLen(h.Type())
	out := make([]byte, n)
	out[0] = h.TypeQ
	at := func(i int) uint8 {
		if i < len(p) {
			return p[i]
		}
		return 0
	}
	for i := 1; i < n; i++ {
		cur, next := at(i), at(i+1)
		if h.Layout == LayoutOctet {
			out[i] = (cur&0x03)<<6 | (next&0xfc)>>2
		} else {
			out[i] = (cur&0x3f)<<2 | (next&0xc0)>>6
		}
	}
	return out
}
