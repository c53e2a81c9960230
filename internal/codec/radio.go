package codec

import "fmt"

// ARFCN flag bits carried in the upper nibble of a 16-bit ARFCN.
const (
	ARFCNFlagPCS    uint16 = 0x8000
	ARFCNFlagUplink uint16 = 0x4000
	ARFCNFlagMask   uint16 = 0xf000
)

// Band is a GSM frequency band.
type Band uint8

const (
	BandInvalid Band = iota
	Band450
	Band480
	Band750
	Band810
	Band850
	Band900
	Band1800
	Band1900
)

var bandNames = map[Band]string{
	Band450:  "GSM450",
	Band480:  "GSM480",
	Band750:  "GSM750",
	Band810:  "GSM810",
	Band850:  "GSM850",
	Band900:  "GSM900",
	Band1800: "DCS1800",
	Band1900: "PCS1900",
}

func (b Band) String() string {
	if s, ok := bandNames[b]; ok {
		return s
	}
	return "invalid"
}

// ARFCNBand returns the band of an ARFCN, honouring the PCS flag.
func ARFCNBand(arfcn uint16) Band {
	if arfcn&ARFCNFlagPCS != 0 {
		return Band1900
	}
	arfcn &^= ARFCNFlagMask
	switch {
	case arfcn <= 124, arfcn >= 955 && arfcn <= 1023:
		return Band900
	case arfcn >= 128 && arfcn <= 251:
		return Band850
	case arfcn >= 512 && arfcn <= 885:
		return Band1800
	case arfcn >= 259 && arfcn <= 293:
		return Band450
	case arfcn >= 306 && arfcn <= 340:
		return Band480
	case arfcn >= 350 && arfcn <= 425:
		return Band810
	case arfcn >= 438 && arfcn <= 511:
		return Band750
	}
	return BandInvalid
}

type freqRange struct {
	first, last uint16
	ulFirst     uint16 // 100 kHz units
	dlOffset    uint16 // 100 kHz units
	flags       uint16
}

var freqRanges = []freqRange{
	{512, 810, 18502, 800, ARFCNFlagPCS},
	{0, 124, 8900, 450, 0},
	{955, 1023, 8762, 450, 0},
	{128, 251, 8242, 450, 0},
	{512, 885, 17102, 950, 0},
	{259, 293, 4506, 100, 0},
	{306, 340, 4790, 100, 0},
	{350, 425, 8060, 450, 0},
	{438, 511, 7472, 300, 0},
}

// FreqUnknown is returned by ARFCNFreq10 for an ARFCN outside every band.
const FreqUnknown uint16 = 0xffff

// ARFCNFreq10 returns the carrier frequency of an ARFCN in units of 100 kHz.
func ARFCNFreq10(arfcn uint16, uplink bool) uint16 {
	flags := arfcn & ARFCNFlagMask
	arfcn &^= ARFCNFlagMask
	for _, r := range freqRanges {
		if flags != r.flags || arfcn < r.first || arfcn > r.last {
			continue
		}
		ul := r.ulFirst + 2*(arfcn-r.first)
		if uplink {
			return ul
		}
		return ul + r.dlOffset
	}
	return FreqUnknown
}

// FormatFreq10 renders a frequency in 100 kHz units as MHz with one decimal.
func FormatFreq10(f uint16) string {
	return fmt.Sprintf("%d.%1d", f/10, f%10)
}

// Carrier is the radio information derived from a single-RF ARFCN.
type Carrier struct {
	ARFCN    uint16
	Band     Band
	UpFreq   uint16
	DownFreq uint16
}

// NewCarrier computes band and frequencies of an ARFCN.
func NewCarrier(arfcn uint16) Carrier {
	return Carrier{
		ARFCN:    arfcn,
		Band:     ARFCNBand(arfcn),
		UpFreq:   ARFCNFreq10(arfcn, true),
		DownFreq: ARFCNFreq10(arfcn, false),
	}
}

// BTSDistance converts a 6-bit timing advance to an approximate distance
// from the base station in meters.
func BTSDistance(ta uint8) uint16 {
	ta &= 0x3f
	if ta == 0 {
		return 300
	}
	return uint16((300 + int(ta)*550) / 2)
}

// ReadTimingAdvance reads a timing advance octet and its derived distance.
func ReadTimingAdvance(c *Cursor) (ta uint8, dist uint16, err error) {
	b, err := c.ReadU8()
	if err != nil {
		return 0, 0, err
	}
	ta = b & 0x3f
	return ta, BTSDistance(ta), nil
}

// FrameNumber is a compressed TDMA frame number triple with its expansion.
type FrameNumber struct {
	T1 uint8
	T2 uint8
	T3 uint8
	FN uint32
}

// ReducedFrameNumber expands (T1', T2, T3) to an absolute frame number.
func ReducedFrameNumber(t1, t2, t3 uint8) uint32 {
	t := (int(t3) - int(t2)) % 26
	if t < 0 {
		t += 26
	}
	return uint32(51*t + int(t3) + 51*26*int(t1))
}

// ReadFrameNumber decodes the 2-octet starting time / frame number field.
func ReadFrameNumber(c *Cursor) (FrameNumber, error) {
	o1, err := c.ReadU8()
	if err != nil {
		return FrameNumber{}, err
	}
	o2, err := c.ReadU8()
	if err != nil {
		return FrameNumber{}, err
	}
	return frameNumber(o1, o2), nil
}

func frameNumber(o1, o2 uint8) FrameNumber {
	fn := FrameNumber{
		T1: o1 >> 3,
		T3: (o1&0x07)<<3 | o2>>5,
		T2: o2 & 0x1f,
	}
	fn.FN = ReducedFrameNumber(fn.T1, fn.T2, fn.T3)
	return fn
}

// RequestReference is the random access reference of an immediate assignment.
type RequestReference struct {
	RA uint8
	FrameNumber
}

// ReadRequestReference decodes the 3-octet Request Reference field.
func ReadRequestReference(c *Cursor) (RequestReference, error) {
	ra, err := c.ReadU8()
	if err != nil {
		return RequestReference{}, err
	}
	fn, err := ReadFrameNumber(c)
	if err != nil {
		return RequestReference{}, err
	}
	return RequestReference{RA: ra, FrameNumber: fn}, nil
}
