package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// DigitSet maps a 4-bit nibble to its printable digit.
type DigitSet [16]byte

var (
	// DigitsBCD is plain BCD. Values above 9 are not digits.
	DigitsBCD = DigitSet{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '?', '?', '?', '?', '?', '?'}
	// DigitsTBCD is telephony BCD (3GPP TS 29.002).
	DigitsTBCD = DigitSet{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '?', 'B', 'C', '*', '#', '?'}
	// DigitsKeypad is the dialling keypad set used in called/calling party numbers.
	DigitsKeypad = DigitSet{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '*', '#', 'a', 'b', 'c', '?'}
)

// Digit returns the printable digit for the low nibble of n.
func (d *DigitSet) Digit(n uint8) byte {
	return d[n&0x0f]
}

// Nibbles decodes nibble-swapped digits: low nibble first, then high nibble.
// A 0xF high nibble in the last octet is a filler and is dropped.
func (d *DigitSet) Nibbles(octets []byte) string {
	var sb strings.Builder
	for i, o := range octets {
		sb.WriteByte(d.Digit(o))
		if i < len(octets)-1 || o&0xf0 != 0xf0 {
			sb.WriteByte(d.Digit(o >> 4))
		}
	}
	return sb.String()
}

// tbcdHex renders a nibble as a TBCD digit, or 'A'..'F' for values above 9.
func tbcdHex(n uint8) byte {
	n &= 0x0f
	if n <= 9 {
		return DigitsTBCD.Digit(n)
	}
	return n + 55
}

// PLMN decodes the 3-octet MCC/MNC encoding of a PLMN identity.
// A filler 'F' in the third (or second) MNC digit shortens the MNC.
func PLMN(octs []byte) (mcc, mnc string) {
	if len(octs) < 3 {
		return "", ""
	}
	m := []byte{tbcdHex(octs[0]), tbcdHex(octs[0] >> 4), tbcdHex(octs[1])}
	n := []byte{tbcdHex(octs[2]), tbcdHex(octs[2] >> 4), tbcdHex(octs[1] >> 4)}
	switch {
	case n[1] == 'F':
		n = n[:1]
	case n[2] == 'F':
		n = n[:2]
	}
	return string(m), string(n)
}

// LAI is a Location Area Identification.
type LAI struct {
	MCC   string
	MNC   string
	LAC   uint16
	Valid bool
}

// ReadLAI reads the 5-octet LAI value (PLMN + LAC).
func ReadLAI(c *Cursor) (LAI, error) {
	octs, err := c.ReadBytes(3)
	if err != nil {
		return LAI{}, err
	}
	lac, err := c.ReadU16()
	if err != nil {
		return LAI{}, err
	}
	mcc, mnc := PLMN(octs)
	return LAI{MCC: mcc, MNC: mnc, LAC: lac, Valid: true}, nil
}

// LACString renders the location area code the way every output column does.
func (l LAI) LACString() string {
	return fmt.Sprintf("0x%04X", l.LAC)
}

// IdentityType is the type of identity field of a Mobile Identity IE.
type IdentityType uint8

const (
	IdentityNone IdentityType = iota
	IdentityIMSI
	IdentityIMEI
	IdentityIMEISV
	IdentityTMSI
)

var identityNames = [8]string{"No Identity", "IMSI", "IMEI", "IMEISV", "TMSI", "ID(5)", "ID(6)", "ID(7)"}

func (t IdentityType) String() string {
	return identityNames[t&0x07]
}

// MobileIdentity is a decoded IMSI, IMEI, IMEISV or TMSI.
type MobileIdentity struct {
	Type   IdentityType
	Digits string
	TMSI   uint32
}

// Present reports whether the identity carries a value worth recording.
func (m *MobileIdentity) Present() bool {
	return m.Type >= IdentityIMSI && m.Type <= IdentityTMSI
}

// Value renders the identity. TMSIs are rendered in hex when hexTMSI is set.
func (m *MobileIdentity) Value(hexTMSI bool) string {
	switch m.Type {
	case IdentityIMSI, IdentityIMEI, IdentityIMEISV:
		return m.Digits
	case IdentityTMSI:
		if hexTMSI {
			return fmt.Sprintf("0x%04X", m.TMSI)
		}
		return strconv.FormatUint(uint64(m.TMSI), 10)
	}
	return ""
}

// TAC returns the IMEI type allocation code, or 0 when not an IMEI.
func (m *MobileIdentity) TAC() uint32 {
	if (m.Type != IdentityIMEI && m.Type != IdentityIMEISV) || len(m.Digits) < 8 {
		return 0
	}
	v, err := strconv.ParseUint(m.Digits[:8], 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

// HomePLMN splits an IMSI into its 3-digit MCC and 2-digit MNC.
func (m *MobileIdentity) HomePLMN() (mcc, mnc string, ok bool) {
	if m.Type != IdentityIMSI || len(m.Digits) < 5 {
		return "", "", false
	}
	return m.Digits[:3], m.Digits[3:5], true
}

// ReadMobileIdentity reads a length-prefixed Mobile Identity value.
// A zero length yields an IdentityNone value.
func ReadMobileIdentity(c *Cursor) (MobileIdentity, error) {
	n, err := c.ReadU8()
	if err != nil || n == 0 {
		return MobileIdentity{}, err
	}
	return ReadMobileIdentityValue(c, int(n))
}

// ReadMobileIdentityValue reads a Mobile Identity value of n octets.
func ReadMobileIdentityValue(c *Cursor, n int) (MobileIdentity, error) {
	flags, err := c.PeekU8()
	if err != nil {
		return MobileIdentity{}, err
	}
	id := MobileIdentity{Type: IdentityType(flags & 0x07)}
	switch id.Type {
	case IdentityIMSI, IdentityIMEI, IdentityIMEISV:
		octs, err := c.ReadBytes(n)
		if err != nil {
			return id, err
		}
		var sb strings.Builder
		for i, o := range octs {
			// the low nibble of the first octet holds the type
			if i > 0 {
				sb.WriteByte(DigitsBCD.Digit(o))
			}
			if i == len(octs)-1 && o>>4 == 0x0f {
				break
			}
			sb.WriteByte(DigitsBCD.Digit(o >> 4))
		}
		id.Digits = sb.String()
	case IdentityTMSI:
		if err := c.Skip(1); err != nil {
			return id, err
		}
		if id.TMSI, err = c.ReadU32(); err != nil {
			return id, err
		}
		if n > 5 {
			err = c.Skip(n - 5)
		}
		return id, err
	default:
		return id, c.Skip(n)
	}
	return id, nil
}

// CountryResolver infers a country from E.164 digits.
type CountryResolver interface {
	// Country returns the country of the first n digits, or the longest
	// matching prefix of up to 3 digits when n is 0.
	Country(digits string, n int) string
	// CountryCode returns the calling code of a country, or 0.
	CountryCode(country string) int
}

// Number types of a called/calling party BCD number.
const (
	NumberUnknown       uint8 = 0
	NumberInternational uint8 = 1
	NumberNational      uint8 = 2
	NumberAlphanumeric  uint8 = 5
)

// MobileNumber is a decoded BCD (or alphanumeric) address.
type MobileNumber struct {
	Number  string
	Country string
	Type    uint8
	Plan    uint8
}

// ReadMobileNumber reads a length-prefixed BCD number.
func ReadMobileNumber(c *Cursor, cr CountryResolver) (MobileNumber, error) {
	n, err := c.ReadU8()
	if err != nil {
		return MobileNumber{}, err
	}
	return ReadMobileNumberN(c, int(n), cr)
}

// ReadMobileNumberN reads a BCD number whose value is n octets long.
// International numbers longer than 4 octets get a leading '+', a "00"
// international prefix is folded into it and the country is inferred.
func ReadMobileNumberN(c *Cursor, n int, cr CountryResolver) (MobileNumber, error) {
	var num MobileNumber
	if n == 0 {
		return num, nil
	}
	b, err := c.ReadU8()
	if err != nil {
		return num, err
	}
	n--
	num.Type = (b & 0x70) >> 4
	num.Plan = b & 0x0f
	if b&0x80 == 0 {
		// octet 3a: presentation and screening indicators
		if err := c.Skip(1); err != nil {
			return num, err
		}
		if n == 0 {
			return num, nil
		}
		n--
	}
	octs, err := c.ReadBytes(n)
	if err != nil {
		return num, err
	}
	if num.Type == NumberAlphanumeric {
		num.Number = DecodeGSM7(octs, n*8/7, false)
		return num, nil
	}
	intl := num.Type == NumberInternational && n > 4
	digits := DigitsKeypad.Nibbles(octs)
	if !intl {
		num.Number = digits
		return num, nil
	}
	num.Number = "+" + strings.TrimPrefix(digits, "00")
	if cr != nil {
		num.Country = cr.Country(num.Number[1:], 0)
	}
	return num, nil
}

// NormalizeE164 rewrites a national or unknown-type ISDN number in a using
// the country already inferred for b (usually the other party of the same
// message). Numbers that already have a country are left untouched.
func NormalizeE164(a *MobileNumber, b *MobileNumber, cr CountryResolver) {
	if a.Number == "" || a.Country != "" || a.Plan != 1 || len(a.Number) < 4 {
		return
	}
	num := a.Number
	national := a.Type == NumberNational || (a.Type == NumberUnknown && num[0] == '0' && num[1] != '0')
	switch {
	case national && b != nil && b.Country != "":
		a.Country = b.Country
		if cr == nil {
			return
		}
		if cc := cr.CountryCode(a.Country); cc > 0 {
			a.Number = "+" + strconv.Itoa(cc) + strings.TrimPrefix(num, "0")
		}
	case national:
		if num[0] != '0' {
			a.Number = "0" + num
		}
	case a.Type == NumberUnknown && strings.HasPrefix(num, "00"):
		a.Number = "+" + num[2:]
		if cr != nil {
			a.Country = cr.Country(num[2:], 0)
		}
	}
}
