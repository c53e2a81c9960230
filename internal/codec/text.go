package codec

import (
	"bytes"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

// gsm7Default is the GSM 03.38 default alphabet.
var gsm7Default = [128]rune{
	'@', '£', '$', '¥', 'è', 'é', 'ù', 'ì', 'ò', 'Ç', '\n', 'Ø', 'ø', '\r', 'Å', 'å',
	'Δ', '_', 'Φ', 'Γ', 'Λ', 'Ω', 'Π', 'Ψ', 'Σ', 'Θ', 'Ξ', ' ', 'Æ', 'æ', 'ß', 'É',
	' ', '!', '"', '#', '¤', '%', '&', '\'', '(', ')', '*', '+', ',', '-', '.', '/',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', ':', ';', '<', '=', '>', '?',
	'¡', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O',
	'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', 'Ä', 'Ö', 'Ñ', 'Ü', '§',
	'¿', 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o',
	'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z', 'ä', 'ö', 'ñ', 'ü', 'à',
}

// gsm7Extension is the extension table reached through the 0x1B escape.
var gsm7Extension = map[uint8]rune{
	0x0a: '\f',
	0x14: '^',
	0x28: '{',
	0x29: '}',
	0x2f: '\\',
	0x3c: '[',
	0x3d: '~',
	0x3e: ']',
	0x40: '|',
	0x65: '€',
}

const gsm7Escape = 0x1b

// OctetLen returns the number of octets holding n packed septets.
func OctetLen(septets int) int {
	return (septets*7 + 7) / 8
}

// unpackSeptet extracts septet i of a packed buffer. Reads past the end of
// ud yield zero bits.
func unpackSeptet(ud []byte, i int) uint8 {
	maxlen := len(ud)
	l := (i*7 + 7) >> 3
	r := (i * 7) >> 3
	var lu, ru uint8
	if l < maxlen {
		lu = ud[l] << (7 - uint((i*7+7)&7))
	}
	if r < maxlen {
		ru = ud[r] >> uint((i*7)&7)
	}
	return (lu | ru) & 0x7f
}

// DecodeGSM7 unpacks septets packed septets from ud and maps them through the
// default alphabet. When hasHeader is set, ud starts with a user data header
// whose length octet is ud[0]; the septets covering it are skipped.
func DecodeGSM7(ud []byte, septets int, hasHeader bool) string {
	if len(ud) > OctetLen(septets) {
		ud = ud[:OctetLen(septets)]
	}
	shift := 0
	if hasHeader && len(ud) > 0 {
		shift = ((int(ud[0])+1)*8 + 6) / 7
		septets -= shift
	}
	var sb strings.Builder
	ext := false
	for i := 0; i < septets; i++ {
		c7 := unpackSeptet(ud, i+shift)
		switch {
		case ext:
			ext = false
			r, ok := gsm7Extension[c7]
			if !ok {
				r = gsm7Default[c7]
			}
			writeSanitized(&sb, r)
		case c7 == gsm7Escape && i+1 < septets:
			ext = true
		default:
			writeSanitized(&sb, gsm7Default[c7])
		}
	}
	return sb.String()
}

// PackGSM7 packs text into septets using the default alphabet and its
// extension table. Characters outside the alphabet become '?'. It returns
// the packed octets and the septet count.
func PackGSM7(text string) ([]byte, int) {
	var septets []uint8
	for _, r := range text {
		if s, ok := gsm7Reverse[r]; ok {
			septets = append(septets, s)
			continue
		}
		if s, ok := gsm7ExtReverse[r]; ok {
			septets = append(septets, gsm7Escape, s)
			continue
		}
		septets = append(septets, 0x3f)
	}
	out := make([]byte, OctetLen(len(septets)))
	for i, s := range septets {
		bit := i * 7
		out[bit/8] |= s << uint(bit%8)
		if bit%8 > 1 && bit/8+1 < len(out) {
			out[bit/8+1] |= s >> uint(8-bit%8)
		}
	}
	return out, len(septets)
}

var gsm7Reverse, gsm7ExtReverse = func() (map[rune]uint8, map[rune]uint8) {
	d := make(map[rune]uint8, len(gsm7Default))
	for i := len(gsm7Default) - 1; i >= 0; i-- {
		if i == gsm7Escape {
			continue
		}
		d[gsm7Default[i]] = uint8(i)
	}
	e := make(map[rune]uint8, len(gsm7Extension))
	for k, v := range gsm7Extension {
		e[v] = k
	}
	return d, e
}()

var ucs2Decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// DecodeUCS2 converts big-endian UCS-2/UTF-16 text to UTF-8. Surrogate
// pairs are combined into one code point; a lone surrogate, a lead
// surrogate followed by anything but a trail, and a dangling odd byte each
// render as '.'.
func DecodeUCS2(b []byte) string {
	var sb strings.Builder
	var run bytes.Buffer
	flush := func() {
		if run.Len() == 0 {
			return
		}
		out, err := ucs2Decoder.NewDecoder().Bytes(run.Bytes())
		run.Reset()
		if err != nil {
			sb.WriteByte('.')
			return
		}
		for _, r := range string(out) {
			writeSanitized(&sb, r)
		}
	}
	i := 0
	for ; i+1 < len(b); i += 2 {
		u := uint16(b[i])<<8 | uint16(b[i+1])
		switch {
		case u >= 0xd800 && u < 0xdc00:
			i += 2
			if i+1 >= len(b) {
				flush()
				sb.WriteByte('.')
				return sb.String()
			}
			t := uint16(b[i])<<8 | uint16(b[i+1])
			if utf16.DecodeRune(rune(u), rune(t)) == 0xfffd {
				flush()
				sb.WriteByte('.')
				continue
			}
			run.Write(b[i-2 : i+2])
		case u >= 0xdc00 && u < 0xe000:
			flush()
			sb.WriteByte('.')
		default:
			run.Write(b[i : i+2])
		}
	}
	flush()
	if i < len(b) {
		sb.WriteByte('.')
	}
	return sb.String()
}

// writeSanitized writes r so that it can live in a delimited text column:
// tab, newline and carriage return become spaces, and double quotes and
// backslashes are escaped.
func writeSanitized(sb *strings.Builder, r rune) {
	switch r {
	case '\t', '\n', '\r':
		sb.WriteByte(' ')
	case '"':
		sb.WriteString(`\"`)
	case '\\':
		sb.WriteString(`\\`)
	default:
		sb.WriteRune(r)
	}
}

// Sanitize applies the column escaping of the text decoders to s.
func Sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		writeSanitized(&sb, r)
	}
	return sb.String()
}
