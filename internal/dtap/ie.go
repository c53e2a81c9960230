package dtap

import (
	"gsm-decoder/internal/codec"
)

// ieFormat is the encoding of an optional information element.
type ieFormat uint8

const (
	formatTLV  ieFormat = iota // tag, length, value
	formatTV                   // tag and a fixed-length value
	formatHalf                 // value in the low nibble of the tag octet
)

// readFunc decodes the value of an IE. The cursor is positioned right after
// the tag, so a TLV reader consumes the length octet itself.
type readFunc func(m *msg, c *codec.Cursor) error

// ie describes one optional or conditional IE of a message.
type ie struct {
	iei    uint8
	mask   uint8
	format ieFormat
	size   int // value octets of a formatTV IE
	name   string
	read   readFunc // nil skips the value
}

func tlv(iei uint8, name string) ie {
	return ie{iei: iei, mask: 0xff, format: formatTLV, name: name}
}

func tv(iei uint8, size int, name string) ie {
	return ie{iei: iei, mask: 0xff, format: formatTV, size: size, name: name}
}

func half(iei uint8, name string) ie {
	return ie{iei: iei, mask: 0xf0, format: formatHalf, name: name}
}

// with attaches a value reader to an IE.
func (e ie) with(fn readFunc) ie {
	e.read = fn
	return e
}

func (e ie) skip(c *codec.Cursor) error {
	switch e.format {
	case formatTLV:
		return c.SkipLV()
	case formatTV:
		return c.Skip(e.size)
	}
	return nil
}

// optional walks the optional IEs of a message in their specified order.
// An IE is consumed only when the next tag matches it; otherwise it is
// passed over and the next one is tried. The walk ends with the message.
func (m *msg) optional(c *codec.Cursor, ies []ie) error {
	for _, e := range ies {
		b, err := c.PeekU8()
		if err != nil {
			return nil
		}
		if b&e.mask != e.iei {
			continue
		}
		_ = c.Skip(1)
		m.log.Debugf("IE 0x%02x %s", b, e.name)
		if e.read == nil {
			err = e.skip(c)
		} else {
			err = e.read(m, c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
