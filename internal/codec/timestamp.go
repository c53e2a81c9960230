package codec

import "fmt"

// swapNibbles turns a semi-octet pair into the hex digits of its value,
// so 0x32 (digits 2 then 3) reads as 0x23.
func swapNibbles(b uint8) uint8 {
	return b<<4 | b>>4
}

// zoneQuarters decodes a semi-octet time zone into signed quarter hours.
// The tens digit is in bits 0-2, the sign in bit 3 and the units in the
// high nibble.
func zoneQuarters(tz uint8) int {
	q := int(tz&0x07)*10 + int(tz>>4)
	if tz&0x08 != 0 {
		return -q
	}
	return q
}

// ZoneName renders a Time Zone IE value as "GMT +h:m".
func ZoneName(tz uint8) string {
	q := zoneQuarters(tz)
	sign := '+'
	if q < 0 {
		sign, q = '-', -q
	}
	return fmt.Sprintf("GMT %c%d:%d", sign, q/4, (q%4)*15)
}

// ReadTimestamp decodes a 7-octet semi-octet time stamp, as used by the SMS
// service centre time stamp and the network time IE, into
// "YY/MM/DD hh:mm:ss UTC+hh". With fewer than 7 octets left it returns ""
// and consumes nothing.
func ReadTimestamp(c *Cursor) string {
	if c.Left() < 7 {
		return ""
	}
	ts, _ := c.ReadBytes(7)
	q := zoneQuarters(ts[6])
	sign := '+'
	if q < 0 {
		sign, q = '-', -q
	}
	s := fmt.Sprintf("%02X/%02X/%02X %02X:%02X:%02X UTC%c%02d",
		swapNibbles(ts[0]), swapNibbles(ts[1]), swapNibbles(ts[2]),
		swapNibbles(ts[3]), swapNibbles(ts[4]), swapNibbles(ts[5]),
		sign, q/4)
	if m := (q % 4) * 15; m != 0 {
		s += fmt.Sprintf(":%02d", m)
	}
	return s
}
