package codec

import (
	"fmt"
	"strings"
)

// Channel is an Abis channel number (GSM 08.58 9.3.1).
type Channel struct {
	TN         uint8
	CBits      uint8
	Type       uint8 // 8: SDCCH/8, 4: SDCCH/4, 2: Lm, 1: Bm, else the C-bits
	Subchannel uint8
}

// ParseChannel splits a channel number octet into its fields.
func ParseChannel(b uint8) Channel {
	ch := Channel{TN: b & 0x07, CBits: b >> 3}
	switch {
	case ch.CBits == 0x01:
		ch.Type = 0x01
	case ch.CBits&0x1e == 0x02:
		ch.Type = 0x02
		ch.Subchannel = ch.CBits & 0x01
	case ch.CBits&0x1c == 0x04:
		ch.Type = 0x04
		ch.Subchannel = ch.CBits & 0x03
	case ch.CBits&0x18 == 0x08:
		ch.Type = 0x08
		ch.Subchannel = ch.CBits & 0x07
	default:
		ch.Type = ch.CBits
	}
	return ch
}

// String describes the channel. The zero Channel renders as "".
func (c Channel) String() string {
	switch c.Type {
	case 0x00:
		return ""
	case 0x01:
		return fmt.Sprintf("Ch:(TN:%d CC:Bm + ACCH's)", c.TN)
	case 0x02:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:Lm + ACCH's)", c.TN, c.Subchannel)
	case 0x04:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:SDCCH/4 + ACCH)", c.TN, c.Subchannel)
	case 0x08:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:SDCCH/8 + ACCH)", c.TN, c.Subchannel)
	case 0x10:
		return fmt.Sprintf("Ch:(TN:%d CC:BCCH)", c.TN)
	case 0x11:
		return fmt.Sprintf("Ch:(TN:%d CC:Uplink CCCH (RACH))", c.TN)
	case 0x12:
		return fmt.Sprintf("Ch:(TN:%d CC:Downlink CCCH (PCH + AGCH))", c.TN)
	}
	return fmt.Sprintf("Ch:(TN:%d CC:0x%02X)", c.TN, c.CBits)
}

// ChannelDescription is the 3-octet Channel Description IE of GSM 04.08,
// or its Channel Description 2 and 3 variants.
type ChannelDescription struct {
	TN    uint8
	CBits uint8
	// Coding is 2 for a Channel Description 2 channel type octet, whose
	// CBits keep their position in the octet. Channel Description 3 carries
	// no channel type and has Coding 3.
	Coding  uint8
	TSC     uint8
	Hopping bool
	MAIO    uint16
	HSN     uint8
	Carrier Carrier
}

// Channel describes the channel type and TDMA offset, or "" when unknown.
func (d *ChannelDescription) Channel() string {
	switch d.Coding {
	case 2:
		return d.channel2()
	case 3:
		return ""
	}
	switch {
	case d.CBits == 0x01:
		return fmt.Sprintf("Ch:(TN:%d TCH/F + ACCHs)", d.TN)
	case d.CBits == 0x02 || d.CBits == 0x03:
		return fmt.Sprintf("Ch:(TN:%d SbCh: %d CC:TCH/H + ACCHs)", d.TN, d.CBits&0x01)
	case d.CBits >= 0x04 && d.CBits <= 0x07:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:SDCCH/4 + SACCH/C4 or CBCH (SDCCH/4))", d.TN, d.CBits&0x03)
	case d.CBits >= 0x08 && d.CBits <= 0x0f:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:SDCCH/8 + SACCH/C8 or CBCH (SDCCH/8))", d.TN, d.CBits&0x07)
	}
	return ""
}

func (d *ChannelDescription) channel2() string {
	o := d.CBits
	switch o {
	case 0x00:
		return fmt.Sprintf("Ch:(TN:%d TCH/F + FACCH/F and SACCH/M)", d.TN)
	case 0x08:
		return fmt.Sprintf("Ch:(TN:%d TCH/F + FACCH/F and SACCH/F)", d.TN)
	case 0xf0:
		return fmt.Sprintf("Ch:(TN:%d TCH/F + FACCH/F and SACCH/M + bi- and unidirectional channels)", d.TN)
	}
	switch {
	case o&0xf0 == 0x10:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d  CC:TCH/H + ACCHs)", d.TN, (o&0x08)>>3)
	case o&0xe0 == 0x20:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:SDCCH/4 + SACCH/C4 or CBCH (SDCCH/4))", d.TN, (o&0x18)>>3)
	case o&0xc0 == 0x40:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:SDCCH/8 + SACCH/C8 or CBCH (SDCCH/8))", d.TN, (o&0x38)>>3)
	case o&0xc0 == 0x80:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:TCH/F + FACCH/F and SACCH/M + bidirectional channels at timeslot)", d.TN, (o&0x38)>>3)
	case o&0xe0 == 0xc0:
		return fmt.Sprintf("Ch:(TN:%d SbCh:%d CC:TCH/F + FACCH/F and SACCH/M + unidirectional channels at timeslot)", d.TN, (o&0x38)>>3)
	}
	return ""
}

// ReadChannelDescription decodes a Channel Description value. A single RF
// channel yields an ARFCN and its carrier, a hopping channel a MAIO/HSN pair.
func ReadChannelDescription(c *Cursor) (ChannelDescription, error) {
	octs, err := c.ReadBytes(3)
	if err != nil {
		return ChannelDescription{}, err
	}
	d := ChannelDescription{CBits: octs[0] >> 3, TN: octs[0] & 0x07, Coding: 1}
	d.readRF(octs[1], octs[2])
	return d, nil
}

// ReadChannelDescription2 decodes a Channel Description 2 value.
func ReadChannelDescription2(c *Cursor) (ChannelDescription, error) {
	octs, err := c.ReadBytes(3)
	if err != nil {
		return ChannelDescription{}, err
	}
	d := ChannelDescription{CBits: octs[0] & 0xf8, TN: octs[0] & 0x07, Coding: 2}
	d.readRF(octs[1], octs[2])
	return d, nil
}

// ReadChannelDescription3 decodes the 2-octet Channel Description 3 value,
// which has no channel type.
func ReadChannelDescription3(c *Cursor) (ChannelDescription, error) {
	octs, err := c.ReadBytes(2)
	if err != nil {
		return ChannelDescription{}, err
	}
	d := ChannelDescription{Coding: 3}
	d.readRF(octs[0], octs[1])
	return d, nil
}

func (d *ChannelDescription) readRF(o1, o2 uint8) {
	d.TSC = o1 >> 5
	d.Hopping = o1&0x10 != 0
	if d.Hopping {
		d.MAIO = uint16(o1&0x0f)<<2 | uint16(o2>>6)
		d.HSN = o2 & 0x1f
		return
	}
	d.Carrier = NewCarrier(uint16(o1&0x03)<<8 | uint16(o2))
}

// ReadMultiRateConfig decodes a length-prefixed MultiRate Configuration IE
// into a description such as "AMR speech version 1, 12.2 kbit/s, NCSB".
// Unknown speech versions report malformed and yield "".
func ReadMultiRateConfig(c *Cursor) (cfg string, malformed bool, err error) {
	n, err := c.ReadU8()
	if err != nil {
		return "", false, err
	}
	body, err := c.ReadBytes(int(n))
	if err != nil {
		return "", false, err
	}
	if len(body) < 2 {
		return "", true, nil
	}
	bf1, modes := body[0], body[1]
	var sb strings.Builder
	switch bf1 >> 5 {
	case 1:
		sb.WriteString("AMR speech version 1")
		writeRates(&sb, modes, amrV1Rates[:])
	case 2:
		sb.WriteString("AMR speech version 2")
		writeRates(&sb, modes, amrV2Rates[:])
	default:
		return "", true, nil
	}
	if bf1&0x10 == 0 {
		sb.WriteString(", NCSB")
	}
	if bf1&0x08 != 0 {
		fmt.Fprintf(&sb, ", Start Mode: %d", bf1&0x03)
	}
	return sb.String(), false, nil
}

// rates are listed from the most significant mode bit down.
var (
	amrV1Rates = [8]string{"12.2", "10.2", "7.95", "7.40", "6.70", "5.90", "5.15", "4.75"}
	amrV2Rates = [5]string{"23.85", "15.85", "12.65", "8.85", "6.60"}
)

func writeRates(sb *strings.Builder, modes uint8, rates []string) {
	for i, r := range rates {
		if modes&(1<<uint(len(rates)-1-i)) != 0 {
			sb.WriteString(", " + r + " kbit/s")
		}
	}
}
