// Package lapd decodes the GSM link layers: LAPD on the Abis interface and
// LAPDm on the Um interface.
package lapd

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// LAPD service access points.
const (
	SAPIRSL uint8 = 0
	SAPIOML uint8 = 62
	SAPIL2M uint8 = 63
)

// FrameKind is the format of a LAPD control field.
type FrameKind uint8

const (
	FrameI FrameKind = iota
	FrameS
	FrameU
)

// Header is the decoded address and control field of a LAPD frame.
type Header struct {
	SAPI    uint8
	TEI     uint8
	Kind    FrameKind
	Control uint16
	// Name is the S or U frame name, "I" for information frames and ""
	// for unknown control values.
	Name string
}

var supervisoryNames = map[uint8]string{
	0x00: "RR",
	0x04: "RNR",
	0x08: "REJ",
}

var unnumberedNames = map[uint8]string{
	0x03: "UI",
	0x43: "DISC",
	0x63: "UA",
	0x6f: "SABME",
	0x0f: "DM",
	0x87: "FRMR",
	0xaf: "XID",
	0x07: "SIM",
}

// ReadHeader reads the 2-octet address and the 1 or 2 octet control field.
func ReadHeader(c *codec.Cursor) (Header, error) {
	var h Header
	addr, err := c.ReadU16()
	if err != nil {
		return h, err
	}
	h.SAPI = (uint8(addr>>8) & 0xfc) >> 2
	h.TEI = (uint8(addr) & 0xfe) >> 1

	ctrl, err := c.PeekU8()
	if err != nil {
		return h, err
	}
	if ctrl&0x03 == 0x03 {
		_, _ = c.ReadU8()
		h.Kind = FrameU
		h.Control = uint16(ctrl)
		// P/F bit does not change the command
		h.Name = unnumberedNames[ctrl&0xef]
		return h, nil
	}
	if h.Control, err = c.ReadU16(); err != nil {
		return h, err
	}
	if ctrl&0x01 == 0 {
		h.Kind = FrameI
		h.Name = "I"
		return h, nil
	}
	h.Kind = FrameS
	h.Name = supervisoryNames[ctrl&0x0c]
	return h, nil
}

// Decode consumes a LAPD header and classifies the link by SAPI. It reports
// whether an RSL message follows.
func Decode(c *codec.Cursor, md *gsm.Metadata) bool {
	h, err := ReadHeader(c)
	if err != nil {
		log.WithFields(log.Fields{"packet": md.PktNo, "layer": "lapd"}).Debugf("truncated header: %v", err)
		return false
	}
	return Classify(c, md, h)
}

// Classify stores the address of header h on the flow and flags the link
// class. Unknown SAPIs and control values are malformed. It reports whether
// an RSL message follows, which is the case for information frames on
// SAPI 0 with a non-empty payload.
func Classify(c *codec.Cursor, md *gsm.Metadata, h Header) bool {
	md.Flow.SAPI = h.SAPI
	md.Flow.TEI = h.TEI

	switch h.SAPI {
	case SAPIRSL:
		md.Flag(gsm.StatLAPDRSL)
	case SAPIOML:
		md.Flag(gsm.StatLAPDOML)
	case SAPIL2M:
		md.Flag(gsm.StatLAPDL2M)
	default:
		md.Flag(gsm.StatLAPDMalformed)
	}
	if h.Name == "" {
		md.Flag(gsm.StatLAPDMalformed)
	}
	if md.Flow.PStat.Has(gsm.StatLAPDMalformed) {
		log.WithFields(log.Fields{"packet": md.PktNo, "layer": "lapd"}).
			Debugf("ignoring malformed frame: SAPI %d, control 0x%04x", h.SAPI, h.Control)
		return false
	}
	return h.Kind == FrameI && h.SAPI == SAPIRSL && c.Left() > 0
}
