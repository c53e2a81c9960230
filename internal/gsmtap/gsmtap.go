// Package gsmtap strips the GSMTAP capture header and routes the wrapped
// frame to the link or DTAP decoder according to its channel type.
package gsmtap

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/dtap"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/internal/lapd"
)

// DefaultPort is the UDP port GSMTAP is sent to.
const DefaultPort = 4729

// Version is the only supported header version.
const Version = 2

// Payload types.
const (
	TypeUm   uint8 = 0x01
	TypeAbis uint8 = 0x02
)

// Um channel types.
const (
	ChanBCCH   uint8 = 0x01
	ChanCCCH   uint8 = 0x02
	ChanRACH   uint8 = 0x03
	ChanAGCH   uint8 = 0x04
	ChanPCH    uint8 = 0x05
	ChanSDCCH  uint8 = 0x06
	ChanSDCCH4 uint8 = 0x07
	ChanSDCCH8 uint8 = 0x08
	ChanTCHF   uint8 = 0x09
	ChanTCHH   uint8 = 0x0a
	ChanPACCH  uint8 = 0x0b
	ChanCBCH52 uint8 = 0x0c
	ChanPDTCH  uint8 = 0x0d
	ChanPTCCH  uint8 = 0x0e
	ChanCBCH51 uint8 = 0x0f
	ChanVoiceF uint8 = 0x10
	ChanVoiceH uint8 = 0x11
	ChanACCH   uint8 = 0x80

	ChanSACCH4 = ChanACCH | ChanSDCCH4
	ChanSACCH8 = ChanACCH | ChanSDCCH8
	ChanSACCHF = ChanACCH | ChanTCHF
)

// ARFCN flag bits.
const (
	ARFCNPCS      uint16 = 0x8000
	ARFCNDownlink uint16 = 0x4000
	arfcnMask     uint16 = 0x3fff
)

// headerSize is the size of the fixed fields of a version 2 header.
const headerSize = 16

// Header is a decoded GSMTAP header. Fields beyond the declared header
// length are zero.
type Header struct {
	Version     uint8
	HdrLen      uint8 // in 32-bit words
	PayloadType uint8
	Timeslot    uint8
	ARFCN       uint16 // including the PCS and downlink flags
	Signal      int8   // dBm
	SNR         int8
	FrameNumber uint32
	ChannelType uint8
	Antenna     uint8
	SubSlot     uint8
}

// Channel returns the ARFCN without its flag bits.
func (h *Header) Channel() uint16 { return h.ARFCN & arfcnMask }

// Downlink reports whether the frame was sent by the network.
func (h *Header) Downlink() bool { return h.ARFCN&ARFCNDownlink != 0 }

// PCS reports whether the ARFCN belongs to the PCS 1900 band.
func (h *Header) PCS() bool { return h.ARFCN&ARFCNPCS != 0 }

// Probe reads a GSMTAP header at the cursor. When the bytes do not form a
// supported header, the cursor is left where it was and ok is false.
func Probe(c *codec.Cursor) (h Header, ok bool) {
	start := c.Tell()
	fixed, err := c.ReadBytes(3)
	if err != nil {
		return h, false
	}
	h.Version, h.HdrLen, h.PayloadType = fixed[0], fixed[1], fixed[2]
	size := int(h.HdrLen) * 4
	if h.Version != Version || h.HdrLen < 2 || c.Left() < size-3 ||
		(h.PayloadType != TypeUm && h.PayloadType != TypeAbis) {
		_ = c.Seek(start)
		return Header{}, false
	}

	var buf [headerSize]byte
	_ = c.Seek(start)
	raw, _ := c.ReadBytes(size)
	copy(buf[:], raw)
	h.Timeslot = buf[3]
	h.ARFCN = uint16(buf[4])<<8 | uint16(buf[5])
	h.Signal = int8(buf[6])
	h.SNR = int8(buf[7])
	h.FrameNumber = uint32(buf[8])<<24 | uint32(buf[9])<<16 | uint32(buf[10])<<8 | uint32(buf[11])
	h.ChannelType = buf[12]
	h.Antenna = buf[13]
	h.SubSlot = buf[14]
	return h, true
}

// Decode strips a GSMTAP header and decodes the wrapped frame. It reports
// false when the payload is not GSMTAP, in which case the cursor is
// unchanged, and when the wrapped frame was not decoded.
func Decode(c *codec.Cursor, md *gsm.Metadata) bool {
	h, ok := Probe(c)
	if !ok {
		return false
	}
	md.Tally.GSMTAP++
	if h.Downlink() {
		md.Flag(gsm.StatDownlink)
	} else {
		md.Flag(gsm.StatUplink)
	}
	logger := log.WithFields(log.Fields{"packet": md.PktNo, "layer": "gsmtap"})
	logger.Debugf("type %d, TS %d, ARFCN %d, FN %d, channel 0x%02x",
		h.PayloadType, h.Timeslot, h.Channel(), h.FrameNumber, h.ChannelType)

	if h.PayloadType == TypeAbis {
		return dtap.Decode(c, md)
	}

	switch h.ChannelType {
	case ChanBCCH, ChanCCCH, ChanRACH, ChanAGCH, ChanPCH:
		// L2 pseudo length
		if err := c.Skip(1); err != nil {
			return false
		}
		return dtap.Decode(c, md)
	case ChanSDCCH, ChanSDCCH4, ChanSDCCH8, ChanTCHF, ChanTCHH:
		return decodeLAPDm(c, md)
	case ChanSACCH4, ChanSACCH8, ChanSACCHF:
		// SACCH L1 header: MS power level and actual timing advance
		if err := c.Skip(2); err != nil {
			return false
		}
		return decodeLAPDm(c, md)
	case ChanPACCH, ChanCBCH52, ChanPDTCH, ChanPTCCH, ChanCBCH51, ChanVoiceF, ChanVoiceH, ChanACCH:
		logger.Debugf("skipping channel type 0x%02x", h.ChannelType)
		return false
	}
	logger.Debugf("unknown channel type 0x%02x", h.ChannelType)
	return false
}

func decodeLAPDm(c *codec.Cursor, md *gsm.Metadata) bool {
	payload, _, ok := lapd.DecodeLAPDm(c, md)
	if !ok {
		return false
	}
	return dtap.Decode(payload, md)
}
