package lapd

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// lapdmFill is the octet that pads a LAPDm frame to its fixed block size.
const lapdmFill = 0x2b

// DmHeader is the decoded header of a LAPDm frame.
type DmHeader struct {
	LPD     uint8 // link protocol discriminator, 1 for SMSCB
	SAPI    uint8 // 0 signalling, 3 SMS
	CR      bool
	Control uint8
	Length  uint8
	More    bool
}

// DecodeLAPDm consumes a LAPDm address, control and length indicator and
// returns a cursor bounded to the frame's information field. The declared
// length must cover the rest of the payload, or stop right before fill
// octets. Otherwise the packet is flagged LAPDM_MALFORMED. ok is false for
// malformed and empty frames.
func DecodeLAPDm(c *codec.Cursor, md *gsm.Metadata) (payload *codec.Cursor, h DmHeader, ok bool) {
	addr, err := c.ReadU8()
	if err != nil {
		return nil, h, false
	}
	h.LPD = (addr & 0x60) >> 5
	h.SAPI = (addr & 0x1c) >> 2
	h.CR = addr&0x02 != 0
	if h.Control, err = c.ReadU8(); err != nil {
		return nil, h, false
	}
	li, err := c.PeekU8()
	if err != nil {
		return nil, h, false
	}
	h.Length = li >> 2
	h.More = li&0x02 != 0

	n, left := int(h.Length), c.Left()-1
	if n != left {
		fill, err := c.PeekAt(n + 1)
		if n > left || err != nil || fill != lapdmFill {
			log.WithFields(log.Fields{"packet": md.PktNo, "layer": "lapdm"}).
				Debugf("length indicator %d does not match %d remaining octets", n, left)
			md.Flag(gsm.StatLAPDmMalformed)
			return nil, h, false
		}
	}
	_ = c.Skip(1)
	payload, err = c.Sub(n)
	if err != nil {
		md.Flag(gsm.StatLAPDmMalformed)
		return nil, h, false
	}
	return payload, h, n > 0
}
