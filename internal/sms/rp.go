// Package sms decodes the short message relay protocol (RP) carried in
// CP-DATA and the SMS transfer protocol data units (TPDU) it carries, and
// keeps track of concatenated messages per flow.
package sms

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// RP message types. The even codes travel from the mobile station to the
// network, the odd ones the other way.
const (
	RPDataMS  uint8 = 0x00
	RPDataNet uint8 = 0x01
	RPAckMS   uint8 = 0x02
	RPAckNet  uint8 = 0x03
	RPErrMS   uint8 = 0x04
	RPErrNet  uint8 = 0x05
	RPSMMA    uint8 = 0x06
)

// ieiUserData tags the optional RP-User-Data of RP-ACK and RP-ERROR.
const ieiUserData uint8 = 0x41

var rpNames = map[uint8]string{
	RPDataMS:  "RP-DATA (MS to Network)",
	RPDataNet: "RP-DATA (Network to MS)",
	RPAckMS:   "RP-ACK (MS to Network)",
	RPAckNet:  "RP-ACK (Network to MS)",
	RPErrMS:   "RP-ERROR (MS to Network)",
	RPErrNet:  "RP-ERROR (Network to MS)",
	RPSMMA:    "RP-SMMA (MS to Network)",
}

// IsError reports whether t is an RP-ERROR type.
func IsError(t uint8) bool { return t == RPErrMS || t == RPErrNet }

// DecodeRP decodes the RP message at the cursor and the TPDU it carries.
// It reports whether a TPDU was decoded. An RP-User-Data length that does
// not match the rest of the message is malformed and stops the decode.
func DecodeRP(c *codec.Cursor, md *gsm.Metadata) bool {
	md.Flag(gsm.StatRP)
	logger := log.WithFields(log.Fields{"packet": md.PktNo, "layer": "rp"})

	typ, err := c.ReadU8()
	if err != nil {
		md.Flag(gsm.StatSMSMalformed)
		return false
	}
	ref, err := c.ReadU8()
	if err != nil {
		md.Flag(gsm.StatSMSMalformed)
		return false
	}
	rp := &md.RP
	rp.MsgType, rp.Ref = typ, ref

	name, known := rpNames[typ]
	if !known {
		logger.Debugf("unknown RP message type 0x%02x", typ)
		md.Flag(gsm.StatSMSMalformed)
		return false
	}
	logger.WithField("msg_ref", ref).Debug(name)

	rp.MSToSC = typ%2 == 0
	if rp.MSToSC {
		md.Flag(gsm.StatUplink)
	} else {
		md.Flag(gsm.StatDownlink)
	}

	hasUserData := false
	switch typ {
	case RPDataMS, RPDataNet:
		if rp.Orig, err = codec.ReadMobileNumber(c, md.Resolver()); err != nil {
			return truncated(md, logger, err)
		}
		if rp.Dest, err = codec.ReadMobileNumber(c, md.Resolver()); err != nil {
			return truncated(md, logger, err)
		}
		hasUserData = true
	case RPAckMS, RPAckNet:
		hasUserData = c.ConsumeTag(ieiUserData)
	case RPErrMS, RPErrNet:
		cause, err := c.ReadLV()
		if err != nil {
			return truncated(md, logger, err)
		}
		if len(cause) > 0 {
			logger.Debugf("RP-Cause %d", cause[0]&0x7f)
		}
		hasUserData = c.ConsumeTag(ieiUserData)
	}
	if !hasUserData {
		return false
	}

	n, err := c.ReadU8()
	if err != nil {
		return truncated(md, logger, err)
	}
	if int(n) != c.Left() {
		logger.Debugf("RP-User-Data length %d, %d octets left", n, c.Left())
		md.Flag(gsm.StatSMSMalformed)
		return false
	}
	return DecodeTPDU(c, md)
}

func truncated(md *gsm.Metadata, logger *log.Entry, err error) bool {
	md.Flag(gsm.StatSMSMalformed)
	logger.WithError(err).Debug("truncated message")
	return false
}
