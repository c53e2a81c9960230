// Package rsl decodes the Radio Signalling Link protocol of the Abis
// interface (GSM 08.58). Messages are looked up by type in a table that
// lists their information elements in order; elements carrying a layer 3
// message are handed to the DTAP decoder.
package rsl

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// Message types that produce a channel record.
const (
	ChanActiv     uint8 = 0x21
	ChanActivAck  uint8 = 0x22
	ChanActivNack uint8 = 0x23
	RFChanRel     uint8 = 0x2e
	RFChanRelAck  uint8 = 0x33
)

// msg is the decode state of one RSL message.
type msg struct {
	md  *gsm.Metadata
	typ uint8
	log *log.Entry
}

// Decode decodes the RSL message at the cursor. It reports whether the
// message belongs to a decoded class and type; the speech extractor only
// looks at payloads that were not RSL.
func Decode(c *codec.Cursor, md *gsm.Metadata) bool {
	logger := log.WithFields(log.Fields{"packet": md.PktNo, "layer": "rsl"})

	b, err := c.ReadU8()
	if err != nil {
		return false
	}
	disc := b >> 1
	md.Tally.AddRSL(disc)
	md.RSL.Disc = disc

	switch disc {
	case codec.RSLDiscRLM:
		md.Flag(gsm.StatRSLRLM)
	case codec.RSLDiscDCM:
		md.Flag(gsm.StatRSLDCM)
	case codec.RSLDiscCCM:
		md.Flag(gsm.StatRSLCCM)
	case codec.RSLDiscTRX:
		md.Flag(gsm.StatRSLTRX)
	case codec.RSLDiscLS, codec.RSLDiscIPA, codec.RSLDiscHUA:
		flagVendor(md, disc)
		logger.Debugf("%s messages not decoded", codec.RSLDiscName(disc))
		md.RSL.Disc = 0
		return false
	default:
		logger.Debugf("reserved message discriminator 0x%02x", b)
		md.Flag(gsm.StatRSLMalformed)
		md.RSL.Disc = 0
		return false
	}

	b, err = c.ReadU8()
	if err != nil {
		md.Flag(gsm.StatRSLMalformed)
		return false
	}
	typ := b & 0x7f
	md.Tally.SetRSLType(typ)
	md.RSL.MsgType = typ

	fields, ok := messages[typ]
	if !ok {
		logger.Debugf("unknown message type 0x%02x", typ)
		md.Flag(gsm.StatRSLMalformed)
		md.RSL.MsgType = 0
		return false
	}

	m := &msg{md: md, typ: typ, log: logger.WithField("msg_type", codec.RSLTypeName(typ))}
	m.log.Debugf("%s %s", codec.RSLDiscName(disc), codec.RSLTypeLongName(typ))
	if err := m.run(c, fields); err != nil {
		md.Flag(gsm.StatRSLMalformed)
		m.log.WithError(err).Debug("truncated message")
		return true
	}
	m.emitChannel()
	return true
}

func flagVendor(md *gsm.Metadata, disc uint8) {
	switch disc {
	case codec.RSLDiscLS:
		md.Flag(gsm.StatRSLLS)
	case codec.RSLDiscIPA:
		md.Flag(gsm.StatRSLIPA)
	case codec.RSLDiscHUA:
		md.Flag(gsm.StatRSLHUA)
	}
}

// emitChannel writes the channel record of activation and release
// messages.
func (m *msg) emitChannel() {
	switch m.typ {
	case ChanActiv, ChanActivAck, ChanActivNack, RFChanRel, RFChanRelAck:
	default:
		return
	}
	rsl := &m.md.RSL
	r := &gsm.ChannelRecord{
		RecordHeader: m.md.Header(),
		SAPI:         m.md.Flow.SAPI,
		MsgType:      m.typ,
		Disc:         rsl.Disc,
		RSLChannel:   rsl.Channel,
		Content:      rsl.ChannelContent,
		HORef:        rsl.HORef,
	}
	if m.typ == ChanActivNack {
		r.Cause = codec.RSLCauseName(rsl.Cause & 0x7f)
	}
	if m.typ == ChanActivAck && rsl.HasFN {
		fn := rsl.FrameNumber
		r.FrameNumber = &fn
	}
	m.md.Emit(r)
}
