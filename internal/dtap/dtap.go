// Package dtap decodes the Direct Transfer Application Part: the call
// control, mobility management and radio resource messages of GSM 04.08,
// and the SMS control protocol that carries RP messages.
//
// Every message is described by a table entry: a direction, a reader for
// its mandatory part and the ordered list of its optional IEs. Decode
// looks the entry up, runs it and emits the sidecar records of the
// message.
package dtap

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/internal/sms"
)

// SMS control protocol message types.
const (
	CPData  uint8 = 0x01
	CPAck   uint8 = 0x04
	CPError uint8 = 0x10
)

// errMalformed aborts a message whose content contradicts its framing.
var errMalformed = errors.New("malformed DTAP message")

// message describes how one message type is laid out.
type message struct {
	dir  gsm.Status // UPLINK or DOWNLINK, 0 when unknown
	body readFunc   // mandatory part, may be nil
	ies  []ie       // optional part, in order
}

// msg is the decode state of one DTAP message.
type msg struct {
	md  *gsm.Metadata
	typ uint8
	log *log.Entry
}

func (m *msg) run(c *codec.Cursor, def message) error {
	if def.dir != 0 {
		m.md.Flag(def.dir)
	}
	if def.body != nil {
		if err := def.body(m, c); err != nil {
			return err
		}
	}
	return m.optional(c, def.ies)
}

// malformed flags the packet and logs why a message was not fully decoded.
func (m *msg) malformed(err error) {
	m.md.Flag(gsm.StatDTAPMalformed)
	m.log.WithError(err).Debug("malformed message")
}

// Decode decodes the DTAP message at the cursor. It reports whether a
// higher layer (RP) was present and decoded.
func Decode(c *codec.Cursor, md *gsm.Metadata) bool {
	md.Flag(gsm.StatDTAP)
	logger := log.WithFields(log.Fields{"packet": md.PktNo, "layer": "dtap"})

	pd, err := c.ReadU8()
	if err != nil {
		md.Tally.AddDTAP(0xff)
		md.Flag(gsm.StatDTAPMalformed)
		return false
	}
	pd &= 0x0f
	md.Tally.AddDTAP(pd)
	md.DTAP.PD = pd

	typ, err := c.ReadU8()
	if err != nil {
		md.Flag(gsm.StatDTAPMalformed)
		return false
	}

	switch pd {
	case codec.PDCallControl:
		return decodeCC(c, md, typ&0x3f, logger)
	case codec.PDMobility:
		return decodeMM(c, md, typ&0x3f, logger)
	case codec.PDRadio:
		return decodeRR(c, md, typ&0x7f, logger)
	case codec.PDSMS:
		return decodeCP(c, md, typ, logger)
	case codec.PDSupplSvc:
		logger.Debug("supplementary service message not decoded")
	default:
		logger.Debugf("unknown protocol discriminator 0x%02x", pd)
	}
	return false
}

// begin accounts a CC, MM or RR message and prepares its decode state.
func begin(md *gsm.Metadata, typ uint8, family gsm.Status, logger *log.Entry) *msg {
	md.Flag(family)
	md.DTAP.MsgType = typ
	md.Tally.SetDTAPType(typ)
	return &msg{md: md, typ: typ, log: logger.WithField("msg_type", typ)}
}

// exec runs the table entry of m, if any. It reports false when the
// message was truncated or malformed.
func (m *msg) exec(c *codec.Cursor, table map[uint8]message, name string) bool {
	def, ok := table[m.typ]
	if !ok {
		m.log.Debugf("%s not decoded", name)
		return true
	}
	m.log.Debug(name)
	if err := m.run(c, def); err != nil {
		m.malformed(err)
		return false
	}
	return true
}

// decodeCP handles the SMS control protocol. A CP-DATA whose user data
// length disagrees with the payload is malformed and not decoded further.
func decodeCP(c *codec.Cursor, md *gsm.Metadata, typ uint8, logger *log.Entry) bool {
	md.Flag(gsm.StatDTAPSMS)
	md.DTAP.MsgType = typ
	md.Tally.SetDTAPType(typ)

	switch typ {
	case CPData:
		n, err := c.ReadU8()
		if err != nil || int(n) != c.Left() {
			logger.Debugf("CP-DATA user data length %d, %d octets left", n, c.Left())
			md.Flag(gsm.StatDTAPMalformed)
			return false
		}
		return sms.DecodeRP(c, md)
	case CPAck:
		logger.Debug("CP-ACK")
	case CPError:
		logger.Debug("CP-ERROR")
		md.Flag(gsm.StatUplink)
	default:
		logger.Debugf("unknown CP message type 0x%02x", typ)
		md.Flag(gsm.StatDTAPMalformed)
	}
	return false
}
