package sms

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// Alphabet is the user data encoding selected by TP-DCS.
type Alphabet uint8

const (
	AlphabetGSM7 Alphabet = iota
	Alphabet8Bit
	AlphabetUCS2
)

// Concatenated short message header elements.
const (
	udhConcat8  uint8 = 0x00
	udhConcat16 uint8 = 0x08
)

// TPDU message type names, by TP-MTI and direction.
const (
	TypeDeliver       = "SMS_DELIVER"
	TypeDeliverReport = "SMS_DELIVER_REPORT"
	TypeSubmit        = "SMS_SUBMIT"
	TypeSubmitReport  = "SMS_SUBMIT_REPORT"
	TypeCommand       = "SMS_COMMAND"
	TypeStatusReport  = "SMS_STATUS_REPORT"
)

// DataCoding maps a TP-DCS octet to its alphabet. ok is false for a
// reserved coding, which is then read as the default alphabet.
func DataCoding(dcs uint8) (a Alphabet, ok bool) {
	switch {
	case dcs&0x80 == 0x00:
		switch (dcs >> 2) & 0x03 {
		case 0:
			return AlphabetGSM7, true
		case 1:
			return Alphabet8Bit, true
		case 2:
			return AlphabetUCS2, true
		}
		return AlphabetGSM7, false
	case dcs&0xf0 == 0xf0:
		if dcs&0x04 != 0 {
			return Alphabet8Bit, true
		}
		return AlphabetGSM7, true
	case dcs&0xf0 == 0xc0, dcs&0xf0 == 0xd0:
		return AlphabetGSM7, true
	case dcs&0xf0 == 0xe0:
		return AlphabetUCS2, true
	}
	return AlphabetGSM7, false
}

// tpdu is the decode state of one TPDU.
type tpdu struct {
	md    *gsm.Metadata
	log   *log.Entry
	first uint8
	dcs   uint8
	udl   uint8
}

// DecodeTPDU decodes the TPDU at the cursor and emits its SMS record. It
// reports whether the TPDU was decoded completely.
func DecodeTPDU(c *codec.Cursor, md *gsm.Metadata) bool {
	md.Tally.SMSTPDUs++
	md.Flag(gsm.StatSMS)
	t := &tpdu{md: md, log: log.WithFields(log.Fields{"packet": md.PktNo, "layer": "sms"})}

	var err error
	if t.first, err = c.ReadU8(); err != nil {
		return t.malformed(err)
	}
	ms := md.RP.MSToSC
	switch t.first & 0x03 {
	case 0:
		if ms {
			md.SMS.MsgType = TypeDeliverReport
			err = t.report(c)
		} else {
			md.SMS.MsgType = TypeDeliver
			err = t.deliver(c)
		}
	case 1:
		if ms {
			md.SMS.MsgType = TypeSubmit
			err = t.submit(c)
		} else {
			md.SMS.MsgType = TypeSubmitReport
			err = t.report(c)
		}
	case 2:
		if ms {
			md.SMS.MsgType = TypeCommand
			err = t.command(c)
		} else {
			md.SMS.MsgType = TypeStatusReport
			err = t.statusReport(c)
		}
	default:
		t.log.Debugf("reserved TP-MTI in first octet 0x%02x", t.first)
		return false
	}
	if err != nil {
		return t.malformed(err)
	}
	t.log.Debug(md.SMS.MsgType)

	if t.udl > 0 {
		if !t.userData(c) {
			return false
		}
	}
	t.emit()
	return true
}

func (t *tpdu) malformed(err error) bool {
	t.md.Flag(gsm.StatSMSMalformed)
	t.log.WithError(err).Debug("malformed TPDU")
	return false
}

// address reads a TP address whose length counts semi-octets.
func (t *tpdu) address(c *codec.Cursor) (codec.MobileNumber, error) {
	digits, err := c.ReadU8()
	if err != nil || digits == 0 {
		return codec.MobileNumber{}, err
	}
	return codec.ReadMobileNumberN(c, (int(digits)+1)/2+1, t.md.Resolver())
}

// coding reads TP-DCS. An unknown coding flags the packet when strict.
func (t *tpdu) coding(c *codec.Cursor, strict bool) error {
	dcs, err := c.ReadU8()
	if err != nil {
		return err
	}
	t.dcs = dcs
	if _, ok := DataCoding(dcs); !ok {
		t.log.Debugf("unknown data coding scheme 0x%02x", dcs)
		if strict {
			t.md.Flag(gsm.StatSMSMalformed)
		}
	}
	return nil
}

func (t *tpdu) deliver(c *codec.Cursor) error {
	var err error
	if t.md.SMS.OA, err = t.address(c); err != nil {
		return err
	}
	if err := c.Skip(1); err != nil { // TP-PID
		return err
	}
	if err := t.coding(c, true); err != nil {
		return err
	}
	t.md.SMS.SCTS = codec.ReadTimestamp(c)
	t.udl, err = c.ReadU8()
	return err
}

// validityLen returns the TP-VP length for a TP-VPF value.
func validityLen(first uint8) int {
	switch first & 0x18 {
	case 0x10:
		return 1
	case 0x08, 0x18:
		return 7
	}
	return 0
}

func (t *tpdu) submit(c *codec.Cursor) error {
	mr, err := c.ReadU8()
	if err != nil {
		return err
	}
	t.md.SMS.MsgRef = int16(mr)
	if t.md.SMS.DA, err = t.address(c); err != nil {
		return err
	}
	if err := c.Skip(1); err != nil { // TP-PID
		return err
	}
	if err := t.coding(c, false); err != nil {
		return err
	}
	if err := c.Skip(validityLen(t.first)); err != nil {
		return err
	}
	t.udl, err = c.ReadU8()
	return err
}

func (t *tpdu) command(c *codec.Cursor) error {
	mr, err := c.ReadU8()
	if err != nil {
		return err
	}
	t.md.SMS.MsgRef = int16(mr)
	// TP-PID, TP-CT, TP-MN
	if err := c.Skip(3); err != nil {
		return err
	}
	if t.md.SMS.DA, err = t.address(c); err != nil {
		return err
	}
	return c.SkipLV()
}

func (t *tpdu) statusReport(c *codec.Cursor) error {
	mr, err := c.ReadU8()
	if err != nil {
		return err
	}
	t.md.SMS.MsgRef = int16(mr)
	if t.md.SMS.RA, err = t.address(c); err != nil {
		return err
	}
	t.md.SMS.SCTS = codec.ReadTimestamp(c)
	if dt := codec.ReadTimestamp(c); dt != "" {
		t.log.Debugf("discharge time %s", dt)
	}
	st, err := c.ReadU8()
	if err != nil {
		return err
	}
	t.log.Debugf("status 0x%02x", st)
	return t.parameters(c)
}

// report reads a DELIVER-REPORT or SUBMIT-REPORT. Under RP-ERROR the
// failure cause comes first.
func (t *tpdu) report(c *codec.Cursor) error {
	if IsError(t.md.RP.MsgType) {
		if err := c.Skip(1); err != nil {
			return err
		}
	}
	return t.parameters(c)
}

// parameters reads the optional TP-PI and the fields it announces.
func (t *tpdu) parameters(c *codec.Cursor) error {
	if c.Left() == 0 {
		return nil
	}
	pi, _ := c.ReadU8()
	if pi&0x01 != 0 {
		if err := c.Skip(1); err != nil {
			return err
		}
	}
	if pi&0x02 != 0 {
		if err := t.coding(c, false); err != nil {
			return err
		}
	}
	if pi&0x04 != 0 {
		udl, err := c.ReadU8()
		if err != nil {
			return err
		}
		t.udl = udl
	}
	return nil
}

// userData checks TP-UDL against the rest of the message, then reads the
// header and the text.
func (t *tpdu) userData(c *codec.Cursor) bool {
	alphabet, _ := DataCoding(t.dcs)
	n := int(t.udl)
	if alphabet == AlphabetGSM7 {
		n = codec.OctetLen(int(t.udl))
	}
	if n != c.Left() {
		t.md.Flag(gsm.StatSMSMalformed)
		t.log.Debugf("TP-User-Data length %d (%d octets), %d octets left", t.udl, n, c.Left())
		return false
	}
	ud, _ := c.ReadBytes(n)
	hasHeader := t.first&0x40 != 0
	body := ud
	if hasHeader && len(ud) > 0 {
		hl := int(ud[0])
		if 1+hl > len(ud) {
			t.md.Flag(gsm.StatSMSMalformed)
			t.log.Debugf("user data header of %d octets overruns the user data", hl)
			return false
		}
		t.header(ud[1 : 1+hl])
		body = ud[1+hl:]
	}

	var text string
	switch alphabet {
	case AlphabetGSM7:
		text = codec.DecodeGSM7(ud, int(t.udl), hasHeader)
	case Alphabet8Bit:
		text = binaryText(body)
	case AlphabetUCS2:
		text = codec.DecodeUCS2(body)
	}
	t.md.SMS.Text = text
	t.log.Debugf("text %q", text)
	// a concatenated part counts even without text
	if text != "" || t.md.SMS.Parts > 1 {
		t.complete(text)
	}
	return true
}

// header walks the user data header elements. Only the concatenated
// message elements are read; any other element ends the walk.
func (t *tpdu) header(h []byte) {
	sms := &t.md.SMS
	for len(h) >= 2 {
		iei, n := h[0], int(h[1])
		if 2+n > len(h) {
			return
		}
		v := h[2 : 2+n]
		switch {
		case iei == udhConcat8 && n >= 3:
			sms.MsgID = int32(v[0])
			sms.Parts, sms.Part = v[1], v[2]
		case iei == udhConcat16 && n >= 4:
			sms.MsgID = int32(v[0])<<8 | int32(v[1])
			sms.Parts, sms.Part = v[2], v[3]
		default:
			t.log.Debugf("user data header element 0x%02x not decoded", iei)
			return
		}
		t.md.Flow.MsgID = sms.MsgID
		t.log.Debugf("part %d/%d of message 0x%04x", sms.Part, sms.Parts, sms.MsgID)
		h = h[2+n:]
	}
}

// complete counts a finished message. A part of a concatenated message is
// kept on the flow until all its parts were seen.
func (t *tpdu) complete(text string) {
	sms := &t.md.SMS
	if sms.Parts <= 1 {
		t.md.Tally.SMSMessages++
		return
	}
	full, done := t.md.Flow.AddSMSPart(uint16(sms.MsgID), sms.Part, sms.Parts, text)
	if done {
		t.md.Tally.SMSMessages++
		t.log.Debugf("message 0x%04x complete: %q", sms.MsgID, full)
	}
}

// binaryText renders 8-bit user data, replacing octets that are not
// printable ASCII with '.'.
func binaryText(b []byte) string {
	var sb strings.Builder
	for _, o := range b {
		switch {
		case o == '\t' || o == '\n' || o == '\r' || o == '"' || o == '\\':
			sb.WriteString(codec.Sanitize(string(rune(o))))
		case o < 32 || o > 126:
			sb.WriteByte('.')
		default:
			sb.WriteByte(o)
		}
	}
	return sb.String()
}

func (t *tpdu) emit() {
	md := t.md
	sms := &md.SMS
	cr := md.Resolver()
	codec.NormalizeE164(&sms.OA, &md.RP.Orig, cr)
	codec.NormalizeE164(&sms.DA, &md.RP.Dest, cr)
	md.Emit(&gsm.SMSRecord{
		RecordHeader: md.Header(),
		MSToSC:       md.RP.MSToSC,
		RSLChannel:   md.RSL.Channel,
		MsgType:      sms.MsgType,
		SCTS:         sms.SCTS,
		RPOrig:       md.RP.Orig,
		RPDest:       md.RP.Dest,
		OA:           sms.OA,
		DA:           sms.DA,
		RA:           sms.RA,
		MsgRef:       sms.MsgRef,
		MsgID:        sms.MsgID,
		Part:         sms.Part,
		Parts:        sms.Parts,
		Text:         sms.Text,
	})
}
