package dtap

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

var ieIdentity = tlv(0x17, "Mobile Identity").with(identity)

// networkName reads a Network Name IE value. The first octet selects the
// coding: 0 is the default alphabet, 1 is UCS2. A name without text is
// malformed and ends the message.
func networkName(set func(*gsm.MMInfo, string)) readFunc {
	return func(m *msg, c *codec.Cursor) error {
		v, err := c.ReadLV()
		if err != nil {
			return err
		}
		if len(v) <= 1 {
			return fmt.Errorf("network name of %d octets: %w", len(v), errMalformed)
		}
		flags, text := v[0], v[1:]
		var name string
		switch (flags & 0x70) >> 4 {
		case 0:
			spare := int(flags & 0x07)
			name = codec.DecodeGSM7(text, (len(text)*8-spare)/7, false)
		case 1:
			name = codec.DecodeUCS2(text)
		default:
			m.log.Debugf("network name coding 0x%02x not decoded", (flags&0x70)>>4)
			return nil
		}
		set(&m.md.DTAP.MM, name)
		m.log.Debugf("network name %q", name)
		return nil
	}
}

func timeZone(m *msg, c *codec.Cursor) error {
	tz, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.md.DTAP.MM.TimeZone = codec.ZoneName(tz)
	m.log.Debugf("time zone %s", m.md.DTAP.MM.TimeZone)
	return nil
}

func timeAndZone(m *msg, c *codec.Cursor) error {
	ts := codec.ReadTimestamp(c)
	if ts == "" {
		return fmt.Errorf("network time of %d octets: %w", c.Left(), codec.ErrShortBuffer)
	}
	m.md.DTAP.MM.TimeAndZone = ts
	m.log.Debugf("network time %s", ts)
	return nil
}

// reestablishment reads a CM Re-establishment Request. The optional LAI
// that follows the mobile identity is read first so that the identity
// record carries it.
func reestablishment(m *msg, c *codec.Cursor) error {
	if err := c.Skip(1); err != nil {
		return err
	}
	if err := c.SkipLV(); err != nil {
		return err
	}
	idPos := c.Tell()
	if err := c.SkipLV(); err != nil {
		return err
	}
	if c.ConsumeTag(0x13) {
		if err := lai(m, c); err != nil {
			return err
		}
	}
	end := c.Tell()
	_ = c.Seek(idPos)
	if err := identity(m, c); err != nil {
		return err
	}
	return c.Seek(end)
}

var mmMessages = map[uint8]message{
	// IMSI Detach Indication
	0x01: {dir: gsm.StatUplink, body: seq(skipN(1), identity)},
	// Location Updating Accept
	0x02: {dir: gsm.StatDownlink, body: lai, ies: []ie{ieIdentity, tv(0xa1, 0, "Follow On Proceed")}},
	// Location Updating Reject
	0x04: {dir: gsm.StatDownlink, body: rejectCause},
	// Location Updating Request
	0x08: {dir: gsm.StatUplink, body: seq(skipN(1), lai, skipN(1), identity)},

	// Authentication Reject
	0x11: {dir: gsm.StatUplink},
	// Authentication Request
	0x12: {dir: gsm.StatDownlink, body: skipN(17)},
	// Authentication Response
	0x14: {dir: gsm.StatUplink, body: skipN(4)},
	// Identity Request
	0x18: {dir: gsm.StatDownlink, body: skipN(1)},
	// Identity Response
	0x19: {dir: gsm.StatUplink, body: identity},
	// TMSI Reallocation Command
	0x1a: {dir: gsm.StatDownlink, body: seq(lai, identity)},
	// TMSI Reallocation Complete
	0x1b: {},

	// CM Service Accept
	0x21: {},
	// CM Service Reject
	0x22: {dir: gsm.StatDownlink, body: rejectCause},
	// CM Service Abort
	0x23: {},
	// CM Service Request
	0x24: {dir: gsm.StatUplink, body: seq(skipN(1), skipLV, identity)},
	// CM Re-establishment Request
	0x28: {dir: gsm.StatUplink, body: reestablishment},
	// Abort
	0x29: {dir: gsm.StatDownlink, body: rejectCause},

	// MM Status
	0x31: {dir: gsm.StatUplink, body: rejectCause},
	// MM Information
	0x32: {dir: gsm.StatUplink, ies: []ie{
		tlv(0x43, "Full Name for Network").with(networkName(func(mm *gsm.MMInfo, s string) { mm.FullName = s })),
		tlv(0x45, "Short Name for Network").with(networkName(func(mm *gsm.MMInfo, s string) { mm.ShortName = s })),
		tv(0x46, 1, "Local Time Zone").with(timeZone),
		tv(0x47, 7, "Universal Time and Local Time Zone").with(timeAndZone),
		tlv(0x48, "LSA Identity"),
		tlv(0x49, "Network Daylight Saving Time"),
	}},
}

func decodeMM(c *codec.Cursor, md *gsm.Metadata, typ uint8, logger *log.Entry) bool {
	m := begin(md, typ, gsm.StatDTAPMM, logger)
	if !m.exec(c, mmMessages, codec.MMMsgName(typ)) {
		return false
	}
	mm := &md.DTAP.MM
	if mm.FullName != "" || mm.ShortName != "" {
		md.Emit(&gsm.OperatorRecord{
			RecordHeader: md.Header(),
			RSLChannel:   md.RSL.Channel,
			FullName:     mm.FullName,
			ShortName:    mm.ShortName,
			TimeZone:     mm.TimeZone,
			TimeAndZone:  mm.TimeAndZone,
		})
	}
	return false
}
