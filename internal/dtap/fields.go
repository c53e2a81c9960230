package dtap

import (
	"fmt"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// seq runs readers one after the other.
func seq(fns ...readFunc) readFunc {
	return func(m *msg, c *codec.Cursor) error {
		for _, fn := range fns {
			if err := fn(m, c); err != nil {
				return err
			}
		}
		return nil
	}
}

func skipN(n int) readFunc {
	return func(_ *msg, c *codec.Cursor) error {
		return c.Skip(n)
	}
}

func skipLV(_ *msg, c *codec.Cursor) error {
	return c.SkipLV()
}

// readCause reads a length-prefixed cause IE. The extension bit of octet 3
// tells whether octet 3a (recommendation) follows. A value too short to
// hold a cause reads as 255.
func readCause(c *codec.Cursor) (uint8, error) {
	v, err := c.ReadLV()
	if err != nil {
		return 0, err
	}
	i := 1
	if len(v) > 0 && v[0]&0x80 == 0 {
		i++
	}
	if i >= len(v) {
		return 0xff, nil
	}
	return v[i] & 0x7f, nil
}

// ccCause stores the call control cause of the message.
func ccCause(m *msg, c *codec.Cursor) error {
	cause, err := readCause(c)
	if err != nil {
		return err
	}
	m.md.DTAP.CC.Cause = cause
	m.log.Debugf("cause %d (%s)", cause, codec.CCCauseName(cause))
	return nil
}

// logCause reads a cause that is not reported.
func logCause(m *msg, c *codec.Cursor) error {
	cause, err := readCause(c)
	if err != nil {
		return err
	}
	m.log.Debugf("cause %d (%s)", cause, codec.CCCauseName(cause))
	return nil
}

// rejectCause reads the single-octet MM reject cause.
func rejectCause(m *msg, c *codec.Cursor) error {
	cause, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.log.Debugf("reject cause %d", cause)
	return nil
}

// rrCause stores the single-octet RR cause.
func rrCause(m *msg, c *codec.Cursor) error {
	cause, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.md.DTAP.RR.Cause, m.md.DTAP.RR.HasCause = cause, true
	m.log.Debugf("RR cause %d (%s)", cause, codec.RRCauseName(cause))
	return nil
}

func lai(m *msg, c *codec.Cursor) error {
	l, err := codec.ReadLAI(c)
	if err != nil {
		return err
	}
	m.md.DTAP.LAI = l
	m.log.Debugf("LAI %s/%s/%s", l.MCC, l.MNC, l.LACString())
	return nil
}

func cellID(m *msg, c *codec.Cursor) error {
	id, err := c.ReadU16()
	if err != nil {
		return err
	}
	m.md.DTAP.CellID, m.md.DTAP.HasCellID = id, true
	m.log.Debugf("cell identity %d", id)
	return nil
}

// identity reads a length-prefixed mobile identity and reports it.
func identity(m *msg, c *codec.Cursor) error {
	id, err := codec.ReadMobileIdentity(c)
	if err != nil {
		return err
	}
	m.log.Debugf("mobile identity %s %s", id.Type, id.Value(m.md.TMSIHex()))
	m.md.EmitIdentity(id)
	return nil
}

// tmsi reads a bare 4-octet TMSI and reports it.
func tmsi(m *msg, c *codec.Cursor) error {
	v, err := c.ReadU32()
	if err != nil {
		return err
	}
	m.log.Debugf("TMSI 0x%08x", v)
	m.md.EmitTMSI(v)
	return nil
}

func (m *msg) setChannel(cd codec.ChannelDescription) {
	if m.md.DTAP.SetChannel(cd) {
		m.log.Debug("channel description replaced")
	}
}

func logChannel(m *msg, cd codec.ChannelDescription) {
	if cd.Hopping {
		m.log.Debugf("channel %q TSC %d MAIO %d HSN %d", cd.Channel(), cd.TSC, cd.MAIO, cd.HSN)
		return
	}
	m.log.Debugf("channel %q TSC %d ARFCN %d (%s)", cd.Channel(), cd.TSC, cd.Carrier.ARFCN, cd.Carrier.Band)
}

// channel reads a Channel Description. When store is set it becomes the
// DTAP channel of the packet.
func channel(store bool) readFunc {
	return func(m *msg, c *codec.Cursor) error {
		cd, err := codec.ReadChannelDescription(c)
		if err != nil {
			return err
		}
		logChannel(m, cd)
		if store {
			m.setChannel(cd)
		}
		m.md.EmitARFCN(cd)
		return nil
	}
}

// channel2 reads a Channel Description 2.
func channel2(store bool) readFunc {
	return func(m *msg, c *codec.Cursor) error {
		cd, err := codec.ReadChannelDescription2(c)
		if err != nil {
			return err
		}
		logChannel(m, cd)
		if store {
			m.setChannel(cd)
		}
		m.md.EmitARFCN(cd)
		return nil
	}
}

// channel3 reads the 2-octet Channel Description 3.
func channel3(m *msg, c *codec.Cursor) error {
	cd, err := codec.ReadChannelDescription3(c)
	if err != nil {
		return err
	}
	logChannel(m, cd)
	m.md.EmitARFCN(cd)
	return nil
}

func requestReference(store bool) readFunc {
	return func(m *msg, c *codec.Cursor) error {
		ref, err := codec.ReadRequestReference(c)
		if err != nil {
			return err
		}
		m.log.Debugf("request reference RA 0x%02x FN %d", ref.RA, ref.FN)
		if store {
			m.md.DTAP.CCCH.ReqRef, m.md.DTAP.CCCH.HasRef = ref, true
		}
		return nil
	}
}

func timingAdvance(store bool) readFunc {
	return func(m *msg, c *codec.Cursor) error {
		ta, dist, err := codec.ReadTimingAdvance(c)
		if err != nil {
			return err
		}
		m.log.Debugf("timing advance %d (%d m)", ta, dist)
		if store {
			cc := &m.md.DTAP.CCCH
			cc.TA, cc.BTSDist, cc.HasTA = ta, dist, true
		}
		return nil
	}
}

func channelMode(m *msg, c *codec.Cursor) error {
	b, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.md.DTAP.RR.Mode = codec.ChannelModeName(b)
	m.log.Debugf("channel mode 0x%02x %s", b, m.md.DTAP.RR.Mode)
	return nil
}

func channelMode2(m *msg, c *codec.Cursor) error {
	b, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.md.DTAP.RR.Mode = codec.ChannelMode2Name(b)
	m.log.Debugf("channel mode 2 0x%02x %s", b, m.md.DTAP.RR.Mode)
	return nil
}

// multiRate reads a MultiRate Configuration IE. An unknown speech version
// flags the packet but does not stop the message.
func multiRate(m *msg, c *codec.Cursor) error {
	cfg, malformed, err := codec.ReadMultiRateConfig(c)
	if err != nil {
		return err
	}
	if malformed {
		m.md.Flag(gsm.StatDTAPMalformed)
		m.log.Debug("unknown multirate speech version")
		return nil
	}
	m.md.DTAP.RR.AMRConfig = cfg
	m.log.Debugf("multirate configuration %s", cfg)
	return nil
}

// cellChannels reads the 16-octet Cell Channel Description value.
func cellChannels(m *msg, c *codec.Cursor) error {
	v, err := c.ReadBytes(cellChannelLen)
	if err != nil {
		return err
	}
	format, arfcns, ok := decodeCellChannels(v)
	if !ok {
		m.md.Flag(gsm.StatDTAPMalformed)
		m.log.Debugf("unknown cell channel description format 0x%02x", v[0])
		return nil
	}
	if arfcns != nil {
		m.log.Debugf("cell channels (%s): %v", format, arfcns)
	} else {
		m.log.Debugf("cell channels (%s)", format)
	}
	return nil
}

// facility skips a Facility IE, which carries a MAP component.
func facility(m *msg, c *codec.Cursor) error {
	m.md.Flag(gsm.StatGSMMAP)
	return c.SkipLV()
}

func cipherMode(m *msg, c *codec.Cursor) error {
	b, err := c.ReadU8()
	if err != nil {
		return err
	}
	if b&0x01 == 0 {
		m.log.Debug("no ciphering")
		return nil
	}
	alg := (b & 0x0e) >> 1
	if alg == 7 {
		m.md.DTAP.Encryption = "RSVD"
	} else {
		m.md.DTAP.Encryption = fmt.Sprintf("A5/%d", alg+1)
	}
	m.log.Debugf("start ciphering %s", m.md.DTAP.Encryption)
	return nil
}
