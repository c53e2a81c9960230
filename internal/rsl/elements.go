package rsl

import (
	"errors"
	"fmt"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/dtap"
	"gsm-decoder/internal/gsm"
)

// presence tells how a field of a message layout is matched.
type presence uint8

const (
	mandatory presence = iota // tag read, a mismatch flags the packet
	optional                  // tag peeked, skipped when it differs
	trailing                  // mandatory while octets remain
	untagged                  // value only, no tag
)

// element is one RSL information element. read is called with the cursor
// after the tag.
type element struct {
	iei  uint8
	name string
	read func(m *msg, c *codec.Cursor) error
}

type field struct {
	element
	presence presence
}

func must(e element) field  { return field{e, mandatory} }
func opt(e element) field   { return field{e, optional} }
func ifAny(e element) field { return field{e, trailing} }

// untaggedLV is a length-prefixed value without a tag.
func untaggedLV(name string) field {
	return field{element{name: name, read: skipLV}, untagged}
}

var errShortValue = errors.New("value shorter than its element")

// run reads the fields of a message in order. It stops at the first read
// that runs past the end of the message.
func (m *msg) run(c *codec.Cursor, fields []field) error {
	for _, f := range fields {
		switch f.presence {
		case optional:
			if !c.NextIs(f.iei) {
				continue
			}
		case trailing:
			if c.Left() == 0 {
				return nil
			}
		}
		if f.presence != untagged {
			tag, err := c.ReadU8()
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", f.name, err)
			}
			if tag != f.iei {
				m.md.Flag(gsm.StatRSLMalformed)
				m.log.Debugf("%s expected (0x%02x), found tag 0x%02x", f.name, f.iei, tag)
			}
		}
		if err := f.read(m, c); err != nil {
			return fmt.Errorf("failed to read %s: %w", f.name, err)
		}
	}
	return nil
}

// Element readers.

func skipLV(_ *msg, c *codec.Cursor) error { return c.SkipLV() }

func skipN(n int) func(*msg, *codec.Cursor) error {
	return func(_ *msg, c *codec.Cursor) error { return c.Skip(n) }
}

// logU8 reads a one-octet value and logs it under the element name.
func logU8(name string) func(*msg, *codec.Cursor) error {
	return func(m *msg, c *codec.Cursor) error {
		v, err := c.ReadU8()
		if err != nil {
			return err
		}
		m.log.Debugf("%s: 0x%02x", name, v)
		return nil
	}
}

func readChannelNumber(m *msg, c *codec.Cursor) error {
	b, err := c.ReadU8()
	if err != nil {
		return err
	}
	ch := codec.ParseChannel(b)
	m.md.Flow.MarkTimeslot(ch.TN)
	if m.md.RSL.SetChannel(ch) {
		m.log.Debug("channel number replaced")
	}
	m.log.Debugf("channel %s, timeslot %d", ch, ch.TN)
	return nil
}

func readLinkIdentifier(m *msg, c *codec.Cursor) error {
	b, err := c.ReadU8()
	if err != nil {
		return err
	}
	if b&0x20 != 0 {
		m.log.Debug("link identifier not applicable")
		return nil
	}
	switch b >> 6 {
	case 0:
		m.log.Debug("main signalling channel")
	case 1:
		m.log.Debug("SACCH")
	default:
		m.log.Debugf("reserved channel bits in link identifier 0x%02x", b)
	}
	if sapi := b & 0x07; sapi != 0 && sapi != 3 {
		m.md.Flag(gsm.StatRSLMalformed)
		m.log.Debugf("reserved SAPI %d in link identifier", sapi)
	}
	return nil
}

// readL3Info hands the layer 3 message to the DTAP decoder.
func readL3Info(m *msg, c *codec.Cursor) error {
	l3, err := l3Cursor(c)
	if err != nil {
		return err
	}
	dtap.Decode(l3, m.md)
	return nil
}

func l3Cursor(c *codec.Cursor) (*codec.Cursor, error) {
	n, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return c.Sub(int(n))
}

// readL3InfoSkip skips a CCCH or SACCH message that is not decoded.
func readL3InfoSkip(m *msg, c *codec.Cursor) error {
	l3, err := l3Cursor(c)
	if err != nil {
		return err
	}
	m.log.Debugf("L3 information of %d octets not decoded", l3.Len())
	return nil
}

// readMeasurementL3 decodes the measurement report of a MEAS RES. An SACCH
// system information message is skipped.
func readMeasurementL3(m *msg, c *codec.Cursor) error {
	l3, err := l3Cursor(c)
	if err != nil {
		return err
	}
	if b, err := l3.PeekU8(); err == nil && b&0xfe == 0x10 {
		m.log.Debug("SACCH message in L3 information not decoded")
		return nil
	}
	dtap.Decode(l3, m.md)
	return nil
}

// readFullImmAss decodes the immediate assignment message that follows the
// pseudo length octet.
func readFullImmAss(m *msg, c *codec.Cursor) error {
	n, err := c.ReadU8()
	if err != nil {
		return err
	}
	l3, err := c.Sub(int(n))
	if err != nil {
		return err
	}
	if err := l3.Skip(1); err != nil {
		return err
	}
	dtap.Decode(l3, m.md)
	return nil
}

func readCause(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	if len(v) == 0 {
		return errShortValue
	}
	m.md.RSL.Cause = v[0]
	if v[0]&0x80 != 0 && len(v) > 1 {
		m.log.Debugf("cause %s, extension 0x%02x", codec.RSLCauseName(v[0]&0x7f), v[1])
		return nil
	}
	m.log.Debugf("cause %s", codec.RSLCauseName(v[0]&0x7f))
	return nil
}

func readRLMCause(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	if len(v) > 0 {
		m.log.Debugf("RLM cause 0x%02x", v[0]&0x7f)
	}
	return nil
}

func readFrameNumber(m *msg, c *codec.Cursor) error {
	fn, err := codec.ReadFrameNumber(c)
	if err != nil {
		return err
	}
	m.md.RSL.FrameNumber, m.md.RSL.HasFN = fn, true
	m.log.Debugf("frame number %d (T1' %d, T3 %d, T2 %d)", fn.FN, fn.T1, fn.T3, fn.T2)
	return nil
}

func readStartingTime(m *msg, c *codec.Cursor) error {
	fn, err := codec.ReadFrameNumber(c)
	if err != nil {
		return err
	}
	m.log.Debugf("starting time %d", fn.FN)
	return nil
}

func readRequestReference(m *msg, c *codec.Cursor) error {
	ref, err := codec.ReadRequestReference(c)
	if err != nil {
		return err
	}
	m.log.Debugf("request reference RA 0x%02x, frame %d", ref.RA, ref.FN)
	return nil
}

func readHORef(m *msg, c *codec.Cursor) error {
	v, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.md.RSL.HORef = v
	return nil
}

func readTimingAdvance(m *msg, c *codec.Cursor) error {
	ta, dist, err := codec.ReadTimingAdvance(c)
	if err != nil {
		return err
	}
	rsl := &m.md.RSL
	rsl.TA, rsl.BTSDist, rsl.HasTA = ta, dist, true
	m.log.Debugf("timing advance %d (%d m)", ta, dist)
	return nil
}

// readL1Info reads the MS power level octet and the actual timing advance.
func readL1Info(m *msg, c *codec.Cursor) error {
	p, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.log.Debugf("MS power level %d", p>>3)
	return readTimingAdvance(m, c)
}

func readMSIdentity(m *msg, c *codec.Cursor) error {
	id, err := codec.ReadMobileIdentity(c)
	if err != nil {
		return err
	}
	m.log.Debugf("paged %s %s", id.Type, id.Value(m.md.TMSIHex()))
	m.md.EmitIdentity(id)
	return nil
}

// readResourceInfo marks the timeslot of every channel in the interference
// report.
func readResourceInfo(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(v); i += 2 {
		ch := codec.ParseChannel(v[i])
		m.md.Flow.MarkTimeslot(ch.TN)
		m.log.Debugf("channel %s interference level %d", ch, v[i+1]>>5)
	}
	return nil
}

func readCommandIndicator(_ *msg, c *codec.Cursor) error {
	b, err := c.PeekU8()
	if err != nil {
		return err
	}
	n := 1
	if b&0x80 != 0 {
		n = 2
	}
	return c.Skip(n)
}

func readEncryption(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	if len(v) == 0 {
		return errShortValue
	}
	switch alg := v[0]; {
	case alg == 0x01:
		m.log.Debug("no encryption")
	case alg >= 0x02 && alg <= 0x08:
		m.log.Debugf("A5/%d", alg-1)
	default:
		m.log.Debugf("reserved encryption algorithm 0x%02x", alg)
	}
	return nil
}

// readChannelIdentification reads the 04.08 channel description and mobile
// allocation wrapped in the element.
func readChannelIdentification(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	ci := codec.NewCursor(v)
	if !ci.ConsumeTag(0x64) {
		m.md.Flag(gsm.StatRSLMalformed)
		return nil
	}
	cd, err := codec.ReadChannelDescription(ci)
	if err != nil {
		return err
	}
	m.log.Debugf("channel identification %s", cd.Channel())
	if !ci.ConsumeTag(0x72) {
		m.md.Flag(gsm.StatRSLMalformed)
		return nil
	}
	return ci.SkipLV()
}

func readMultiRateConfig(m *msg, c *codec.Cursor) error {
	cfg, malformed, err := codec.ReadMultiRateConfig(c)
	if err != nil {
		return err
	}
	if malformed {
		m.md.Flag(gsm.StatRSLMalformed)
	}
	m.md.RSL.AMRConfig = cfg
	m.log.Debugf("multirate configuration %q", cfg)
	return nil
}

// readErroneousMessage names the message a BTS reported as erroneous.
func readErroneousMessage(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	if len(v) >= 2 {
		m.log.Debugf("erroneous message %s %s",
			codec.RSLDiscName(v[0]>>1), codec.RSLTypeLongName(v[1]&0x7f))
	}
	return nil
}

// Information elements (GSM 08.58 9.3).
var (
	ieChannelNumber     = element{0x01, "Channel Number", readChannelNumber}
	ieLinkIdentifier    = element{0x02, "Link Identifier", readLinkIdentifier}
	ieActivationType    = element{0x03, "Activation Type", logU8("activation type")}
	ieBSPower           = element{0x04, "BS Power", logU8("BS power")}
	ieChannelID         = element{0x05, "Channel Identification", readChannelIdentification}
	ieChannelMode       = element{0x06, "Channel Mode", readChannelMode}
	ieEncryption        = element{0x07, "Encryption Information", readEncryption}
	ieFrameNumber       = element{0x08, "Frame Number", readFrameNumber}
	ieHORef             = element{0x09, "Handover Reference", readHORef}
	ieL1Info            = element{0x0a, "L1 Information", readL1Info}
	ieL3Info            = element{0x0b, "L3 Information", readL3Info}
	ieL3InfoSkip        = element{0x0b, "L3 Information", readL3InfoSkip}
	ieL3InfoMeas        = element{0x0b, "L3 Information", readMeasurementL3}
	ieMSIdentity        = element{0x0c, "MS Identity", readMSIdentity}
	ieMSPower           = element{0x0d, "MS Power", logU8("MS power")}
	iePagingGroup       = element{0x0e, "Paging Group", logU8("paging group")}
	iePagingLoad        = element{0x0f, "Paging Load", skipN(2)}
	iePhysicalContext   = element{0x10, "Physical Context", skipLV}
	ieAccessDelay       = element{0x11, "Access Delay", logU8("access delay")}
	ieRACHLoad          = element{0x12, "RACH Load", skipLV}
	ieRequestReference  = element{0x13, "Request Reference", readRequestReference}
	ieReleaseMode       = element{0x14, "Release Mode", logU8("release mode")}
	ieResourceInfo      = element{0x15, "Resource Information", readResourceInfo}
	ieRLMCause          = element{0x16, "RLM Cause", readRLMCause}
	ieStartingTime      = element{0x17, "Starting Time", readStartingTime}
	ieTimingAdvance     = element{0x18, "Timing Advance", readTimingAdvance}
	ieUplinkMeas        = element{0x19, "Uplink Measurements", skipLV}
	ieCause             = element{0x1a, "Cause", readCause}
	ieMeasResultNumber  = element{0x1b, "Measurement Result Number", logU8("measurement result number")}
	ieMessageIdentifier = element{0x1c, "Message Identifier", logU8("message identifier")}
	ieSysInfoType       = element{0x1e, "System Info Type", logU8("system information type")}
	ieMSPowerParams     = element{0x1f, "MS Power Parameters", skipLV}
	ieBSPowerParams     = element{0x20, "BS Power Parameters", skipLV}
	ieSMSCBInfo         = element{0x24, "SMSCB Information", skipLV}
	ieMSTimingOffset    = element{0x25, "MS Timing Offset", logU8("MS timing offset")}
	ieErroneousMsg      = element{0x26, "Erroneous Message", readErroneousMessage}
	ieFullBCCHInfo      = element{0x27, "Full BCCH Information", skipLV}
	ieChannelNeeded     = element{0x28, "Channel Needed", logU8("channel needed")}
	ieCBCommandType     = element{0x29, "CB Command Type", logU8("CB command type")}
	ieSMSCBMessage      = element{0x2a, "SMSCB Message", skipLV}
	ieFullImmAss        = element{0x2b, "Full Immediate Assign Info", readFullImmAss}
	ieSACCHInfo         = element{0x2c, "SACCH Information", skipLV}
	ieCBCHLoad          = element{0x2d, "CBCH Load Information", logU8("CBCH load")}
	ieSMSCBChannel      = element{0x2e, "SMSCB Channel Indicator", logU8("SMSCB channel indicator")}
	ieGroupCallRef      = element{0x2f, "Group Call Reference", skipLV}
	ieChannelDesc       = element{0x30, "Channel Description", skipLV}
	ieNCHDRX            = element{0x31, "NCH DRX Information", skipLV}
	ieCommandIndicator  = element{0x32, "Command Indicator", readCommandIndicator}
	ieEMLPP             = element{0x33, "eMLPP Priority", logU8("eMLPP priority")}
	ieUIC               = element{0x34, "UIC", skipLV}
	ieMainChannelRef    = element{0x35, "Main Channel Reference", logU8("main channel reference")}
	ieMultiRateConfig   = element{0x36, "MultiRate Configuration", readMultiRateConfig}
	ieMultiRateControl  = element{0x37, "MultiRate Control", logU8("multirate control")}
	ieCodecTypes        = element{0x38, "Supported Codec Types", skipLV}
	ieCodecConfig       = element{0x39, "Codec Configuration", skipLV}
	ieRoundTripDelay    = element{0x3a, "Round Trip Delay", logU8("round trip delay")}
	ieTFOStatus         = element{0x3b, "TFO Status", logU8("TFO status")}
	ieTFOContainer      = element{0x61, "TFO Transparent Container", skipLV}
)
