package dtap

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// Optional IEs shared by several call control messages.
var (
	ieRepeat       = half(0xd0, "Repeat Indicator")
	ieBearer       = tlv(0x04, "Bearer Capability")
	ieFacility     = tlv(0x1c, "Facility").with(facility)
	ieProgress     = tlv(0x1e, "Progress Indicator")
	ieUserUser     = tlv(0x7e, "User-user")
	ieSSVersion    = tlv(0x7f, "SS Version")
	ieCause        = tlv(0x08, "Cause").with(ccCause)
	ieCCCap        = tlv(0x15, "CC Capabilities")
	ieLowerLayer   = tlv(0x7c, "Low Layer Compatibility")
	ieHigherLayer  = tlv(0x7d, "High Layer Compatibility")
	ieReverseSetup = tv(0xa3, 0, "Reverse Call Setup Direction")
)

func callingNumber(m *msg, c *codec.Cursor) error {
	n, err := codec.ReadMobileNumber(c, m.md.Resolver())
	if err != nil {
		return err
	}
	if m.md.DTAP.CC.SetCaller(n) {
		m.log.Debug("calling party number replaced")
	}
	m.log.Debugf("calling party %s", n.Number)
	return nil
}

func calledNumber(m *msg, c *codec.Cursor) error {
	n, err := codec.ReadMobileNumber(c, m.md.Resolver())
	if err != nil {
		return err
	}
	if m.md.DTAP.CC.SetCallee(n) {
		m.log.Debug("called party number replaced")
	}
	m.log.Debugf("called party %s", n.Number)
	return nil
}

func connectedNumber(m *msg, c *codec.Cursor) error {
	n, err := codec.ReadMobileNumber(c, m.md.Resolver())
	if err != nil {
		return err
	}
	m.log.Debugf("connected number %s", n.Number)
	return nil
}

// callState reads the call state octet of a Status message.
func callState(m *msg, c *codec.Cursor) error {
	s, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.log.Debugf("call state 0x%02x", s)
	return nil
}

var ccMessages = map[uint8]message{
	// Alerting
	0x01: {dir: gsm.StatUplink, ies: []ie{ieFacility, ieProgress, ieUserUser, ieSSVersion}},
	// Call Proceeding
	0x02: {dir: gsm.StatDownlink, ies: []ie{ieRepeat, ieBearer, ieBearer, ieFacility, ieProgress}},
	// Progress
	0x03: {dir: gsm.StatDownlink, body: skipLV, ies: []ie{ieUserUser}},
	// Setup
	0x05: {dir: gsm.StatUplink, ies: []ie{
		ieRepeat, ieBearer, ieBearer, ieFacility, ieProgress,
		tv(0x34, 1, "Signal"),
		tlv(0x5c, "Calling Party BCD Number").with(callingNumber),
		tlv(0x5d, "Calling Party Subaddress"),
		tlv(0x5e, "Called Party BCD Number").with(calledNumber),
		tlv(0x6d, "Called Party Subaddress"),
		ieRepeat, ieLowerLayer, ieLowerLayer,
		ieRepeat, ieHigherLayer, ieHigherLayer,
		ieUserUser, ieSSVersion,
		tv(0xa1, 0, "CLIR Suppression"),
		tv(0xa2, 0, "CLIR Invocation"),
		ieCCCap,
	}},
	// Connect
	0x07: {dir: gsm.StatUplink, ies: []ie{
		ieFacility, ieProgress,
		tlv(0x4c, "Connected Number").with(connectedNumber),
		tlv(0x4d, "Connected Subaddress"),
		ieUserUser, ieSSVersion,
	}},
	// Call Confirmed
	0x08: {dir: gsm.StatUplink, ies: []ie{ieRepeat, ieBearer, ieBearer, ieCause, ieCCCap}},
	// Emergency Setup
	0x0e: {dir: gsm.StatUplink, ies: []ie{ieBearer}},
	// Connect Acknowledge
	0x0f: {},

	// User Information
	0x10: {dir: gsm.StatUplink, body: skipLV, ies: []ie{tv(0xa0, 0, "More Data")}},
	// Modify Reject
	0x13: {dir: gsm.StatDownlink, body: seq(skipLV, logCause), ies: []ie{ieLowerLayer, ieHigherLayer}},
	// Modify
	0x17: {dir: gsm.StatUplink, body: skipLV, ies: []ie{ieLowerLayer, ieHigherLayer, ieReverseSetup}},
	// Hold
	0x18: {},
	// Hold Acknowledge
	0x19: {},
	// Hold Reject
	0x1a: {dir: gsm.StatDownlink, body: ccCause},
	// Retrieve
	0x1c: {dir: gsm.StatDownlink},
	// Retrieve Acknowledge
	0x1d: {},
	// Retrieve Reject
	0x1e: {body: logCause},
	// Modify Complete
	0x1f: {dir: gsm.StatUplink, body: skipLV, ies: []ie{ieLowerLayer, ieHigherLayer, ieReverseSetup}},

	// Disconnect
	0x25: {dir: gsm.StatUplink, body: ccCause, ies: []ie{ieFacility, ieProgress, ieUserUser, ieSSVersion}},
	// Release Complete
	0x2a: {dir: gsm.StatDownlink, ies: []ie{ieCause, ieFacility, ieUserUser, ieSSVersion}},
	// Release
	0x2d: {dir: gsm.StatUplink, ies: []ie{
		ieCause, tlv(0x08, "Second Cause").with(logCause), ieFacility, ieUserUser, ieSSVersion,
	}},

	// Stop DTMF
	0x31: {},
	// Stop DTMF Acknowledge
	0x32: {dir: gsm.StatDownlink},
	// Status Enquiry
	0x34: {},
	// Start DTMF
	0x35: {dir: gsm.StatUplink, ies: []ie{tv(0x2c, 1, "Keypad Facility")}},
	// Start DTMF Acknowledge
	0x36: {dir: gsm.StatDownlink},
	// Start DTMF Reject
	0x37: {dir: gsm.StatDownlink, body: logCause},
	// Congestion Control
	0x39: {dir: gsm.StatDownlink, body: skipN(1), ies: []ie{tlv(0x08, "Cause").with(logCause)}},
	// Facility
	0x3a: {dir: gsm.StatUplink, body: skipLV, ies: []ie{ieSSVersion}},
	// Status
	0x3d: {dir: gsm.StatDownlink, body: seq(logCause, callState), ies: []ie{tlv(0x24, "Auxiliary States")}},
	// Notify
	0x3e: {dir: gsm.StatDownlink, body: skipN(1)},
}

// callNames are the call control messages reported in the calls records.
var callNames = map[uint8]string{
	codec.CCAlerting:     "Alerting",
	codec.CCCallConf:     "Call Confirmed",
	codec.CCCallProc:     "Call Proceeding",
	codec.CCConnect:      "Connect",
	codec.CCConnectAck:   "Connect Acknowledge",
	codec.CCSetup:        "Setup",
	codec.CCDisconnect:   "Disconnect",
	codec.CCRelease:      "Release",
	codec.CCReleaseCompl: "Release Complete",
	0x18:                 "Hold",
	0x19:                 "Hold Acknowledge",
	0x1a:                 "Hold Reject",
}

func decodeCC(c *codec.Cursor, md *gsm.Metadata, typ uint8, logger *log.Entry) bool {
	m := begin(md, typ, gsm.StatDTAPCC, logger)
	if !m.exec(c, ccMessages, codec.CCMsgName(typ)) {
		return false
	}
	if name, ok := callNames[typ]; ok {
		md.DTAP.CC.MsgName = name
		emitCall(md)
	}
	return false
}

func emitCall(md *gsm.Metadata) {
	cc := &md.DTAP.CC
	if cc.Caller.Number != "" || cc.Callee.Number != "" {
		cr := md.Resolver()
		codec.NormalizeE164(&cc.Caller, &cc.Callee, cr)
		codec.NormalizeE164(&cc.Callee, &cc.Caller, cr)
	}
	cause := ""
	if cc.Cause > 0 {
		cause = codec.CCCauseName(cc.Cause)
	}
	md.Emit(&gsm.CallRecord{
		RecordHeader: md.Header(),
		MsgType:      cc.MsgName,
		Cause:        cause,
		RSLChannel:   md.RSL.Channel,
		Caller:       cc.Caller,
		Callee:       cc.Callee,
	})
}
