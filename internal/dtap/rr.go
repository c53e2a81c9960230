package dtap

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// RR message types reported in the imm_ass records.
const (
	rrAssignmentComplete uint8 = 0x29
	rrAssignmentCommand  uint8 = 0x2e
	rrAssignmentFailure  uint8 = 0x2f
	rrImmAssExtended     uint8 = 0x39
	rrImmAssReject       uint8 = 0x3a
	rrImmAssignment      uint8 = 0x3f
)

// Optional IEs shared by the assignment, handover and release messages.
var (
	ieStartingTime  = tv(0x7c, 2, "Starting Time")
	ieMobileAlloc   = tlv(0x72, "Mobile Allocation")
	ieFreqList      = tlv(0x05, "Frequency List, after time")
	ieCellChannels  = tv(0x62, cellChannelLen, "Cell Channel Description").with(cellChannels)
	ieFirstMode     = tv(0x63, 1, "Channel Mode").with(channelMode)
	ieSecondChannel = tv(0x64, 3, "Description of the Second Channel").with(channel(false))
	ieSecondMode    = tv(0x66, 1, "Channel Mode 2").with(channelMode2)
	ieMultiRate     = tlv(0x03, "MultiRate Configuration").with(multiRate)
	ieCipherHalf    = half(0x90, "Cipher Mode Setting")
	ieVGCSHalf      = half(0xd0, "Synchronization Indication")
)

// channelSetModes are the Channel Mode IEs of channel sets 2 to 8.
var channelSetModes = []ie{
	tv(0x11, 1, "Channel Mode, set 2").with(channelMode),
	tv(0x13, 1, "Channel Mode, set 3").with(channelMode),
	tv(0x14, 1, "Channel Mode, set 4").with(channelMode),
	tv(0x15, 1, "Channel Mode, set 5").with(channelMode),
	tv(0x16, 1, "Channel Mode, set 6").with(channelMode),
	tv(0x17, 1, "Channel Mode, set 7").with(channelMode),
	tv(0x18, 1, "Channel Mode, set 8").with(channelMode),
}

func joinIEs(groups ...[]ie) []ie {
	var all []ie
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// requestReferences reads the four request references of an Immediate
// Assignment Reject, each followed by its wait indication. Only the first
// one is kept.
func requestReferences(m *msg, c *codec.Cursor) error {
	for i := 0; i < 4; i++ {
		if err := requestReference(i == 0)(m, c); err != nil {
			return err
		}
		if err := c.Skip(1); err != nil {
			return err
		}
	}
	return nil
}

func handoverReference(m *msg, c *codec.Cursor) error {
	ref, err := c.ReadU8()
	if err != nil {
		return err
	}
	m.log.Debugf("handover reference %d", ref)
	return nil
}

var rrMessages = map[uint8]message{
	// System Information Type 13
	0x00: {},
	// System Information Type 14
	0x01: {},
	// System Information Type 2bis
	0x02: {body: skipN(16 + 3)},
	// System Information Type 2ter
	0x03: {body: skipN(16)},
	// System Information Type 9
	0x04: {body: skipN(3)},
	// System Information Type 5bis
	0x05: {body: skipN(16)},
	// System Information Type 5ter
	0x06: {body: skipN(16)},
	// System Information Type 2quater
	0x07: {body: skipN(2)},
	// System Information Type 16
	0x08: {body: skipN(2 + 4)},

	// VGCS Uplink Grant
	0x09: {body: seq(requestReference(false), timingAdvance(false))},
	// Partial Release
	0x0a: {body: channel(true)},
	// Uplink Busy
	0x0b: {body: seq(skipLV, identity, skipN(4))},
	// Uplink Access
	0x0c: {body: skipN(1)},
	// Channel Release
	0x0d: {body: rrCause, ies: []ie{
		tlv(0x73, "BA Range"),
		half(0xc0, "Group Channel Description"),
		tlv(0x75, "Group Cipher Key Number"),
		tlv(0x76, "GPRS Resumption"),
		ieCellChannels,
		tlv(0x77, "BA List Pref"),
	}},
	// Uplink Release
	0x0e: {body: rrCause},
	// Partial Release Complete
	0x0f: {},

	// Channel Mode Modify
	0x10: {body: seq(channel2(true), channelMode), ies: []ie{tlv(0x01, "VGCS Target Mode Indication"), ieMultiRate}},
	// Talker Indication
	0x11: {body: seq(skipLV, identity), ies: []ie{ieVGCSHalf}},
	// RR Status
	0x12: {body: rrCause},
	// Classmark Enquiry
	0x13: {ies: []ie{tlv(0x10, "Classmark Enquiry Mask")}},
	// Frequency Redefinition
	0x14: {body: seq(channel(true), skipLV, skipN(2)), ies: []ie{
		ieCellChannels,
		ieCipherHalf,
		tlv(0x11, "Channel Description, set 2"),
		tv(0x12, 2, "Channel Description 3").with(channel3),
	}},
	// Measurement Report
	0x15: {body: skipN(16)},
	// Classmark Change
	0x16: {body: skipLV, ies: []ie{tlv(0x20, "Mobile Station Classmark 3")}},
	// Channel Mode Modify Acknowledge
	0x17: {body: seq(channel2(true), channelMode)},
	// System Information Type 8
	0x18: {},
	// System Information Type 1
	0x19: {body: seq(cellChannels, skipN(3))},
	// System Information Type 2
	0x1a: {body: skipN(16 + 1 + 3)},
	// System Information Type 3
	0x1b: {body: seq(cellID, lai, skipN(3), skipN(1), skipN(2), skipN(3))},
	// System Information Type 4
	0x1c: {body: seq(lai, skipN(2), skipN(3)), ies: []ie{
		tv(0x64, 3, "CBCH Channel Description").with(channel(true)),
		ieMobileAlloc,
	}},
	// System Information Type 5
	0x1d: {body: skipN(16)},
	// System Information Type 6
	0x1e: {body: seq(cellID, lai, skipN(1), skipN(1))},
	// System Information Type 7
	0x1f: {},

	// Notification/NCH
	0x20: {body: skipN(4)},
	// Paging Request Type 1
	0x21: {body: seq(skipN(1), identity), ies: []ie{ieIdentity}},
	// Paging Request Type 2
	0x22: {body: seq(skipN(1), tmsi, tmsi), ies: []ie{ieIdentity}},
	// Notification/FACCH
	0x23: {body: skipN(4 + 2)},
	// Paging Request Type 3
	0x24: {body: seq(skipN(1), tmsi, tmsi, tmsi, tmsi)},
	// Notification/SACCH
	0x25: {body: skipN(4)},
	// Notification Response
	0x26: {body: skipN(4)},
	// Paging Response
	0x27: {body: seq(skipN(1), skipLV, identity), ies: []ie{half(0xc0, "Additional Update Parameters")}},
	// Handover Failure
	0x28: {body: rrCause},
	// Assignment Complete
	rrAssignmentComplete: {body: rrCause},
	// Uplink Free
	0x2a: {},
	// Handover Command
	0x2b: {body: seq(skipN(2), channel2(true), handoverReference, skipN(1)), ies: joinIEs(
		[]ie{
			ieVGCSHalf,
			tv(0x02, 9, "Frequency Short List, after time"),
			ieFreqList,
			ieCellChannels,
			tlv(0x10, "Multislot Allocation"),
			ieFirstMode,
		},
		channelSetModes,
		[]ie{
			ieSecondChannel,
			ieSecondMode,
			tv(0x69, 9, "Frequency Channel Sequence, after time"),
			ieMobileAlloc,
			ieStartingTime,
			tlv(0x7b, "Real Time Difference"),
			tv(0x7d, 1, "Timing Advance").with(timingAdvance(true)),
			tv(0x12, 9, "Frequency Short List, before time"),
			tlv(0x19, "Frequency List, before time"),
			tv(0x1c, 3, "Description of the First Channel, before time").with(channel2(false)),
			tv(0x1d, 3, "Description of the Second Channel, before time").with(channel(false)),
			tv(0x1e, 9, "Frequency Channel Sequence, before time"),
			tlv(0x21, "Mobile Allocation, before time"),
			ieCipherHalf,
			tlv(0x01, "VGCS Target Mode Indication"),
			tv(0x76, 0, "Reserved"),
			ieMultiRate,
			tlv(0x04, "VGCS Ciphering Parameters"),
			tv(0x51, 2, "Dedicated Service Information"),
		},
	)},
	// Handover Complete
	0x2c: {body: rrCause, ies: []ie{tv(0x77, 4, "Mobile Observed Time Difference")}},
	// Physical Information
	0x2d: {body: timingAdvance(false)},
	// Assignment Command
	rrAssignmentCommand: {body: seq(channel2(true), skipN(1)), ies: joinIEs(
		[]ie{
			ieFreqList,
			ieCellChannels,
			tlv(0x10, "Multislot Allocation"),
			ieFirstMode,
		},
		channelSetModes,
		[]ie{
			ieSecondChannel,
			ieSecondMode,
			ieMobileAlloc,
			ieStartingTime,
			tlv(0x19, "Frequency List, before time"),
			tv(0x1c, 3, "Description of the First Channel, before time").with(channel2(false)),
			tv(0x1d, 3, "Description of the Second Channel, before time").with(channel(false)),
			tv(0x1e, 9, "Frequency Channel Sequence, before time"),
			tlv(0x21, "Mobile Allocation, before time"),
			ieCipherHalf,
			tlv(0x01, "VGCS Target Mode Indication"),
			ieMultiRate,
			tlv(0x04, "VGCS Ciphering Parameters"),
		},
	)},
	// Assignment Failure
	rrAssignmentFailure: {body: rrCause},

	// Ciphering Mode Complete
	0x32: {ies: []ie{ieIdentity}},
	// Ciphering Mode Command
	0x35: {body: cipherMode},
	// Immediate Assignment Extended
	rrImmAssExtended: {body: seq(
		skipN(1),
		channel(true), requestReference(true), timingAdvance(true),
		channel(false), requestReference(false), timingAdvance(false),
		skipLV,
	), ies: []ie{ieStartingTime}},
	// Immediate Assignment Reject
	rrImmAssReject: {body: seq(skipN(1), requestReferences, skipN(3))},
	// Additional Assignment
	0x3b: {body: channel(true), ies: []ie{ieMobileAlloc, ieStartingTime}},
	// Immediate Assignment
	rrImmAssignment: {body: seq(skipN(1), channel(true), requestReference(true), timingAdvance(true), skipLV),
		ies: []ie{ieStartingTime}},
}

func decodeRR(c *codec.Cursor, md *gsm.Metadata, typ uint8, logger *log.Entry) bool {
	m := begin(md, typ, gsm.StatDTAPRR, logger)
	if !m.exec(c, rrMessages, codec.RRMsgName(typ)) {
		return false
	}
	switch typ {
	case rrImmAssignment, rrImmAssExtended, rrImmAssReject,
		rrAssignmentCommand, rrAssignmentComplete, rrAssignmentFailure:
		emitImmAss(md, typ)
	}
	return false
}

// emitImmAss reports an assignment message. The columns a message type does
// not carry stay empty.
func emitImmAss(md *gsm.Metadata, typ uint8) {
	d := &md.DTAP
	r := &gsm.ImmAssRecord{
		RecordHeader: md.Header(),
		MsgType:      codec.RRMsgName(typ),
		RSLChannel:   md.RSL.Channel,
		Mode:         d.RR.Mode,
		AMRConfig:    d.RR.AMRConfig,
	}
	if d.RR.HasCause && d.RR.Cause > 0 {
		r.Cause = codec.RRCauseName(d.RR.Cause)
	}
	switch typ {
	case rrImmAssReject, rrAssignmentComplete, rrAssignmentFailure:
	default:
		if d.HasChannel {
			cd := d.Channel
			r.Channel = &cd
		}
	}
	switch typ {
	case rrAssignmentCommand, rrAssignmentComplete, rrAssignmentFailure:
	default:
		if d.CCCH.HasRef {
			ref := d.CCCH.ReqRef
			r.ReqRef = &ref
		}
	}
	if (typ == rrImmAssignment || typ == rrImmAssExtended) && d.CCCH.HasTA {
		ta := d.CCCH.TA
		r.TA, r.BTSDist = &ta, d.CCCH.BTSDist
	}
	md.Emit(r)
}
