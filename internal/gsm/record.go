package gsm

import (
	"fmt"
	"strconv"
	"time"

	"gsm-decoder/internal/codec"
)

// RecordKind selects the sidecar file a record is written to.
type RecordKind int

const (
	KindARFCN RecordKind = iota
	KindCalls
	KindChannels
	KindImmAss
	KindIdentity
	KindOperator
	KindSMS
	KindPacket
	KindFlow
	numKinds
)

// Kinds lists every record kind in file order.
func Kinds() []RecordKind {
	kinds := make([]RecordKind, 0, numKinds)
	for k := RecordKind(0); k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

var kindNames = [numKinds]string{"arfcn", "calls", "channels", "imm_ass", "imsi", "operators", "sms", "packets", "flows"}

// String returns the configuration key of the kind.
func (k RecordKind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

var headerColumns = []string{"pktNo", "flowInd", "time", "vlanID", "lapdTEI"}

var kindColumns = [numKinds][]string{
	KindARFCN: {"gsmRslTN", "gsmRslSubCh", "gsmRslChannel", "gsmDtapTN", "gsmDtapChannel",
		"gsmARFCN", "gsmBand", "gsmUpFreqMHz", "gsmDownFreqMHz"},
	KindCalls: {"gsmMsgType", "gsmCause", "gsmRslTN", "gsmRslSubCh", "gsmRslChannel",
		"gsmCaller", "gsmCallerCountry", "gsmCallee", "gsmCalleeCountry"},
	KindChannels: {"gsmMsgType", "gsmCause", "gsmRslTN", "gsmRslSubCh", "gsmRslChannel",
		"gsmChannelType", "gsmHandoverRef", "gsmFrameNumberT1", "gsmFrameNumberT2",
		"gsmFrameNumberT3", "gsmFrameNumber", "gsmChannelInfo"},
	KindImmAss: {"gsmMsgType", "gsmCause", "gsmRslTN", "gsmRslSubCh", "gsmRslChannel",
		"gsmDtapTN", "gsmDtapChannel", "gsmTSC", "gsmHoppingChannel", "gsmARFCN", "gsmBand",
		"gsmUpFreqMHz", "gsmDownFreqMHz", "gsmMAIO", "gsmHoppingSeqNum", "gsmRandomAccessInfo",
		"gsmRequestRefT1", "gsmRequestRefT2", "gsmRequestRefT3", "gsmRequestRefRFN",
		"gsmTimingAdvance", "gsmDistanceFromBTS", "gsmChannelMode", "gsmMultiRateConfig"},
	KindIdentity: {"gsmRslTN", "gsmRslSubCh", "gsmRslChannel", "gsmMobileIdentityType", "gsmIMSI",
		"gsmIMEITACManuf", "gsmIMEITACModel", "gsmIMSIMCC", "gsmIMSIMCCCountry", "gsmIMSIMNC",
		"gsmIMSIMNCOperator", "gsmLAIMCC", "gsmLAIMCCCountry", "gsmLAIMNC", "gsmLAIMNCOperator",
		"gsmLAILAC"},
	KindOperator: {"gsmRslTN", "gsmRslSubCh", "gsmRslChannel", "gsmFullNetworkName",
		"gsmShortNetworkName", "gsmTimeZone", "gsmTimeAndTimeZone"},
	KindSMS: {"direction", "gsmRslTN", "gsmRslSubCh", "gsmRslChannel", "smsMsgType",
		"serviceCenterTimeStamp", "rpOriginatorAddr", "rpOriginatorAddrCountry",
		"rpDestinationAddr", "rpDestinationAddrCountry", "tpOriginatingAddr",
		"tpOriginatingAddrCountry", "tpDestinationAddr", "tpDestinationAddrCountry",
		"tpRecipientAddr", "tpRecipientAddrCountry", "smsMsgRef", "smsMsgId", "smsMsgPart", "smsMsg"},
	KindPacket: {"pktNo", "flowInd", "time", "vlanID", "gsmStat", "gsmLapdSAPI", "gsmLapdTEI",
		"gsmRslMsgType", "gsmRslTN", "gsmRslSubCh", "gsmRslChannel", "gsmDtapTN", "gsmDtapChannel",
		"gsmHandoverRef", "gsmLAIMCC", "gsmLAIMCCCountry", "gsmLAIMNC", "gsmLAIMNCOperator",
		"gsmLAILAC", "gsmEncryption", "gsmContent", "gsmAMRCMR", "gsmAMRFrameType", "gsmAMRFrameQ"},
	KindFlow: {"flowInd", "vlanID", "srcIP", "srcPort", "dstIP", "dstPort", "gsmStat",
		"gsmLapdSAPI", "gsmLapdTEI", "gsmRslTN", "gsmAMRDuration", "gsmNumAMRGood_bad"},
}

// Columns returns the column names of the kind, in output order.
func (k RecordKind) Columns() []string {
	if k < 0 || k >= numKinds {
		return nil
	}
	if k == KindPacket || k == KindFlow {
		return append([]string(nil), kindColumns[k]...)
	}
	return append(append([]string(nil), headerColumns...), kindColumns[k]...)
}

// TimeFormatter renders the time column of a record.
type TimeFormatter func(time.Time) string

// DefaultTime renders a time as seconds.microseconds.
func DefaultTime(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// Record is one line of a sidecar file.
type Record interface {
	Kind() RecordKind
	Columns(tf TimeFormatter) []string
}

// RecordHeader holds the leading columns of every decoder record.
type RecordHeader struct {
	PktNo     uint64
	FlowIndex uint64
	Time      time.Time
	VLAN      uint16
	TEI       uint8
}

func (h RecordHeader) columns(tf TimeFormatter) []string {
	if tf == nil {
		tf = DefaultTime
	}
	return []string{
		strconv.FormatUint(h.PktNo, 10),
		strconv.FormatUint(h.FlowIndex, 10),
		tf(h.Time),
		strconv.FormatUint(uint64(h.VLAN), 10),
		strconv.FormatUint(uint64(h.TEI), 10),
	}
}

func u8(v uint8) string   { return strconv.FormatUint(uint64(v), 10) }
func u16(v uint16) string { return strconv.FormatUint(uint64(v), 10) }
func quote(s string) string {
	return `"` + s + `"`
}

// orQuotes renders an empty value as "" (two quote characters).
func orQuotes(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

func channelColumns(ch codec.Channel) []string {
	return []string{u8(ch.TN), u8(ch.Subchannel), ch.String()}
}

func carrierColumns(c codec.Carrier) []string {
	return []string{u16(c.ARFCN), c.Band.String(), codec.FormatFreq10(c.UpFreq), codec.FormatFreq10(c.DownFreq)}
}

// ARFCNRecord reports a single-RF channel assignment.
type ARFCNRecord struct {
	RecordHeader
	RSLChannel  codec.Channel
	DTAPTN      uint8
	DTAPChannel string
	Carrier     codec.Carrier
}

func (r *ARFCNRecord) Kind() RecordKind { return KindARFCN }

func (r *ARFCNRecord) Columns(tf TimeFormatter) []string {
	cols := r.columns(tf)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	tn := ""
	if r.DTAPChannel != "" {
		tn = u8(r.DTAPTN)
	}
	cols = append(cols, tn, r.DTAPChannel)
	return append(cols, carrierColumns(r.Carrier)...)
}

// CallRecord reports a call control message.
type CallRecord struct {
	RecordHeader
	MsgType    string
	Cause      string
	RSLChannel codec.Channel
	Caller     codec.MobileNumber
	Callee     codec.MobileNumber
}

func (r *CallRecord) Kind() RecordKind { return KindCalls }

func (r *CallRecord) Columns(tf TimeFormatter) []string {
	cols := append(r.columns(tf), r.MsgType, r.Cause)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	calleeCountry := r.Callee.Country
	if calleeCountry == "" && r.Callee.Type == codec.NumberNational {
		calleeCountry = r.Caller.Country
	}
	return append(cols, r.Caller.Number, r.Caller.Country, r.Callee.Number, calleeCountry)
}

// ChannelRecord reports an RSL channel activation or release.
type ChannelRecord struct {
	RecordHeader
	SAPI        uint8
	MsgType     uint8
	Disc        uint8
	Cause       string
	RSLChannel  codec.Channel
	Content     string
	HORef       uint8
	FrameNumber *codec.FrameNumber
}

func (r *ChannelRecord) Kind() RecordKind { return KindChannels }

func (r *ChannelRecord) Columns(tf TimeFormatter) []string {
	cols := append(r.columns(tf), codec.RSLTypeName(r.MsgType), r.Cause)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	cols = append(cols, r.Content)
	ho := ""
	if r.HORef != 0 {
		ho = u8(r.HORef)
	}
	cols = append(cols, ho)
	if fn := r.FrameNumber; fn != nil {
		cols = append(cols, u8(fn.T1), u8(fn.T2), u8(fn.T3), strconv.FormatUint(uint64(fn.FN), 10))
	} else {
		cols = append(cols, "", "", "", "")
	}
	handover := ""
	if r.HORef != 0 {
		handover = fmt.Sprintf("HANDOVER ref:%d", r.HORef)
	}
	info := fmt.Sprintf("DL SAPI:%d  TEI:%d [%d-%d Type %d] %s %s %s %s %s",
		r.SAPI, r.TEI, r.RSLChannel.TN, r.RSLChannel.Subchannel, r.RSLChannel.Type,
		codec.RSLDiscName(r.Disc), codec.RSLTypeName(r.MsgType), r.RSLChannel.String(), handover, r.Content)
	return append(cols, info)
}

// ImmAssRecord reports an immediate assignment, assignment or handover.
type ImmAssRecord struct {
	RecordHeader
	MsgType    string
	Cause      string
	RSLChannel codec.Channel

	// Channel is nil when the message carries no channel description.
	Channel *codec.ChannelDescription
	// ReqRef is nil when the message carries no request reference.
	ReqRef *codec.RequestReference
	// TA is nil when the message carries no timing advance.
	TA      *uint8
	BTSDist uint16

	Mode      string
	AMRConfig string
}

func (r *ImmAssRecord) Kind() RecordKind { return KindImmAss }

func (r *ImmAssRecord) Columns(tf TimeFormatter) []string {
	cols := append(r.columns(tf), r.MsgType, r.Cause)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	switch cd := r.Channel; {
	case cd == nil:
		cols = append(cols, "", "", "", "", "", "", "", "", "", "")
	case cd.Hopping:
		cols = append(cols, u8(cd.TN), cd.Channel(), u8(cd.TSC), "1", "", "", "", "",
			u16(cd.MAIO), u8(cd.HSN))
	default:
		cols = append(cols, u8(cd.TN), cd.Channel(), u8(cd.TSC), "0")
		cols = append(cols, carrierColumns(cd.Carrier)...)
		cols = append(cols, "", "")
	}
	if ref := r.ReqRef; ref != nil {
		cols = append(cols, u8(ref.RA), u8(ref.T1), u8(ref.T2), u8(ref.T3),
			strconv.FormatUint(uint64(ref.FN), 10))
	} else {
		cols = append(cols, "", "", "", "", "")
	}
	if r.TA != nil {
		cols = append(cols, u8(*r.TA), u16(r.BTSDist))
	} else {
		cols = append(cols, "", "")
	}
	return append(cols, r.Mode, r.AMRConfig)
}

// IdentityRecord reports a mobile identity seen on the link.
type IdentityRecord struct {
	RecordHeader
	RSLChannel codec.Channel
	Type       codec.IdentityType
	Value      string

	Manufacturer string
	Model        string
	HasDevice    bool

	IMSIMCC      string
	IMSIMNC      string
	IMSICountry  string
	IMSIOperator string
	HasIMSI      bool

	LAI         codec.LAI
	LAICountry  string
	LAIOperator string
}

func (r *IdentityRecord) Kind() RecordKind { return KindIdentity }

func (r *IdentityRecord) Columns(tf TimeFormatter) []string {
	cols := r.columns(tf)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	cols = append(cols, r.Type.String(), r.Value)
	if r.HasDevice {
		cols = append(cols, quote(r.Manufacturer), quote(r.Model))
	} else {
		cols = append(cols, "", "")
	}
	if r.HasIMSI {
		cols = append(cols, r.IMSIMCC, quote(r.IMSICountry), r.IMSIMNC, quote(r.IMSIOperator))
	} else {
		cols = append(cols, "", "", "", "")
	}
	if r.LAI.Valid {
		cols = append(cols, r.LAI.MCC, r.LAICountry, r.LAI.MNC, quote(r.LAIOperator), r.LAI.LACString())
	} else {
		cols = append(cols, "", "", "", "", "")
	}
	return cols
}

// OperatorRecord reports the network names sent in an MM information.
type OperatorRecord struct {
	RecordHeader
	RSLChannel  codec.Channel
	FullName    string
	ShortName   string
	TimeZone    string
	TimeAndZone string
}

func (r *OperatorRecord) Kind() RecordKind { return KindOperator }

func (r *OperatorRecord) Columns(tf TimeFormatter) []string {
	cols := r.columns(tf)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	return append(cols, r.FullName, r.ShortName, r.TimeZone, r.TimeAndZone)
}

// SMSRecord reports one SMS TPDU.
type SMSRecord struct {
	RecordHeader
	MSToSC     bool
	RSLChannel codec.Channel
	MsgType    string
	SCTS       string
	RPOrig     codec.MobileNumber
	RPDest     codec.MobileNumber
	OA         codec.MobileNumber
	DA         codec.MobileNumber
	RA         codec.MobileNumber
	MsgRef     int16
	MsgID      int32
	Part       uint8
	Parts      uint8
	Text       string
}

func (r *SMSRecord) Kind() RecordKind { return KindSMS }

func (r *SMSRecord) Columns(tf TimeFormatter) []string {
	dir := "SC->MS"
	if r.MSToSC {
		dir = "MS->SC"
	}
	cols := append(r.columns(tf), dir)
	cols = append(cols, channelColumns(r.RSLChannel)...)
	cols = append(cols, r.MsgType, quote(r.SCTS))
	for _, n := range []codec.MobileNumber{r.RPOrig, r.RPDest, r.OA, r.DA, r.RA} {
		cols = append(cols, orQuotes(n.Number), orQuotes(n.Country))
	}
	ref := ""
	if r.MsgRef > 0 {
		ref = strconv.Itoa(int(r.MsgRef))
	}
	cols = append(cols, ref)
	if r.Parts > 0 {
		cols = append(cols, strconv.Itoa(int(r.MsgID)), fmt.Sprintf("%d/%d", r.Part, r.Parts))
	} else {
		cols = append(cols, "", "")
	}
	return append(cols, quote(r.Text))
}

// PacketRecord is the per-packet summary line.
type PacketRecord struct {
	PktNo     uint64
	FlowIndex uint64
	Time      time.Time
	VLAN      uint16
	Status    Status
	SAPI      uint8
	TEI       uint8

	RSLMsgType  uint8
	RSLChannel  codec.Channel
	DTAPTN      uint8
	DTAPChannel string
	HORef       uint8

	LAI         codec.LAI
	LAICountry  string
	LAIOperator string

	Encryption string
	Content    string
	AMR        AMRInfo
}

func (r *PacketRecord) Kind() RecordKind { return KindPacket }

func (r *PacketRecord) Columns(tf TimeFormatter) []string {
	if tf == nil {
		tf = DefaultTime
	}
	msgType := ""
	if r.RSLMsgType != 0 {
		msgType = codec.RSLTypeName(r.RSLMsgType)
	}
	chStr := r.RSLChannel.String()
	rslTN, rslSub := "", ""
	if chStr != "" {
		rslTN, rslSub = u8(r.RSLChannel.TN), u8(r.RSLChannel.Subchannel)
	}
	dtapTN := ""
	if r.DTAPChannel != "" {
		dtapTN = u8(r.DTAPTN)
	}
	ho := ""
	if r.HORef != 0 {
		ho = u8(r.HORef)
	}
	lac := ""
	if r.LAI.Valid {
		lac = r.LAI.LACString()
	}
	cmr, ft, q := "", "", ""
	if r.AMR.Present {
		cmr = codec.AMRTypeName(r.AMR.CMR)
		ft = codec.AMRTypeName(r.AMR.Type)
		q = "BAD"
		if r.AMR.Good {
			q = "GOOD"
		}
	}
	return []string{
		strconv.FormatUint(r.PktNo, 10),
		strconv.FormatUint(r.FlowIndex, 10),
		tf(r.Time),
		u16(r.VLAN),
		r.Status.Hex(),
		u8(r.SAPI),
		u8(r.TEI),
		msgType,
		rslTN,
		rslSub,
		quote(chStr),
		dtapTN,
		quote(r.DTAPChannel),
		ho,
		r.LAI.MCC,
		quote(r.LAICountry),
		r.LAI.MNC,
		quote(r.LAIOperator),
		lac,
		r.Encryption,
		quote(r.Content),
		quote(cmr),
		quote(ft),
		q,
	}
}

// FlowRecord is the per-flow summary line written on flow termination.
type FlowRecord struct {
	FlowIndex uint64
	VLAN      uint16
	SrcIP     string
	SrcPort   uint16
	DstIP     string
	DstPort   uint16
	Status    Status
	SAPI      uint8
	TEI       uint8
	Timeslots string
	Duration  time.Duration
	AMRGood   uint64
	AMRBad    uint64
}

// NewFlowRecord summarizes a flow.
func NewFlowRecord(f *Flow) *FlowRecord {
	return &FlowRecord{
		FlowIndex: f.Index,
		VLAN:      f.Key.VLAN,
		SrcIP:     f.Key.SrcIP,
		SrcPort:   f.Key.SrcPort,
		DstIP:     f.Key.DstIP,
		DstPort:   f.Key.DstPort,
		Status:    f.Stat,
		SAPI:      f.SAPI,
		TEI:       f.TEI,
		Timeslots: f.Timeslots(),
		Duration:  f.AMRDuration(),
		AMRGood:   f.AMRGood,
		AMRBad:    f.AMRBad,
	}
}

func (r *FlowRecord) Kind() RecordKind { return KindFlow }

func (r *FlowRecord) Columns(TimeFormatter) []string {
	return []string{
		strconv.FormatUint(r.FlowIndex, 10),
		u16(r.VLAN),
		r.SrcIP,
		u16(r.SrcPort),
		r.DstIP,
		u16(r.DstPort),
		r.Status.Hex(),
		u8(r.SAPI),
		u8(r.TEI),
		r.Timeslots,
		strconv.FormatFloat(r.Duration.Seconds(), 'f', 3, 64),
		fmt.Sprintf("%d_%d", r.AMRGood, r.AMRBad),
	}
}
