package gsm

import (
	"time"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/lookup"
)

// RSLInfo holds the fields decoded from one RSL message.
type RSLInfo struct {
	Disc    uint8
	MsgType uint8

	Channel codec.Channel

	AMR            bool
	SpeechOrData   uint8
	RateAndType    uint8
	ChannelContent string

	HORef       uint8
	FrameNumber codec.FrameNumber
	HasFN       bool
	Cause       uint8
	TA          uint8
	BTSDist     uint16
	HasTA       bool
	AMRConfig   string
}

// SetChannel stores the channel number of the message. It reports whether
// an earlier value was replaced.
func (r *RSLInfo) SetChannel(ch codec.Channel) bool {
	replaced := r.Channel != (codec.Channel{})
	r.Channel = ch
	return replaced
}

// CCInfo holds the call control fields of a DTAP message.
type CCInfo struct {
	MsgName string
	Cause   uint8
	Caller  codec.MobileNumber
	Callee  codec.MobileNumber
}

// SetCaller replaces the calling party number.
func (c *CCInfo) SetCaller(n codec.MobileNumber) bool {
	replaced := c.Caller != (codec.MobileNumber{})
	c.Caller = n
	return replaced
}

// SetCallee replaces the called party number.
func (c *CCInfo) SetCallee(n codec.MobileNumber) bool {
	replaced := c.Callee != (codec.MobileNumber{})
	c.Callee = n
	return replaced
}

// MMInfo holds the mobility management fields of a DTAP message.
type MMInfo struct {
	FullName    string
	ShortName   string
	TimeZone    string
	TimeAndZone string
}

// RRInfo holds the radio resource fields of a DTAP message.
type RRInfo struct {
	Mode      string
	AMRConfig string
	Cause     uint8
	HasCause  bool
}

// CCCHInfo holds the immediate assignment fields of a DTAP message.
type CCCHInfo struct {
	TA      uint8
	BTSDist uint16
	HasTA   bool
	ReqRef  codec.RequestReference
	HasRef  bool
}

// DTAPInfo holds the fields decoded from one DTAP message.
type DTAPInfo struct {
	PD      uint8
	MsgType uint8

	Channel    codec.ChannelDescription
	HasChannel bool

	LAI        codec.LAI
	CellID     uint16
	HasCellID  bool
	Encryption string

	CC   CCInfo
	MM   MMInfo
	RR   RRInfo
	CCCH CCCHInfo
}

// SetChannel stores a channel description. A repeated IE replaces the
// earlier value and SetChannel reports it.
func (d *DTAPInfo) SetChannel(cd codec.ChannelDescription) bool {
	replaced := d.HasChannel
	d.Channel = cd
	d.HasChannel = true
	return replaced
}

// ChannelString describes the DTAP channel, or "" when none was decoded.
func (d *DTAPInfo) ChannelString() string {
	if !d.HasChannel {
		return ""
	}
	return d.Channel.Channel()
}

// RPInfo holds the relay protocol fields of an SMS transfer.
type RPInfo struct {
	MsgType uint8
	Ref     uint8
	MSToSC  bool
	Orig    codec.MobileNumber
	Dest    codec.MobileNumber
}

// SMSInfo holds the TPDU fields of an SMS transfer.
type SMSInfo struct {
	MsgType string
	SCTS    string
	OA      codec.MobileNumber
	DA      codec.MobileNumber
	RA      codec.MobileNumber
	Text    string
	MsgRef  int16
	MsgID   int32
	Part    uint8
	Parts   uint8
}

// AMRInfo describes the speech frame of the packet, if any.
type AMRInfo struct {
	Present bool
	CMR     uint8
	Type    uint8
	Good    bool
}

// Metadata is the transient decode result of one packet. It is owned by
// the decode call and dropped once the packet record has been emitted.
type Metadata struct {
	Ctx   *Context
	Tally *Tally
	Flow  *Flow
	PktNo uint64
	Time  time.Time

	RSL  RSLInfo
	DTAP DTAPInfo
	RP   RPInfo
	SMS  SMSInfo
	AMR  AMRInfo
}

// NewMetadata prepares the metadata of one packet of f.
func NewMetadata(ctx *Context, tally *Tally, f *Flow, pktNo uint64, ts time.Time) *Metadata {
	return &Metadata{
		Ctx:   ctx,
		Tally: tally,
		Flow:  f,
		PktNo: pktNo,
		Time:  ts,
		SMS:   SMSInfo{MsgRef: -1, MsgID: -1},
	}
}

// Flag sets status bits on the current packet of the flow.
func (m *Metadata) Flag(s Status) {
	m.Flow.Flag(s)
}

// Header returns the leading columns shared by every sidecar record.
func (m *Metadata) Header() RecordHeader {
	return RecordHeader{
		PktNo:     m.PktNo,
		FlowIndex: m.Flow.Index,
		Time:      m.Time,
		VLAN:      m.Flow.Key.VLAN,
		TEI:       m.Flow.TEI,
	}
}

// Emit hands a record to the sidecar sink, if one is configured.
func (m *Metadata) Emit(r Record) {
	if m.Ctx == nil || m.Ctx.Sink == nil {
		return
	}
	m.Ctx.Sink.Emit(r)
}

// Country resolves an MCC through the lookup tables.
func (m *Metadata) Country(mcc string) string {
	if m.Ctx == nil {
		return ""
	}
	return m.Ctx.Tables.Country(mcc)
}

// Network resolves an MCC/MNC pair through the lookup tables.
func (m *Metadata) Network(mcc, mnc string) string {
	if m.Ctx == nil {
		return ""
	}
	return m.Ctx.Tables.Network(mcc, mnc)
}

// Device resolves an IMEI type allocation code.
func (m *Metadata) Device(tac uint32) (lookup.Device, bool) {
	if m.Ctx == nil {
		return lookup.Device{}, false
	}
	return m.Ctx.Tables.Device(tac)
}

// Resolver returns the E.164 country resolver, or nil.
func (m *Metadata) Resolver() codec.CountryResolver {
	if m.Ctx == nil || m.Ctx.Tables == nil || m.Ctx.Tables.E164 == nil {
		return nil
	}
	return m.Ctx.Tables.E164
}

// TMSIHex reports whether TMSIs are rendered in hex.
func (m *Metadata) TMSIHex() bool {
	return m.Ctx != nil && m.Ctx.TMSIHex
}
