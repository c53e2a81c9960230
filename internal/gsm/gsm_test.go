package gsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsm-decoder/internal/codec"
	"gsm-decoder/pkg/types"
)

func TestStatus_Names(t *testing.T) {
	s := StatLAPDRSL | StatDTAPCC | StatMalformed
	assert.Equal(t, []string{"LAPD_RSL", "DTAP_CC", "MALFORMED"}, s.Names())
	assert.Equal(t, "0x80000801", s.Hex())
	assert.True(t, s.Has(StatDTAPCC))
	assert.False(t, s.Has(StatDTAPMM))
	assert.Equal(t, "0x00000000", Status(0).String())
	assert.Len(t, StatusBits(), 28)
}

func TestFlow_PacketStatusFoldsIntoFlow(t *testing.T) {
	f := NewFlow(1, types.FlowKey{}, time.Unix(10, 0))
	f.BeginPacket(time.Unix(11, 0))
	f.Flag(StatDTAP)
	f.EndPacket()

	f.BeginPacket(time.Unix(12, 0))
	assert.Equal(t, Status(0), f.PStat)
	f.Flag(StatAMR)
	f.EndPacket()

	assert.Equal(t, StatDTAP|StatAMR, f.Stat)
	assert.Equal(t, time.Unix(12, 0), f.LastSeen)
}

func TestFlow_Timeslots(t *testing.T) {
	f := NewFlow(1, types.FlowKey{}, time.Time{})
	assert.Equal(t, "", f.Timeslots())
	f.MarkTimeslot(3)
	f.MarkTimeslot(0)
	f.MarkTimeslot(3)
	assert.Equal(t, "0;3", f.Timeslots())
}

func TestFlow_AMRDuration(t *testing.T) {
	f := NewFlow(1, types.FlowKey{}, time.Time{})
	f.AMRGood, f.AMRBad = 40, 10
	assert.Equal(t, time.Second, f.AMRDuration())
}

func TestFlow_NativeLAPD(t *testing.T) {
	f := NewFlow(1, types.FlowKey{Transport: types.TransportLAPD}, time.Time{})
	assert.True(t, f.NativeLAPD)
	assert.Equal(t, int32(-1), f.MsgID)
}

func TestFlow_AddSMSPart(t *testing.T) {
	f := NewFlow(1, types.FlowKey{}, time.Time{})

	_, done := f.AddSMSPart(7, 2, 3, "lo ")
	assert.False(t, done)
	_, done = f.AddSMSPart(7, 1, 3, "Hel")
	assert.False(t, done)
	assert.Equal(t, 1, f.PendingSMS())

	text, done := f.AddSMSPart(7, 3, 3, "world")
	require.True(t, done)
	assert.Equal(t, "Hello world", text)
	assert.Equal(t, 0, f.PendingSMS())

	_, done = f.AddSMSPart(8, 4, 3, "x")
	assert.False(t, done)
	_, done = f.AddSMSPart(8, 0, 3, "x")
	assert.False(t, done)
}

type fakeSpeech struct{ released int }

func (f *fakeSpeech) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakeSpeech) Release() error              { f.released++; return nil }

func TestFlow_CloseReleasesSpeechOnce(t *testing.T) {
	sp := &fakeSpeech{}
	f := NewFlow(1, types.FlowKey{}, time.Time{})
	f.Speech = sp
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, 1, sp.released)
}

func TestDTAPInfo_RepeatedChannelReplaces(t *testing.T) {
	var d DTAPInfo
	first := codec.ChannelDescription{TN: 1, CBits: 0x01, Carrier: codec.NewCarrier(10)}
	second := codec.ChannelDescription{TN: 2, CBits: 0x01, Carrier: codec.NewCarrier(20)}

	assert.False(t, d.SetChannel(first))
	assert.True(t, d.SetChannel(second))
	assert.Equal(t, second, d.Channel)
	assert.Equal(t, "Ch:(TN:2 TCH/F + ACCHs)", d.ChannelString())
}

func TestCCInfo_RepeatedNumberReplaces(t *testing.T) {
	var cc CCInfo
	assert.False(t, cc.SetCaller(codec.MobileNumber{Number: "111"}))
	assert.True(t, cc.SetCaller(codec.MobileNumber{Number: "222"}))
	assert.Equal(t, "222", cc.Caller.Number)
}

func TestMetadata_EmitWithoutSink(t *testing.T) {
	f := NewFlow(4, types.FlowKey{VLAN: 9}, time.Time{})
	f.TEI = 3
	md := NewMetadata(nil, &Tally{}, f, 12, time.Unix(5, 0))
	md.Emit(&OperatorRecord{})

	h := md.Header()
	assert.Equal(t, RecordHeader{PktNo: 12, FlowIndex: 4, Time: time.Unix(5, 0), VLAN: 9, TEI: 3}, h)
	assert.Equal(t, int16(-1), md.SMS.MsgRef)
	assert.Equal(t, "", md.Country("228"))
	assert.Nil(t, md.Resolver())
}

func TestMetadata_EmitToSink(t *testing.T) {
	var got []Record
	ctx := &Context{Sink: SinkFunc(func(r Record) { got = append(got, r) })}
	md := NewMetadata(ctx, &Tally{}, NewFlow(1, types.FlowKey{}, time.Time{}), 1, time.Time{})
	md.Emit(&OperatorRecord{FullName: "Net"})
	require.Len(t, got, 1)
	assert.Equal(t, KindOperator, got[0].Kind())
}

func TestRecord_ColumnCountsMatchHeader(t *testing.T) {
	ta := uint8(3)
	hopping := codec.ChannelDescription{Hopping: true, MAIO: 5, HSN: 7}
	records := []Record{
		&ARFCNRecord{Carrier: codec.NewCarrier(1)},
		&CallRecord{},
		&ChannelRecord{},
		&ChannelRecord{FrameNumber: &codec.FrameNumber{T1: 1}, HORef: 4},
		&ImmAssRecord{},
		&ImmAssRecord{Channel: &hopping, ReqRef: &codec.RequestReference{}, TA: &ta},
		&ImmAssRecord{Channel: &codec.ChannelDescription{Carrier: codec.NewCarrier(1)}},
		&IdentityRecord{},
		&IdentityRecord{HasDevice: true, HasIMSI: true, LAI: codec.LAI{Valid: true}},
		&OperatorRecord{},
		&SMSRecord{},
		&SMSRecord{Parts: 2, Part: 1, MsgRef: 3},
		&PacketRecord{},
		&PacketRecord{AMR: AMRInfo{Present: true, Good: true, Type: 7, CMR: 15}},
		NewFlowRecord(NewFlow(1, types.FlowKey{}, time.Time{})),
	}
	for _, r := range records {
		assert.Len(t, r.Columns(nil), len(r.Kind().Columns()), r.Kind().String())
	}
}

func TestSMSRecord_Columns(t *testing.T) {
	r := &SMSRecord{
		RecordHeader: RecordHeader{PktNo: 1, FlowIndex: 2, Time: time.Unix(3, 4000), VLAN: 5, TEI: 6},
		MSToSC:       true,
		MsgType:      "SMS-SUBMIT",
		DA:           codec.MobileNumber{Number: "+41791234567", Country: "CH"},
		MsgRef:       9,
		MsgID:        12,
		Part:         1,
		Parts:        2,
		Text:         "Hi",
	}
	cols := r.Columns(nil)
	assert.Equal(t, []string{"1", "2", "3.000004", "5", "6", "MS->SC"}, cols[:6])
	assert.Equal(t, `""`, cols[11])
	assert.Equal(t, "+41791234567", cols[17])
	assert.Equal(t, "CH", cols[18])
	assert.Equal(t, []string{"9", "12", "1/2", `"Hi"`}, cols[21:])
}

func TestCallRecord_CalleeCountryFallsBackToCaller(t *testing.T) {
	r := &CallRecord{
		Caller: codec.MobileNumber{Number: "+41791234567", Country: "CH"},
		Callee: codec.MobileNumber{Number: "0791234567", Type: codec.NumberNational},
	}
	cols := r.Columns(nil)
	assert.Equal(t, "CH", cols[len(cols)-1])
}

func TestFlowRecord_Columns(t *testing.T) {
	f := NewFlow(3, types.FlowKey{VLAN: 1, SrcIP: "10.0.0.1", SrcPort: 4729, DstIP: "10.0.0.2", DstPort: 4729}, time.Time{})
	f.Stat = StatDTAP
	f.MarkTimeslot(1)
	f.AMRGood, f.AMRBad = 49, 1
	cols := NewFlowRecord(f).Columns(nil)
	assert.Equal(t, []string{"3", "1", "10.0.0.1", "4729", "10.0.0.2", "4729", "0x00000400", "0", "0", "1", "1.000", "49_1"}, cols)
}

func TestTally_Reset(t *testing.T) {
	var tl Tally
	tl.AddRSL(codec.RSLDiscDCM)
	tl.SetRSLType(0x21)
	tl.AddDTAP(codec.PDCallControl)
	tl.SetDTAPType(codec.CCSetup)
	tl.AddAMR(7, true)
	require.Len(t, tl.RSL, 1)
	assert.Equal(t, RSLCount{Disc: codec.RSLDiscDCM, Type: 0x21, Typed: true}, tl.RSL[0])

	tl.Reset()
	assert.Empty(t, tl.RSL)
	assert.Empty(t, tl.DTAP)
	assert.Empty(t, tl.AMR)

	// a type without a message is ignored
	tl.SetRSLType(1)
	assert.Empty(t, tl.RSL)
}
