package dtap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/pkg/types"
)

type capture struct {
	records []gsm.Record
}

func (c *capture) of(kind gsm.RecordKind) []gsm.Record {
	var out []gsm.Record
	for _, r := range c.records {
		if r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}

func newMetadata(t *testing.T) (*gsm.Metadata, *capture) {
	t.Helper()
	rec := &capture{}
	ctx := &gsm.Context{Sink: gsm.SinkFunc(func(r gsm.Record) { rec.records = append(rec.records, r) })}
	f := gsm.NewFlow(1, types.FlowKey{}, time.Time{})
	f.BeginPacket(time.Time{})
	return gsm.NewMetadata(ctx, &gsm.Tally{}, f, 1, time.Time{}), rec
}

func decode(t *testing.T, b ...byte) (*gsm.Metadata, *capture) {
	t.Helper()
	md, rec := newMetadata(t)
	Decode(codec.NewCursor(b), md)
	return md, rec
}

func TestDecode_CCSetupNumbers(t *testing.T) {
	md, rec := decode(t,
		// CC Setup, bearer capability
		0x03, 0x05, 0x04, 0x01, 0xa0,
		// calling party 12345
		0x5c, 0x04, 0x81, 0x21, 0x43, 0xf5,
		// called party 98765
		0x5e, 0x04, 0x81, 0x89, 0x67, 0xf5,
	)

	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAP|gsm.StatDTAPCC|gsm.StatUplink))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
	assert.Equal(t, "12345", md.DTAP.CC.Caller.Number)
	assert.Equal(t, "98765", md.DTAP.CC.Callee.Number)

	calls := rec.of(gsm.KindCalls)
	require.Len(t, calls, 1)
	call := calls[0].(*gsm.CallRecord)
	assert.Equal(t, "Setup", call.MsgType)
	assert.Equal(t, "", call.Cause)
	assert.Equal(t, "12345", call.Caller.Number)
	assert.Equal(t, "98765", call.Callee.Number)

	require.Len(t, md.Tally.DTAP, 1)
	assert.Equal(t, gsm.DTAPCount{PD: codec.PDCallControl, Type: codec.CCSetup, Typed: true}, md.Tally.DTAP[0])
}

func TestDecode_CCDisconnectCause(t *testing.T) {
	// cause with octet 3 extension bit set, value 16 (normal call clearing)
	md, rec := decode(t, 0x83, 0x25, 0x02, 0xe0, 0x90)

	assert.Equal(t, uint8(16), md.DTAP.CC.Cause)
	calls := rec.of(gsm.KindCalls)
	require.Len(t, calls, 1)
	call := calls[0].(*gsm.CallRecord)
	assert.Equal(t, "Disconnect", call.MsgType)
	assert.Equal(t, codec.CCCauseName(16), call.Cause)
}

func TestDecode_CCCauseWithRecommendation(t *testing.T) {
	// octet 3 without extension bit: octet 3a precedes the cause value
	md, _ := decode(t, 0x03, 0x25, 0x03, 0x60, 0x80, 0x91)
	assert.Equal(t, uint8(17), md.DTAP.CC.Cause)
}

func TestDecode_CCNotReported(t *testing.T) {
	_, rec := decode(t, 0x03, 0x34) // Status Enquiry
	assert.Empty(t, rec.of(gsm.KindCalls))
}

func TestDecode_TruncatedMessageIsMalformed(t *testing.T) {
	// Disconnect whose cause IE claims more octets than remain
	md, rec := decode(t, 0x03, 0x25, 0x05, 0xe0)

	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
	assert.Empty(t, rec.of(gsm.KindCalls))
}

func TestDecode_MissingMessageType(t *testing.T) {
	md, _ := decode(t, 0x05)
	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAP|gsm.StatDTAPMalformed))
	require.Len(t, md.Tally.DTAP, 1)
	assert.False(t, md.Tally.DTAP[0].Typed)
}

func TestDecode_LocationUpdatingRequest(t *testing.T) {
	md, rec := decode(t,
		// MM Location Updating Request, update type
		0x05, 0x08, 0x70,
		// LAI 228/01 LAC 42
		0x22, 0xf8, 0x10, 0x00, 0x2a,
		// classmark 1
		0x33,
		// IMSI 228012345678901
		0x08, 0x29, 0x82, 0x10, 0x32, 0x54, 0x76, 0x98, 0x10,
	)

	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPMM|gsm.StatUplink))
	assert.Equal(t, codec.LAI{MCC: "228", MNC: "01", LAC: 42, Valid: true}, md.DTAP.LAI)

	ids := rec.of(gsm.KindIdentity)
	require.Len(t, ids, 1)
	id := ids[0].(*gsm.IdentityRecord)
	assert.Equal(t, codec.IdentityIMSI, id.Type)
	assert.Equal(t, "228012345678901", id.Value)
	assert.True(t, id.HasIMSI)
	assert.Equal(t, "228", id.IMSIMCC)
	assert.Equal(t, "01", id.IMSIMNC)
	assert.Equal(t, md.DTAP.LAI, id.LAI)
}

func TestDecode_TMSIReallocation(t *testing.T) {
	md, rec := decode(t,
		0x05, 0x1a,
		0x22, 0xf8, 0x10, 0x00, 0x01,
		0x05, 0xf4, 0x01, 0x02, 0x03, 0x04,
	)
	assert.True(t, md.DTAP.LAI.Valid)
	ids := rec.of(gsm.KindIdentity)
	require.Len(t, ids, 1)
	id := ids[0].(*gsm.IdentityRecord)
	assert.Equal(t, codec.IdentityTMSI, id.Type)
	assert.Equal(t, "16909060", id.Value)
}

func TestDecode_MMInformationOperator(t *testing.T) {
	md, rec := decode(t,
		0x05, 0x32,
		// full name, UCS2 "AB"
		0x43, 0x05, 0x90, 0x00, 0x41, 0x00, 0x42,
		// local time zone GMT +2
		0x46, 0x80,
	)

	assert.Equal(t, "AB", md.DTAP.MM.FullName)
	ops := rec.of(gsm.KindOperator)
	require.Len(t, ops, 1)
	op := ops[0].(*gsm.OperatorRecord)
	assert.Equal(t, "AB", op.FullName)
	assert.Equal(t, "", op.ShortName)
	assert.Equal(t, "GMT +2:0", op.TimeZone)
}

func TestDecode_MMInformationGSM7Name(t *testing.T) {
	packed, septets := codec.PackGSM7("Net")
	spare := uint8(len(packed)*8 - septets*7)
	b := append([]byte{0x05, 0x32, 0x45, uint8(len(packed) + 1), 0x80 | spare}, packed...)

	md, rec := decode(t, b...)
	assert.Equal(t, "Net", md.DTAP.MM.ShortName)
	assert.Len(t, rec.of(gsm.KindOperator), 1)
}

func TestDecode_MMInformationEmptyNameIsMalformed(t *testing.T) {
	md, rec := decode(t, 0x05, 0x32, 0x43, 0x01, 0x90)
	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
	assert.Empty(t, rec.of(gsm.KindOperator))
}

func TestDecode_ImmediateAssignment(t *testing.T) {
	md, rec := decode(t,
		// RR Immediate Assignment, page mode
		0x06, 0x3f, 0x00,
		// SDCCH/8 sub 0, TN 1, TSC 0, ARFCN 799
		0x41, 0x03, 0x1f,
		// request reference, timing advance, empty mobile allocation
		0x23, 0x09, 0x42, 0x02, 0x00,
	)

	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPRR))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
	assert.False(t, md.Flow.PStat.Has(gsm.StatUplink))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDownlink))
	require.True(t, md.DTAP.HasChannel)
	assert.Equal(t, uint8(1), md.DTAP.Channel.TN)

	arfcns := rec.of(gsm.KindARFCN)
	require.Len(t, arfcns, 1)
	assert.Equal(t, uint16(799), arfcns[0].(*gsm.ARFCNRecord).Carrier.ARFCN)

	imm := rec.of(gsm.KindImmAss)
	require.Len(t, imm, 1)
	r := imm[0].(*gsm.ImmAssRecord)
	assert.Equal(t, codec.RRMsgName(0x3f), r.MsgType)
	require.NotNil(t, r.Channel)
	assert.Equal(t, uint16(799), r.Channel.Carrier.ARFCN)
	require.NotNil(t, r.ReqRef)
	assert.Equal(t, uint8(0x23), r.ReqRef.RA)
	require.NotNil(t, r.TA)
	assert.Equal(t, uint8(2), *r.TA)
	assert.Equal(t, codec.BTSDistance(2), r.BTSDist)
}

func TestDecode_ImmediateAssignmentTruncatedNoRecord(t *testing.T) {
	md, rec := decode(t, 0x06, 0x3f, 0x00, 0x41, 0x03)
	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
	assert.Empty(t, rec.of(gsm.KindImmAss))
}

func TestDecode_ImmediateAssignmentReject(t *testing.T) {
	_, rec := decode(t,
		0x06, 0x3a,
		0x00,
		0x11, 0x00, 0x01, 0x05,
		0x12, 0x00, 0x01, 0x05,
		0x13, 0x00, 0x01, 0x05,
		0x14, 0x00, 0x01, 0x05,
		0x2b, 0x2b, 0x2b,
	)
	imm := rec.of(gsm.KindImmAss)
	require.Len(t, imm, 1)
	r := imm[0].(*gsm.ImmAssRecord)
	assert.Nil(t, r.Channel)
	assert.Nil(t, r.TA)
	require.NotNil(t, r.ReqRef)
	assert.Equal(t, uint8(0x11), r.ReqRef.RA)
}

func TestDecode_AssignmentCommandMode(t *testing.T) {
	_, rec := decode(t,
		0x06, 0x2e,
		// TCH/F TN 1, power command
		0x09, 0x03, 0x1f, 0x00,
		// channel mode AMR
		0x63, 0x41,
		// multirate configuration, speech version 1
		0x03, 0x02, 0x20, 0x81,
	)
	imm := rec.of(gsm.KindImmAss)
	require.Len(t, imm, 1)
	r := imm[0].(*gsm.ImmAssRecord)
	assert.Equal(t, codec.ChannelModeName(0x41), r.Mode)
	assert.Contains(t, r.AMRConfig, "AMR speech version 1")
	require.NotNil(t, r.Channel)
	assert.Nil(t, r.ReqRef)
	assert.Nil(t, r.TA)
}

func TestDecode_AssignmentFailureCause(t *testing.T) {
	md, rec := decode(t, 0x06, 0x2f, 0x09)
	imm := rec.of(gsm.KindImmAss)
	require.Len(t, imm, 1)
	r := imm[0].(*gsm.ImmAssRecord)
	assert.Equal(t, codec.RRCauseName(0x09), r.Cause)
	assert.Nil(t, r.Channel)
	assert.True(t, md.DTAP.RR.HasCause)
}

func TestDecode_CipherModeCommand(t *testing.T) {
	tests := []struct {
		setting uint8
		want    string
	}{
		{0x00, ""},
		{0x01, "A5/1"},
		{0x03, "A5/2"},
		{0x05, "A5/3"},
		{0x0f, "RSVD"},
	}
	for _, tt := range tests {
		md, _ := decode(t, 0x06, 0x35, tt.setting)
		assert.Equal(t, tt.want, md.DTAP.Encryption, "setting 0x%02x", tt.setting)
	}
}

func TestDecode_PagingRequestType2(t *testing.T) {
	_, rec := decode(t,
		0x06, 0x22,
		0x00,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
	)
	ids := rec.of(gsm.KindIdentity)
	require.Len(t, ids, 2)
	assert.Equal(t, "1", ids[0].(*gsm.IdentityRecord).Value)
	assert.Equal(t, "2", ids[1].(*gsm.IdentityRecord).Value)
}

func TestDecode_SystemInformation3(t *testing.T) {
	md, _ := decode(t,
		0x06, 0x1b,
		0x12, 0x34,
		0x22, 0xf8, 0x10, 0x00, 0x07,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	)
	assert.True(t, md.DTAP.HasCellID)
	assert.Equal(t, uint16(0x1234), md.DTAP.CellID)
	assert.Equal(t, uint16(7), md.DTAP.LAI.LAC)
	assert.False(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
}

func TestDecode_UnknownMessageTypeIsNotMalformed(t *testing.T) {
	md, _ := decode(t, 0x06, 0x7e)
	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPRR))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
}

func TestDecode_CPDataLengthMismatch(t *testing.T) {
	md, rec := newMetadata(t)
	next := Decode(codec.NewCursor([]byte{0x09, CPData, 0x05, 0x00, 0x01}), md)

	assert.False(t, next)
	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPSMS|gsm.StatDTAPMalformed))
	assert.False(t, md.Flow.PStat.Has(gsm.StatRP))
	assert.Empty(t, rec.records)
}

func TestDecode_CPError(t *testing.T) {
	md, _ := decode(t, 0x09, CPError, 0x11)
	assert.True(t, md.Flow.PStat.Has(gsm.StatDTAPSMS|gsm.StatUplink))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDTAPMalformed))
}

func TestDecodeCellChannels_BitMap0(t *testing.T) {
	v := make([]byte, cellChannelLen)
	v[0] = 0x08
	v[14] = 0x80
	v[15] = 0x01
	format, arfcns, ok := decodeCellChannels(v)
	require.True(t, ok)
	assert.Equal(t, "bit map 0", format)
	assert.Equal(t, []uint16{124, 16, 1}, arfcns)
}

func TestDecodeCellChannels_VariableBitMap(t *testing.T) {
	v := make([]byte, cellChannelLen)
	// origin 512, first bit set
	v[0] = 0x8f
	v[2] = 0x40
	format, arfcns, ok := decodeCellChannels(v)
	require.True(t, ok)
	assert.Equal(t, "variable bit map", format)
	assert.Equal(t, []uint16{512, 513}, arfcns)
}

func TestDecodeCellChannels_RangeFormats(t *testing.T) {
	for first, want := range map[byte]string{
		0x80: "1024 range",
		0x88: "512 range",
		0x8a: "256 range",
		0x8c: "128 range",
	} {
		v := make([]byte, cellChannelLen)
		v[0] = first
		format, arfcns, ok := decodeCellChannels(v)
		require.True(t, ok)
		assert.Equal(t, want, format)
		assert.Nil(t, arfcns)
	}
}

func TestDecodeCellChannels_UnknownFormat(t *testing.T) {
	v := make([]byte, cellChannelLen)
	v[0] = 0x40
	_, _, ok := decodeCellChannels(v)
	assert.False(t, ok)
}

func TestDecodeCellChannels_BitMap0InRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.SliceOfN(rapid.Byte(), cellChannelLen, cellChannelLen).Draw(t, "v")
		v[0] &= 0x0f
		_, arfcns, ok := decodeCellChannels(v)
		if !ok {
			t.Fatalf("bit map 0 not recognized")
		}
		for _, a := range arfcns {
			if a < 1 || a > 124 {
				t.Fatalf("ARFCN %d out of range", a)
			}
		}
	})
}

func TestDecode_NeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "b")
		f := gsm.NewFlow(1, types.FlowKey{}, time.Time{})
		f.BeginPacket(time.Time{})
		md := gsm.NewMetadata(nil, &gsm.Tally{}, f, 1, time.Time{})
		Decode(codec.NewCursor(b), md)
	})
}
