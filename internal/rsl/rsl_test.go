package rsl

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

func decode(t *testing.T, b ...byte) (*gsm.Metadata, *capture, bool) {
	t.Helper()
	rec := &capture{}
	ctx := &gsm.Context{Sink: gsm.SinkFunc(func(r gsm.Record) { rec.records = append(rec.records, r) })}
	f := gsm.NewFlow(1, types.FlowKey{}, time.Time{})
	f.BeginPacket(time.Time{})
	md := gsm.NewMetadata(ctx, &gsm.Tally{}, f, 1, time.Time{})
	ok := Decode(codec.NewCursor(b), md)
	return md, rec, ok
}

func TestDecode_DataIndicationCarriesDTAP(t *testing.T) {
	md, _, ok := decode(t,
		// RLM DATA IND, channel Bm on TS1, main DCCH SAPI 0
		0x02, 0x02, 0x01, 0x09, 0x02, 0x00,
		// L3 information: CC Setup with calling party 12345
		0x0b, 0x00, 0x0b,
		0x03, 0x05, 0x04, 0x01, 0xa0,
		0x5c, 0x04, 0x81, 0x21, 0x43, 0xf5,
	)

	require.True(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLRLM|gsm.StatDTAPCC))
	assert.False(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
	assert.Equal(t, uint8(1), md.RSL.Channel.TN)
	assert.Equal(t, uint8(0x01), md.RSL.Channel.Type)
	assert.True(t, md.Flow.TN[1])
	assert.Equal(t, "12345", md.DTAP.CC.Caller.Number)
	require.Len(t, md.Tally.RSL, 1)
	assert.Equal(t, gsm.RSLCount{Disc: codec.RSLDiscRLM, Type: 0x02, Typed: true}, md.Tally.RSL[0])
}

func TestDecode_ChannelActivationAMR(t *testing.T) {
	md, rec, ok := decode(t,
		0x08, ChanActiv,
		0x01, 0x0a, // Bm on TS2
		0x03, 0x00, // activation type
		0x06, 0x04, 0x00, 0x01, 0x08, 0x21, // speech, full rate, AMR
		0x09, 0x05, // handover reference
		0x36, 0x02, 0x20, 0x81, // multirate config
	)

	require.True(t, ok)
	assert.False(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLDCM))
	assert.True(t, md.RSL.AMR)
	assert.Equal(t, uint8(0x01), md.RSL.SpeechOrData)
	assert.Equal(t, uint8(0x08), md.RSL.RateAndType)
	assert.Equal(t, "AMR speech version 1, 12.2 kbit/s, 4.75 kbit/s, NCSB", md.RSL.AMRConfig)

	chans := rec.of(gsm.KindChannels)
	require.Len(t, chans, 1)
	r := chans[0].(*gsm.ChannelRecord)
	assert.Equal(t, ChanActiv, r.MsgType)
	assert.Equal(t, codec.RSLDiscDCM, r.Disc)
	assert.Equal(t, "Speech (FR AMR or HR AMR)", r.Content)
	assert.Equal(t, uint8(5), r.HORef)
	assert.Equal(t, uint8(2), r.RSLChannel.TN)
	assert.Empty(t, r.Cause)
	assert.Nil(t, r.FrameNumber)
}

func TestDecode_ChannelActivationAckFrameNumber(t *testing.T) {
	// T1' 1, T3 10, T2 5
	md, rec, ok := decode(t, 0x08, ChanActivAck, 0x01, 0x0a, 0x08, 0x09, 0x45)

	require.True(t, ok)
	assert.True(t, md.RSL.HasFN)
	chans := rec.of(gsm.KindChannels)
	require.Len(t, chans, 1)
	r := chans[0].(*gsm.ChannelRecord)
	require.NotNil(t, r.FrameNumber)
	assert.Equal(t, uint32(1591), r.FrameNumber.FN)
}

func TestDecode_ChannelActivationNackCause(t *testing.T) {
	md, rec, ok := decode(t, 0x08, ChanActivNack, 0x01, 0x0a, 0x1a, 0x01, 0x22)

	require.True(t, ok)
	assert.Equal(t, uint8(0x22), md.RSL.Cause)
	chans := rec.of(gsm.KindChannels)
	require.Len(t, chans, 1)
	assert.Equal(t, "Terrestrial Channel Failure", chans[0].(*gsm.ChannelRecord).Cause)
}

func TestDecode_TruncatedMessageEmitsNoRecord(t *testing.T) {
	md, rec, ok := decode(t, 0x08, ChanActivAck, 0x01, 0x0a, 0x08, 0x09)

	assert.True(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
	assert.Empty(t, rec.of(gsm.KindChannels))
}

func TestDecode_MandatoryTagMismatch(t *testing.T) {
	md, _, ok := decode(t, 0x08, RFChanRel, 0x02, 0x0a)

	assert.True(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
}

func TestDecode_ReservedSAPI(t *testing.T) {
	md, _, ok := decode(t, 0x02, 0x06, 0x01, 0x09, 0x02, 0x02)

	assert.True(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
}

func TestDecode_PagingCommandEmitsIdentity(t *testing.T) {
	md, rec, ok := decode(t,
		0x0c, 0x15, // CCM PAGING CMD
		0x01, 0x90, // PCH/AGCH
		0x0e, 0x00, // paging group
		0x0c, 0x05, 0xf4, 0xde, 0xad, 0xbe, 0xef,
	)

	require.True(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLCCM))
	ids := rec.of(gsm.KindIdentity)
	require.Len(t, ids, 1)
	id := ids[0].(*gsm.IdentityRecord)
	assert.Equal(t, codec.IdentityTMSI, id.Type)
	assert.Equal(t, "3735928559", id.Value)
}

func TestDecode_VendorDiscriminators(t *testing.T) {
	tests := []struct {
		disc uint8
		stat gsm.Status
	}{
		{codec.RSLDiscLS, gsm.StatRSLLS},
		{codec.RSLDiscIPA, gsm.StatRSLIPA},
		{codec.RSLDiscHUA, gsm.StatRSLHUA},
	}
	for _, tt := range tests {
		md, _, ok := decode(t, tt.disc<<1, 0x01)
		assert.False(t, ok)
		assert.True(t, md.Flow.PStat.Has(tt.stat))
		assert.False(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
		assert.Zero(t, md.RSL.Disc)
		require.Len(t, md.Tally.RSL, 1)
		assert.Equal(t, tt.disc, md.Tally.RSL[0].Disc)
	}
}

func TestDecode_ReservedDiscriminator(t *testing.T) {
	md, _, ok := decode(t, 0x04, 0x01)

	assert.False(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
	assert.Zero(t, md.RSL.Disc)
}

func TestDecode_UnknownMessageType(t *testing.T) {
	md, _, ok := decode(t, 0x08, 0x10)

	assert.False(t, ok)
	assert.True(t, md.Flow.PStat.Has(gsm.StatRSLMalformed))
	assert.Zero(t, md.RSL.MsgType)
	require.Len(t, md.Tally.RSL, 1)
	assert.Equal(t, uint8(0x10), md.Tally.RSL[0].Type)
}

func TestChannelContent(t *testing.T) {
	tests := []struct {
		sd, coding uint8
		want       string
		amr        bool
	}{
		{0x01, 0x01, "Speech (GSM FR or GSM HR)", false},
		{0x01, 0x0d, "Speech (OHR AMR)", true},
		{0x01, 0x7f, "Speech", false},
		{0x02, 0x51, "Data (6 kbit/s)", false},
		{0x02, 0x3f, "Data", false},
		{0x03, 0x00, "Signalling", false},
		{0x07, 0x00, "speech_or_data: Reserved (0x07)", false},
	}
	for _, tt := range tests {
		got, amr := ChannelContent(tt.sd, tt.coding)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.amr, amr)
	}
}

func TestDecode_NeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		disc := rapid.SampledFrom([]uint8{0x02, 0x08, 0x0c, 0x10}).Draw(t, "disc")
		typ := rapid.Uint8Range(0x01, 0x41).Draw(t, "type")
		body := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "body")
		b := append([]byte{disc, typ}, body...)

		f := gsm.NewFlow(1, types.FlowKey{}, time.Time{})
		f.BeginPacket(time.Time{})
		md := gsm.NewMetadata(nil, &gsm.Tally{}, f, 1, time.Time{})
		Decode(codec.NewCursor(b), md)
	})
}
