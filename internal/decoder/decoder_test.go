package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gsm-decoder/internal/amr"
	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/pkg/types"
)

type tallies struct {
	added []gsm.Tally
}

func (t *tallies) Add(tally *gsm.Tally) { t.added = append(t.added, *tally) }

type capture struct {
	records []gsm.Record
}

func (c *capture) Emit(r gsm.Record) { c.records = append(c.records, r) }

func (c *capture) of(kind gsm.RecordKind) []gsm.Record {
	var out []gsm.Record
	for _, r := range c.records {
		if r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}

var (
	udpKey    = types.FlowKey{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 40000, DstPort: 4729}
	rtpKey    = types.FlowKey{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 5000, DstPort: 5002}
	nativeKey = types.FlowKey{Transport: types.TransportLAPD}
)

func run(t *testing.T, ctx *gsm.Context, key types.FlowKey, payload []byte) (*gsm.Flow, *tallies) {
	t.Helper()
	f := gsm.NewFlow(1, key, time.Unix(100, 0))
	col := &tallies{}
	Decode(ctx, col, f, &types.RawPacket{Number: 7, Timestamp: time.Unix(101, 0), Key: key, Payload: payload})
	return f, col
}

func TestDecode_NativeLAPDCarriesRSL(t *testing.T) {
	rec := &capture{}
	payload := []byte{
		// SAPI 0, TEI 1, I frame
		0x00, 0x03, 0x00, 0x00,
		// DCM CHANnel ACTivation ACKnowledge
		0x08, 0x22, 0x01, 0x0a, 0x08, 0x09, 0x45,
	}
	f, col := run(t, &gsm.Context{Sink: rec}, nativeKey, payload)

	assert.True(t, f.Stat.Has(gsm.StatLAPDRSL|gsm.StatRSLDCM))
	assert.Equal(t, uint8(1), f.TEI)
	assert.True(t, f.TN[2])

	require.Len(t, col.added, 1)
	assert.Equal(t, f.PStat, col.added[0].Status)
	require.Len(t, col.added[0].RSL, 1)
	assert.Equal(t, uint8(0x22), col.added[0].RSL[0].Type)

	pkts := rec.of(gsm.KindPacket)
	require.Len(t, pkts, 1)
	p := pkts[0].(*gsm.PacketRecord)
	assert.Equal(t, uint64(7), p.PktNo)
	assert.Equal(t, uint8(0x22), p.RSLMsgType)
	assert.Equal(t, uint8(1), p.TEI)
	assert.Len(t, rec.of(gsm.KindChannels), 1)
}

func TestDecode_NativeLAPDManagementSAPI(t *testing.T) {
	f, _ := run(t, nil, nativeKey, []byte{0xf8, 0x03, 0x03, 0x01, 0x02})

	assert.True(t, f.Stat.Has(gsm.StatLAPDOML))
	assert.False(t, f.Stat.Has(gsm.StatRSLMalformed))
	assert.Equal(t, uint8(62), f.SAPI)
}

func TestDecode_NativeLAPDUnknownControl(t *testing.T) {
	payload := []byte{
		// SAPI 0, TEI 1, U frame with an unassigned control value
		0x00, 0x03, 0xe3,
		0x08, 0x22, 0x01, 0x0a, 0x08, 0x09, 0x45,
	}
	f, col := run(t, nil, nativeKey, payload)

	assert.True(t, f.Stat.Has(gsm.StatLAPDRSL|gsm.StatLAPDMalformed))
	assert.False(t, f.Stat.Has(gsm.StatRSLDCM))
	require.Len(t, col.added, 1)
	assert.Empty(t, col.added[0].RSL)
}

func TestDecode_GSMTAPAbis(t *testing.T) {
	payload := []byte{
		0x02, 0x04, 0x02, 0x00, 0x00, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		// CC Setup with calling party 12345
		0x03, 0x05, 0x04, 0x01, 0xa0,
		0x5c, 0x04, 0x81, 0x21, 0x43, 0xf5,
	}
	f, col := run(t, &gsm.Context{}, udpKey, payload)

	assert.True(t, f.Stat.Has(gsm.StatDTAPCC|gsm.StatUplink))
	assert.False(t, f.Stat.Has(gsm.StatLAPDMalformed))
	require.Len(t, col.added, 1)
	assert.Equal(t, 1, col.added[0].GSMTAP)
	require.Len(t, col.added[0].DTAP, 1)
	assert.Equal(t, codec.PDCallControl, col.added[0].DTAP[0].PD)
}

func TestDecode_GSMTAPPortFallsBackToLAPD(t *testing.T) {
	payload := []byte{0x00, 0x03, 0x00, 0x00, 0x08, 0x2e, 0x01, 0x0a}
	f, col := run(t, &gsm.Context{}, udpKey, payload)

	assert.True(t, f.Stat.Has(gsm.StatLAPDRSL|gsm.StatRSLDCM))
	assert.Zero(t, col.added[0].GSMTAP)
}

func TestDecode_SpeechFrame(t *testing.T) {
	store, err := amr.NewStore(amr.StoreConfig{Dir: t.TempDir(), TmpExt: ".tmp", Ext: ".amr", Split: true})
	require.NoError(t, err)
	rec := &capture{}
	payload := make([]byte, 32)
	payload[0], payload[1] = 0xf3, 0xc0

	f, col := run(t, &gsm.Context{Sink: rec, Speech: store}, rtpKey, payload)
	defer f.Close()

	assert.True(t, f.Stat.Has(gsm.StatAMR))
	assert.Equal(t, uint64(1), f.AMRGood)
	assert.Equal(t, 1, col.added[0].AMRFiles)
	p := rec.of(gsm.KindPacket)[0].(*gsm.PacketRecord)
	assert.True(t, p.AMR.Present)
	assert.Equal(t, uint8(7), p.AMR.Type)
}

func TestDecode_EmptyPayloadAccountedOnce(t *testing.T) {
	rec := &capture{}
	f, col := run(t, &gsm.Context{Sink: rec}, udpKey, nil)

	assert.Zero(t, f.Stat)
	require.Len(t, col.added, 1)
	assert.Len(t, rec.of(gsm.KindPacket), 1)
}

func TestDecode_AnyPayloadAccountedOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 96).Draw(t, "payload")
		key := rapid.SampledFrom([]types.FlowKey{udpKey, rtpKey, nativeKey}).Draw(t, "key")

		f := gsm.NewFlow(1, key, time.Time{})
		col := &tallies{}
		Decode(nil, col, f, &types.RawPacket{Payload: payload})
		if len(col.added) != 1 {
			t.Fatalf("packet accounted %d times", len(col.added))
		}
		if f.Stat&f.PStat != f.PStat {
			t.Fatalf("flow status 0x%08x misses packet status 0x%08x", f.Stat, f.PStat)
		}
	})
}
