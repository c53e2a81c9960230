package gsmtap

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/pkg/types"
)

func newMetadata() *gsm.Metadata {
	f := gsm.NewFlow(1, types.FlowKey{}, time.Time{})
	f.BeginPacket(time.Time{})
	return gsm.NewMetadata(nil, &gsm.Tally{}, f, 1, time.Time{})
}

func header(payloadType, channelType uint8, arfcn uint16) []byte {
	return []byte{
		0x02, 0x04, payloadType, 0x03,
		byte(arfcn >> 8), byte(arfcn), 0xc4, 0x10,
		0x00, 0x01, 0x02, 0x03,
		channelType, 0x00, 0x01, 0x00,
	}
}

func TestProbe_DecodesFields(t *testing.T) {
	c := codec.NewCursor(append(header(TypeUm, ChanSDCCH8, 0x4000|512), 0x01))

	h, ok := Probe(c)
	require.True(t, ok)
	assert.Equal(t, 16, c.Tell())
	assert.Equal(t, uint8(3), h.Timeslot)
	assert.Equal(t, uint16(512), h.Channel())
	assert.True(t, h.Downlink())
	assert.False(t, h.PCS())
	assert.Equal(t, int8(-60), h.Signal)
	assert.Equal(t, uint32(0x00010203), h.FrameNumber)
	assert.Equal(t, ChanSDCCH8, h.ChannelType)
	assert.Equal(t, uint8(1), h.SubSlot)
}

func TestProbe_ShortHeaderZeroesMissingFields(t *testing.T) {
	c := codec.NewCursor([]byte{0x02, 0x02, 0x01, 0x05, 0x00, 0x10, 0xff, 0xff})

	h, ok := Probe(c)
	require.True(t, ok)
	assert.Equal(t, 8, c.Tell())
	assert.Equal(t, uint8(5), h.Timeslot)
	assert.Equal(t, uint16(0x10), h.ARFCN)
	assert.Equal(t, uint32(0), h.FrameNumber)
	assert.Equal(t, uint8(0), h.ChannelType)
}

func TestProbe_RejectsAndRestoresCursor(t *testing.T) {
	tests := map[string][]byte{
		"version 1":      {0x01, 0x04, 0x01, 0x00},
		"length 1 word":  {0x02, 0x01, 0x01, 0x00},
		"um burst":       header(0x03, ChanBCCH, 0),
		"truncated":      header(TypeUm, ChanBCCH, 0)[:10],
		"too few octets": {0x02},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			c := codec.NewCursor(data)
			_, ok := Probe(c)
			assert.False(t, ok)
			assert.Equal(t, 0, c.Tell())
		})
	}
}

func TestProbe_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "data")
		c := codec.NewCursor(data)
		_, ok := Probe(c)
		if !ok {
			if c.Tell() != 0 {
				t.Fatalf("cursor moved to %d on a rejected header", c.Tell())
			}
			return
		}
		if want := int(data[1]) * 4; c.Tell() != want {
			t.Fatalf("cursor at %d, want %d", c.Tell(), want)
		}
	})
}

func TestDecode_NotGSMTAP(t *testing.T) {
	md := newMetadata()
	c := codec.NewCursor([]byte{0x00, 0x03, 0x00, 0x00})

	assert.False(t, Decode(c, md))
	assert.Equal(t, 0, c.Tell())
	assert.Equal(t, 0, md.Tally.GSMTAP)
}

func TestDecode_SkippedChannelIsCounted(t *testing.T) {
	md := newMetadata()
	c := codec.NewCursor(append(header(TypeUm, ChanPDTCH, 20), 0x40, 0x00))

	assert.False(t, Decode(c, md))
	assert.Equal(t, 1, md.Tally.GSMTAP)
	assert.True(t, md.Flow.PStat.Has(gsm.StatUplink))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDownlink))
}

func TestDecode_DedicatedChannelNeedsLAPDm(t *testing.T) {
	md := newMetadata()
	// length indicator says 10 octets, 2 follow and no fill octets
	c := codec.NewCursor(append(header(TypeUm, ChanSDCCH, ARFCNDownlink), 0x01, 0x03, 0x29, 0x05, 0x24))

	assert.False(t, Decode(c, md))
	assert.True(t, md.Flow.PStat.Has(gsm.StatDownlink|gsm.StatLAPDmMalformed))
	assert.False(t, md.Flow.PStat.Has(gsm.StatDTAP))
}

func TestLayer_SerializeAndDecode(t *testing.T) {
	tap := &Layer{Header: Header{PayloadType: TypeUm, Timeslot: 2, ARFCN: 0x4000 | 100, ChannelType: ChanCCCH, FrameNumber: 1326}}
	udp := &layers.UDP{SrcPort: 40000, DstPort: DefaultPort}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IP{10, 0, 0, 1}, DstIP: net.IP{10, 0, 0, 2}}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, udp, tap, gopacket.Payload{0x2d, 0x06, 0x3f}))

	pkt := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeIPv4, gopacket.Default)
	got, ok := pkt.Layer(LayerTypeGSMTAP).(*Layer)
	require.True(t, ok)
	assert.Equal(t, uint8(4), got.HdrLen)
	assert.Equal(t, uint16(100), got.Channel())
	assert.Equal(t, uint32(1326), got.FrameNumber)
	assert.Equal(t, []byte{0x2d, 0x06, 0x3f}, got.LayerPayload())
}
