package pcap

import (
	"context"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsm-decoder/pkg/types"
)

var (
	btsIP  = net.ParseIP("10.0.0.1").To4()
	bscIP  = net.ParseIP("10.0.0.2").To4()
	btsMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	bscMAC = net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb}
	ts     = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
)

// frame serializes an Ethernet frame, optionally VLAN tagged, around the
// given IPv4 payload layers.
func frame(t *testing.T, vlan uint16, proto layers.IPProtocol, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: btsMAC, DstMAC: bscMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: proto, SrcIP: btsIP, DstIP: bscIP}

	all := []gopacket.SerializableLayer{eth}
	if vlan != 0 {
		eth.EthernetType = layers.EthernetTypeDot1Q
		all = append(all, &layers.Dot1Q{VLANIdentifier: vlan, Type: layers.EthernetTypeIPv4})
	}
	all = append(all, ip)
	for _, l := range ls {
		switch tl := l.(type) {
		case *layers.UDP:
			require.NoError(t, tl.SetNetworkLayerForChecksum(ip))
		case *layers.TCP:
			require.NoError(t, tl.SetNetworkLayerForChecksum(ip))
		}
	}
	all = append(all, ls...)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, all...))
	return buf.Bytes()
}

func decode(data []byte, lt layers.LinkType) gopacket.Packet {
	pkt := gopacket.NewPacket(data, lt, gopacket.Default)
	pkt.Metadata().Timestamp = ts
	return pkt
}

func sctpData(sport, dport uint16, flags byte, user []byte) []byte {
	b := make([]byte, 12+16+len(user))
	binary.BigEndian.PutUint16(b[0:], sport)
	binary.BigEndian.PutUint16(b[2:], dport)
	b[12] = 0 // DATA
	b[13] = flags
	binary.BigEndian.PutUint16(b[14:], uint16(16+len(user)))
	binary.BigEndian.PutUint32(b[16:], 1)
	copy(b[28:], user)
	return b
}

func TestParser_ExtractUDP(t *testing.T) {
	payload := []byte{0x02, 0x04, 0x01, 0x00}
	data := frame(t, 0, layers.IPProtocolUDP,
		&layers.UDP{SrcPort: 40000, DstPort: 4729}, gopacket.Payload(payload))

	out := NewParser(true).Extract(decode(data, layers.LinkTypeEthernet), layers.LinkTypeEthernet, 7)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(7), out[0].Number)
	assert.Equal(t, ts, out[0].Timestamp)
	assert.Equal(t, payload, out[0].Payload)
	assert.Equal(t, types.FlowKey{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 40000, DstPort: 4729, Transport: types.TransportUDP,
	}, out[0].Key)
}

func TestParser_ExtractVLAN(t *testing.T) {
	data := frame(t, 42, layers.IPProtocolUDP,
		&layers.UDP{SrcPort: 5000, DstPort: 5002}, gopacket.Payload([]byte{0xf3, 0xc0}))

	out := NewParser(true).Extract(decode(data, layers.LinkTypeEthernet), layers.LinkTypeEthernet, 1)
	require.Len(t, out, 1)
	assert.Equal(t, uint16(42), out[0].Key.VLAN)
}

func TestParser_ExtractSCTPData(t *testing.T) {
	user := []byte{0x00, 0x03, 0x00, 0x00, 0x08, 0x22, 0x01, 0x0a}
	data := frame(t, 0, layers.IPProtocolSCTP, gopacket.Payload(sctpData(2905, 2905, 0x03, user)))

	out := NewParser(true).Extract(decode(data, layers.LinkTypeEthernet), layers.LinkTypeEthernet, 3)
	require.Len(t, out, 1)
	assert.Equal(t, types.TransportSCTP, out[0].Key.Transport)
	assert.Equal(t, uint16(2905), out[0].Key.SrcPort)
	assert.Equal(t, user, out[0].Payload)

	assert.Empty(t, NewParser(false).Extract(decode(data, layers.LinkTypeEthernet), layers.LinkTypeEthernet, 3))
}

func TestParser_ExtractSCTPSkipsContinuation(t *testing.T) {
	user := []byte{0x01, 0x02, 0x03, 0x04}
	// E bit only: last piece of a fragmented message
	data := frame(t, 0, layers.IPProtocolSCTP, gopacket.Payload(sctpData(2905, 2905, 0x01, user)))

	out := NewParser(true).Extract(decode(data, layers.LinkTypeEthernet), layers.LinkTypeEthernet, 1)
	assert.Empty(t, out)
}

func TestParser_ExtractLinuxLAPD(t *testing.T) {
	lapdFrame := []byte{0x00, 0x03, 0x00, 0x00, 0x08, 0x22}
	data := append(make([]byte, linuxLAPDHeaderLen), lapdFrame...)

	out := NewParser(true).Extract(decode(data, LinkTypeLinuxLAPD), LinkTypeLinuxLAPD, 9)
	require.Len(t, out, 1)
	assert.Equal(t, lapdFrame, out[0].Payload)
	assert.Equal(t, types.TransportLAPD, out[0].Key.Transport)
	assert.Equal(t, types.NewLAPDKey(0x0003), out[0].Key)

	// the peer answers with the C/R bit flipped
	peer := NewParser(true).Extract(decode(append(make([]byte, linuxLAPDHeaderLen), 0x02, 0x03, 0x01), LinkTypeLinuxLAPD), LinkTypeLinuxLAPD, 10)
	require.Len(t, peer, 1)
	assert.Equal(t, out[0].Key.Reverse(), peer[0].Key)
}

func TestParser_ExtractShortLAPD(t *testing.T) {
	out := NewParser(true).Extract(decode(make([]byte, linuxLAPDHeaderLen+1), LinkTypeLinuxLAPD), LinkTypeLinuxLAPD, 1)
	assert.Empty(t, out)
}

func TestParser_ForEachFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gsmtap.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	frames := [][]byte{
		frame(t, 0, layers.IPProtocolUDP, &layers.UDP{SrcPort: 40000, DstPort: 4729}, gopacket.Payload([]byte{0x02, 0x04})),
		frame(t, 0, layers.IPProtocolTCP, &layers.TCP{SrcPort: 3002, DstPort: 40001}, gopacket.Payload([]byte{0x00})),
		frame(t, 0, layers.IPProtocolUDP, &layers.UDP{SrcPort: 4729, DstPort: 40000}, gopacket.Payload([]byte{0x02, 0x04, 0x01})),
	}
	for i, b := range frames {
		ci := gopacket.CaptureInfo{Timestamp: ts.Add(time.Duration(i) * time.Second), CaptureLength: len(b), Length: len(b)}
		require.NoError(t, w.WritePacket(ci, b))
	}
	require.NoError(t, f.Close())

	var got []types.RawPacket
	sum, err := NewParser(true).ForEach(context.Background(), path, func(pkt *types.RawPacket) error {
		got = append(got, *pkt)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sum.Packets)
	assert.Equal(t, uint64(2), sum.Payloads)
	assert.Equal(t, uint64(1), sum.Skipped)

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Number)
	assert.Equal(t, uint64(3), got[1].Number)
	assert.Equal(t, uint16(4729), got[1].Key.SrcPort)
	assert.Equal(t, []byte{0x02, 0x04, 0x01}, got[1].Payload)

	counts, err := NewParser(true).CountPayloads(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"UDP": 2}, counts)
}

func TestParser_MissingFile(t *testing.T) {
	_, err := NewParser(true).Parse(filepath.Join(t.TempDir(), "absent.pcap"))
	assert.Error(t, err)
}
