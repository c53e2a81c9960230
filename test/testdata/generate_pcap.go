//go:build ignore

// This program generates a sample GSMTAP pcap file for testing.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"gsm-decoder/internal/gsmtap"
)

func main() {
	filename := "test/testdata/sample.pcap"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		panic(err)
	}

	radioIP := net.ParseIP("192.168.1.10")
	monitorIP := net.ParseIP("192.168.1.20")
	radioMAC, _ := net.ParseMAC("00:11:22:33:44:55")
	monitorMAC, _ := net.ParseMAC("66:77:88:99:aa:bb")
	ts := time.Now()
	fn := uint32(1000)

	// Helper to write a GSMTAP frame as an Ethernet/IP/UDP frame
	writePacket := func(hdr gsmtap.Header, frame []byte) {
		eth := &layers.Ethernet{
			SrcMAC:       radioMAC,
			DstMAC:       monitorMAC,
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    radioIP,
			DstIP:    monitorIP,
		}
		udp := &layers.UDP{
			SrcPort: 40000,
			DstPort: gsmtap.DefaultPort,
		}
		udp.SetNetworkLayerForChecksum(ip)

		hdr.Version = gsmtap.Version
		hdr.FrameNumber = fn
		fn += 51

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, &gsmtap.Layer{Header: hdr}, gopacket.Payload(frame)); err != nil {
			panic(fmt.Sprintf("failed to serialize: %v", err))
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			panic(fmt.Sprintf("failed to write packet: %v", err))
		}
		ts = ts.Add(20 * time.Millisecond)
	}

	downlink := func(ch uint8, tn uint8) gsmtap.Header {
		return gsmtap.Header{PayloadType: gsmtap.TypeUm, ChannelType: ch, Timeslot: tn, ARFCN: gsmtap.ARFCNDownlink | 62}
	}
	uplink := func(ch uint8, tn uint8) gsmtap.Header {
		return gsmtap.Header{PayloadType: gsmtap.TypeUm, ChannelType: ch, Timeslot: tn, ARFCN: 62}
	}

	// LAI 262-01, LAC 0x1234
	lai := []byte{0x62, 0xf2, 0x10, 0x12, 0x34}

	// === 1. System Information Type 3 on BCCH ===
	si3 := append([]byte{0x49, 0x06, 0x1b, 0x00, 0x2a}, lai...)
	si3 = append(si3, 0x49, 0x03, 0x3c, 0xe8, 0x31, 0x00, 0x00)
	writePacket(downlink(gsmtap.ChanBCCH, 0), pad(si3))

	// === 2. Paging Request Type 1 for a TMSI on PCH ===
	writePacket(downlink(gsmtap.ChanPCH, 0), pad([]byte{
		0x21, 0x06, 0x21, 0x00, 0x05, 0xf4, 0xde, 0xad, 0xbe, 0xef,
	}))

	// === 3. Immediate Assignment of SDCCH/8 subchannel 1 on timeslot 1 ===
	writePacket(downlink(gsmtap.ChanAGCH, 0), pad([]byte{
		0x2d, 0x06, 0x3f, 0x00,
		0x49, 0xe0, 0x3e, // channel description: SDCCH/8+1, TN 1, TSC 7, ARFCN 62
		0x12, 0x34, 0x56, // request reference
		0x02,       // timing advance
		0x00,       // empty mobile allocation
	}))

	// === 4. Location Updating Request with IMSI on SDCCH/8 ===
	lu := append([]byte{0x05, 0x08, 0x70}, lai...)
	lu = append(lu, 0x33)
	lu = append(lu, identity("262011234567890")...)
	writePacket(uplink(gsmtap.ChanSDCCH8, 1), pad(lapdm(lu)))

	// === 5. Identity Request then Identity Response with IMEI ===
	writePacket(downlink(gsmtap.ChanSDCCH8, 1), pad(lapdm([]byte{0x05, 0x18, 0x02})))
	idResp := append([]byte{0x05, 0x19}, identityType("35209900176148", 0x02)...)
	writePacket(uplink(gsmtap.ChanSDCCH8, 1), pad(lapdm(idResp)))

	// === 6. Ciphering Mode Command (A5/1) ===
	writePacket(downlink(gsmtap.ChanSDCCH8, 1), pad(lapdm([]byte{0x06, 0x35, 0x01})))

	// === 7. Location Updating Accept with a new TMSI ===
	accept := append([]byte{0x05, 0x02}, lai...)
	accept = append(accept, 0x17, 0x05, 0xf4, 0x01, 0x02, 0x03, 0x04)
	writePacket(downlink(gsmtap.ChanSDCCH8, 1), pad(lapdm(accept)))

	// === 8. Channel Release ===
	writePacket(downlink(gsmtap.ChanSDCCH8, 1), pad(lapdm([]byte{0x06, 0x0d, 0x00})))

	fmt.Printf("Generated %s with %d GSMTAP packets\n", filename, 9)
}

// lapdm wraps an L3 message in a LAPDm I frame on SAPI 0.
func lapdm(l3 []byte) []byte {
	return append([]byte{0x01, 0x00, byte(len(l3))<<2 | 0x01}, l3...)
}

// pad fills a frame up to the 23 octets of a signalling block.
func pad(b []byte) []byte {
	for len(b) < 23 {
		b = append(b, 0x2b)
	}
	return b
}

func identity(imsi string) []byte {
	return identityType(imsi, 0x01)
}

// identityType encodes a mobile identity IE of the given type in BCD.
func identityType(digits string, typ byte) []byte {
	first := (digits[0]-'0')<<4 | typ
	if len(digits)%2 == 1 {
		first |= 0x08
	}
	out := []byte{first}
	for i := 1; i < len(digits); i += 2 {
		lo := digits[i] - '0'
		hi := byte(0x0f)
		if i+1 < len(digits) {
			hi = digits[i+1] - '0'
		}
		out = append(out, hi<<4|lo)
	}
	return append([]byte{byte(len(out))}, out...)
}
