package pcap

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"

	"gsm-decoder/pkg/types"
)

const (
	// LinkTypeLinuxLAPD frames start with a 16 byte cooked header.
	LinkTypeLinuxLAPD = layers.LinkTypeLinuxLAPD
	// LinkTypeLAPD frames start with the Q.921 address.
	LinkTypeLAPD layers.LinkType = 203

	linuxLAPDHeaderLen = 16
)

// Parser reads capture files and extracts the payloads the GSM decoder
// consumes: UDP datagrams, SCTP DATA chunks and raw LAPD frames.
type Parser struct {
	sctp bool
}

// NewParser creates a new capture parser. SCTP DATA chunks are extracted
// only when sctp is set.
func NewParser(sctp bool) *Parser {
	return &Parser{sctp: sctp}
}

// Summary counts what a capture pass saw.
type Summary struct {
	Packets  uint64 // frames read from the capture
	Payloads uint64 // payloads handed to the callback
	Skipped  uint64 // frames without a GSM carrier
}

// ForEach reads filename and calls fn for every extracted payload, in
// capture order. Reading stops at the first error fn returns or when ctx is
// cancelled.
func (p *Parser) ForEach(ctx context.Context, filename string, fn func(*types.RawPacket) error) (*Summary, error) {
	handle, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", filename, err)
	}
	defer handle.Close()

	linkType := handle.LinkType()
	log.WithField("link_type", linkType.String()).Debug("PCAP link type detected")

	packetSource := gopacket.NewPacketSource(handle, linkType)
	packetSource.DecodeOptions.Lazy = true

	sum := &Summary{}
	for packet := range packetSource.Packets() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Packets++

		extracted := p.Extract(packet, linkType, sum.Packets)
		if len(extracted) == 0 {
			sum.Skipped++
			continue
		}
		for i := range extracted {
			sum.Payloads++
			if err := fn(&extracted[i]); err != nil {
				return sum, err
			}
		}
	}

	log.WithFields(log.Fields{
		"total_packets": sum.Packets,
		"payloads":      sum.Payloads,
		"skipped":       sum.Skipped,
	}).Info("PCAP parsing complete")

	return sum, nil
}

// Parse reads a capture file and returns all extracted payloads in order.
func (p *Parser) Parse(filename string) ([]types.RawPacket, error) {
	var out []types.RawPacket
	_, err := p.ForEach(context.Background(), filename, func(pkt *types.RawPacket) error {
		out = append(out, *pkt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Extract returns the GSM payloads of one captured frame. Frame number num
// is carried into every payload. Payloads are copies of the frame data.
func (p *Parser) Extract(packet gopacket.Packet, linkType layers.LinkType, num uint64) []types.RawPacket {
	ts := packet.Metadata().Timestamp

	switch linkType {
	case LinkTypeLinuxLAPD, LinkTypeLAPD:
		data := packet.Data()
		if linkType == LinkTypeLinuxLAPD {
			if len(data) < linuxLAPDHeaderLen {
				return nil
			}
			data = data[linuxLAPDHeaderLen:]
		}
		if len(data) < 2 {
			return nil
		}
		return []types.RawPacket{{
			Number:    num,
			Timestamp: ts,
			Key:       types.NewLAPDKey(binary.BigEndian.Uint16(data)),
			Payload:   clone(data),
		}}
	}

	var vlan uint16
	if dot1q, ok := packet.Layer(layers.LayerTypeDot1Q).(*layers.Dot1Q); ok {
		vlan = dot1q.VLANIdentifier
	}

	var srcIP, dstIP net.IP
	if ipv4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		// later fragments carry no transport header
		if ipv4.FragOffset != 0 {
			return nil
		}
		srcIP, dstIP = ipv4.SrcIP, ipv4.DstIP
	} else if ipv6, ok := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		srcIP, dstIP = ipv6.SrcIP, ipv6.DstIP
	} else {
		return nil
	}

	if udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		return []types.RawPacket{{
			Number:    num,
			Timestamp: ts,
			Key:       types.NewFlowKey(vlan, srcIP, dstIP, uint16(udp.SrcPort), uint16(udp.DstPort), types.TransportUDP),
			Payload:   clone(udp.Payload),
		}}
	}

	if !p.sctp {
		return nil
	}
	sctp, ok := packet.Layer(layers.LayerTypeSCTP).(*layers.SCTP)
	if !ok {
		return nil
	}
	key := types.NewFlowKey(vlan, srcIP, dstIP, uint16(sctp.SrcPort), uint16(sctp.DstPort), types.TransportSCTP)

	var out []types.RawPacket
	for _, l := range packet.Layers() {
		data, ok := l.(*layers.SCTPData)
		if !ok {
			continue
		}
		// only the first piece of a fragmented user message is decoded
		if !data.BeginFragment {
			continue
		}
		var payload []byte
		if app, ok := l.(gopacket.ApplicationLayer); ok {
			payload = app.Payload()
		}
		out = append(out, types.RawPacket{
			Number:    num,
			Timestamp: ts,
			Key:       key,
			Payload:   clone(payload),
		})
	}
	return out
}

// CountPayloads returns how many payloads of each transport a capture holds.
func (p *Parser) CountPayloads(filename string) (map[string]int, error) {
	counts := make(map[string]int)
	_, err := p.ForEach(context.Background(), filename, func(pkt *types.RawPacket) error {
		counts[pkt.Key.Transport.String()]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
