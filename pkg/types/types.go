package types

import (
	"fmt"
	"net"
	"time"
)

// Transport identifies the carrier of a GSM payload.
type Transport uint8

const (
	TransportUDP Transport = iota
	TransportSCTP
	TransportTCP
	TransportLAPD // Linux LAPD link type, no IP header
)

// IPProto returns the IP protocol number used in speech file names.
func (t Transport) IPProto() uint8 {
	switch t {
	case TransportUDP:
		return 17
	case TransportSCTP:
		return 132
	case TransportTCP:
		return 6
	}
	return 0
}

func (t Transport) String() string {
	switch t {
	case TransportUDP:
		return "UDP"
	case TransportSCTP:
		return "SCTP"
	case TransportTCP:
		return "TCP"
	case TransportLAPD:
		return "LAPD"
	}
	return fmt.Sprintf("%d", uint8(t))
}

// FlowKey identifies one direction of a signalling link.
type FlowKey struct {
	VLAN      uint16
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	Transport Transport
}

// Reverse returns the key of the opposite direction.
func (k FlowKey) Reverse() FlowKey {
	return FlowKey{
		VLAN:      k.VLAN,
		SrcIP:     k.DstIP,
		DstIP:     k.SrcIP,
		SrcPort:   k.DstPort,
		DstPort:   k.SrcPort,
		Transport: k.Transport,
	}
}

func (k FlowKey) String() string {
	return fmt.Sprintf("vlan%d %s:%d -> %s:%d %s", k.VLAN, k.SrcIP, k.SrcPort, k.DstIP, k.DstPort, k.Transport)
}

// RawPacket is one GSM payload extracted from a capture or received live.
type RawPacket struct {
	Number    uint64
	Timestamp time.Time
	Key       FlowKey
	Payload   []byte
}

// NewFlowKey builds a key from IP endpoints.
func NewFlowKey(vlan uint16, src, dst net.IP, sport, dport uint16, t Transport) FlowKey {
	k := FlowKey{VLAN: vlan, SrcPort: sport, DstPort: dport, Transport: t}
	if src != nil {
		k.SrcIP = src.String()
	}
	if dst != nil {
		k.DstIP = dst.String()
	}
	return k
}

// lapdCR is the command/response bit of a LAPD address in network order.
const lapdCR = 0x0200

// NewLAPDKey builds the key of a LAPD link from the two address octets. The
// opposite direction differs only in the command/response bit, so Reverse
// yields the key of the peer.
func NewLAPDKey(addr uint16) FlowKey {
	return FlowKey{SrcPort: addr, DstPort: addr ^ lapdCR, Transport: TransportLAPD}
}
