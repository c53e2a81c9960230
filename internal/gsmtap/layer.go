package gsmtap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"gsm-decoder/internal/codec"
)

// LayerTypeGSMTAP is the gopacket layer type of a GSMTAP header.
var LayerTypeGSMTAP = gopacket.RegisterLayerType(1729,
	gopacket.LayerTypeMetadata{
		Name:    "GSMTAP",
		Decoder: gopacket.DecodeFunc(decodeGSMTAP)})

func init() {
	layers.RegisterUDPPortLayerType(layers.UDPPort(DefaultPort), LayerTypeGSMTAP)
}

var errNotGSMTAP = errors.New("not a GSMTAP header")

// Layer is GSMTAP as a gopacket layer. It lets capture readers pick GSMTAP
// datagrams by layer type and lets tools build GSMTAP packets with
// gopacket.SerializeLayers.
type Layer struct {
	layers.BaseLayer
	Header
}

func (l *Layer) LayerType() gopacket.LayerType { return LayerTypeGSMTAP }

func (l *Layer) CanDecode() gopacket.LayerClass { return LayerTypeGSMTAP }

func (l *Layer) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// DecodeFromBytes decodes the header the same way the packet decoder probes it.
func (l *Layer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	c := codec.NewCursor(data)
	h, ok := Probe(c)
	if !ok {
		df.SetTruncated()
		return errNotGSMTAP
	}
	l.Header = h
	l.BaseLayer = layers.BaseLayer{Contents: data[:c.Tell()], Payload: data[c.Tell():]}
	return nil
}

// SerializeTo writes a version 2 header of HdrLen words, 4 when unset.
func (l *Layer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	words := l.HdrLen
	if words == 0 || opts.FixLengths {
		words = headerSize / 4
	}
	if words < 2 {
		return fmt.Errorf("failed to serialize GSMTAP: header length %d words", words)
	}
	bytes, err := b.PrependBytes(int(words) * 4)
	if err != nil {
		return err
	}
	var buf [headerSize]byte
	buf[0] = Version
	buf[1] = words
	buf[2] = l.PayloadType
	buf[3] = l.Timeslot
	binary.BigEndian.PutUint16(buf[4:], l.ARFCN)
	buf[6] = uint8(l.Signal)
	buf[7] = uint8(l.SNR)
	binary.BigEndian.PutUint32(buf[8:], l.FrameNumber)
	buf[12] = l.ChannelType
	buf[13] = l.Antenna
	buf[14] = l.SubSlot
	n := copy(bytes, buf[:])
	for i := n; i < len(bytes); i++ {
		bytes[i] = 0
	}
	return nil
}

func decodeGSMTAP(data []byte, p gopacket.PacketBuilder) error {
	l := &Layer{}
	if err := l.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(l)
	return p.NextDecoder(gopacket.LayerTypePayload)
}
