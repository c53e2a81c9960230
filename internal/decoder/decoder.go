// Package decoder composes the GSM protocol layers for one packet: it picks
// the entry layer from the flow, runs the speech extractor on payloads that
// were not signalling, writes the packet record and accounts the packet.
package decoder

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/amr"
	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/internal/gsmtap"
	"gsm-decoder/internal/lapd"
	"gsm-decoder/internal/rsl"
	"gsm-decoder/pkg/types"
)

// Collector receives the tally of every decoded packet.
type Collector interface {
	Add(t *gsm.Tally)
}

// Decode decodes one packet of flow f. The packet is accounted in col
// exactly once, whatever the outcome of the decode.
func Decode(ctx *gsm.Context, col Collector, f *gsm.Flow, pkt *types.RawPacket) {
	var tally gsm.Tally
	f.BeginPacket(pkt.Timestamp)
	md := gsm.NewMetadata(ctx, &tally, f, pkt.Number, pkt.Timestamp)

	if len(pkt.Payload) > 0 {
		decodeLayers(md, codec.NewCursor(pkt.Payload))
	}

	f.EndPacket()
	tally.Status = f.PStat
	emitPacket(md)
	if col != nil {
		col.Add(&tally)
	}
}

// decodeLayers runs the signalling decoders, then probes the rest of the
// payload for speech unless it was an RSL message.
func decodeLayers(md *gsm.Metadata, c *codec.Cursor) {
	isRSL := false
	start := 0

	switch {
	case md.Flow.NativeLAPD:
		h, err := lapd.ReadHeader(c)
		if err != nil {
			md.Flag(gsm.StatLAPDMalformed)
			log.WithFields(log.Fields{"packet": md.PktNo, "layer": "lapd"}).Debugf("truncated header: %v", err)
			return
		}
		start = c.Tell()
		if lapd.Classify(c, md, h) {
			isRSL = rsl.Decode(c, md)
		}
	case gsmtapPort(md):
		at := c.Tell()
		if _, ok := gsmtap.Probe(c); ok {
			_ = c.Seek(at)
			gsmtap.Decode(c, md)
			break
		}
		if lapd.Decode(c, md) {
			start = c.Tell()
			isRSL = rsl.Decode(c, md)
		}
	default:
		if lapd.Decode(c, md) {
			start = c.Tell()
			isRSL = rsl.Decode(c, md)
		}
	}

	if isRSL || md.Ctx == nil || md.Ctx.Speech == nil {
		return
	}
	amr.Extract(c.Bytes()[start:], md)
}

func gsmtapPort(md *gsm.Metadata) bool {
	port := uint16(gsmtap.DefaultPort)
	if md.Ctx != nil && md.Ctx.GSMTAPPort != 0 {
		port = md.Ctx.GSMTAPPort
	}
	k := md.Flow.Key
	return k.SrcPort == port || k.DstPort == port
}

func emitPacket(md *gsm.Metadata) {
	f := md.Flow
	lai := md.DTAP.LAI
	r := &gsm.PacketRecord{
		PktNo:       md.PktNo,
		FlowIndex:   f.Index,
		Time:        md.Time,
		VLAN:        f.Key.VLAN,
		Status:      f.PStat,
		SAPI:        f.SAPI,
		TEI:         f.TEI,
		RSLMsgType:  md.RSL.MsgType,
		RSLChannel:  md.RSL.Channel,
		DTAPTN:      md.DTAP.Channel.TN,
		DTAPChannel: md.DTAP.ChannelString(),
		HORef:       md.RSL.HORef,
		Encryption:  md.DTAP.Encryption,
		Content:     md.RSL.ChannelContent,
		AMR:         md.AMR,
	}
	if lai.Valid {
		r.LAI = lai
		r.LAICountry = md.Country(lai.MCC)
		r.LAIOperator = md.Network(lai.MCC, lai.MNC)
	}
	md.Emit(r)
}
