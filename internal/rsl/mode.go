package rsl

import (
	"fmt"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// Speech or data indicator of the channel mode.
const (
	modeSpeech     uint8 = 0x01
	modeData       uint8 = 0x02
	modeSignalling uint8 = 0x03
)

var rateAndTypes = map[uint8]string{
	0x01: "SDCCH",
	0x08: "Full rate TCH channel Bm",
	0x09: "Half rate TCH channel Lm",
	0x0a: "Full rate TCH channel bi-directional Bm, Multislot configuration",
	0x1a: "Full rate TCH channel uni-directional downlink Bm, Multislot configuration",
	0x18: "Full rate TCH channel Bm Group call channel",
	0x19: "Half rate TCH channel Lm Group call channel",
	0x28: "Full rate TCH channel Bm Broadcast call channel",
	0x29: "Half rate TCH channel Lm Broadcast call channel",
}

// speechCodings maps the speech coding algorithm octet to the channel
// content. The bool marks AMR codecs.
var speechCodings = map[uint8]struct {
	name string
	amr  bool
}{
	0x01: {"Speech (GSM FR or GSM HR)", false},
	0x11: {"Speech (GSM EFR)", false},
	0x21: {"Speech (FR AMR or HR AMR)", true},
	0x31: {"Speech (OFR AMR-WB or OHR AMR-WB)", true},
	0x09: {"Speech (FR AMR-WB)", true},
	0x0d: {"Speech (OHR AMR)", true},
}

var dataRates = map[uint8]string{
	0x21: "Data (asymmetric 43.5 kbit/s (downlink) + 14.5 kbit/s (uplink))",
	0x22: "Data (asymmetric 29.0 kbit/s (downlink) + 14.5 kbit/s (uplink))",
	0x23: "Data (asymmetric 43.5 kbit/s (downlink) + 29.0 kbit/s (uplink))",
	0x29: "Data (asymmetric 14.5 kbit/s (downlink) + 43.5 kbit/s (uplink))",
	0x2a: "Data (asymmetric 14.5 kbit/s (downlink) + 29.0 kbit/s (uplink))",
	0x2b: "Data (asymmetric 29.0 kbit/s (downlink) + 43.5 kbit/s (uplink))",
	0x34: "Data (43.5 kbit/s)",
	0x31: "Data (28.8 kbit/s)",
	0x18: "Data (14.5 kbit/s)",
	0x10: "Data (12 kbit/s)",
	0x11: "Data (6 kbit/s)",
}

// ChannelContent describes what a channel mode carries, and whether the
// speech codec is AMR.
func ChannelContent(speechOrData, coding uint8) (content string, amr bool) {
	switch speechOrData {
	case modeSpeech:
		if s, ok := speechCodings[coding]; ok {
			return s.name, s.amr
		}
		return "Speech", false
	case modeData:
		if s, ok := dataRates[coding&0x3f]; ok {
			return s, false
		}
		return "Data", false
	case modeSignalling:
		return "Signalling", false
	}
	return fmt.Sprintf("speech_or_data: Reserved (0x%02X)", speechOrData), false
}

// readChannelMode reads the DTX flags, the speech or data indicator, the
// channel rate and type and the coding octet.
func readChannelMode(m *msg, c *codec.Cursor) error {
	v, err := c.ReadLV()
	if err != nil {
		return err
	}
	rsl := &m.md.RSL
	if len(v) < 3 {
		m.md.Flag(gsm.StatRSLMalformed)
		m.log.Debugf("channel mode of %d octets", len(v))
		return nil
	}
	rsl.SpeechOrData, rsl.RateAndType = v[1], v[2]
	if name, ok := rateAndTypes[v[2]]; ok {
		m.log.Debugf("channel rate and type: %s", name)
	} else {
		m.log.Debugf("reserved channel rate and type 0x%02x", v[2])
	}

	var coding uint8
	if len(v) > 3 {
		coding = v[3]
	}
	rsl.ChannelContent, rsl.AMR = ChannelContent(v[1], coding)
	switch v[1] {
	case modeSpeech, modeData:
	case modeSignalling:
		if coding != 0 {
			m.md.Flag(gsm.StatRSLMalformed)
		}
	default:
		rsl.SpeechOrData = 0
	}
	m.log.Debugf("channel content %s", rsl.ChannelContent)
	return nil
}
