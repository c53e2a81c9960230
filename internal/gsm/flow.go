package gsm

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gsm-decoder/pkg/types"
)

// AMRFrameDuration is the speech duration of one AMR frame.
const AMRFrameDuration = 20 * time.Millisecond

// SpeechFile is the sink of the AMR frames of a flow. A file shared by both
// directions of a link is released by each flow once.
type SpeechFile interface {
	io.Writer
	Release() error
}

// Flow is the decode state of one direction of a signalling link. It is
// mutated by every packet of the flow, in capture order, by one goroutine.
type Flow struct {
	Index     uint64
	Key       types.FlowKey
	FirstSeen time.Time
	LastSeen  time.Time

	// Inverted is set when the flow was created after its opposite.
	Inverted bool
	Opposite *Flow

	// NativeLAPD flows carry LAPD frames without an IP encapsulation.
	NativeLAPD bool

	Stat  Status // cumulative over the flow
	PStat Status // current packet

	SAPI uint8
	TEI  uint8
	TN   [8]bool

	AMRGood uint64
	AMRBad  uint64
	Speech  SpeechFile

	// MsgID is the concatenated SMS reference of the last SMS seen, -1 if none.
	MsgID int32

	concat map[uint16]*smsConcat
}

type smsConcat struct {
	parts []string
	seen  []bool
}

// NewFlow returns an empty flow state.
func NewFlow(index uint64, key types.FlowKey, first time.Time) *Flow {
	return &Flow{
		Index:      index,
		Key:        key,
		FirstSeen:  first,
		LastSeen:   first,
		NativeLAPD: key.Transport == types.TransportLAPD,
		MsgID:      -1,
	}
}

// BeginPacket clears the per-packet status.
func (f *Flow) BeginPacket(ts time.Time) {
	f.PStat = 0
	if ts.After(f.LastSeen) {
		f.LastSeen = ts
	}
}

// EndPacket folds the packet status into the flow status.
func (f *Flow) EndPacket() {
	f.Stat |= f.PStat
}

// Flag sets status bits on the current packet.
func (f *Flow) Flag(s Status) {
	f.PStat |= s
}

// MarkTimeslot records an occupied timeslot.
func (f *Flow) MarkTimeslot(tn uint8) {
	f.TN[tn&0x07] = true
}

// Timeslots lists the occupied timeslots, separated by ';'.
func (f *Flow) Timeslots() string {
	var tns []string
	for i, used := range f.TN {
		if used {
			tns = append(tns, fmt.Sprintf("%d", i))
		}
	}
	return strings.Join(tns, ";")
}

// AMRDuration is the speech time covered by the frames seen on the flow.
func (f *Flow) AMRDuration() time.Duration {
	return time.Duration(f.AMRGood+f.AMRBad) * AMRFrameDuration
}

// AddSMSPart stores one part of a concatenated SMS. When the last missing
// part arrives, the joined text is returned with complete set. Duplicate
// parts overwrite the earlier copy.
func (f *Flow) AddSMSPart(ref uint16, part, parts uint8, text string) (string, bool) {
	if parts == 0 || part == 0 || part > parts {
		return "", false
	}
	if f.concat == nil {
		f.concat = make(map[uint16]*smsConcat)
	}
	c, ok := f.concat[ref]
	if !ok || len(c.parts) != int(parts) {
		c = &smsConcat{parts: make([]string, parts), seen: make([]bool, parts)}
		f.concat[ref] = c
	}
	c.parts[part-1] = text
	c.seen[part-1] = true
	for _, s := range c.seen {
		if !s {
			return "", false
		}
	}
	delete(f.concat, ref)
	return strings.Join(c.parts, ""), true
}

// PendingSMS returns the number of concatenated messages still incomplete.
func (f *Flow) PendingSMS() int {
	return len(f.concat)
}

// Close releases the speech file of the flow.
func (f *Flow) Close() error {
	if f.Speech == nil {
		return nil
	}
	err := f.Speech.Release()
	f.Speech = nil
	if err != nil {
		return fmt.Errorf("failed to release speech file of flow %d: %w", f.Index, err)
	}
	return nil
}
