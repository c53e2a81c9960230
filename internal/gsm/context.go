package gsm

import "gsm-decoder/internal/lookup"

// RecordSink receives the sidecar records produced while decoding. Emit is
// called in packet order.
type RecordSink interface {
	Emit(r Record)
}

// SinkFunc adapts a function to a RecordSink.
type SinkFunc func(r Record)

func (f SinkFunc) Emit(r Record) { f(r) }

// SpeechOpener opens the speech file of a flow on its first good AMR frame.
// created is false when the file of the opposite flow is shared.
type SpeechOpener interface {
	Open(f *Flow) (file SpeechFile, created bool, err error)
}

// Context carries the collaborators shared by every decode call.
type Context struct {
	Tables  *lookup.Tables
	Sink    RecordSink
	Speech  SpeechOpener
	TMSIHex bool

	// GSMTAPPort selects the packets probed for a GSMTAP header.
	GSMTAPPort uint16
}
