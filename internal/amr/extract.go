package amr

import (
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/gsm"
)

// Extract probes payload p for an AMR frame and accounts it on the flow.
// Good frames are appended to the speech file of the flow, which is opened
// on the first one. Bad frames only count once a file exists. It reports
// whether a frame was counted.
func Extract(p []byte, md *gsm.Metadata) bool {
	h, ok := Detect(p)
	if !ok {
		return false
	}
	f := md.Flow
	good := h.Good()
	if !good && f.Speech == nil {
		return false
	}

	typ := h.Type()
	md.Tally.AddAMR(typ, good)
	if good {
		f.AMRGood++
	} else {
		f.AMRBad++
	}
	md.AMR = gsm.AMRInfo{Present: true, CMR: h.CMR, Type: typ, Good: good}
	if !good {
		return true
	}

	logger := log.WithFields(log.Fields{"packet": md.PktNo, "flow": f.Index, "layer": "amr"})
	if f.Speech == nil && !open(md, logger) {
		return true
	}
	md.Flag(gsm.StatAMR)
	if _, err := f.Speech.Write(StorageFrame(p, h)); err != nil {
		md.Flag(gsm.StatIOErr)
		logger.WithError(err).Warn("Failed to write speech frame")
	}
	return true
}

func open(md *gsm.Metadata, logger *log.Entry) bool {
	if md.Ctx == nil || md.Ctx.Speech == nil {
		return false
	}
	sf, created, err := md.Ctx.Speech.Open(md.Flow)
	if err != nil {
		md.Flag(gsm.StatIOErr)
		logger.WithError(err).Warn("Failed to open speech file")
		return false
	}
	md.Flow.Speech = sf
	if created {
		md.Tally.AMRFiles++
	}
	return true
}
