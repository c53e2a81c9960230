package stats

import (
	"sync"
	"time"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// RSLClass groups RSL messages by discriminator.
type RSLClass int

const (
	RSLRLM RSLClass = iota
	RSLDCM
	RSLCCM
	RSLTRX
	RSLLS
	RSLIPA
	RSLHUA
	RSLUnknown
	numRSLClasses
)

var rslClassNames = [numRSLClasses]string{"rlm", "dcm", "ccm", "trx", "ls", "ipa", "hua", "unknown"}

func (c RSLClass) String() string { return rslClassNames[c] }

func rslClass(disc uint8) RSLClass {
	switch disc {
	case codec.RSLDiscRLM:
		return RSLRLM
	case codec.RSLDiscDCM:
		return RSLDCM
	case codec.RSLDiscCCM:
		return RSLCCM
	case codec.RSLDiscTRX:
		return RSLTRX
	case codec.RSLDiscLS:
		return RSLLS
	case codec.RSLDiscIPA:
		return RSLIPA
	case codec.RSLDiscHUA:
		return RSLHUA
	}
	return RSLUnknown
}

// DTAPFamily groups DTAP messages by protocol discriminator.
type DTAPFamily int

const (
	DTAPCC DTAPFamily = iota
	DTAPMM
	DTAPRR
	DTAPSMS
	DTAPSS
	DTAPUnknown
	numDTAPFamilies
)

var dtapFamilyNames = [numDTAPFamilies]string{"cc", "mm", "rr", "sms", "ss", "unknown"}

func (f DTAPFamily) String() string { return dtapFamilyNames[f] }

func dtapFamily(pd uint8) DTAPFamily {
	switch pd {
	case codec.PDCallControl:
		return DTAPCC
	case codec.PDMobility:
		return DTAPMM
	case codec.PDRadio:
		return DTAPRR
	case codec.PDSMS:
		return DTAPSMS
	case codec.PDSupplSvc:
		return DTAPSS
	}
	return DTAPUnknown
}

// FrameCount counts good and bad AMR frames.
type FrameCount struct {
	Good uint64
	Bad  uint64
}

// Total returns good plus bad frames.
func (f FrameCount) Total() uint64 { return f.Good + f.Bad }

// Counters are the statistics accumulated over a run.
type Counters struct {
	Packets uint64
	GSMTAP  uint64

	RSL        uint64
	RSLClasses [numRSLClasses]uint64
	RSLTypes   map[uint8]uint64

	DTAP         uint64
	DTAPFamilies [numDTAPFamilies]uint64
	CCTypes      map[uint8]uint64
	MMTypes      map[uint8]uint64
	RRTypes      map[uint8]uint64

	SMSTPDUs    uint64
	SMSMessages uint64

	AMRFiles   uint64
	AMRFrames  FrameCount
	AMRByType  map[uint8]FrameCount
	Status     gsm.Status
	Malformed  uint64
	FlowsEnded uint64
}

func newCounters() Counters {
	return Counters{
		RSLTypes:  make(map[uint8]uint64),
		CCTypes:   make(map[uint8]uint64),
		MMTypes:   make(map[uint8]uint64),
		RRTypes:   make(map[uint8]uint64),
		AMRByType: make(map[uint8]FrameCount),
	}
}

func (c *Counters) clone() Counters {
	out := *c
	out.RSLTypes = copyMap(c.RSLTypes)
	out.CCTypes = copyMap(c.CCTypes)
	out.MMTypes = copyMap(c.MMTypes)
	out.RRTypes = copyMap(c.RRTypes)
	out.AMRByType = make(map[uint8]FrameCount, len(c.AMRByType))
	for k, v := range c.AMRByType {
		out.AMRByType[k] = v
	}
	return out
}

func copyMap(m map[uint8]uint64) map[uint8]uint64 {
	out := make(map[uint8]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Collector aggregates the per-packet tallies of a run. It is safe for
// concurrent use.
type Collector struct {
	StartTime time.Time
	EndTime   time.Time

	counters Counters
	metrics  *Metrics
	mu       sync.Mutex
}

// NewCollector creates a collector. Counts are mirrored into m when it is
// not nil.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		StartTime: time.Now(),
		counters:  newCounters(),
		metrics:   m,
	}
}

// Add merges the tally of one packet.
func (c *Collector) Add(t *gsm.Tally) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := &c.counters
	n.Packets++
	n.GSMTAP += uint64(t.GSMTAP)

	for _, r := range t.RSL {
		n.RSL++
		n.RSLClasses[rslClass(r.Disc)]++
		if r.Typed {
			n.RSLTypes[r.Type]++
		}
	}

	for _, d := range t.DTAP {
		n.DTAP++
		fam := dtapFamily(d.PD)
		n.DTAPFamilies[fam]++
		if !d.Typed {
			continue
		}
		switch fam {
		case DTAPCC:
			n.CCTypes[d.Type]++
		case DTAPMM:
			n.MMTypes[d.Type]++
		case DTAPRR:
			n.RRTypes[d.Type]++
		}
	}

	n.SMSTPDUs += uint64(t.SMSTPDUs)
	n.SMSMessages += uint64(t.SMSMessages)
	n.AMRFiles += uint64(t.AMRFiles)
	for _, a := range t.AMR {
		fc := n.AMRByType[a.Type]
		if a.Good {
			fc.Good++
			n.AMRFrames.Good++
		} else {
			fc.Bad++
			n.AMRFrames.Bad++
		}
		n.AMRByType[a.Type] = fc
	}

	n.Status |= t.Status
	if t.Status&gsm.AnyMalformed != 0 {
		n.Malformed++
	}

	if c.metrics != nil {
		c.metrics.Observe(t)
	}
}

// FlowEnded counts a terminated flow.
func (c *Collector) FlowEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters.FlowsEnded++
}

// Finish marks the end of the collection period.
func (c *Collector) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EndTime = time.Now()
}

// Duration returns the elapsed time.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration()
}

func (c *Collector) duration() time.Duration {
	if c.EndTime.IsZero() {
		return time.Since(c.StartTime)
	}
	return c.EndTime.Sub(c.StartTime)
}

// Snapshot is a point-in-time copy of the collector.
type Snapshot struct {
	Counters
	StartTime time.Time
	EndTime   time.Time
	Elapsed   time.Duration
}

// Snapshot returns a deep copy of the current statistics.
func (c *Collector) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Snapshot{
		Counters:  c.counters.clone(),
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Elapsed:   c.duration(),
	}
}

// Reset zeroes the counters and restarts the collection period. The
// Prometheus mirror keeps counting.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = newCounters()
	c.StartTime = time.Now()
	c.EndTime = time.Time{}
}
