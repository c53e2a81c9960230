// Package flow tracks the signalling links seen in a capture. Each direction
// of a link is one gsm.Flow; the table creates flows on their first packet,
// links them to their opposite direction and terminates them when they go
// idle or when the capture ends.
package flow

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/gsm"
	"gsm-decoder/pkg/types"
)

// DefaultIdleTimeout is the capture time after which a silent flow ends.
const DefaultIdleTimeout = 300 * time.Second

// Config holds the flow table settings.
type Config struct {
	IdleTimeout time.Duration
	// OnActive is called with the number of live flows whenever it changes.
	OnActive func(n int)
	// OnEnd is called for every terminated flow after its summary.
	OnEnd func(f *gsm.Flow)
}

// Table maps flow keys to flow state.
type Table struct {
	cfg   Config
	sink  gsm.RecordSink
	index *IndexAllocator

	flows     map[types.FlowKey]*gsm.Flow
	lastSweep time.Time
	mu        sync.Mutex
}

// NewTable creates an empty table. Terminated flows are summarized into sink,
// which may be nil.
func NewTable(cfg Config, sink gsm.RecordSink) *Table {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Table{
		cfg:   cfg,
		sink:  sink,
		index: NewIndexAllocator(1),
		flows: make(map[types.FlowKey]*gsm.Flow),
	}
}

// Get returns the flow of key, creating it when the key is new. Flows idle
// for longer than the timeout at capture time ts are terminated first.
func (t *Table) Get(key types.FlowKey, ts time.Time) *gsm.Flow {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastSweep.IsZero() {
		t.lastSweep = ts
	} else if ts.Sub(t.lastSweep) >= t.cfg.IdleTimeout/10 {
		t.expireLocked(ts)
		t.lastSweep = ts
	}

	if f, ok := t.flows[key]; ok {
		return f
	}

	var f *gsm.Flow
	if opp, ok := t.flows[key.Reverse()]; ok && key.Reverse() != key {
		// the B side of a link shares the index of its A side
		f = gsm.NewFlow(opp.Index, key, ts)
		f.Opposite, opp.Opposite = opp, f
		f.Inverted = !opp.Inverted
	} else {
		f = gsm.NewFlow(t.index.Allocate(), key, ts)
	}
	t.flows[key] = f
	log.WithFields(log.Fields{
		"flow":     f.Index,
		"key":      key.String(),
		"inverted": f.Inverted,
	}).Debug("New flow")
	t.notify()
	return f
}

// Expire terminates the flows idle at capture time now and returns how many
// ended.
func (t *Table) Expire(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expireLocked(now)
}

// Flush terminates every flow, in index order.
func (t *Table) Flush() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminate(t.sorted(func(*gsm.Flow) bool { return true }))
}

// Len returns the number of live flows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flows)
}

func (t *Table) expireLocked(now time.Time) int {
	return t.terminate(t.sorted(func(f *gsm.Flow) bool {
		return now.Sub(f.LastSeen) > t.cfg.IdleTimeout
	}))
}

func (t *Table) sorted(match func(*gsm.Flow) bool) []*gsm.Flow {
	var out []*gsm.Flow
	for _, f := range t.flows {
		if match(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (t *Table) terminate(flows []*gsm.Flow) int {
	if len(flows) == 0 {
		return 0
	}
	for _, f := range flows {
		if t.sink != nil {
			t.sink.Emit(gsm.NewFlowRecord(f))
		}
		if err := f.Close(); err != nil {
			log.WithError(err).WithField("flow", f.Index).Warn("Failed to close speech file")
		}
		if f.Opposite != nil {
			f.Opposite.Opposite = nil
			f.Opposite = nil
		}
		if n := f.PendingSMS(); n > 0 {
			log.WithFields(log.Fields{"flow": f.Index, "pending": n}).Debug("Flow ended with incomplete SMS")
		}
		delete(t.flows, f.Key)
		if t.cfg.OnEnd != nil {
			t.cfg.OnEnd(f)
		}
		log.WithFields(log.Fields{
			"flow":   f.Index,
			"status": f.Stat.Hex(),
		}).Debug("Flow terminated")
	}
	t.notify()
	return len(flows)
}

func (t *Table) notify() {
	if t.cfg.OnActive != nil {
		t.cfg.OnActive(len(t.flows))
	}
}
