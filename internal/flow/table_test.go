package flow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsm-decoder/internal/gsm"
	"gsm-decoder/pkg/types"
)

var (
	t0  = time.Unix(1700000000, 0)
	key = types.FlowKey{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 3002, DstPort: 3003, Transport: types.TransportSCTP}
)

type summaries struct {
	flows []*gsm.FlowRecord
}

func (s *summaries) Emit(r gsm.Record) {
	if fr, ok := r.(*gsm.FlowRecord); ok {
		s.flows = append(s.flows, fr)
	}
}

type releases struct{ n int }

func (r *releases) Write(p []byte) (int, error) { return len(p), nil }
func (r *releases) Release() error { r.n++; return nil }

func TestIndexAllocator_StartsFromOne(t *testing.T) {
	a := NewIndexAllocator(0)
	assert.Equal(t, uint64(1), a.Allocate())
	assert.Equal(t, uint64(2), a.Allocate())
	assert.Equal(t, uint64(3), a.Peek())
}

func TestIndexAllocator_ConcurrentUnique(t *testing.T) {
	a := NewIndexAllocator(1)
	var mu sync.Mutex
	seen := make(map[uint64]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				idx := a.Allocate()
				mu.Lock()
				seen[idx] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1000)
}

func TestTable_SameKeySameFlow(t *testing.T) {
	tbl := NewTable(Config{}, nil)

	a := tbl.Get(key, t0)
	b := tbl.Get(key, t0.Add(time.Second))

	assert.Same(t, a, b)
	assert.Equal(t, uint64(1), a.Index)
	assert.Equal(t, t0, a.FirstSeen)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_LinksOppositeDirection(t *testing.T) {
	tbl := NewTable(Config{}, nil)

	a := tbl.Get(key, t0)
	b := tbl.Get(key.Reverse(), t0)

	assert.Equal(t, a.Index, b.Index)
	assert.False(t, a.Inverted)
	assert.True(t, b.Inverted)
	assert.Same(t, b, a.Opposite)
	assert.Same(t, a, b.Opposite)
}

func TestTable_NewIndexAfterOppositeEnded(t *testing.T) {
	tbl := NewTable(Config{IdleTimeout: 10 * time.Second}, nil)
	tbl.Get(key, t0)
	tbl.Expire(t0.Add(time.Minute))

	b := tbl.Get(key.Reverse(), t0.Add(time.Minute))
	assert.Equal(t, uint64(2), b.Index)
	assert.False(t, b.Inverted)
	assert.Nil(t, b.Opposite)
}

func TestTable_ExpiresIdleFlows(t *testing.T) {
	sink := &summaries{}
	var active []int
	tbl := NewTable(Config{
		IdleTimeout: 10 * time.Second,
		OnActive:    func(n int) { active = append(active, n) },
	}, sink)

	old := tbl.Get(key, t0)
	speech := &releases{}
	old.Speech = speech
	old.Stat = gsm.StatLAPDRSL

	other := key
	other.SrcPort = 4000
	tbl.Get(other, t0.Add(15*time.Second))

	require.Len(t, sink.flows, 1)
	assert.Equal(t, uint64(1), sink.flows[0].FlowIndex)
	assert.Equal(t, gsm.StatLAPDRSL, sink.flows[0].Status)
	assert.Equal(t, 1, speech.n)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []int{1, 0, 1}, active)

	// a returning key starts a new flow
	again := tbl.Get(key, t0.Add(16*time.Second))
	assert.Equal(t, uint64(3), again.Index)
}

func TestTable_ExpireUnlinksOpposite(t *testing.T) {
	tbl := NewTable(Config{IdleTimeout: 10 * time.Second}, nil)
	a := tbl.Get(key, t0)
	b := tbl.Get(key.Reverse(), t0)
	b.LastSeen = t0.Add(20 * time.Second)

	assert.Equal(t, 1, tbl.Expire(t0.Add(15*time.Second)))
	assert.Nil(t, a.Opposite)
	assert.Nil(t, b.Opposite)
}

func TestTable_FlushInIndexOrder(t *testing.T) {
	sink := &summaries{}
	tbl := NewTable(Config{}, sink)
	for port := uint16(1); port <= 5; port++ {
		k := key
		k.SrcPort = port
		tbl.Get(k, t0)
	}

	assert.Equal(t, 5, tbl.Flush())
	require.Len(t, sink.flows, 5)
	for i, fr := range sink.flows {
		assert.Equal(t, uint64(i+1), fr.FlowIndex)
	}
	assert.Zero(t, tbl.Len())
}
