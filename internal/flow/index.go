package flow

import "sync"

// IndexAllocator hands out link indices. An index is never handed out twice
// within a run.
type IndexAllocator struct {
	next uint64
	mu   sync.Mutex
}

// NewIndexAllocator creates an allocator whose first index is start.
func NewIndexAllocator(start uint64) *IndexAllocator {
	if start == 0 {
		start = 1 // index 0 marks packets without a flow
	}
	return &IndexAllocator{next: start}
}

// Allocate returns the next index.
func (a *IndexAllocator) Allocate() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.next
	a.next++
	if a.next == 0 {
		a.next = 1
	}
	return idx
}

// Peek returns the index the next Allocate call will return.
func (a *IndexAllocator) Peek() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
