package report

import (
	"fmt"
	"slices"
	"sync"
)

// LRUStore is a bounded in-memory store of reports. The least recently
// used report is evicted once capacity is exceeded.
type LRUStore struct {
	mu  sync.Mutex
	cap int

	// Doubly-linked list for LRU ordering (most recent at head).
	head, tail *lruEntry
	items      map[string]*lruEntry
}

type lruEntry struct {
	key    string
	report *Report
	prev   *lruEntry
	next   *lruEntry
}

// NewLRUStore creates an LRU store with the given capacity. Capacity must
// be >= 1.
func NewLRUStore(cap int) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		items: make(map[string]*lruEntry, cap),
	}
}

// Save adds the report, evicting the least recently used one if needed.
func (s *LRUStore) Save(r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(r)
	return nil
}

// Load returns the report with the given ID and marks it as recently used.
func (s *LRUStore) Load(runID string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[runID]
	if !ok {
		return nil, fmt.Errorf("loading %s: %w", runID, ErrNotFound)
	}
	s.moveToFront(e)
	return e.report, nil
}

// Recent returns up to n stored reports, latest start first. Lookups
// through Load do not affect the order.
func (s *LRUStore) Recent(n int) []*Report {
	s.mu.Lock()
	out := make([]*Report, 0, len(s.items))
	for e := s.head; e != nil; e = e.next {
		out = append(out, e.report)
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b *Report) int {
		return b.Started.Compare(a.Started)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// put inserts or refreshes r. s.mu must be held.
func (s *LRUStore) put(r *Report) {
	if e, ok := s.items[r.ID]; ok {
		e.report = r
		s.moveToFront(e)
		return
	}
	e := &lruEntry{key: r.ID, report: r}
	s.items[r.ID] = e
	s.pushFront(e)
	if len(s.items) > s.cap {
		s.evict()
	}
}

func (s *LRUStore) pushFront(e *lruEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *LRUStore) moveToFront(e *lruEntry) {
	if s.head == e {
		return
	}
	s.remove(e)
	s.pushFront(e)
}

func (s *LRUStore) remove(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (s *LRUStore) evict() {
	if s.tail == nil {
		return
	}
	e := s.tail
	s.remove(e)
	delete(s.items, e.key)
}
