package dataType

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// SeenSet remembers recently observed (origin, nonce) pairs for duplicate
// suppression. Capacity is fixed: once full, the oldest entry is evicted.
// An evicted pair can be observed again, which trades perfect dedup for
// bounded memory.
type SeenSet struct {
	mu       sync.Mutex
	keys     map[uint64]struct{}
	ring     []uint64
	head     int
	size     int
	capacity int
}

func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &SeenSet{
		keys:     make(map[uint64]struct{}, capacity),
		ring:     make([]uint64, capacity),
		capacity: capacity,
	}
}

// Observe records the pair and reports whether it was newly seen. A false
// return means the pair is a duplicate and should be discarded silently.
func (s *SeenSet) Observe(origin, nonce string) bool {
	key := xxhash.Sum64String(origin + "\x00" + nonce)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.keys[key]; dup {
		return false
	}
	if s.size == s.capacity {
		delete(s.keys, s.ring[s.head])
	} else {
		s.size++
	}
	s.ring[s.head] = key
	s.head = (s.head + 1) % s.capacity
	s.keys[key] = struct{}{}
	return true
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
