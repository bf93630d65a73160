package dataType

import (
	"sync"
	"time"
)

type PeerEntry struct {
	ID        string
	FirstSeen time.Time
	LastSeen  time.Time
}

// PeerRegistry tracks the peers discovered so far. Removal is strictly
// event-driven; there is no TTL sweep.
type PeerRegistry struct {
	mu    sync.RWMutex
	peers map[string]*PeerEntry
	order []string
}

func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{
		peers: make(map[string]*PeerEntry),
	}
}

// Join inserts or refreshes the entry and reports whether the peer was new.
func (r *PeerRegistry) Join(peerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if entry, exists := r.peers[peerID]; exists {
		entry.LastSeen = now
		return false
	}
	r.peers[peerID] = &PeerEntry{ID: peerID, FirstSeen: now, LastSeen: now}
	r.order = append(r.order, peerID)
	return true
}

// Leave removes the entry. Unknown peers are a no-op.
func (r *PeerRegistry) Leave(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[peerID]; !exists {
		return
	}
	delete(r.peers, peerID)
	for i, id := range r.order {
		if id == peerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Touch updates LastSeen for a known peer. Events from unknown peers
// register them, mirroring Join.
func (r *PeerRegistry) Touch(peerID string) {
	r.Join(peerID)
}

func (r *PeerRegistry) Known(peerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.peers[peerID]
	return exists
}

// List returns all entries in first-discovery order.
func (r *PeerRegistry) List() []PeerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PeerEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.peers[id])
	}
	return out
}

func (r *PeerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
