package dataType

import (
	"sort"
	"sync"
)

// RemoteView caches, per peer, the most recently announced set of that
// peer's public songs. Each announce replaces the previous snapshot
// wholesale, so removals propagate without tombstones. Locally authored
// records never enter this view.
type RemoteView struct {
	mu        sync.RWMutex
	snapshots map[string][]RemoteSong
}

func NewRemoteView() *RemoteView {
	return &RemoteView{
		snapshots: make(map[string][]RemoteSong),
	}
}

// Replace installs the latest snapshot for peerID, discarding whatever was
// there before. An empty announce clears the peer's snapshot.
func (v *RemoteView) Replace(peerID string, songs []RemoteSong) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(songs) == 0 {
		delete(v.snapshots, peerID)
		return
	}
	snapshot := make([]RemoteSong, len(songs))
	copy(snapshot, songs)
	v.snapshots[peerID] = snapshot
}

// Snapshot returns a copy of the current snapshot for peerID, in announce
// order. Unknown peers yield an empty slice.
func (v *RemoteView) Snapshot(peerID string) []RemoteSong {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snapshot, exists := v.snapshots[peerID]
	if !exists {
		return nil
	}
	out := make([]RemoteSong, len(snapshot))
	copy(out, snapshot)
	return out
}

// Drop discards the snapshot for a departed peer.
func (v *RemoteView) Drop(peerID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.snapshots, peerID)
}

// Peers returns the ids with a non-empty snapshot, sorted for stable output.
func (v *RemoteView) Peers() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]string, 0, len(v.snapshots))
	for id := range v.snapshots {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
