package dataType

import (
	"errors"
	"sync"
)

type Visibility int

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "private"
}

var ErrSongNotFound = errors.New("song not found")

type Song struct {
	ID         uint64     `json:"id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	Lyrics     string     `json:"lyrics"`
	Explicit   bool       `json:"explicit"`
	Visibility Visibility `json:"visibility"`
}

// SongStore owns the node's local song records. Ids are assigned
// monotonically and never reused, even after deletion.
type SongStore struct {
	mu     sync.RWMutex
	songs  map[uint64]*Song
	order  []uint64
	nextID uint64
}

func NewSongStore() *SongStore {
	return &SongStore{
		songs:  make(map[uint64]*Song),
		nextID: 1,
	}
}

// Create stores a new private record and returns its id. Always succeeds.
func (s *SongStore) Create(title, artist, lyrics string, explicit bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.songs[id] = &Song{
		ID:         id,
		Title:      title,
		Artist:     artist,
		Lyrics:     lyrics,
		Explicit:   explicit,
		Visibility: Private,
	}
	s.order = append(s.order, id)
	return id
}

// Delete removes the record. It reports whether the record was public at
// the time of deletion so the caller can re-announce the reduced catalog.
func (s *SongStore) Delete(id uint64) (wasPublic bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, exists := s.songs[id]
	if !exists {
		return false, ErrSongNotFound
	}
	wasPublic = song.Visibility == Public
	delete(s.songs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return wasPublic, nil
}

// Publish marks the record public. Publishing an already-public record is
// a no-op, reported via changed=false.
func (s *SongStore) Publish(id uint64) (changed bool, err error) {
	return s.setVisibility(id, Public)
}

// Privatize is the inverse of Publish, equally idempotent.
func (s *SongStore) Privatize(id uint64) (changed bool, err error) {
	return s.setVisibility(id, Private)
}

func (s *SongStore) setVisibility(id uint64, v Visibility) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, exists := s.songs[id]
	if !exists {
		return false, ErrSongNotFound
	}
	if song.Visibility == v {
		return false, nil
	}
	song.Visibility = v
	return true, nil
}

func (s *SongStore) Get(id uint64) (Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, exists := s.songs[id]
	if !exists {
		return Song{}, ErrSongNotFound
	}
	return *song, nil
}

// ListLocal returns every local record regardless of visibility, in
// insertion order.
func (s *SongStore) ListLocal() []Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Song, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.songs[id])
	}
	return out
}

// PublicSnapshot returns only the public records, in insertion order. This
// is exactly the payload announced to peers.
func (s *SongStore) PublicSnapshot() []Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Song, 0, len(s.order))
	for _, id := range s.order {
		if s.songs[id].Visibility == Public {
			out = append(out, *s.songs[id])
		}
	}
	return out
}
