package dataType

import (
	"errors"
	"testing"
)

func TestSongStoreIDsMonotonic(t *testing.T) {
	s := NewSongStore()

	id1 := s.Create("a", "b", "c", false)
	id2 := s.Create("d", "e", "f", true)
	if id2 <= id1 {
		t.Fatalf("expected increasing ids, got %d then %d", id1, id2)
	}

	if _, err := s.Delete(id2); err != nil {
		t.Fatalf("Delete(%d) failed: %v", id2, err)
	}

	// Ids are never reused, even after deletion.
	id3 := s.Create("g", "h", "i", false)
	if id3 <= id2 {
		t.Errorf("expected id after delete to be > %d, got %d", id2, id3)
	}
}

func TestSongStoreCreateIsPrivate(t *testing.T) {
	s := NewSongStore()
	id := s.Create("title", "artist", "lyrics", true)

	song, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get(%d) failed: %v", id, err)
	}
	if song.Visibility != Private {
		t.Errorf("new song visibility = %v, want private", song.Visibility)
	}
	if !song.Explicit {
		t.Errorf("explicit flag lost on create")
	}
}

func TestSongStorePublishIdempotent(t *testing.T) {
	s := NewSongStore()
	id := s.Create("t", "a", "l", false)

	changed, err := s.Publish(id)
	if err != nil || !changed {
		t.Fatalf("first Publish = (%v, %v), want (true, nil)", changed, err)
	}
	changed, err = s.Publish(id)
	if err != nil {
		t.Fatalf("second Publish errored: %v", err)
	}
	if changed {
		t.Errorf("second Publish reported a change")
	}

	changed, err = s.Privatize(id)
	if err != nil || !changed {
		t.Fatalf("first Privatize = (%v, %v), want (true, nil)", changed, err)
	}
	changed, err = s.Privatize(id)
	if err != nil || changed {
		t.Errorf("second Privatize = (%v, %v), want (false, nil)", changed, err)
	}
}

func TestSongStoreNotFound(t *testing.T) {
	s := NewSongStore()

	if _, err := s.Delete(99); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Delete(99) on empty store = %v, want ErrSongNotFound", err)
	}
	if got := s.ListLocal(); len(got) != 0 {
		t.Errorf("store changed after failed delete: %v", got)
	}

	if _, err := s.Get(1); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Get(1) = %v, want ErrSongNotFound", err)
	}
	if _, err := s.Publish(1); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Publish(1) = %v, want ErrSongNotFound", err)
	}
	if _, err := s.Privatize(1); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Privatize(1) = %v, want ErrSongNotFound", err)
	}
}

func TestSongStorePublicSnapshot(t *testing.T) {
	s := NewSongStore()

	a := s.Create("a", "x", "l", false)
	b := s.Create("b", "y", "l", false)
	c := s.Create("c", "z", "l", true)

	mustPublish := func(id uint64) {
		t.Helper()
		if _, err := s.Publish(id); err != nil {
			t.Fatalf("Publish(%d): %v", id, err)
		}
	}

	mustPublish(a)
	mustPublish(c)

	snapshot := s.PublicSnapshot()
	if len(snapshot) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snapshot))
	}
	if snapshot[0].ID != a || snapshot[1].ID != c {
		t.Errorf("snapshot order = [%d %d], want [%d %d]", snapshot[0].ID, snapshot[1].ID, a, c)
	}

	// Flip states around and re-check the snapshot tracks exactly the
	// public set.
	if _, err := s.Privatize(a); err != nil {
		t.Fatal(err)
	}
	mustPublish(b)
	if _, err := s.Delete(c); err != nil {
		t.Fatal(err)
	}

	snapshot = s.PublicSnapshot()
	if len(snapshot) != 1 || snapshot[0].ID != b {
		t.Errorf("snapshot after mutations = %v, want only id %d", snapshot, b)
	}

	local := s.ListLocal()
	if len(local) != 2 {
		t.Errorf("ListLocal size = %d, want 2 (private records included)", len(local))
	}
}
