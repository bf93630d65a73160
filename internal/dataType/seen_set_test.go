package dataType

import (
	"fmt"
	"testing"
)

func TestSeenSetDuplicate(t *testing.T) {
	s := NewSeenSet(16)

	if !s.Observe("7", "42") {
		t.Fatalf("first observation reported as duplicate")
	}
	if s.Observe("7", "42") {
		t.Errorf("duplicate observation reported as new")
	}
	// Same nonce from a different sender is a distinct envelope.
	if !s.Observe("8", "42") {
		t.Errorf("(8, 42) wrongly collided with (7, 42)")
	}
}

func TestSeenSetEvictsOldest(t *testing.T) {
	s := NewSeenSet(3)

	for i := 0; i < 3; i++ {
		s.Observe("peer", fmt.Sprintf("n%d", i))
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	// Fourth entry evicts n0.
	s.Observe("peer", "n3")
	if s.Len() != 3 {
		t.Errorf("Len after eviction = %d, want capacity 3", s.Len())
	}

	if !s.Observe("peer", "n0") {
		t.Errorf("evicted entry should be observable again")
	}
	if s.Observe("peer", "n3") {
		t.Errorf("recent entry n3 should still be remembered")
	}
}
