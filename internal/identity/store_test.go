package identity

import (
	"testing"
	"time"
)

func TestMemoryStore_TouchKeepsLatest(t *testing.T) {
	s := NewMemoryStore()
	mac := "AA:BB:CC:DD:EE:01"

	t1 := time.Now()
	t2 := t1.Add(time.Second)

	s.Touch(mac, t2)
	s.Touch(mac, t1) // older than what's on record, must not overwrite

	got, ok := s.LastSeen(mac)
	if !ok {
		t.Fatal("LastSeen() reported no record after Touch")
	}
	if !got.Equal(t2) {
		t.Errorf("LastSeen() = %v, want %v", got, t2)
	}
}

func TestMemoryStore_LastSeenUnknownMAC(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.LastSeen("unknown"); ok {
		t.Error("LastSeen() on an unseen MAC should report ok=false")
	}
}

func TestMemoryStore_Count(t *testing.T) {
	s := NewMemoryStore()
	s.Touch("mac-1", time.Now())
	s.Touch("mac-2", time.Now())
	s.Touch("mac-1", time.Now()) // same MAC again

	if got := s.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}
