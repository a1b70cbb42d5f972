package session

import (
	"sync"
	"time"
)

// Slot is the single durable client-side location a session token lives in.
// Writing overwrites any previous value.
type Slot interface {
	// Read returns the stored value, or false when the slot is empty.
	Read() (string, bool)
	// Write stores value until expires.
	Write(value string, expires time.Time)
	// Erase empties the slot. Erasing an empty slot is a no-op.
	Erase()
}

// MemorySlot is an in-process Slot. It does not expire values on its own;
// expiry is enforced when the token is loaded.
type MemorySlot struct {
	mu      sync.Mutex
	value   string
	expires time.Time
	set     bool
}

// Read implements Slot.
func (s *MemorySlot) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// Write implements Slot.
func (s *MemorySlot) Write(value string, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.expires, s.set = value, expires, true
}

// Erase implements Slot.
func (s *MemorySlot) Erase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.expires, s.set = "", time.Time{}, false
}

// Expires returns the expiry passed to the last Write.
func (s *MemorySlot) Expires() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expires
}
