package studio

import (
	"sync"
	"time"

	"github.com/tbourn/go-image-studio/internal/observability"
)

type storedState struct {
	state    State
	lastSeen time.Time
}

// StateStore keeps the State of every live session in memory, keyed by
// session ID. Entries idle for longer than the TTL are evicted
// opportunistically; a client whose state was evicted is restored to the
// input screen with an empty history on its next visit.
//
// StateStore is safe for concurrent use. Concurrent requests of one session
// are last-write-wins.
type StateStore struct {
	mu    sync.Mutex
	items map[string]*storedState
	ttl   time.Duration
	now   func() time.Time

	sweepEvery uint64
	ops        uint64
}

// NewStateStore returns an empty store evicting entries idle for ttl.
// A non-positive ttl selects two hours.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &StateStore{
		items:      make(map[string]*storedState),
		ttl:        ttl,
		now:        time.Now,
		sweepEvery: 1000,
	}
}

// Get returns the state stored for id and refreshes its idle timer.
func (s *StateStore) Get(id string) (State, bool) {
	if id == "" {
		return State{}, false
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(now)
	it, ok := s.items[id]
	if !ok {
		return State{}, false
	}
	// An idle entry the periodic sweep has not reached yet must not be revived.
	if now.Sub(it.lastSeen) >= s.ttl {
		delete(s.items, id)
		return State{}, false
	}
	it.lastSeen = now
	return it.state, true
}

// Put stores st under st.SessionID. States without a session ID are ignored.
func (s *StateStore) Put(st State) {
	if st.SessionID == "" {
		return
	}
	now := s.now()

	s.mu.Lock()
	s.tickLocked(now)
	s.items[st.SessionID] = &storedState{state: st, lastSeen: now}
	n := len(s.items)
	s.mu.Unlock()

	observability.SetActiveStates(n)
}

// Delete drops the state stored for id, if any.
func (s *StateStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	n := len(s.items)
	s.mu.Unlock()

	observability.SetActiveStates(n)
}

// Len returns the number of stored states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep evicts every idle entry now and returns how many were removed.
func (s *StateStore) Sweep() int {
	s.mu.Lock()
	removed := s.sweepLocked(s.now())
	n := len(s.items)
	s.mu.Unlock()

	observability.SetActiveStates(n)
	return removed
}

func (s *StateStore) tickLocked(now time.Time) {
	s.ops++
	if s.ops >= s.sweepEvery {
		s.sweepLocked(now)
		s.ops = 0
	}
}

func (s *StateStore) sweepLocked(now time.Time) int {
	removed := 0
	for id, it := range s.items {
		if now.Sub(it.lastSeen) >= s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
