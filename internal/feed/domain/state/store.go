package state

import (
	"sync"

	"github.com/careercoach/pulse/internal/feed/domain/model"
)

// Store wraps the pure reducer with a mutex so that concurrent producers
// (push consumer, REST completions, UI calls) get single-flight dispatch.
// Transitions stay atomic with respect to each other; the reducer itself
// never sees concurrent access.
type Store struct {
	mu       sync.RWMutex
	state    State
	onChange func(State)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// OnChange registers a single observer invoked after every dispatch with the
// resulting snapshot. The callback runs outside the store lock.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Dispatch applies one action and returns the resulting state snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := snapshot(s.state)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next
}

// Snapshot returns a copy of the current state. The notification slice is
// copied so callers cannot mutate the canonical collection.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.state)
}

// Reset drops all session-scoped state. Called on logout so nothing leaks
// into the next user's session.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

func snapshot(s State) State {
	list := make([]model.Notification, len(s.Notifications))
	copy(list, s.Notifications)
	s.Notifications = list
	return s
}
