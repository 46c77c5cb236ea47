// Package session keeps per-user conversation state in memory.
//
// A Store is generic over the state type so every engine gets a typed session
// without casting. Missing users read as the default state; an optional idle
// TTL lets a background sweeper drop sessions nobody touched for a while.
package session

import (
	"sync"
	"time"
)

// Options configures a Store.
type Options[S any] struct {
	// Default returns the state of a user the store has never seen. Nil means the zero value.
	Default func() S
	// IdleTTL evicts sessions untouched for longer than this on Sweep. Zero disables eviction.
	IdleTTL time.Duration
	Now     func() time.Time
}

type entry[S any] struct {
	state   S
	touched time.Time
}

// Store is safe for concurrent use.
type Store[S any] struct {
	opts Options[S]

	mu       sync.RWMutex
	sessions map[int64]*entry[S]
}

// New constructs an empty store.
func New[S any](opts Options[S]) *Store[S] {
	if opts.Default == nil {
		opts.Default = func() S {
			var zero S
			return zero
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store[S]{opts: opts, sessions: make(map[int64]*entry[S])}
}

// Get returns the user's state, or the default state when none is stored.
func (s *Store[S]) Get(userID int64) S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.sessions[userID]; ok {
		return e.state
	}
	return s.opts.Default()
}

// Set replaces the user's state and refreshes its idle timer.
func (s *Store[S]) Set(userID int64, st S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[userID]
	if !ok {
		e = &entry[S]{}
		s.sessions[userID] = e
	}
	e.state = st
	e.touched = s.opts.Now()
}

// Clear resets the user to the default state. It is idempotent.
func (s *Store[S]) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports how many users have a stored session.
func (s *Store[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than IdleTTL and returns how many were dropped.
func (s *Store[S]) Sweep() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.touched) > s.opts.IdleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
