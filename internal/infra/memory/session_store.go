package memory

import (
	"context"
	"sync"
	"time"

	"veggie-trivia-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Each
// session has its own mutex; the map lock is never held while fn runs.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionSlot
}

type sessionSlot struct {
	mu        sync.Mutex
	state     *domain.SessionState
	expiresAt time.Time
	deleted   bool
}

// NewSessionStore keeps sessions for ttl after their last mutation; ttl <= 0 disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock allows deterministic expiry in tests.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]*sessionSlot),
	}
}

func (s *SessionStore) Create(_ context.Context, state *domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.ID] = &sessionSlot{
		state:     state.Clone(),
		expiresAt: s.expiry(),
	}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.SessionState, error) {
	slot, ok := s.slot(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.deleted || s.expired(slot) {
		return nil, domain.ErrSessionNotFound
	}
	return slot.state.Clone(), nil
}

func (s *SessionStore) Update(_ context.Context, id string, fn func(*domain.SessionState) error) error {
	slot, ok := s.slot(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.deleted || s.expired(slot) {
		return domain.ErrSessionNotFound
	}
	err := fn(slot.state)
	slot.expiresAt = s.expiry()
	return err
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	slot, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		slot.mu.Lock()
		slot.deleted = true
		slot.mu.Unlock()
	}
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, slot := range s.sessions {
		slot.mu.Lock()
		if s.expired(slot) {
			slot.deleted = true
			delete(s.sessions, id)
			removed++
		}
		slot.mu.Unlock()
	}
	return removed
}

func (s *SessionStore) slot(id string) (*sessionSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.sessions[id]
	return slot, ok
}

func (s *SessionStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.clock().Add(s.ttl)
}

func (s *SessionStore) expired(slot *sessionSlot) bool {
	return !slot.expiresAt.IsZero() && !slot.expiresAt.After(s.clock())
}
