package memory

import (
	"context"
	"sync"

	"veggie-trivia-service/internal/domain"
)

// LeaderboardStore keeps finalized games in insertion order. Useful for tests/demos.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewLeaderboardStore(seed ...domain.LeaderboardEntry) *LeaderboardStore {
	return &LeaderboardStore{entries: append([]domain.LeaderboardEntry(nil), seed...)}
}

func (s *LeaderboardStore) ReadAll(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LeaderboardEntry(nil), s.entries...), nil
}

func (s *LeaderboardStore) Append(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}
