package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"veggie-trivia-service/internal/domain"
)

// Recorder is the single writer for the shared leaderboard. Read-all, the
// duplicate scan and the append happen under one lock so two finalizing
// players can never both append against the same stale snapshot.
type Recorder struct {
	store LeaderboardStore
	mu    sync.Mutex
}

func NewRecorder(store LeaderboardStore) *Recorder {
	return &Recorder{store: store}
}

// Record appends entry unless an equivalent row already exists. It reports
// whether a row was written.
func (r *Recorder) Record(ctx context.Context, entry domain.LeaderboardEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.ReadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("read leaderboard: %w", err)
	}
	for _, e := range existing {
		if sameGame(e, entry) {
			log.Printf("leaderboard row already present for %s at %s, skipping", entry.PlayerName, entry.Timestamp)
			return false, nil
		}
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return false, fmt.Errorf("append leaderboard: %w", err)
	}
	return true, nil
}

// sameGame matches on game id when both rows carry one. Rows written without
// an id fall back to player name plus second-resolution timestamp.
func sameGame(a, b domain.LeaderboardEntry) bool {
	if a.GameID != "" && b.GameID != "" {
		return a.GameID == b.GameID
	}
	return a.PlayerName == b.PlayerName && a.Timestamp == b.Timestamp
}
