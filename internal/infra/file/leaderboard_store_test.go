package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"veggie-trivia-service/internal/domain"
)

func TestLeaderboardStorePersistsSortedWholeFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "leaderboard.json")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, e := range []domain.LeaderboardEntry{
		{PlayerName: "Ana", Score: 3, LevelReached: 2, Timestamp: "2025-01-01 10:00:00"},
		{PlayerName: "Bob", Score: 7, LevelReached: 3, Timestamp: "2025-01-01 10:00:01"},
		{PlayerName: "Cy", Score: 3, LevelReached: 2, Timestamp: "2025-01-01 10:00:02"},
	} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entries, _ := reopened.ReadAll(ctx)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].PlayerName != "Bob" || entries[1].PlayerName != "Ana" || entries[2].PlayerName != "Cy" {
		t.Fatalf("expected score desc with ties in insertion order, got %+v", entries)
	}
}

func TestOpenToleratesLooseRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	raw := `[
    {"name": "Ana", "score": "5", "level": 2, "timestamp": "2025-01-01 10:00:00"},
    {"name": "Bob", "score": "lots", "level": "x", "timestamp": "2025-01-01 10:00:01"},
    {"score": 9}
]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	entries, _ := store.ReadAll(context.Background())
	if len(entries) != 2 {
		t.Fatalf("expected nameless row skipped, got %+v", entries)
	}
	if entries[0].Score != 5 || entries[1].Score != 0 || entries[1].LevelReached != 0 {
		t.Fatalf("unexpected lenient decoding: %+v", entries)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	_ = os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for corrupt file")
	}
}
