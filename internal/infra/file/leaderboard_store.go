package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"veggie-trivia-service/internal/domain"
)

// LeaderboardStore keeps the leaderboard as a JSON array on disk. The file is
// loaded once; every append re-sorts by score and rewrites the whole file.
type LeaderboardStore struct {
	path string

	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

// Open loads path, creating an empty leaderboard when the file does not exist.
func Open(path string) (*LeaderboardStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("leaderboard path is required")
	}
	s := &LeaderboardStore{path: filepath.Clean(path)}
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("decode leaderboard %s: %w", s.path, err)
	}
	s.entries = entries
	return s, nil
}

func (s *LeaderboardStore) ReadAll(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LeaderboardEntry(nil), s.entries...), nil
}

// Append adds entry, keeps the list score-descending (stable, so ties stay in
// insertion order) and persists. The in-memory list is only replaced once the
// file write succeeded.
func (s *LeaderboardStore) Append(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(append([]domain.LeaderboardEntry(nil), s.entries...), entry)
	sort.SliceStable(next, func(i, j int) bool { return next[i].Score > next[j].Score })
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *LeaderboardStore) writeLocked(entries []domain.LeaderboardEntry) error {
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create leaderboard dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}

// fileRow tolerates hand-edited files: numbers may be strings, and values
// that do not parse count as 0.
type fileRow struct {
	GameID    string          `json:"gameId"`
	Name      string          `json:"name"`
	Score     json.RawMessage `json:"score"`
	Level     json.RawMessage `json:"level"`
	Timestamp string          `json:"timestamp"`
}

func decodeEntries(data []byte) ([]domain.LeaderboardEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var rows []fileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			log.Printf("leaderboard row %d has no name, skipping", i)
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			GameID:       row.GameID,
			PlayerName:   row.Name,
			Score:        lenientInt(row.Score),
			LevelReached: lenientInt(row.Level),
			Timestamp:    row.Timestamp,
		})
	}
	return entries, nil
}

func lenientInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}
