package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"veggie-trivia-service/internal/domain"
)

// LeaderboardStore appends finalized games to a Redis list (RPUSH is atomic,
// so rows are never lost even with several writers).
type LeaderboardStore struct {
	client *redis.Client
	key    string
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client, key: "trivia:leaderboard"}
}

func (s *LeaderboardStore) ReadAll(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(row), &entry); err != nil || entry.PlayerName == "" {
			log.Printf("skipping unreadable leaderboard row %d: %v", i, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *LeaderboardStore) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("append leaderboard: %w", err)
	}
	return nil
}
