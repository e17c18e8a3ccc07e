package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"veggie-trivia-service/internal/domain"
)

// LeaderboardStore persists finalized games in leaderboard_entries. Rows are
// read back in insertion order (serial id).
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

func (s *LeaderboardStore) ReadAll(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT game_id, player_name, score, level_reached, recorded_at FROM leaderboard_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.GameID, &e.PlayerName, &e.Score, &e.LevelReached, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

func (s *LeaderboardStore) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard_entries (game_id, player_name, score, level_reached, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.GameID, entry.PlayerName, entry.Score, entry.LevelReached, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("append leaderboard: %w", err)
	}
	return nil
}
