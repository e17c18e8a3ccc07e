package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"veggie-trivia-service/internal/domain"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS leaderboard_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id TEXT NOT NULL DEFAULT '',
    player_name TEXT NOT NULL,
    score INTEGER NOT NULL,
    level_reached INTEGER NOT NULL,
    recorded_at TEXT NOT NULL
)`

// LeaderboardStore provides SQLite-backed persistence for finalized games.
type LeaderboardStore struct {
	sqlDB *sql.DB
}

// Open opens (or creates) a SQLite leaderboard at path.
func Open(path string) (*LeaderboardStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path)
	if path == ":memory:" {
		dsn = path
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps :memory: databases shared and writes ordered
	sqlDB.SetMaxOpenConns(1)
	if err := applyPragmas(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &LeaderboardStore{sqlDB: sqlDB}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying SQLite database.
func (s *LeaderboardStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *LeaderboardStore) ReadAll(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT game_id, player_name, score, level_reached, recorded_at FROM leaderboard_entries ORDER BY id`)
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
	return entries, rows.Err()
}

func (s *LeaderboardStore) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO leaderboard_entries (game_id, player_name, score, level_reached, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		entry.GameID, entry.PlayerName, entry.Score, entry.LevelReached, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("append leaderboard: %w", err)
	}
	return nil
}
