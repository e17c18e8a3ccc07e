package app

import (
	"context"

	"veggie-trivia-service/internal/domain"
)

// SessionStore abstracts where per-player game state lives (in-memory, Redis).
// Update must run fn exclusively for the given id and persist the state
// afterwards; this is how mutations of one player's session are serialized.
type SessionStore interface {
	Create(ctx context.Context, state *domain.SessionState) error
	Get(ctx context.Context, id string) (*domain.SessionState, error)
	Update(ctx context.Context, id string, fn func(*domain.SessionState) error) error
	Delete(ctx context.Context, id string) error
}

// LeaderboardStore is the append-only collection of finalized games.
type LeaderboardStore interface {
	ReadAll(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Append(ctx context.Context, entry domain.LeaderboardEntry) error
}

// QuestionLoader supplies the question bank once at startup.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}
