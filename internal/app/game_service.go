package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"veggie-trivia-service/internal/domain"
)

// GameService contains the trivia game use cases. Every mutation runs inside
// SessionStore.Update, so one player's operations never interleave.
type GameService struct {
	sessions SessionStore
	engine   *Engine
	recorder *Recorder
	ranking  *RankingView
	newID    func() string
	now      func() time.Time
}

// Option customizes a GameService.
type Option func(*serviceOptions)

type serviceOptions struct {
	now      func() time.Time
	seed     int64
	newID    func() string
	pageSize int
}

// WithClock sets the clock used for timestamps (deterministic tests).
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// WithSeed fixes the random source used for shuffling and draws.
func WithSeed(seed int64) Option {
	return func(o *serviceOptions) { o.seed = seed }
}

// WithIDGenerator overrides how session and game ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(o *serviceOptions) { o.newID = newID }
}

// WithPageSize sets the ranking page size.
func WithPageSize(size int) Option {
	return func(o *serviceOptions) { o.pageSize = size }
}

func NewGameService(sessions SessionStore, leaderboard LeaderboardStore, pool *QuestionPool, opts ...Option) *GameService {
	o := serviceOptions{
		now:      time.Now,
		seed:     time.Now().UnixNano(),
		newID:    func() string { return uuid.New().String() },
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &GameService{
		sessions: sessions,
		engine:   NewEngine(pool, o.seed, o.now),
		recorder: NewRecorder(leaderboard),
		ranking:  NewRankingView(leaderboard, o.pageSize),
		newID:    o.newID,
		now:      o.now,
	}
}

// StartGame validates the name, creates a session and sets up level 1.
func (s *GameService) StartGame(ctx context.Context, name string) (domain.GameView, error) {
	state, err := s.engine.Start(s.newID(), s.newID(), name)
	if err != nil {
		return domain.GameView{}, err
	}
	setupErr := s.engine.SetupLevel(state)
	if errors.Is(setupErr, domain.ErrPoolExhausted) {
		setupErr = errors.Join(setupErr, s.finalize(ctx, state))
	}
	if err := s.sessions.Create(ctx, state); err != nil {
		return domain.GameView{}, err
	}
	return s.engine.View(state), setupErr
}

// Current returns the session's view, including the pending question.
func (s *GameService) Current(ctx context.Context, sessionID string) (domain.GameView, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.GameView{}, err
	}
	return s.engine.View(state), nil
}

// SubmitAnswer scores the pending sub-question. When the answer ends the game
// the result is recorded before returning; a failed leaderboard write comes
// back as ErrStoreUnavailable alongside the terminal result.
func (s *GameService) SubmitAnswer(ctx context.Context, sessionID, answer string) (domain.AnswerResult, error) {
	var result domain.AnswerResult
	err := s.sessions.Update(ctx, sessionID, func(state *domain.SessionState) error {
		var correctAnswer string
		if state.Phase == domain.PhaseAwaitingAnswer && state.SubQuestion >= 1 && state.SubQuestion <= len(state.CurrentLevelQuestions) {
			if q, ok := s.engine.pool.At(state.CurrentLevelQuestions[state.SubQuestion-1]); ok {
				correctAnswer = q.CorrectAnswer
			}
		}
		correct, err := s.engine.Submit(state, answer)
		if err != nil {
			return err
		}
		var finErr error
		if state.Terminal {
			finErr = s.finalize(ctx, state)
		}
		result = domain.AnswerResult{
			Correct:       correct,
			CorrectAnswer: correctAnswer,
			Game:          s.engine.View(state),
		}
		if state.Phase == domain.PhaseLevelResult {
			lr, _ := s.engine.LevelResult(state)
			result.LevelResult = &lr
		}
		return finErr
	})
	return result, err
}

// LevelResult returns the review of the level that just ended.
func (s *GameService) LevelResult(ctx context.Context, sessionID string) (domain.LevelResult, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.LevelResult{}, err
	}
	return s.engine.LevelResult(state)
}

// NextLevel advances past a non-terminal level result and draws the next level.
func (s *GameService) NextLevel(ctx context.Context, sessionID string) (domain.GameView, error) {
	var view domain.GameView
	err := s.sessions.Update(ctx, sessionID, func(state *domain.SessionState) error {
		if err := s.engine.NextLevel(state); err != nil {
			return err
		}
		setupErr := s.engine.SetupLevel(state)
		if state.Terminal {
			setupErr = errors.Join(setupErr, s.finalize(ctx, state))
		}
		view = s.engine.View(state)
		return setupErr
	})
	return view, err
}

// TimeUp ends the game on the client's report that the question timer ran
// out. The server keeps no timer of its own; the signal is trusted as sent.
func (s *GameService) TimeUp(ctx context.Context, sessionID string) (domain.GameView, error) {
	var view domain.GameView
	err := s.sessions.Update(ctx, sessionID, func(state *domain.SessionState) error {
		if err := s.engine.TimeUp(state); err != nil {
			return err
		}
		finErr := s.finalize(ctx, state)
		view = s.engine.View(state)
		return finErr
	})
	return view, err
}

// EndSession discards a session (explicit reset).
func (s *GameService) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Ranking returns one page of the leaderboard, highest score first.
func (s *GameService) Ranking(ctx context.Context, page int) (domain.RankingPage, error) {
	return s.ranking.Page(ctx, page)
}

// finalize records a terminal session exactly once. The session is marked
// finalized only after the leaderboard accepted (or already held) the row;
// on store failure it stays terminal so a later time-up can retry the write.
func (s *GameService) finalize(ctx context.Context, state *domain.SessionState) error {
	if state.Finalized {
		log.Printf("game %s for %s already finalized, skipping", state.GameID, state.PlayerName)
		return nil
	}
	entry := domain.LeaderboardEntry{
		GameID:       state.GameID,
		PlayerName:   state.PlayerName,
		Score:        state.Score,
		LevelReached: LevelReached(state),
		Timestamp:    s.now().Format(domain.TimestampLayout),
	}
	if _, err := s.recorder.Record(ctx, entry); err != nil {
		log.Printf("record score for %s failed: %v", state.PlayerName, err)
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	state.Finalized = true
	return nil
}
