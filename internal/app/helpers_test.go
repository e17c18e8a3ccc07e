package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/domain"
	"veggie-trivia-service/internal/infra/memory"
)

const (
	rightAnswer = "right"
	wrongAnswer = "wrong1"
)

func testQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Text:          fmt.Sprintf("Question %d", i),
			Choices:       []string{"wrong1", "right", "wrong2"},
			CorrectAnswer: rightAnswer,
			Attribution:   "tester",
		}
	}
	return questions
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return now }
}

type harness struct {
	service     *app.GameService
	sessions    *memory.SessionStore
	leaderboard *flakyLeaderboard
}

func newHarness(t *testing.T, poolSize int, opts ...app.Option) *harness {
	t.Helper()
	loader := memory.NewStaticQuestionLoader(testQuestions(poolSize))
	pool, err := app.LoadQuestionPool(context.Background(), loader, poolSize)
	require.NoError(t, err)
	sessions := memory.NewSessionStore(time.Hour)
	leaderboard := &flakyLeaderboard{LeaderboardStore: memory.NewLeaderboardStore()}
	opts = append([]app.Option{app.WithSeed(42), app.WithClock(fixedClock())}, opts...)
	return &harness{
		service:     app.NewGameService(sessions, leaderboard, pool, opts...),
		sessions:    sessions,
		leaderboard: leaderboard,
	}
}

func (h *harness) answer(t *testing.T, id string, correct bool) domain.AnswerResult {
	t.Helper()
	choice := wrongAnswer
	if correct {
		choice = rightAnswer
	}
	res, err := h.service.SubmitAnswer(context.Background(), id, choice)
	require.NoError(t, err)
	return res
}

func (h *harness) entries(t *testing.T) []domain.LeaderboardEntry {
	t.Helper()
	entries, err := h.leaderboard.ReadAll(context.Background())
	require.NoError(t, err)
	return entries
}

// flakyLeaderboard fails reads/appends on demand.
type flakyLeaderboard struct {
	*memory.LeaderboardStore
	mu         sync.Mutex
	failAppend bool
	appends    int
}

var errDiskFull = errors.New("disk full")

func (f *flakyLeaderboard) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	f.mu.Lock()
	fail := f.failAppend
	f.appends++
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.LeaderboardStore.Append(ctx, entry)
}

func (f *flakyLeaderboard) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAppend = fail
}

func newMemoryLeaderboard() *memory.LeaderboardStore {
	return memory.NewLeaderboardStore()
}

func newMemorySessions() *memory.SessionStore {
	return memory.NewSessionStore(0)
}
