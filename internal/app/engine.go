package app

import (
	"time"

	"veggie-trivia-service/internal/domain"
)

// Engine holds the pure progression transitions. It never touches storage;
// callers own serialization of a session and finalization side effects.
type Engine struct {
	pool *QuestionPool
	rnd  *lockedRand
	now  func() time.Time
}

func NewEngine(pool *QuestionPool, seed int64, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{pool: pool, rnd: newLockedRand(seed), now: now}
}

// Start validates the name and creates a session positioned at LevelSetup(1)
// with the full pool in shuffled order.
func (e *Engine) Start(id, gameID, rawName string) (*domain.SessionState, error) {
	name, err := domain.NormalizeName(rawName)
	if err != nil {
		return nil, err
	}
	now := e.now()
	return &domain.SessionState{
		ID:            id,
		GameID:        gameID,
		PlayerName:    name,
		Level:         1,
		Phase:         domain.PhaseLevelSetup,
		RemainingPool: e.rnd.Perm(e.pool.Len()),
		StartedAt:     now,
	}, nil
}

// SetupLevel draws the level's questions. Running out of questions ends the
// game with ErrPoolExhausted and leaves the level unscored.
func (e *Engine) SetupLevel(s *domain.SessionState) error {
	if s.Terminal {
		return domain.ErrSessionAlreadyFinalized
	}
	if s.Phase != domain.PhaseLevelSetup {
		return domain.ErrInvalidTransition
	}
	if s.Mistakes >= domain.MistakeLimit || s.Level > domain.MaxLevel {
		e.end(s, domain.PhaseGameOver, domain.ReasonCompleted)
		return nil
	}
	drawn, remaining, err := DrawThree(s.RemainingPool, e.rnd)
	if err != nil {
		e.end(s, domain.PhaseGameOver, domain.ReasonPoolExhausted)
		return err
	}
	s.CurrentLevelQuestions = drawn
	s.RemainingPool = remaining
	s.CurrentLevelAnswers = make([]*string, domain.QuestionsPerLevel)
	s.SubQuestion = 1
	s.Phase = domain.PhaseAwaitingAnswer
	s.LevelStartedAt = e.now()
	return nil
}

// Submit scores one answer. The termination check runs before the
// sub-question advances, so the 3rd answer of the last level always ends the game.
func (e *Engine) Submit(s *domain.SessionState, answer string) (bool, error) {
	if s.Terminal {
		return false, domain.ErrSessionAlreadyFinalized
	}
	if s.Phase != domain.PhaseAwaitingAnswer || s.SubQuestion < 1 || s.SubQuestion > len(s.CurrentLevelQuestions) {
		return false, domain.ErrInvalidTransition
	}
	q, ok := e.pool.At(s.CurrentLevelQuestions[s.SubQuestion-1])
	if !ok {
		return false, domain.ErrInvalidTransition
	}

	correct := answer == q.CorrectAnswer
	if correct {
		s.Score++
	} else {
		s.Mistakes++
	}
	recorded := answer
	s.CurrentLevelAnswers[s.SubQuestion-1] = &recorded

	switch {
	case s.Mistakes >= domain.MistakeLimit || (s.Level == domain.MaxLevel && s.SubQuestion == domain.QuestionsPerLevel):
		e.end(s, domain.PhaseLevelResult, domain.ReasonCompleted)
	case s.SubQuestion < domain.QuestionsPerLevel:
		s.SubQuestion++
	default:
		s.Phase = domain.PhaseLevelResult
	}
	return correct, nil
}

// NextLevel is only valid from a non-terminal level result.
func (e *Engine) NextLevel(s *domain.SessionState) error {
	if s.Terminal {
		return domain.ErrSessionAlreadyFinalized
	}
	if s.Phase != domain.PhaseLevelResult {
		return domain.ErrInvalidTransition
	}
	s.Level++
	s.Phase = domain.PhaseLevelSetup
	return nil
}

// TimeUp ends the game without scoring the pending sub-question. A terminal
// session that was never recorded passes through so the caller can retry
// the leaderboard write.
func (e *Engine) TimeUp(s *domain.SessionState) error {
	if s.Finalized {
		return domain.ErrSessionAlreadyFinalized
	}
	if s.Terminal {
		return nil
	}
	if s.Phase != domain.PhaseAwaitingAnswer {
		return domain.ErrInvalidTransition
	}
	e.end(s, domain.PhaseGameOver, domain.ReasonTimedOut)
	return nil
}

func (e *Engine) end(s *domain.SessionState, phase domain.Phase, reason domain.EndReason) {
	s.Terminal = true
	s.Phase = phase
	s.EndReason = reason
}

// LevelReached is the level written to the leaderboard. An exhausted pool
// means the current level was never played.
func LevelReached(s *domain.SessionState) int {
	if s.EndReason == domain.ReasonPoolExhausted && s.Level > 1 {
		return s.Level - 1
	}
	return s.Level
}

// View renders the player-facing summary of a session.
func (e *Engine) View(s *domain.SessionState) domain.GameView {
	view := domain.GameView{
		SessionID:        s.ID,
		PlayerName:       s.PlayerName,
		Level:            s.Level,
		SubQuestion:      s.SubQuestion,
		Score:            s.Score,
		Mistakes:         s.Mistakes,
		Phase:            s.Phase,
		Terminal:         s.Terminal,
		Finalized:        s.Finalized,
		EndReason:        s.EndReason,
		TimeLimitSeconds: domain.TimeLimitSeconds(s.Level),
	}
	if s.Phase == domain.PhaseAwaitingAnswer && s.SubQuestion >= 1 && s.SubQuestion <= len(s.CurrentLevelQuestions) {
		if q, ok := e.pool.At(s.CurrentLevelQuestions[s.SubQuestion-1]); ok {
			qv := questionView(q)
			view.Question = &qv
		}
	}
	return view
}

// LevelResult reviews the current level's questions and answers.
func (e *Engine) LevelResult(s *domain.SessionState) (domain.LevelResult, error) {
	if s.Phase != domain.PhaseLevelResult && !s.Terminal {
		return domain.LevelResult{}, domain.ErrInvalidTransition
	}
	result := domain.LevelResult{
		Level:      s.Level,
		PlayerName: s.PlayerName,
		TotalScore: s.Score,
		Mistakes:   s.Mistakes,
		Terminal:   s.Terminal,
		Questions:  make([]domain.ReviewedQuestion, 0, len(s.CurrentLevelQuestions)),
	}
	for i, idx := range s.CurrentLevelQuestions {
		q, ok := e.pool.At(idx)
		if !ok {
			continue
		}
		var answer *string
		if i < len(s.CurrentLevelAnswers) {
			answer = s.CurrentLevelAnswers[i]
		}
		correct := answer != nil && *answer == q.CorrectAnswer
		if correct {
			result.RoundScore++
		}
		result.Questions = append(result.Questions, domain.ReviewedQuestion{
			Question:      questionView(q),
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answer,
			Correct:       correct,
		})
	}
	return result, nil
}

func questionView(q domain.Question) domain.QuestionView {
	return domain.QuestionView{
		Text:        q.Text,
		Choices:     append([]string(nil), q.Choices...),
		Attribution: q.Attribution,
	}
}
