package domain

import "time"

const (
	// MaxLevel is the last level of a game.
	MaxLevel = 10
	// QuestionsPerLevel is the number of sub-questions drawn for every level.
	QuestionsPerLevel = 3
	// MistakeLimit ends the game regardless of level.
	MistakeLimit = 3
	// MinPoolSize guarantees a full game never exhausts the pool.
	MinPoolSize = MaxLevel * QuestionsPerLevel
	// TimestampLayout is the second-resolution layout used on leaderboard rows.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Question is an immutable multiple choice question shared by all sessions.
type Question struct {
	Text          string   `json:"text"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
	Attribution   string   `json:"attribution"`
}

// Phase is the position of a session in the progression state machine.
type Phase string

const (
	PhaseLevelSetup     Phase = "level_setup"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseLevelResult    Phase = "level_result"
	PhaseGameOver       Phase = "game_over"
)

// EndReason records why a session became terminal.
type EndReason string

const (
	ReasonCompleted     EndReason = "completed"
	ReasonTimedOut      EndReason = "timed_out"
	ReasonPoolExhausted EndReason = "pool_exhausted"
)

// SessionState is the mutable per-player game state. Question references are
// indices into the shared QuestionPool so the state serializes cleanly.
type SessionState struct {
	ID                    string    `json:"id"`
	GameID                string    `json:"gameId"`
	PlayerName            string    `json:"playerName"`
	Level                 int       `json:"level"`
	SubQuestion           int       `json:"subQuestion"`
	Score                 int       `json:"score"`
	Mistakes              int       `json:"mistakes"`
	Phase                 Phase     `json:"phase"`
	CurrentLevelQuestions []int     `json:"currentLevelQuestions"`
	CurrentLevelAnswers   []*string `json:"currentLevelAnswers"`
	RemainingPool         []int     `json:"remainingPool"`
	Terminal              bool      `json:"terminal"`
	EndReason             EndReason `json:"endReason,omitempty"`
	Finalized             bool      `json:"finalized"`
	StartedAt             time.Time `json:"startedAt"`
	LevelStartedAt        time.Time `json:"levelStartedAt"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.CurrentLevelQuestions = append([]int(nil), s.CurrentLevelQuestions...)
	out.RemainingPool = append([]int(nil), s.RemainingPool...)
	if s.CurrentLevelAnswers != nil {
		out.CurrentLevelAnswers = make([]*string, len(s.CurrentLevelAnswers))
		for i, a := range s.CurrentLevelAnswers {
			if a != nil {
				v := *a
				out.CurrentLevelAnswers[i] = &v
			}
		}
	}
	return &out
}

// LeaderboardEntry is one finalized game result. Timestamp is informational.
type LeaderboardEntry struct {
	GameID       string `json:"gameId,omitempty"`
	PlayerName   string `json:"name"`
	Score        int    `json:"score"`
	LevelReached int    `json:"level"`
	Timestamp    string `json:"timestamp"`
}

// RankedEntry is a leaderboard row with its display position.
type RankedEntry struct {
	Rank int `json:"rank"`
	LeaderboardEntry
}

// RankingPage is one page of the score-descending leaderboard.
type RankingPage struct {
	Entries    []RankedEntry `json:"entries"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
}

// QuestionView is what a player sees; it never carries the answer.
type QuestionView struct {
	Text        string   `json:"text"`
	Choices     []string `json:"choices"`
	Attribution string   `json:"attribution"`
}

// GameView summarizes a session for presentation.
type GameView struct {
	SessionID        string        `json:"sessionId"`
	PlayerName       string        `json:"playerName"`
	Level            int           `json:"level"`
	SubQuestion      int           `json:"subQuestion"`
	Score            int           `json:"score"`
	Mistakes         int           `json:"mistakes"`
	Phase            Phase         `json:"phase"`
	Terminal         bool          `json:"terminal"`
	Finalized        bool          `json:"finalized"`
	EndReason        EndReason     `json:"endReason,omitempty"`
	TimeLimitSeconds int           `json:"timeLimitSeconds"`
	Question         *QuestionView `json:"question,omitempty"`
}

// ReviewedQuestion pairs a level question with the player's answer.
type ReviewedQuestion struct {
	Question      QuestionView `json:"question"`
	CorrectAnswer string       `json:"correctAnswer"`
	UserAnswer    *string      `json:"userAnswer"`
	Correct       bool         `json:"correct"`
}

// LevelResult is the end-of-level review.
type LevelResult struct {
	Level      int                `json:"level"`
	PlayerName string             `json:"playerName"`
	RoundScore int                `json:"roundScore"`
	TotalScore int                `json:"totalScore"`
	Mistakes   int                `json:"mistakes"`
	Terminal   bool               `json:"terminal"`
	Questions  []ReviewedQuestion `json:"questions"`
}

// AnswerResult summarizes the outcome of one submission.
type AnswerResult struct {
	Correct       bool         `json:"correct"`
	CorrectAnswer string       `json:"correctAnswer"`
	Game          GameView     `json:"game"`
	LevelResult   *LevelResult `json:"levelResult,omitempty"`
}
