package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"veggie-trivia-service/internal/domain"
)

// QuestionPool is the immutable, indexable question bank shared by every session.
type QuestionPool struct {
	questions []domain.Question
}

// NewQuestionPool validates the bank. It must hold at least minSize questions,
// never fewer than domain.MinPoolSize, each with three distinct choices
// containing the correct answer.
func NewQuestionPool(questions []domain.Question, minSize int) (*QuestionPool, error) {
	if minSize < domain.MinPoolSize {
		minSize = domain.MinPoolSize
	}
	return newQuestionPool(questions, minSize)
}

func newQuestionPool(questions []domain.Question, minSize int) (*QuestionPool, error) {
	if len(questions) < minSize {
		return nil, fmt.Errorf("%w: %d questions, need at least %d", domain.ErrMalformedQuestionBank, len(questions), minSize)
	}
	owned := make([]domain.Question, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", domain.ErrMalformedQuestionBank, i, err)
		}
		q.Choices = append([]string(nil), q.Choices...)
		owned[i] = q
	}
	return &QuestionPool{questions: owned}, nil
}

// LoadQuestionPool pulls the bank from loader and validates it.
func LoadQuestionPool(ctx context.Context, loader QuestionLoader, minSize int) (*QuestionPool, error) {
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return NewQuestionPool(questions, minSize)
}

func validateQuestion(q domain.Question) error {
	if q.Text == "" {
		return fmt.Errorf("empty text")
	}
	if len(q.Choices) != domain.QuestionsPerLevel {
		return fmt.Errorf("expected %d choices, got %d", domain.QuestionsPerLevel, len(q.Choices))
	}
	seen := make(map[string]struct{}, len(q.Choices))
	hasAnswer := false
	for _, c := range q.Choices {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("duplicate choice %q", c)
		}
		seen[c] = struct{}{}
		if c == q.CorrectAnswer {
			hasAnswer = true
		}
	}
	if !hasAnswer {
		return fmt.Errorf("correct answer %q not among choices", q.CorrectAnswer)
	}
	return nil
}

// Len reports the number of questions.
func (p *QuestionPool) Len() int {
	return len(p.questions)
}

// At returns the question at index i.
func (p *QuestionPool) At(i int) (domain.Question, bool) {
	if i < 0 || i >= len(p.questions) {
		return domain.Question{}, false
	}
	return p.questions[i], true
}

// lockedRand guards a math/rand source shared by concurrent requests.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

func (r *lockedRand) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Perm(n)
}
