package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"veggie-trivia-service/internal/domain"
	"veggie-trivia-service/internal/questionbank"
)

// QuestionLoader loads the question bank from the questions table.
type QuestionLoader struct {
	pool *pgxpool.Pool
	rnd  *rand.Rand
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT number, prompt, correct, wrong1, wrong2, author FROM questions ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var rec questionbank.Record
		if err := rows.Scan(&rec.Number, &rec.Text, &rec.Correct, &rec.Wrong[0], &rec.Wrong[1], &rec.Attribution); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, rec.ToQuestion(l.rnd))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// ImportQuestions upserts parsed bank records keyed by their number.
func ImportQuestions(ctx context.Context, pool *pgxpool.Pool, records []questionbank.Record) (int, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`INSERT INTO questions (number, prompt, correct, wrong1, wrong2, author)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (number) DO UPDATE SET prompt = EXCLUDED.prompt, correct = EXCLUDED.correct,
  wrong1 = EXCLUDED.wrong1, wrong2 = EXCLUDED.wrong2, author = EXCLUDED.author`,
			rec.Number, rec.Text, rec.Correct, rec.Wrong[0], rec.Wrong[1], rec.Attribution)
	}
	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range records {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("import question %d: %w", records[i].Number, err)
		}
	}
	return len(records), nil
}
