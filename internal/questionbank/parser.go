// Package questionbank reads the single-line question bank format:
//
//	(12,'Which vegetable is orange?','Carrot','Spinach','Potato','Dr. Veggie'),
//
// The first choice is the correct answer; choices are shuffled once at load.
package questionbank

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"veggie-trivia-service/internal/domain"
)

var linePattern = regexp.MustCompile(
	`^\(\s*(\d+)\s*,\s*` +
		`'([^']*)'\s*,\s*` +
		`'([^']*)'\s*,\s*` +
		`'([^']*)'\s*,\s*` +
		`'([^']*)'\s*,\s*` +
		`'([^']*)'\s*\),?$`)

// Record is one parsed line before shuffling.
type Record struct {
	Number      int
	Text        string
	Correct     string
	Wrong       [2]string
	Attribution string
}

// ParseRecords reads every non-blank line of r. Any line that does not match
// the format fails the whole bank.
func ParseRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: line %d does not match format: %s", domain.ErrMalformedQuestionBank, lineNo, line)
		}
		number, _ := strconv.Atoi(m[1])
		records = append(records, Record{
			Number:      number,
			Text:        m[2],
			Correct:     m[3],
			Wrong:       [2]string{m[4], m[5]},
			Attribution: m[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %v", domain.ErrMalformedQuestionBank, err)
	}
	return records, nil
}

// ToQuestion turns a record into a Question with shuffled choices.
func (rec Record) ToQuestion(rnd *rand.Rand) domain.Question {
	choices := []string{rec.Correct, rec.Wrong[0], rec.Wrong[1]}
	rnd.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	return domain.Question{
		Text:          rec.Text,
		Choices:       choices,
		CorrectAnswer: rec.Correct,
		Attribution:   rec.Attribution,
	}
}

// Parse reads a question bank and shuffles each question's choices with rnd.
func Parse(r io.Reader, rnd *rand.Rand) ([]domain.Question, error) {
	records, err := ParseRecords(r)
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(records))
	for _, rec := range records {
		questions = append(questions, rec.ToQuestion(rnd))
	}
	return questions, nil
}

// FileLoader loads the question bank from a text file.
type FileLoader struct {
	path string
	rnd  *rand.Rand
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *FileLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrMalformedQuestionBank, l.path, err)
	}
	defer f.Close()
	return Parse(f, l.rnd)
}

// ReadRecordsFile parses a bank file without shuffling, for imports.
func ReadRecordsFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseRecords(f)
}
