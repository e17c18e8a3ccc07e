package app

import (
	"veggie-trivia-service/internal/domain"
)

type intner interface {
	Intn(n int) int
}

// DrawThree samples QuestionsPerLevel distinct indices uniformly without
// replacement. It returns the drawn indices and a new pool without them; the
// input slice is left untouched so a failed draw never corrupts the session.
func DrawThree(pool []int, rnd intner) (drawn []int, remaining []int, err error) {
	if len(pool) < domain.QuestionsPerLevel {
		return nil, pool, domain.ErrPoolExhausted
	}
	remaining = append([]int(nil), pool...)
	drawn = make([]int, 0, domain.QuestionsPerLevel)
	for k := 0; k < domain.QuestionsPerLevel; k++ {
		last := len(remaining) - 1
		i := rnd.Intn(len(remaining))
		drawn = append(drawn, remaining[i])
		remaining[i] = remaining[last]
		remaining = remaining[:last]
	}
	return drawn, remaining, nil
}
