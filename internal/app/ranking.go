package app

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"
	"veggie-trivia-service/internal/domain"
)

// DefaultPageSize is the number of leaderboard rows per page.
const DefaultPageSize = 10

// SortByScore returns a copy ordered by score descending; ties keep insertion order.
func SortByScore(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	sorted := append([]domain.LeaderboardEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// Paginate sorts entries and returns the requested 1-based page plus the page
// count, which is at least 1. Out-of-range pages yield an empty slice.
func Paginate(entries []domain.LeaderboardEntry, page, pageSize int) ([]domain.RankedEntry, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := (len(entries) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 || page > totalPages {
		return []domain.RankedEntry{}, totalPages
	}

	sorted := SortByScore(entries)
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	out := make([]domain.RankedEntry, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, domain.RankedEntry{Rank: i + 1, LeaderboardEntry: sorted[i]})
	}
	return out, totalPages
}

// RankingView reads the leaderboard and paginates it on every request.
// Concurrent readers share one in-flight ReadAll.
type RankingView struct {
	store    LeaderboardStore
	pageSize int
	sf       singleflight.Group
}

func NewRankingView(store LeaderboardStore, pageSize int) *RankingView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RankingView{store: store, pageSize: pageSize}
}

func (v *RankingView) Page(ctx context.Context, page int) (domain.RankingPage, error) {
	// The read is shared by every caller that joins it, so one caller's
	// cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	result, err, _ := v.sf.Do("leaderboard", func() (interface{}, error) {
		return v.store.ReadAll(shared)
	})
	if err != nil {
		return domain.RankingPage{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	entries := result.([]domain.LeaderboardEntry)
	rows, totalPages := Paginate(entries, page, v.pageSize)
	return domain.RankingPage{
		Entries:    rows,
		Page:       page,
		PageSize:   v.pageSize,
		TotalPages: totalPages,
		Total:      len(entries),
	}, nil
}
