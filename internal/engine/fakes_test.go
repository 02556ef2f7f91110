package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ochelito/moviverse/internal/domain"
)

type fakeTrendingStore struct {
	mu           sync.Mutex
	movies       []domain.Movie
	counts       map[string]int // "movieID:kind"
	listErr      error
	countErr     error
	replaceErr   error
	replaceHook  func() // runs at the start of ReplaceTrending
	replaceCalls int
	published    map[string][]domain.TrendingEntry
}

func newFakeTrendingStore() *fakeTrendingStore {
	return &fakeTrendingStore{
		counts:    make(map[string]int),
		published: make(map[string][]domain.TrendingEntry),
	}
}

func (f *fakeTrendingStore) setCount(movieID int64, kind domain.InteractionKind, n int) {
	f.counts[fmt.Sprintf("%d:%s", movieID, kind)] = n
}

func (f *fakeTrendingStore) ListActiveMovies(_ context.Context, afterID int64, limit int) ([]domain.Movie, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	sorted := append([]domain.Movie(nil), f.movies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var page []domain.Movie
	for _, m := range sorted {
		if !m.IsActive || m.ID <= afterID {
			continue
		}
		page = append(page, m)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeTrendingStore) CountInteractions(_ context.Context, movieID int64, kind domain.InteractionKind, _ time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[fmt.Sprintf("%d:%s", movieID, kind)], nil
}

func (f *fakeTrendingStore) ReplaceTrending(_ context.Context, period string, entries []domain.TrendingEntry) error {
	if f.replaceHook != nil {
		f.replaceHook()
	}
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	f.published[period] = append([]domain.TrendingEntry(nil), entries...)
	return nil
}

type fakeRecStore struct {
	mu          sync.Mutex
	userIDs     []int64
	profiles    map[int64]domain.UserProfile
	profileErr  map[int64]error
	movies      []domain.Movie
	dueUsers    []int64
	replaceErr  error
	replaceHook func() // runs at the start of ReplaceRecommendations
	published   map[int64][]domain.RecommendationEntry
	dueCleared  []int64
	replaceRuns int
}

func newFakeRecStore() *fakeRecStore {
	return &fakeRecStore{
		profiles:   make(map[int64]domain.UserProfile),
		profileErr: make(map[int64]error),
		published:  make(map[int64][]domain.RecommendationEntry),
	}
}

func (f *fakeRecStore) GetUserProfile(_ context.Context, userID int64) (domain.UserProfile, error) {
	if err := f.profileErr[userID]; err != nil {
		return domain.UserProfile{}, err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeRecStore) ListTopByPopularity(_ context.Context, limit int) ([]domain.Movie, error) {
	sorted := append([]domain.Movie(nil), f.movies...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Popularity != sorted[j].Popularity {
			return sorted[i].Popularity > sorted[j].Popularity
		}
		return sorted[i].TMDBID < sorted[j].TMDBID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *fakeRecStore) ListMoviesByGenres(_ context.Context, genreIDs []int64, limit int) ([]domain.Movie, error) {
	want := make(map[int64]struct{}, len(genreIDs))
	for _, g := range genreIDs {
		want[g] = struct{}{}
	}
	var matched []domain.Movie
	for _, m := range f.movies {
		if !m.IsActive {
			continue
		}
		for _, g := range m.GenreIDs {
			if _, ok := want[g]; ok {
				matched = append(matched, m)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Popularity > matched[j].Popularity })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeRecStore) ListGenresForMovies(_ context.Context, movieTMDBIDs []int64) ([]int64, error) {
	want := make(map[int64]struct{}, len(movieTMDBIDs))
	for _, id := range movieTMDBIDs {
		want[id] = struct{}{}
	}
	seen := make(map[int64]struct{})
	var out []int64
	for _, m := range f.movies {
		if _, ok := want[m.TMDBID]; !ok {
			continue
		}
		for _, g := range m.GenreIDs {
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (f *fakeRecStore) ReplaceRecommendations(_ context.Context, userID int64, entries []domain.RecommendationEntry) error {
	if f.replaceHook != nil {
		f.replaceHook()
	}
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[userID] = append([]domain.RecommendationEntry(nil), entries...)
	f.replaceRuns++
	return nil
}

func (f *fakeRecStore) ListUserIDs(_ context.Context, page, limit int) ([]int64, error) {
	start := (page - 1) * limit
	if start >= len(f.userIDs) {
		return nil, nil
	}
	end := start + limit
	if end > len(f.userIDs) {
		end = len(f.userIDs)
	}
	return f.userIDs[start:end], nil
}

func (f *fakeRecStore) CountUsers(_ context.Context) (int, error) {
	return len(f.userIDs), nil
}

func (f *fakeRecStore) ListDueUserIDs(_ context.Context, limit int) ([]int64, error) {
	if len(f.dueUsers) > limit {
		return f.dueUsers[:limit], nil
	}
	return f.dueUsers, nil
}

func (f *fakeRecStore) ClearRecommendationsDue(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dueCleared = append(f.dueCleared, userID)
	return nil
}
