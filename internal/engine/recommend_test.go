package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochelito/moviverse/internal/domain"
)

func genreMovie(id, tmdbID int64, popularity float64, genres ...int64) domain.Movie {
	return domain.Movie{ID: id, TMDBID: tmdbID, Title: "m", Popularity: popularity, GenreIDs: genres, IsActive: true}
}

func TestRunForUserPopularFallback(t *testing.T) {
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1}
	store.movies = []domain.Movie{
		genreMovie(1, 101, 5, 28),
		genreMovie(2, 102, 20, 18),
		genreMovie(3, 103, 10, 28),
	}

	eng := NewRecommendationEngine(store)
	res, err := eng.RunForUser(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	entries := store.published[1]
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.ReasonPopularFallback, e.Reason)
	}
	// Ordered by descending upstream popularity.
	assert.Equal(t, int64(102), entries[0].TMDBID)
	assert.Equal(t, int64(103), entries[1].TMDBID)
}

func TestRunForUserGenreScoring(t *testing.T) {
	const actionGenre, dramaGenre = int64(28), int64(18)
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1, PreferredGenreIDs: []int64{actionGenre}}
	store.movies = []domain.Movie{
		genreMovie(1, 1001, 10, actionGenre), // A
		genreMovie(2, 1002, 5, actionGenre),  // B
		genreMovie(3, 1003, 20, dramaGenre),  // C
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)

	entries := store.published[1]
	require.Len(t, entries, 2, "drama-only movie must be excluded")
	assert.Equal(t, int64(1001), entries[0].TMDBID)
	assert.Equal(t, int64(1002), entries[1].TMDBID)
	// Same genre match count, so A leads B by exactly the popularity term.
	assert.InDelta(t, 0.5, entries[0].Score-entries[1].Score, 1e-9)
	for _, e := range entries {
		assert.Equal(t, domain.ReasonGenreMatch, e.Reason)
	}
}

func TestRunForUserExcludesWatchHistory(t *testing.T) {
	const actionGenre = int64(28)
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{
		UserID:            1,
		PreferredGenreIDs: []int64{actionGenre},
		WatchHistory:      []int64{1002},
	}
	store.movies = []domain.Movie{
		genreMovie(1, 1001, 10, actionGenre),
		genreMovie(2, 1002, 50, actionGenre),
		genreMovie(3, 1003, 5, actionGenre),
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)

	for _, e := range store.published[1] {
		assert.NotEqual(t, int64(1002), e.TMDBID, "watched item must never be recommended")
		assert.Equal(t, domain.ReasonGenrePopularity, e.Reason)
	}
	require.Len(t, store.published[1], 2)
}

func TestRunForUserDiversityBonus(t *testing.T) {
	const actionGenre = int64(28)
	store := newFakeRecStore()
	// Most recent watch is 1001; it stays a candidate but loses the bonus.
	store.profiles[1] = domain.UserProfile{
		UserID:            1,
		PreferredGenreIDs: []int64{actionGenre},
		WatchHistory:      []int64{1009},
	}
	store.movies = []domain.Movie{
		genreMovie(1, 1001, 10, actionGenre),
		genreMovie(2, 1002, 10, actionGenre),
		genreMovie(9, 1009, 10, actionGenre),
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)

	entries := store.published[1]
	require.Len(t, entries, 2)
	// 1009 is excluded (watched); both survivors get the diversity bonus.
	for _, e := range entries {
		assert.InDelta(t, 1*2.0+10*0.1+0.2, e.Score, 1e-9)
	}
}

func TestRunForUserBehaviorMatch(t *testing.T) {
	const scifiGenre = int64(878)
	store := newFakeRecStore()
	// No stated genre preference: genres derive from watched movies.
	store.profiles[1] = domain.UserProfile{UserID: 1, WatchHistory: []int64{2001}}
	store.movies = []domain.Movie{
		genreMovie(1, 2001, 10, scifiGenre),
		genreMovie(2, 2002, 8, scifiGenre),
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)

	entries := store.published[1]
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2002), entries[0].TMDBID)
	assert.Equal(t, domain.ReasonBehaviorMatch, entries[0].Reason)
}

func TestRunForUserIdempotent(t *testing.T) {
	const actionGenre = int64(28)
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1, PreferredGenreIDs: []int64{actionGenre}}
	store.movies = []domain.Movie{
		genreMovie(1, 1001, 10, actionGenre),
		genreMovie(2, 1002, 5, actionGenre),
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)
	first := append([]domain.RecommendationEntry(nil), store.published[1]...)

	_, err = eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)
	second := store.published[1]

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].TMDBID, second[i].TMDBID)
		assert.Equal(t, first[i].Score, second[i].Score)
		assert.Equal(t, first[i].Reason, second[i].Reason)
	}
}

func TestRunForUserTieBreakAscendingExternalID(t *testing.T) {
	const actionGenre = int64(28)
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1, PreferredGenreIDs: []int64{actionGenre}}
	store.movies = []domain.Movie{
		genreMovie(1, 3003, 10, actionGenre),
		genreMovie(2, 3001, 10, actionGenre),
		genreMovie(3, 3002, 10, actionGenre),
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)

	entries := store.published[1]
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3001), entries[0].TMDBID)
	assert.Equal(t, int64(3002), entries[1].TMDBID)
	assert.Equal(t, int64(3003), entries[2].TMDBID)
}

func TestRunForUserPopularFallbackTieBreak(t *testing.T) {
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1}
	store.movies = []domain.Movie{
		genreMovie(1, 4003, 10, 28),
		genreMovie(2, 4001, 10, 18),
		genreMovie(3, 4002, 10, 28),
	}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 20)
	require.NoError(t, err)

	// Equal popularity resolves by ascending external ID, same total
	// order the serving query applies.
	entries := store.published[1]
	require.Len(t, entries, 3)
	assert.Equal(t, int64(4001), entries[0].TMDBID)
	assert.Equal(t, int64(4002), entries[1].TMDBID)
	assert.Equal(t, int64(4003), entries[2].TMDBID)
}

func TestConcurrentRunsForSameUserSerialize(t *testing.T) {
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.replaceHook = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	eng := NewRecommendationEngine(store)

	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		_, err := eng.RunForUser(context.Background(), 1, 5)
		assert.NoError(t, err)
	}()
	<-entered

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		_, err := eng.RunForUser(context.Background(), 1, 5)
		assert.NoError(t, err)
	}()

	select {
	case <-done2:
		t.Fatal("second run finished while the first still held the user lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done1
	<-done2

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 2, store.replaceRuns, "both runs publish, strictly one after the other")
}

func TestRunForUserClearsDueFlag(t *testing.T) {
	store := newFakeRecStore()
	store.profiles[7] = domain.UserProfile{UserID: 7}

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Contains(t, store.dueCleared, int64(7))
}

func TestRunForUserPublishFailure(t *testing.T) {
	store := newFakeRecStore()
	store.profiles[1] = domain.UserProfile{UserID: 1}
	store.replaceErr = errors.New("write failed")

	eng := NewRecommendationEngine(store)
	_, err := eng.RunForUser(context.Background(), 1, 5)
	require.Error(t, err)
	assert.Empty(t, store.published)
	assert.Empty(t, store.dueCleared, "due flag stays set when nothing was published")
}

func TestRunForAllUsersIsolatesFailures(t *testing.T) {
	store := newFakeRecStore()
	store.userIDs = []int64{1, 2, 3}
	store.profiles[1] = domain.UserProfile{UserID: 1}
	store.profileErr[2] = errors.New("profile fetch failed")
	store.profiles[3] = domain.UserProfile{UserID: 3}

	eng := NewRecommendationEngine(store)
	res, err := eng.RunForAllUsers(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalUsers)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailedCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, int64(2), res.Failures[0].UserID)
	assert.Equal(t, domain.StatusFailed, res.Failures[0].Status)
}

func TestRunForDueUsers(t *testing.T) {
	store := newFakeRecStore()
	store.dueUsers = []int64{5}
	store.profiles[5] = domain.UserProfile{UserID: 5}

	eng := NewRecommendationEngine(store)
	res, err := eng.RunForDueUsers(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalUsers)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Contains(t, store.dueCleared, int64(5))
}
