package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/domain"
)

const (
	genreMatchWeight   = 2.0
	popularitySignal   = 0.1
	diversityBonus     = 0.2
	candidatePoolSize  = 500
	defaultRecLimit    = 20
	batchConcurrency   = 10
	userPageSize       = 200
	dueDrainBatchLimit = 100
)

// RecommendationEngine computes per-user ranked recommendation lists and
// atomically replaces each user's published set.
type RecommendationEngine struct {
	store RecommendationStore
	locks *keyedLock
}

func NewRecommendationEngine(store RecommendationStore) *RecommendationEngine {
	return &RecommendationEngine{store: store, locks: newKeyedLock()}
}

// RunForUser recomputes one user's recommendation set. Runs for the same
// user are serialized; a failed run publishes nothing.
func (e *RecommendationEngine) RunForUser(ctx context.Context, userID int64, limit int) (RunResult, error) {
	if limit <= 0 {
		limit = defaultRecLimit
	}

	unlock := e.locks.Lock(fmt.Sprintf("rec:%d", userID))
	defer unlock()

	profile, err := e.store.GetUserProfile(ctx, userID)
	if err != nil {
		return RunResult{}, fmt.Errorf("fetch profile for user %d: %w", userID, err)
	}

	now := time.Now().UTC()

	var entries []domain.RecommendationEntry
	if !profile.HasSignal() {
		entries, err = e.popularFallback(ctx, userID, limit, now)
	} else {
		entries, err = e.personalized(ctx, profile, limit, now)
	}
	if err != nil {
		return RunResult{}, err
	}

	if err := e.store.ReplaceRecommendations(ctx, userID, entries); err != nil {
		return RunResult{}, fmt.Errorf("publish recommendations for user %d: %w", userID, err)
	}

	if err := e.store.ClearRecommendationsDue(ctx, userID); err != nil {
		zlog.Warn().Err(err).Int64("user_id", userID).Msg("clear due flag failed")
	}

	return RunResult{UserID: userID, Count: len(entries), AsOf: now}, nil
}

// popularFallback covers users with no preference or behavior signal: top
// catalog items by upstream popularity.
func (e *RecommendationEngine) popularFallback(ctx context.Context, userID int64, limit int, now time.Time) ([]domain.RecommendationEntry, error) {
	movies, err := e.store.ListTopByPopularity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch popular fallback: %w", err)
	}

	entries := make([]domain.RecommendationEntry, 0, len(movies))
	for _, m := range movies {
		entries = append(entries, domain.RecommendationEntry{
			UserID: userID,
			TMDBID: m.TMDBID,
			Title:  m.Title,
			Score:  m.Popularity,
			Reason: domain.ReasonPopularFallback,
			AsOf:   now,
		})
	}
	return entries, nil
}

func (e *RecommendationEngine) personalized(ctx context.Context, profile domain.UserProfile, limit int, now time.Time) ([]domain.RecommendationEntry, error) {
	genreIDs := profile.PreferredGenreIDs
	reason := domain.ReasonGenreMatch

	switch {
	case len(genreIDs) == 0:
		// No stated preferences; derive genres from what the user watched.
		derived, err := e.store.ListGenresForMovies(ctx, profile.WatchHistory)
		if err != nil {
			return nil, fmt.Errorf("derive genres from watch history: %w", err)
		}
		genreIDs = derived
		reason = domain.ReasonBehaviorMatch
	case len(profile.WatchHistory) > 0:
		reason = domain.ReasonGenrePopularity
	}

	candidates, err := e.store.ListMoviesByGenres(ctx, genreIDs, candidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	prefSet := make(map[int64]struct{}, len(genreIDs))
	for _, g := range genreIDs {
		prefSet[g] = struct{}{}
	}
	watched := make(map[int64]struct{}, len(profile.WatchHistory))
	for _, id := range profile.WatchHistory {
		watched[id] = struct{}{}
	}
	// Watch history is most-recent-first.
	var lastWatched int64
	haveLast := len(profile.WatchHistory) > 0
	if haveLast {
		lastWatched = profile.WatchHistory[0]
	}

	type scoredCandidate struct {
		movie domain.Movie
		score float64
	}
	seen := make(map[int64]struct{}, len(candidates))
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, m := range candidates {
		if _, ok := watched[m.TMDBID]; ok {
			continue
		}
		if _, ok := seen[m.TMDBID]; ok {
			continue
		}
		seen[m.TMDBID] = struct{}{}

		matches := 0
		for _, g := range m.GenreIDs {
			if _, ok := prefSet[g]; ok {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := float64(matches)*genreMatchWeight + m.Popularity*popularitySignal
		// Mild diversity nudge away from the most recent watch, not a
		// hard exclusion.
		if haveLast && m.TMDBID != lastWatched {
			score += diversityBonus
		}
		scored = append(scored, scoredCandidate{movie: m, score: score})
	}

	// Descending by score, ties broken by ascending external ID for a
	// stable total order.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].movie.TMDBID < scored[j].movie.TMDBID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	entries := make([]domain.RecommendationEntry, len(scored))
	for i, sc := range scored {
		entries[i] = domain.RecommendationEntry{
			UserID: profile.UserID,
			TMDBID: sc.movie.TMDBID,
			Title:  sc.movie.Title,
			Score:  sc.score,
			Reason: reason,
			AsOf:   now,
		}
	}
	return entries, nil
}

// RunForAllUsers sweeps every user with a bounded worker pool. A failure
// for one user never aborts the batch; failures are collected and reported
// in aggregate.
func (e *RecommendationEngine) RunForAllUsers(ctx context.Context, limit int) (domain.BatchRunResult, error) {
	start := time.Now()

	totalUsers, err := e.store.CountUsers(ctx)
	if err != nil {
		return domain.BatchRunResult{}, fmt.Errorf("count users: %w", err)
	}

	summary := domain.BatchRunResult{TotalUsers: totalUsers}
	for page := 1; ; page++ {
		userIDs, err := e.store.ListUserIDs(ctx, page, userPageSize)
		if err != nil {
			return summary, fmt.Errorf("fetch user ids page %d: %w", page, err)
		}
		if len(userIDs) == 0 {
			break
		}

		results := e.runPool(ctx, userIDs, limit)
		for _, r := range results {
			if r.Status == domain.StatusSuccess {
				summary.SuccessCount++
			} else {
				summary.FailedCount++
				summary.Failures = append(summary.Failures, r)
			}
		}

		if len(userIDs) < userPageSize {
			break
		}
	}

	summary.ProcessingTimeMs = time.Since(start).Milliseconds()
	return summary, nil
}

// RunForDueUsers recomputes only users flagged as due by serving-path
// writes since the last sweep.
func (e *RecommendationEngine) RunForDueUsers(ctx context.Context, limit int) (domain.BatchRunResult, error) {
	start := time.Now()

	userIDs, err := e.store.ListDueUserIDs(ctx, dueDrainBatchLimit)
	if err != nil {
		return domain.BatchRunResult{}, fmt.Errorf("fetch due users: %w", err)
	}

	summary := domain.BatchRunResult{TotalUsers: len(userIDs)}
	results := e.runPool(ctx, userIDs, limit)
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			summary.SuccessCount++
		} else {
			summary.FailedCount++
			summary.Failures = append(summary.Failures, r)
		}
	}

	summary.ProcessingTimeMs = time.Since(start).Milliseconds()
	return summary, nil
}

// runPool processes users concurrently with a semaphore-bounded pool.
func (e *RecommendationEngine) runPool(ctx context.Context, userIDs []int64, limit int) []domain.BatchUserResult {
	results := make([]domain.BatchUserResult, len(userIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for i, userID := range userIDs {
		wg.Add(1)
		go func(idx int, uid int64) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			res, err := e.RunForUser(ctx, uid, limit)
			if err != nil {
				zlog.Warn().Err(err).Int64("user_id", uid).Msg("recommendation run failed")
				results[idx] = domain.BatchUserResult{UserID: uid, Status: domain.StatusFailed, Error: err.Error()}
				return
			}
			results[idx] = domain.BatchUserResult{UserID: uid, Count: res.Count, Status: domain.StatusSuccess}
		}(i, userID)
	}
	wg.Wait()

	return results
}
