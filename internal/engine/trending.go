package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/domain"
)

// Trending score weights. Natural log keeps high-volume items from
// dominating linearly; the weights are tuned constants, not derived.
const (
	viewWeight       = 0.6
	favoriteWeight   = 1.2
	reviewWeight     = 1.0
	popularityWeight = 0.2

	scanPageSize  = 200
	defaultTopN   = 100
	defaultWindow = 7 * 24 * time.Hour
	defaultPeriod = "weekly"
)

type RunResult struct {
	Period string    `json:"period,omitempty"`
	UserID int64     `json:"user_id,omitempty"`
	Count  int       `json:"count"`
	AsOf   time.Time `json:"as_of"`
}

// TrendingEngine ranks active catalog items from time-windowed interaction
// signals plus upstream popularity and atomically replaces the published
// snapshot for a period.
type TrendingEngine struct {
	store TrendingStore
	locks *keyedLock
}

func NewTrendingEngine(store TrendingStore) *TrendingEngine {
	return &TrendingEngine{store: store, locks: newKeyedLock()}
}

type scoredMovie struct {
	tmdbID int64
	title  string
	score  float64
}

// Run recomputes the trending snapshot for period. A failed run publishes
// nothing and leaves the previous snapshot current.
func (e *TrendingEngine) Run(ctx context.Context, period string, window time.Duration, topN int) (RunResult, error) {
	if period == "" {
		period = defaultPeriod
	}
	if window <= 0 {
		window = defaultWindow
	}
	if topN <= 0 {
		topN = defaultTopN
	}

	unlock := e.locks.Lock("trending:" + period)
	defer unlock()

	now := time.Now().UTC()
	since := now.Add(-window)

	var scored []scoredMovie
	afterID := int64(0)
	for {
		movies, err := e.store.ListActiveMovies(ctx, afterID, scanPageSize)
		if err != nil {
			return RunResult{}, &domain.ComputationAbortedError{Stage: "catalog scan", Err: err}
		}
		if len(movies) == 0 {
			break
		}
		for _, m := range movies {
			s, err := e.scoreMovie(ctx, m, since)
			if err != nil {
				return RunResult{}, &domain.ComputationAbortedError{Stage: "signal counts", Err: err}
			}
			scored = append(scored, scoredMovie{tmdbID: m.TMDBID, title: m.Title, score: s})
		}
		afterID = movies[len(movies)-1].ID
		if len(movies) < scanPageSize {
			break
		}
	}

	// Descending by score, ties broken by higher external ID so repeated
	// runs over identical input produce identical dense rankings.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].tmdbID > scored[j].tmdbID
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}

	entries := make([]domain.TrendingEntry, len(scored))
	for i, sm := range scored {
		entries[i] = domain.TrendingEntry{
			TMDBID: sm.tmdbID,
			Title:  sm.title,
			Score:  sm.score,
			Period: period,
			Rank:   i + 1,
			AsOf:   now,
		}
	}

	if err := e.store.ReplaceTrending(ctx, period, entries); err != nil {
		return RunResult{}, fmt.Errorf("publish trending %q: %w", period, err)
	}

	zlog.Info().Str("period", period).Int("count", len(entries)).Msg("trending snapshot published")
	return RunResult{Period: period, Count: len(entries), AsOf: now}, nil
}

func (e *TrendingEngine) scoreMovie(ctx context.Context, m domain.Movie, since time.Time) (float64, error) {
	views, err := e.store.CountInteractions(ctx, m.ID, domain.KindView, since)
	if err != nil {
		return 0, fmt.Errorf("count views for movie %d: %w", m.ID, err)
	}
	watches, err := e.store.CountInteractions(ctx, m.ID, domain.KindWatch, since)
	if err != nil {
		return 0, fmt.Errorf("count watches for movie %d: %w", m.ID, err)
	}
	favorites, err := e.store.CountInteractions(ctx, m.ID, domain.KindFavorite, since)
	if err != nil {
		return 0, fmt.Errorf("count favorites for movie %d: %w", m.ID, err)
	}
	reviews, err := e.store.CountInteractions(ctx, m.ID, domain.KindReview, since)
	if err != nil {
		return 0, fmt.Errorf("count reviews for movie %d: %w", m.ID, err)
	}
	return trendingScore(views+watches, favorites, reviews, m.Popularity), nil
}

func trendingScore(views, favorites, reviews int, popularity float64) float64 {
	return math.Log(1+float64(views))*viewWeight +
		math.Log(1+float64(favorites))*favoriteWeight +
		math.Log(1+float64(reviews))*reviewWeight +
		popularity*popularityWeight
}
