package engine

import (
	"context"
	"time"

	"github.com/ochelito/moviverse/internal/domain"
)

// TrendingStore is the store contract the trending engine depends on.
// ReplaceTrending must be atomic: readers see either the old snapshot or
// the new one, never a mix.
type TrendingStore interface {
	// ListActiveMovies pages through active catalog items by ascending
	// local ID, returning at most limit rows with ID > afterID.
	ListActiveMovies(ctx context.Context, afterID int64, limit int) ([]domain.Movie, error)
	CountInteractions(ctx context.Context, movieID int64, kind domain.InteractionKind, since time.Time) (int, error)
	ReplaceTrending(ctx context.Context, period string, entries []domain.TrendingEntry) error
}

// RecommendationStore is the store contract the recommendation engine
// depends on. ReplaceRecommendations carries the same atomicity contract
// as ReplaceTrending.
type RecommendationStore interface {
	GetUserProfile(ctx context.Context, userID int64) (domain.UserProfile, error)
	ListTopByPopularity(ctx context.Context, limit int) ([]domain.Movie, error)
	ListMoviesByGenres(ctx context.Context, genreTMDBIDs []int64, limit int) ([]domain.Movie, error)
	// ListGenresForMovies returns the union of genre IDs attached to the
	// given upstream movie IDs.
	ListGenresForMovies(ctx context.Context, movieTMDBIDs []int64) ([]int64, error)
	ReplaceRecommendations(ctx context.Context, userID int64, entries []domain.RecommendationEntry) error
	ListUserIDs(ctx context.Context, page, limit int) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)
	ListDueUserIDs(ctx context.Context, limit int) ([]int64, error)
	ClearRecommendationsDue(ctx context.Context, userID int64) error
}

// SyncStore is the store contract of the catalog mirror.
type SyncStore interface {
	UpsertGenres(ctx context.Context, genres []domain.Genre) error
	UpsertMovie(ctx context.Context, movie domain.Movie) error
}
