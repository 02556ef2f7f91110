package engine

import (
	"context"
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/domain"
	"github.com/ochelito/moviverse/internal/tmdb"
)

// catalogFetcher is the slice of the upstream client the syncer uses.
type catalogFetcher interface {
	FetchPopular(ctx context.Context, page int) ([]tmdb.MovieResult, error)
	FetchTrending(ctx context.Context, page int) ([]tmdb.MovieResult, error)
	FetchGenres(ctx context.Context) ([]tmdb.GenreRef, error)
}

// CatalogSyncer mirrors upstream popular/trending pages into the local
// store by upserting on external ID.
type CatalogSyncer struct {
	store  SyncStore
	client catalogFetcher
}

func NewCatalogSyncer(store SyncStore, client catalogFetcher) *CatalogSyncer {
	return &CatalogSyncer{store: store, client: client}
}

// SyncPopular mirrors the first pages of the upstream popular list.
// Returns the number of movies upserted.
func (s *CatalogSyncer) SyncPopular(ctx context.Context, pages int) (int, error) {
	if pages < 1 {
		pages = 1
	}
	if err := s.syncGenres(ctx); err != nil {
		return 0, err
	}

	total := 0
	for page := 1; page <= pages; page++ {
		results, err := s.client.FetchPopular(ctx, page)
		if err != nil {
			return total, fmt.Errorf("fetch popular page %d: %w", page, err)
		}
		n, err := s.upsertResults(ctx, results)
		total += n
		if err != nil {
			return total, err
		}
	}

	zlog.Info().Int("count", total).Msg("popular catalog synced")
	return total, nil
}

// SyncTrending mirrors the first page of the upstream weekly trending list.
func (s *CatalogSyncer) SyncTrending(ctx context.Context) (int, error) {
	if err := s.syncGenres(ctx); err != nil {
		return 0, err
	}

	results, err := s.client.FetchTrending(ctx, 1)
	if err != nil {
		return 0, fmt.Errorf("fetch trending: %w", err)
	}
	n, err := s.upsertResults(ctx, results)
	if err != nil {
		return n, err
	}

	zlog.Info().Int("count", n).Msg("trending catalog synced")
	return n, nil
}

func (s *CatalogSyncer) syncGenres(ctx context.Context) error {
	refs, err := s.client.FetchGenres(ctx)
	if err != nil {
		return fmt.Errorf("fetch genres: %w", err)
	}
	genres := make([]domain.Genre, 0, len(refs))
	for _, g := range refs {
		genres = append(genres, domain.Genre{TMDBID: g.ID, Name: g.Name})
	}
	if err := s.store.UpsertGenres(ctx, genres); err != nil {
		return fmt.Errorf("upsert genres: %w", err)
	}
	return nil
}

func (s *CatalogSyncer) upsertResults(ctx context.Context, results []tmdb.MovieResult) (int, error) {
	count := 0
	for _, r := range results {
		movie := movieFromResult(r)
		if err := s.store.UpsertMovie(ctx, movie); err != nil {
			return count, fmt.Errorf("upsert movie %d: %w", r.ID, err)
		}
		count++
	}
	return count, nil
}

// movieFromResult normalizes an upstream list entry. Numeric fields never
// go negative locally.
func movieFromResult(r tmdb.MovieResult) domain.Movie {
	m := domain.Movie{
		TMDBID:      r.ID,
		Title:       r.DisplayTitle(),
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
		Popularity:  max(r.Popularity, 0),
		VoteAverage: max(r.VoteAverage, 0),
		VoteCount:   max(r.VoteCount, 0),
		GenreIDs:    r.GenreIDs,
		IsActive:    true,
	}
	if r.ReleaseDate != "" {
		if d, err := time.Parse("2006-01-02", r.ReleaseDate); err == nil {
			m.ReleaseDate = &d
		}
	}
	return m
}
