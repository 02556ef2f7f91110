package repository

import (
	"context"
	"fmt"

	"github.com/ochelito/moviverse/internal/domain"
)

// ReplaceTrending swaps the published snapshot for a period inside one
// transaction. Readers see the old set or the new set, never a mix.
func (r *Repository) ReplaceTrending(ctx context.Context, period string, entries []domain.TrendingEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin trending replace for %q: %w", period, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM trending_entries WHERE period = $1`, period); err != nil {
		return fmt.Errorf("clear trending for %q: %w", period, err)
	}

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO trending_entries (tmdb_id, title, score, period, rank, as_of)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.TMDBID, e.Title, e.Score, e.Period, e.Rank, e.AsOf,
		)
		if err != nil {
			return fmt.Errorf("insert trending entry rank %d for %q: %w", e.Rank, period, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit trending replace for %q: %w", period, err)
	}
	return nil
}

// ListTrending returns the current snapshot for a period in rank order.
func (r *Repository) ListTrending(ctx context.Context, period string, limit int) ([]domain.TrendingEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tmdb_id, title, score, period, rank, as_of
		FROM trending_entries
		WHERE period = $1
		ORDER BY rank
		LIMIT $2`, period, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query trending for %q: %w", period, err)
	}
	defer rows.Close()

	var entries []domain.TrendingEntry
	for rows.Next() {
		var e domain.TrendingEntry
		if err := rows.Scan(&e.TMDBID, &e.Title, &e.Score, &e.Period, &e.Rank, &e.AsOf); err != nil {
			return nil, fmt.Errorf("scan trending entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending entries: %w", err)
	}
	return entries, nil
}
