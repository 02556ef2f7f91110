package repository

import (
	"context"
	"fmt"

	"github.com/ochelito/moviverse/internal/domain"
)

// ReplaceRecommendations swaps a user's published recommendation set
// inside one transaction, same all-or-nothing contract as trending.
func (r *Repository) ReplaceRecommendations(ctx context.Context, userID int64, entries []domain.RecommendationEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin recommendation replace for user %d: %w", userID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear recommendations for user %d: %w", userID, err)
	}

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO recommendations (user_id, tmdb_id, title, score, reason, as_of)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.UserID, e.TMDBID, e.Title, e.Score, string(e.Reason), e.AsOf,
		)
		if err != nil {
			return fmt.Errorf("insert recommendation %d for user %d: %w", e.TMDBID, userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit recommendation replace for user %d: %w", userID, err)
	}
	return nil
}

// ListRecommendations returns a user's current set, best score first.
func (r *Repository) ListRecommendations(ctx context.Context, userID int64, limit int) ([]domain.RecommendationEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, tmdb_id, title, score, reason, as_of
		FROM recommendations
		WHERE user_id = $1
		ORDER BY score DESC, tmdb_id
		LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recommendations for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []domain.RecommendationEntry
	for rows.Next() {
		var e domain.RecommendationEntry
		var reason string
		if err := rows.Scan(&e.UserID, &e.TMDBID, &e.Title, &e.Score, &reason, &e.AsOf); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		e.Reason = domain.ReasonCode(reason)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return entries, nil
}
