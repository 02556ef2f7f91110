package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ochelito/moviverse/internal/domain"
)

// GetUserProfile returns the preference and behavior signals for one user.
func (r *Repository) GetUserProfile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	profile := domain.UserProfile{UserID: userID}

	err := r.pool.QueryRow(ctx,
		`SELECT preferred_genre_ids, watch_history
		FROM users WHERE id = $1`, userID,
	).Scan(&profile.PreferredGenreIDs, &profile.WatchHistory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("query profile for user %d: %w", userID, err)
	}

	return profile, nil
}

// ListUserIDs returns one page of user IDs in ascending order.
func (r *Repository) ListUserIDs(ctx context.Context, page, limit int) ([]int64, error) {
	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query user ids for page %d: %w", page, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

// Count total users
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// AppendWatchHistory prepends a movie to the user's watch history, keeping
// it most-recent-first, deduplicated and capped. The write also marks the
// user's recommendations due; it never recomputes anything itself.
func (r *Repository) AppendWatchHistory(ctx context.Context, userID, movieTMDBID int64, maxLen int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		SET watch_history = (ARRAY[$2::bigint] || array_remove(watch_history, $2::bigint))[1:$3],
			recs_due = TRUE,
			updated_at = now()
		WHERE id = $1`,
		userID, movieTMDBID, maxLen,
	)
	if err != nil {
		return fmt.Errorf("append watch history for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetPreferredGenres replaces the user's preferred genre set and marks
// recommendations due. The stored list is a set: repeated IDs collapse to
// their first occurrence.
func (r *Repository) SetPreferredGenres(ctx context.Context, userID int64, genreTMDBIDs []int64) error {
	genreTMDBIDs = dedupeIDs(genreTMDBIDs)
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		SET preferred_genre_ids = $2, recs_due = TRUE, updated_at = now()
		WHERE id = $1`,
		userID, genreTMDBIDs,
	)
	if err != nil {
		return fmt.Errorf("set preferred genres for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// dedupeIDs drops repeated IDs, keeping first-occurrence order.
func dedupeIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ListDueUserIDs returns users flagged for recompute since the last sweep.
func (r *Repository) ListDueUserIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM users WHERE recs_due ORDER BY id LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due user ids: %w", err)
	}
	return ids, nil
}

func (r *Repository) ClearRecommendationsDue(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET recs_due = FALSE WHERE id = $1`, userID,
	)
	if err != nil {
		return fmt.Errorf("clear due flag for user %d: %w", userID, err)
	}
	return nil
}
