package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ochelito/moviverse/internal/domain"
)

// CountInteractions counts interaction events of one kind for a movie
// since the given time. The log is append-only, so a count taken mid-run
// is a consistent read of everything committed before it.
func (r *Repository) CountInteractions(ctx context.Context, movieID int64, kind domain.InteractionKind, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		FROM interaction_events
		WHERE movie_id = $1 AND kind = $2 AND created_at >= $3`,
		movieID, string(kind), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s interactions for movie %d: %w", kind, movieID, err)
	}
	return count, nil
}

// InsertInteraction appends one interaction event. Serving-path
// collaborators call this; the engines only read.
func (r *Repository) InsertInteraction(ctx context.Context, userID, movieID int64, kind domain.InteractionKind) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO interaction_events (user_id, movie_id, kind, created_at)
		VALUES ($1, $2, $3, now())`,
		userID, movieID, string(kind),
	)
	if err != nil {
		return fmt.Errorf("insert %s interaction for movie %d: %w", kind, movieID, err)
	}
	return nil
}
