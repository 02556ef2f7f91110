package domain

import "time"

type InteractionKind string

const (
	KindView     InteractionKind = "view"
	KindFavorite InteractionKind = "favorite"
	KindReview   InteractionKind = "review"
	KindWatch    InteractionKind = "watch"
)

// InteractionEvent is an append-only interaction log row. The engines only
// ever read these; serving-path collaborators create them.
type InteractionEvent struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	MovieID   int64           `json:"movie_id"`
	Kind      InteractionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}
