package domain

// UserProfile carries the preference and behavior signals the
// recommendation engine reads. WatchHistory holds upstream movie IDs,
// most-recent-first, capped by the serving path on write.
type UserProfile struct {
	UserID            int64   `json:"user_id"`
	PreferredGenreIDs []int64 `json:"preferred_genre_ids"`
	WatchHistory      []int64 `json:"watch_history"`
}

// HasSignal reports whether the profile carries anything to personalize on.
func (p UserProfile) HasSignal() bool {
	return len(p.PreferredGenreIDs) > 0 || len(p.WatchHistory) > 0
}
