package domain

import "time"

// TrendingEntry is one row of a published trending snapshot. Within a
// snapshot ranks form a dense sequence 1..N with no gaps or duplicates.
type TrendingEntry struct {
	TMDBID int64     `json:"tmdb_id"`
	Title  string    `json:"title"`
	Score  float64   `json:"score"`
	Period string    `json:"period"`
	Rank   int       `json:"rank"`
	AsOf   time.Time `json:"as_of"`
}
