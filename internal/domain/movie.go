package domain

import "time"

// Movie is a catalog item mirrored from the upstream API. TMDBID is the
// stable upstream identifier; ID is the local primary key.
type Movie struct {
	ID          int64      `json:"id"`
	TMDBID      int64      `json:"tmdb_id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	PosterPath  string     `json:"poster_path"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Popularity  float64    `json:"popularity"`
	VoteAverage float64    `json:"vote_average"`
	VoteCount   int        `json:"vote_count"`
	GenreIDs    []int64    `json:"genre_ids"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Genre struct {
	ID     int64  `json:"id"`
	TMDBID int64  `json:"tmdb_id"`
	Name   string `json:"name"`
}
