package tmdb

// MovieResult is one entry of a list response (trending, popular, search).
// TV results use "name" instead of "title"; Title() folds them together.
type MovieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title,omitempty"`
	Name        string  `json:"name,omitempty"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	GenreIDs    []int64 `json:"genre_ids"`
	ReleaseDate string  `json:"release_date"`
}

// DisplayTitle returns the movie title, falling back to the TV name field.
func (m MovieResult) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

type listResponse struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []MovieResult `json:"results"`
}

type GenreRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []GenreRef `json:"genres"`
}

// MovieDetail is the single-object payload of GET /movie/{id}. Detail
// responses carry expanded genre objects rather than genre_ids.
type MovieDetail struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	PosterPath  string     `json:"poster_path"`
	Popularity  float64    `json:"popularity"`
	VoteAverage float64    `json:"vote_average"`
	VoteCount   int        `json:"vote_count"`
	Genres      []GenreRef `json:"genres"`
	ReleaseDate string     `json:"release_date"`
}
