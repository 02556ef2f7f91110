package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ochelito/moviverse/internal/domain"
)

const movieColumns = `m.id, m.tmdb_id, m.title, m.overview, m.poster_path, m.release_date,
		m.popularity, m.vote_average, m.vote_count, m.is_active, m.created_at, m.updated_at,
		COALESCE(array_agg(g.tmdb_id) FILTER (WHERE g.tmdb_id IS NOT NULL), '{}') AS genre_ids`

const movieJoins = `FROM movies m
		LEFT JOIN movie_genres mg ON mg.movie_id = m.id
		LEFT JOIN genres g ON g.id = mg.genre_id`

// ListActiveMovies pages through active movies by ascending local ID so
// callers never hold more than one page in memory.
func (r *Repository) ListActiveMovies(ctx context.Context, afterID int64, limit int) ([]domain.Movie, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+movieColumns+` `+movieJoins+`
		WHERE m.is_active AND m.id > $1
		GROUP BY m.id
		ORDER BY m.id
		LIMIT $2`, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query active movies after %d: %w", afterID, err)
	}
	defer rows.Close()

	return scanMovies(rows)
}

// ListTopByPopularity returns active movies ordered by upstream popularity
// descending, ascending external ID on ties. The tie order matches the
// recommendation serving query so fallback entries serve in publish order.
func (r *Repository) ListTopByPopularity(ctx context.Context, limit int) ([]domain.Movie, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+movieColumns+` `+movieJoins+`
		WHERE m.is_active
		GROUP BY m.id
		ORDER BY m.popularity DESC, m.tmdb_id
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top movies by popularity: %w", err)
	}
	defer rows.Close()

	return scanMovies(rows)
}

// ListMoviesByGenres returns active movies linked to any of the given
// upstream genre IDs, most popular first, with their full genre sets.
func (r *Repository) ListMoviesByGenres(ctx context.Context, genreTMDBIDs []int64, limit int) ([]domain.Movie, error) {
	if len(genreTMDBIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+movieColumns+` `+movieJoins+`
		WHERE m.is_active AND m.id IN (
			SELECT mg2.movie_id
			FROM movie_genres mg2
			JOIN genres g2 ON g2.id = mg2.genre_id
			WHERE g2.tmdb_id = ANY($1)
		)
		GROUP BY m.id
		ORDER BY m.popularity DESC, m.tmdb_id
		LIMIT $2`, genreTMDBIDs, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query movies by genres: %w", err)
	}
	defer rows.Close()

	return scanMovies(rows)
}

// ListGenresForMovies returns the distinct upstream genre IDs attached to
// the given upstream movie IDs.
func (r *Repository) ListGenresForMovies(ctx context.Context, movieTMDBIDs []int64) ([]int64, error) {
	if len(movieTMDBIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT g.tmdb_id
		FROM genres g
		JOIN movie_genres mg ON mg.genre_id = g.id
		JOIN movies m ON m.id = mg.movie_id
		WHERE m.tmdb_id = ANY($1)`, movieTMDBIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query genres for movies: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan genre id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre ids: %w", err)
	}
	return ids, nil
}

// UpsertMovie inserts or updates a mirrored movie by external ID and
// replaces its genre links.
func (r *Repository) UpsertMovie(ctx context.Context, movie domain.Movie) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert movie %d: %w", movie.TMDBID, err)
	}
	defer tx.Rollback(ctx)

	var movieID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO movies (tmdb_id, title, overview, poster_path, release_date,
			popularity, vote_average, vote_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			poster_path = EXCLUDED.poster_path,
			release_date = EXCLUDED.release_date,
			popularity = EXCLUDED.popularity,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING id`,
		movie.TMDBID, movie.Title, movie.Overview, movie.PosterPath, movie.ReleaseDate,
		movie.Popularity, movie.VoteAverage, movie.VoteCount, movie.IsActive,
	).Scan(&movieID)
	if err != nil {
		return fmt.Errorf("upsert movie %d: %w", movie.TMDBID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM movie_genres WHERE movie_id = $1`, movieID); err != nil {
		return fmt.Errorf("clear genre links for movie %d: %w", movie.TMDBID, err)
	}
	if len(movie.GenreIDs) > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id)
			SELECT $1, id FROM genres WHERE tmdb_id = ANY($2)`,
			movieID, movie.GenreIDs,
		)
		if err != nil {
			return fmt.Errorf("link genres for movie %d: %w", movie.TMDBID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert movie %d: %w", movie.TMDBID, err)
	}
	return nil
}

// GetMovieByTMDBID looks up one movie by its external ID.
func (r *Repository) GetMovieByTMDBID(ctx context.Context, tmdbID int64) (domain.Movie, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+movieColumns+` `+movieJoins+`
		WHERE m.tmdb_id = $1
		GROUP BY m.id`, tmdbID,
	)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("query movie %d: %w", tmdbID, err)
	}
	defer rows.Close()

	movies, err := scanMovies(rows)
	if err != nil {
		return domain.Movie{}, err
	}
	if len(movies) == 0 {
		return domain.Movie{}, domain.ErrMovieNotFound
	}
	return movies[0], nil
}

func scanMovies(rows pgx.Rows) ([]domain.Movie, error) {
	var movies []domain.Movie
	for rows.Next() {
		var m domain.Movie
		err := rows.Scan(&m.ID, &m.TMDBID, &m.Title, &m.Overview, &m.PosterPath, &m.ReleaseDate,
			&m.Popularity, &m.VoteAverage, &m.VoteCount, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
			&m.GenreIDs)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// UpsertGenres inserts or renames genres by external ID.
func (r *Repository) UpsertGenres(ctx context.Context, genres []domain.Genre) error {
	for _, g := range genres {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO genres (tmdb_id, name)
			VALUES ($1, $2)
			ON CONFLICT (tmdb_id) DO UPDATE SET name = EXCLUDED.name`,
			g.TMDBID, g.Name,
		)
		if err != nil {
			return fmt.Errorf("upsert genre %d: %w", g.TMDBID, err)
		}
	}
	return nil
}
