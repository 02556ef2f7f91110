// Package repository is the pgx-backed catalog store. Schema management
// lives outside this service; the queries here assume the shared movies,
// genres, movie_genres, interaction_events, trending_entries,
// recommendations and users tables.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
