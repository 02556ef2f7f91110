package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/cache"
	"github.com/ochelito/moviverse/internal/config"
	"github.com/ochelito/moviverse/internal/engine"
	"github.com/ochelito/moviverse/internal/handler"
	"github.com/ochelito/moviverse/internal/logger"
	"github.com/ochelito/moviverse/internal/repository"
	"github.com/ochelito/moviverse/internal/router"
	"github.com/ochelito/moviverse/internal/scheduler"
	"github.com/ochelito/moviverse/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		zlog.Fatal().Err(err).Msg("database not ready")
	}
	zlog.Info().Msg("connected to PostgreSQL")

	// ------------ Redis score cache ---------------
	scoreCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create cache")
	}
	defer scoreCache.Close()
	if err := scoreCache.Ping(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("redis not ready")
	}
	zlog.Info().Msg("connected to Redis")

	// ------------ Components ---------------
	repo := repository.NewRepository(pool)

	client := tmdb.NewClient(tmdb.ClientConfig{
		BaseURL:        cfg.TMDBBaseURL,
		APIKey:         cfg.TMDBAPIKey,
		VolatileTTL:    cfg.UpstreamCacheTTL,
		GenreTTL:       cfg.GenreCacheTTL,
		RequestSpacing: cfg.RequestSpacing,
	}, scoreCache)

	trendingEngine := engine.NewTrendingEngine(repo)
	recommendEngine := engine.NewRecommendationEngine(repo)
	syncer := engine.NewCatalogSyncer(repo, client)

	sched := scheduler.New(syncer, trendingEngine, recommendEngine, scheduler.Config{
		SyncInterval:      cfg.SyncInterval,
		TrendingInterval:  cfg.TrendingInterval,
		RecommendInterval: cfg.RecommendInterval,
		DueDrainInterval:  cfg.DueDrainInterval,
		SyncPages:         cfg.SyncPages,
		TrendingTopN:      cfg.TrendingTopN,
		RecommendLimit:    cfg.RecommendLimit,
		Periods: []scheduler.Period{
			{Name: "daily", Window: 24 * time.Hour},
			{Name: "weekly", Window: cfg.TrendingWindow},
		},
	})
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error().Err(err).Msg("scheduler exited")
		}
	}()

	// ---------------- Server --------------------
	h := handler.NewHandler(repo, scoreCache, trendingEngine, recommendEngine, handler.Options{
		ServingTTL:      cfg.ServingCacheTTL,
		TrendingTopN:    cfg.TrendingTopN,
		RecommendLimit:  cfg.RecommendLimit,
		TrendingWindow:  cfg.TrendingWindow,
		WatchHistoryCap: cfg.WatchHistoryCap,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info().Str("addr", cfg.Addr()).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("server shutdown failed")
	}
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		zlog.Info().Int("attempt", i+1).Msg("waiting for database...")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}
