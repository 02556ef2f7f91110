package scheduler

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/engine"
)

// Period pairs a trending snapshot label with its signal window.
type Period struct {
	Name   string
	Window time.Duration
}

type Config struct {
	SyncInterval      time.Duration
	TrendingInterval  time.Duration
	RecommendInterval time.Duration
	DueDrainInterval  time.Duration

	SyncPages      int
	TrendingTopN   int
	RecommendLimit int
	Periods        []Period
}

// Scheduler triggers the batch engines on a cadence. It is the sole
// trigger of recomputation: serving-path writes only mark work due.
type Scheduler struct {
	syncer      *engine.CatalogSyncer
	trending    *engine.TrendingEngine
	recommender *engine.RecommendationEngine
	cfg         Config
}

func New(syncer *engine.CatalogSyncer, trending *engine.TrendingEngine, recommender *engine.RecommendationEngine, cfg Config) *Scheduler {
	if len(cfg.Periods) == 0 {
		cfg.Periods = []Period{
			{Name: "daily", Window: 24 * time.Hour},
			{Name: "weekly", Window: 7 * 24 * time.Hour},
		}
	}
	return &Scheduler{syncer: syncer, trending: trending, recommender: recommender, cfg: cfg}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled. A failed
// run is logged and the loop keeps going; the previously published
// snapshots stay current.
func (s *Scheduler) Run(ctx context.Context) error {
	syncTicker := time.NewTicker(s.cfg.SyncInterval)
	trendingTicker := time.NewTicker(s.cfg.TrendingInterval)
	recommendTicker := time.NewTicker(s.cfg.RecommendInterval)
	dueTicker := time.NewTicker(s.cfg.DueDrainInterval)
	defer syncTicker.Stop()
	defer trendingTicker.Stop()
	defer recommendTicker.Stop()
	defer dueTicker.Stop()

	// Populate everything once on startup.
	s.runSync(ctx)
	s.runTrending(ctx)
	s.runRecommendSweep(ctx)

	zlog.Info().
		Dur("sync_every", s.cfg.SyncInterval).
		Dur("trending_every", s.cfg.TrendingInterval).
		Dur("recommend_every", s.cfg.RecommendInterval).
		Msg("scheduler running")

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-syncTicker.C:
			s.runSync(ctx)
		case <-trendingTicker.C:
			s.runTrending(ctx)
		case <-recommendTicker.C:
			s.runRecommendSweep(ctx)
		case <-dueTicker.C:
			s.runDueDrain(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	if _, err := s.syncer.SyncPopular(ctx, s.cfg.SyncPages); err != nil {
		zlog.Error().Err(err).Msg("popular catalog sync failed")
	}
	if _, err := s.syncer.SyncTrending(ctx); err != nil {
		zlog.Error().Err(err).Msg("trending catalog sync failed")
	}
}

func (s *Scheduler) runTrending(ctx context.Context) {
	for _, p := range s.cfg.Periods {
		res, err := s.trending.Run(ctx, p.Name, p.Window, s.cfg.TrendingTopN)
		if err != nil {
			zlog.Error().Err(err).Str("period", p.Name).Msg("trending run failed")
			continue
		}
		zlog.Info().Str("period", p.Name).Int("count", res.Count).Msg("trending run complete")
	}
}

func (s *Scheduler) runRecommendSweep(ctx context.Context) {
	res, err := s.recommender.RunForAllUsers(ctx, s.cfg.RecommendLimit)
	if err != nil {
		zlog.Error().Err(err).Msg("recommendation sweep failed")
		return
	}
	zlog.Info().
		Int("total", res.TotalUsers).
		Int("ok", res.SuccessCount).
		Int("failed", res.FailedCount).
		Int64("elapsed_ms", res.ProcessingTimeMs).
		Msg("recommendation sweep complete")
}

func (s *Scheduler) runDueDrain(ctx context.Context) {
	res, err := s.recommender.RunForDueUsers(ctx, s.cfg.RecommendLimit)
	if err != nil {
		zlog.Error().Err(err).Msg("due-user drain failed")
		return
	}
	if res.TotalUsers > 0 {
		zlog.Info().Int("total", res.TotalUsers).Int("failed", res.FailedCount).Msg("due-user drain complete")
	}
}
