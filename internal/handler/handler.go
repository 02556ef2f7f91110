package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ochelito/moviverse/internal/cache"
	"github.com/ochelito/moviverse/internal/engine"
	"github.com/ochelito/moviverse/internal/repository"
)

type Handler struct {
	repo        *repository.Repository
	cache       *cache.Cache
	trending    *engine.TrendingEngine
	recommender *engine.RecommendationEngine

	servingTTL      time.Duration
	trendingTopN    int
	recommendLimit  int
	trendingWindow  time.Duration
	watchHistoryCap int
}

type Options struct {
	ServingTTL      time.Duration
	TrendingTopN    int
	RecommendLimit  int
	TrendingWindow  time.Duration
	WatchHistoryCap int
}

func NewHandler(repo *repository.Repository, c *cache.Cache, trending *engine.TrendingEngine, recommender *engine.RecommendationEngine, opts Options) *Handler {
	return &Handler{
		repo:            repo,
		cache:           c,
		trending:        trending,
		recommender:     recommender,
		servingTTL:      opts.ServingTTL,
		trendingTopN:    opts.TrendingTopN,
		recommendLimit:  opts.RecommendLimit,
		trendingWindow:  opts.TrendingWindow,
		watchHistoryCap: opts.WatchHistoryCap,
	}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
