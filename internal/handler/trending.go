package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/cache"
	"github.com/ochelito/moviverse/internal/domain"
)

var validPeriods = map[string]bool{"daily": true, "weekly": true}

// GET /trending/{period}
//
// Serves the published snapshot through the score cache. A freshly
// recomputed snapshot shows up here once the cached payload expires.
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	if !validPeriods[period] {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid period parameter")
		return
	}

	limit := h.trendingTopN
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > h.trendingTopN {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	key := cache.TrendingKey(period, limit)
	var cached []domain.TrendingEntry
	found, err := h.cache.Get(r.Context(), key, &cached)
	if err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("trending cache get failed")
	}
	if found {
		writeJSON(w, http.StatusOK, TrendingResponse{Period: period, Entries: cached, CacheHit: true})
		return
	}

	entries, err := h.repo.ListTrending(r.Context(), period, limit)
	if err != nil {
		zlog.Error().Err(err).Str("period", period).Msg("trending read failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	if entries == nil {
		entries = []domain.TrendingEntry{}
	}

	if err := h.cache.Set(r.Context(), key, entries, h.servingTTL); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("trending cache set failed")
	}

	writeJSON(w, http.StatusOK, TrendingResponse{Period: period, Entries: entries, CacheHit: false})
}
