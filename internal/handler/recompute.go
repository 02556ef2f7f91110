package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"
)

const recomputeTimeout = 10 * time.Minute

// POST /internal/recompute/trending/{period}
//
// Manual trigger for operators; the run happens in the background and the
// request returns immediately.
func (h *Handler) RecomputeTrending(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	if !validPeriods[period] {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid period parameter")
		return
	}

	window := h.trendingWindow
	if period == "daily" {
		window = 24 * time.Hour
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		if _, err := h.trending.Run(ctx, period, window, h.trendingTopN); err != nil {
			zlog.Error().Err(err).Str("period", period).Msg("triggered trending run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, RecomputeAccepted{Status: "accepted", Target: "trending/" + period})
}

// POST /internal/recompute/recommendations[?user_id=N]
//
// Without user_id the trigger sweeps all users.
func (h *Handler) RecomputeRecommendations(w http.ResponseWriter, r *http.Request) {
	target := "recommendations/all"
	var userID int64
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		parsed, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
			return
		}
		userID = parsed
		target = fmt.Sprintf("recommendations/user/%d", userID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		if userID > 0 {
			if _, err := h.recommender.RunForUser(ctx, userID, h.recommendLimit); err != nil {
				zlog.Error().Err(err).Int64("user_id", userID).Msg("triggered recommendation run failed")
			}
			return
		}
		res, err := h.recommender.RunForAllUsers(ctx, h.recommendLimit)
		if err != nil {
			zlog.Error().Err(err).Msg("triggered recommendation sweep failed")
			return
		}
		zlog.Info().Int("ok", res.SuccessCount).Int("failed", res.FailedCount).Msg("triggered recommendation sweep complete")
	}()

	writeJSON(w, http.StatusAccepted, RecomputeAccepted{Status: "accepted", Target: target})
}
