package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/ochelito/moviverse/internal/cache"
	"github.com/ochelito/moviverse/internal/domain"
)

// GET /users/{userID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	limit := h.recommendLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > h.recommendLimit {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	key := cache.RecommendationsKey(userID, limit)
	var cached []domain.RecommendationEntry
	found, err := h.cache.Get(r.Context(), key, &cached)
	if err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("recommendation cache get failed")
	}
	if found {
		writeJSON(w, http.StatusOK, RecommendationResponse{UserID: userID, Recommendations: cached, CacheHit: true})
		return
	}

	entries, err := h.repo.ListRecommendations(r.Context(), userID, limit)
	if err != nil {
		zlog.Error().Err(err).Int64("user_id", userID).Msg("recommendation read failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	if entries == nil {
		entries = []domain.RecommendationEntry{}
	}

	if err := h.cache.Set(r.Context(), key, entries, h.servingTTL); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("recommendation cache set failed")
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{UserID: userID, Recommendations: entries, CacheHit: false})
}

type watchHistoryRequest struct {
	TMDBID int64 `json:"tmdb_id"`
}

// POST /users/{userID}/history
//
// Records a watch event and marks the user's recommendations due. Nothing
// recomputes here; the scheduler picks the user up on its next drain.
func (h *Handler) AddWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req watchHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TMDBID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid tmdb_id in request body")
		return
	}

	movie, err := h.repo.GetMovieByTMDBID(r.Context(), req.TMDBID)
	if err != nil {
		if errors.Is(err, domain.ErrMovieNotFound) {
			writeError(w, http.StatusNotFound, "movie_not_found",
				fmt.Sprintf("Movie %d is not in the catalog", req.TMDBID))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	if err := h.repo.InsertInteraction(r.Context(), userID, movie.ID, domain.KindWatch); err != nil {
		zlog.Error().Err(err).Int64("user_id", userID).Msg("interaction insert failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	if err := h.repo.AppendWatchHistory(r.Context(), userID, req.TMDBID, h.watchHistoryCap); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found",
				fmt.Sprintf("User with ID %d does not exist", userID))
			return
		}
		zlog.Error().Err(err).Int64("user_id", userID).Msg("watch history append failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type preferencesRequest struct {
	GenreIDs []int64 `json:"genre_ids"`
}

// PUT /users/{userID}/preferences
//
// Replaces the user's preferred genre set and marks recommendations due,
// same contract as the history write.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid request body")
		return
	}
	for _, id := range req.GenreIDs {
		if id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid genre_ids in request body")
			return
		}
	}

	if err := h.repo.SetPreferredGenres(r.Context(), userID, req.GenreIDs); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found",
				fmt.Sprintf("User with ID %d does not exist", userID))
			return
		}
		zlog.Error().Err(err).Int64("user_id", userID).Msg("preference update failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return 0, false
	}
	return userID, true
}
