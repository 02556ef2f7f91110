package handler

import "github.com/ochelito/moviverse/internal/domain"

type TrendingResponse struct {
	Period   string                 `json:"period"`
	Entries  []domain.TrendingEntry `json:"entries"`
	CacheHit bool                   `json:"cache_hit"`
}

type RecommendationResponse struct {
	UserID          int64                        `json:"user_id"`
	Recommendations []domain.RecommendationEntry `json:"recommendations"`
	CacheHit        bool                         `json:"cache_hit"`
}

type RecomputeAccepted struct {
	Status string `json:"status"`
	Target string `json:"target"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
