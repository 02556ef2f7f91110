package domain

import "time"

// ReasonCode classifies why an item was recommended. The set is closed so
// downstream consumers can handle it exhaustively.
type ReasonCode string

const (
	ReasonPopularFallback ReasonCode = "popular-fallback"
	ReasonGenreMatch      ReasonCode = "genre-match"
	ReasonGenrePopularity ReasonCode = "genre+popularity"
	ReasonBehaviorMatch   ReasonCode = "behavior-match"
)

// RecommendationEntry is one row of a user's published recommendation set.
// (user, item) is unique within a generation.
type RecommendationEntry struct {
	UserID int64      `json:"user_id"`
	TMDBID int64      `json:"tmdb_id"`
	Title  string     `json:"title"`
	Score  float64    `json:"score"`
	Reason ReasonCode `json:"reason"`
	AsOf   time.Time  `json:"as_of"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type BatchUserResult struct {
	UserID int64  `json:"user_id"`
	Count  int    `json:"count"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type BatchRunResult struct {
	TotalUsers       int               `json:"total_users"`
	SuccessCount     int               `json:"success_count"`
	FailedCount      int               `json:"failed_count"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	Failures         []BatchUserResult `json:"failures,omitempty"`
}
