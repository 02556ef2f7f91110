package cache

import "fmt"

func TrendingKey(period string, limit int) string {
	return fmt.Sprintf("trending:%s:limit:%d", period, limit)
}

func RecommendationsKey(userID int64, limit int) string {
	return fmt.Sprintf("rec:user:%d:limit:%d", userID, limit)
}

// UpstreamKey keys a raw upstream response by endpoint path and its
// already-normalized query string (url.Values.Encode sorts parameters).
func UpstreamKey(path, query string) string {
	return fmt.Sprintf("tmdb:%s?%s", path, query)
}
