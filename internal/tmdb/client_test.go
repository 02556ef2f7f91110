package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is an in-memory stand-in for the redis-backed response cache.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, val any, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func newTestClient(baseURL string, c responseCache) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		RequestSpacing: time.Microsecond,
		RetryBase:      time.Millisecond,
	}, c)
}

func TestFetchPopularCachesResponse(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		json.NewEncoder(w).Encode(listResponse{
			Page:    1,
			Results: []MovieResult{{ID: 550, Title: "Fight Club", Popularity: 61.4}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, newMemCache())

	first, err := c.FetchPopular(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(550), first[0].ID)

	second, err := c.FetchPopular(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int32(1), hits.Load(), "second fetch should be served from cache")
}

func TestCacheKeyNeverContainsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(listResponse{})
	}))
	defer srv.Close()

	mc := newMemCache()
	c := newTestClient(srv.URL, mc)

	_, err := c.Search(context.Background(), "dune", 1)
	require.NoError(t, err)

	require.NotEmpty(t, mc.entries)
	for key := range mc.entries {
		assert.NotContains(t, key, "api_key")
		assert.NotContains(t, key, "test-key")
	}
}

func TestFetchRetriesTransientServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(listResponse{Results: []MovieResult{{ID: 1}}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, newMemCache())

	results, err := c.FetchTrending(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchListDegradesToEmptyOnExhaustedRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, newMemCache())

	results, err := c.FetchPopular(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, results)
	// initial attempt plus maxRetries
	assert.Equal(t, int32(4), hits.Load())
}

func TestFetchDetailNotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, newMemCache())

	_, err := c.FetchDetail(context.Background(), 999)
	require.Error(t, err)

	ue := AsUpstreamError(err)
	require.NotNil(t, ue)
	assert.Equal(t, KindNotFound, ue.Kind)
	assert.False(t, ue.Retryable)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchGenresPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, newMemCache())

	_, err := c.FetchGenres(context.Background())
	require.Error(t, err)
	ue := AsUpstreamError(err)
	require.NotNil(t, ue)
	assert.Equal(t, KindRateLimited, ue.Kind)
}

func TestSearchEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "blade runner", r.URL.Query().Get("query"))
		assert.True(t, strings.HasPrefix(r.URL.Path, "/search/movie"))
		json.NewEncoder(w).Encode(listResponse{Results: []MovieResult{{ID: 78, Name: "Blade Runner"}}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, newMemCache())

	results, err := c.Search(context.Background(), "blade runner", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Blade Runner", results[0].DisplayTitle())
}
