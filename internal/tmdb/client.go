package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ochelito/moviverse/internal/cache"
)

const maxRetries = 3

// responseCache is the slice of the score cache the client needs.
type responseCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	VolatileTTL    time.Duration // trending/popular/search/detail responses
	GenreTTL       time.Duration // genre list is near-static
	RequestSpacing time.Duration // minimum gap between real network calls
	RetryBase      time.Duration // initial backoff interval
	HTTPClient     *http.Client
}

// Client fetches paginated catalog data from the upstream API. Every call
// goes through the response cache first; the rate limiter and retry policy
// apply to real network calls only.
type Client struct {
	baseURL     string
	apiKey      string
	http        *http.Client
	cache       responseCache
	limiter     *rate.Limiter
	volatileTTL time.Duration
	genreTTL    time.Duration
	retryBase   time.Duration
}

func NewClient(cfg ClientConfig, c responseCache) *Client {
	if cfg.VolatileTTL == 0 {
		cfg.VolatileTTL = 10 * time.Minute
	}
	if cfg.GenreTTL == 0 {
		cfg.GenreTTL = 24 * time.Hour
	}
	if cfg.RequestSpacing == 0 {
		cfg.RequestSpacing = 250 * time.Millisecond
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		http:        cfg.HTTPClient,
		cache:       c,
		limiter:     rate.NewLimiter(rate.Every(cfg.RequestSpacing), 1),
		volatileTTL: cfg.VolatileTTL,
		genreTTL:    cfg.GenreTTL,
		retryBase:   cfg.RetryBase,
	}
}

// FetchTrending returns one page of upstream weekly trending movies.
// Exhausted retries degrade to an empty page.
func (c *Client) FetchTrending(ctx context.Context, page int) ([]MovieResult, error) {
	return c.fetchList(ctx, "/trending/movie/week", pageParams(page))
}

// FetchPopular returns one page of upstream popular movies. Exhausted
// retries degrade to an empty page.
func (c *Client) FetchPopular(ctx context.Context, page int) ([]MovieResult, error) {
	return c.fetchList(ctx, "/movie/popular", pageParams(page))
}

// Search returns one page of search results. Exhausted retries degrade to
// an empty page.
func (c *Client) Search(ctx context.Context, query string, page int) ([]MovieResult, error) {
	params := pageParams(page)
	params.Set("query", query)
	return c.fetchList(ctx, "/search/movie", params)
}

// FetchDetail fetches a single movie. Callers need authoritative data here,
// so failures propagate instead of degrading.
func (c *Client) FetchDetail(ctx context.Context, externalID int64) (*MovieDetail, error) {
	var detail MovieDetail
	path := fmt.Sprintf("/movie/%d", externalID)
	if err := c.get(ctx, path, url.Values{}, c.volatileTTL, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FetchGenres fetches the genre id/name mapping. Failures propagate; the
// callers resolve genre links against it and cannot proceed without it.
func (c *Client) FetchGenres(ctx context.Context) ([]GenreRef, error) {
	var resp genreListResponse
	if err := c.get(ctx, "/genre/movie/list", url.Values{}, c.genreTTL, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

func (c *Client) fetchList(ctx context.Context, path string, params url.Values) ([]MovieResult, error) {
	var resp listResponse
	if err := c.get(ctx, path, params, c.volatileTTL, &resp); err != nil {
		zlog.Warn().Err(err).Str("path", path).Msg("upstream list fetch degraded to empty result")
		return []MovieResult{}, nil
	}
	return resp.Results, nil
}

// get resolves one endpoint call: cache first, then a rate-limited request
// with bounded retries, then cache population on success.
func (c *Client) get(ctx context.Context, path string, params url.Values, ttl time.Duration, out any) error {
	// The cache key is built before the api key is injected, so the secret
	// never lands in redis. Encode() sorts parameters.
	key := cache.UpstreamKey(path, params.Encode())
	if found, err := c.cache.Get(ctx, key, out); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("upstream cache get failed")
	} else if found {
		return nil
	}

	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	raw, err := c.doWithRetry(ctx, reqURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if err := c.cache.Set(ctx, key, json.RawMessage(raw), ttl); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("upstream cache set failed")
	}
	return nil
}

func (c *Client) doWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		raw, err := c.doOnce(ctx, reqURL)
		if err != nil {
			if ue := AsUpstreamError(err); ue != nil && !ue.Retryable {
				return backoff.Permanent(err)
			}
			return err
		}
		body = raw
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryBase
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{Kind: KindNetworkError, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Kind: KindNetworkError, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		buf, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &UpstreamError{Kind: KindNetworkError, Retryable: true, Err: err}
		}
		return buf, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &UpstreamError{Kind: KindRateLimited, StatusCode: resp.StatusCode, Retryable: true}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &UpstreamError{Kind: KindNotFound, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, &UpstreamError{Kind: KindServerError, StatusCode: resp.StatusCode, Retryable: true}
	default:
		return nil, &UpstreamError{Kind: KindServerError, StatusCode: resp.StatusCode}
	}
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return params
}
