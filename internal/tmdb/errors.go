package tmdb

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindRateLimited  ErrorKind = "rate_limited"
	KindServerError  ErrorKind = "server_error"
	KindNotFound     ErrorKind = "not_found"
	KindNetworkError ErrorKind = "network_error"
)

// UpstreamError is any failure talking to the catalog API. Retryable marks
// transient failures (5xx, rate limit, network) worth another attempt.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s (status %d)", e.Kind, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// AsUpstreamError returns the wrapped UpstreamError, or nil.
func AsUpstreamError(err error) *UpstreamError {
	var target *UpstreamError
	if errors.As(err, &target) {
		return target
	}
	return nil
}
