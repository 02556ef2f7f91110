package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrMovieNotFound = errors.New("movie not found")
)

// ComputationAbortedError wraps the failure that prevented a full-scan run
// from completing. A run that returns it has published nothing.
type ComputationAbortedError struct {
	Stage string
	Err   error
}

func (e *ComputationAbortedError) Error() string {
	return fmt.Sprintf("computation aborted at %s: %v", e.Stage, e.Err)
}

func (e *ComputationAbortedError) Unwrap() error { return e.Err }

func IsComputationAborted(err error) bool {
	var target *ComputationAbortedError
	return errors.As(err, &target)
}
