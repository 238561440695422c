package cache

import (
	"errors"

	"github.com/matzehuels/pixelshare/pkg/httputil"
)

// ErrUnavailable is returned when a remote cache backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// Retryable marks err as transient so [httputil.Retry] attempts the
// operation again. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &httputil.RetryableError{Err: err}
}

// IsRetryable reports whether err was marked with [Retryable].
func IsRetryable(err error) bool {
	return httputil.IsRetryable(err)
}
