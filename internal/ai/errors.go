package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrRetriesExhausted wraps the last error once every attempt has failed.
	ErrRetriesExhausted = errors.New("upstream retries exhausted")
	// ErrTimeout marks an attempt that ran out of its own deadline.
	ErrTimeout = errors.New("upstream timeout")
	// ErrEmptyResponse is returned when the model answers without any text.
	ErrEmptyResponse = errors.New("upstream returned no text")
)

// UpstreamError is a non-200 answer from the provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether err is transient: a 5xx answer or a timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	// a cancelled caller is never retried
	if errors.Is(err, context.Canceled) {
		return false
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// UpstreamStatus returns the provider status code carried by err, or 0.
func UpstreamStatus(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
