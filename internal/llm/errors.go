package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyInput is returned when an embedding request has no texts.
var ErrEmptyInput = errors.New("empty input array")

// StatusError is a non-200 response from a model server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is a rate limit or a server error.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable reports whether err wraps a retryable StatusError.
func IsRetryable(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Retryable()
}
