package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotConfigured is returned by providers that have no credentials.
var ErrNotConfigured = errors.New("llm provider is not configured")

// StatusError reports a non-2xx answer from the upstream API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// StreamingProvider opens a streamed completion against an upstream API.
type StreamingProvider interface {
	// Configured reports whether the provider has what it needs to connect.
	Configured() bool

	// OpenStream sends req and, once the upstream accepted it, returns the
	// text/event-stream body. The caller must close it.
	OpenStream(ctx context.Context, req *ResponseRequest) (io.ReadCloser, error)
}
