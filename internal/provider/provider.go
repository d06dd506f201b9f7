// Package provider defines the forwarding contract between the HTTP layer
// and an upstream LLM API, plus the route table that drives it.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoAPIKey is returned when no API key is configured for the upstream.
var ErrNoAPIKey = errors.New("no API key configured")

// Provider forwards one inbound call to the upstream API.
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// BaseURL returns the upstream origin including its version prefix
	BaseURL() string

	// Forward makes exactly one upstream attempt. A nil error means the
	// upstream answered 2xx with a well-formed body; every other outcome is
	// an *UpstreamError.
	Forward(ctx context.Context, req *ForwardRequest) (*ForwardResult, error)
}

// ForwardRequest describes one outbound call.
type ForwardRequest struct {
	// Route the call was matched on
	Route *Route

	// Path is the upstream path with parameters already substituted
	Path string

	// RawQuery is appended to the upstream URL when non-empty
	RawQuery string

	// Body is sent as-is; nil means no body
	Body []byte

	// RequestID is propagated upstream for correlation
	RequestID string
}

// ForwardResult is a successful upstream response.
type ForwardResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// UpstreamError is any failed forward. StatusCode is zero when no usable
// upstream response was obtained.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	Message    string
	Duration   time.Duration
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Status returns the status to report to the caller: the upstream status
// when there was one, otherwise 500.
func (e *UpstreamError) Status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Kind classifies the failure for metrics and logs.
func (e *UpstreamError) Kind() string {
	if e.StatusCode != 0 {
		return "upstream"
	}
	return "transport"
}
