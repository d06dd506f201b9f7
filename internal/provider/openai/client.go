// Package openai implements the OpenAI upstream provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mandalnilabja/openai-relay/internal/provider"
)

// Header names injected on outbound calls.
const (
	HeaderBeta      = "OpenAI-Beta"
	HeaderRequestID = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the upstream origin including its version prefix,
	// e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey is sent as a bearer token on every call.
	APIKey string

	// BetaHeader is the OpenAI-Beta value for routes that need it.
	BetaHeader string

	// HTTPClient overrides the default upstream client.
	HTTPClient *http.Client
}

// Client implements provider.Provider against the OpenAI HTTP API.
// The credential is held here and never leaves the process.
type Client struct {
	baseURL    string
	apiKey     string
	betaHeader string
	httpClient *http.Client
}

// New creates a new OpenAI provider.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				Proxy:              http.ProxyFromEnvironment,
				DisableCompression: true,
			},
			// Redirects are relayed, not followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		betaHeader: opts.BetaHeader,
		httpClient: hc,
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return "openai"
}

// BaseURL returns the upstream origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Forward sends one request upstream and classifies the outcome.
func (c *Client) Forward(ctx context.Context, req *provider.ForwardRequest) (*provider.ForwardResult, error) {
	start := time.Now()

	upstreamReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, &provider.UpstreamError{
			Message:  fmt.Sprintf("build upstream request: %v", err),
			Duration: time.Since(start),
			Err:      err,
		}
	}

	resp, err := c.httpClient.Do(upstreamReq)
	if err != nil {
		return nil, &provider.UpstreamError{
			Message:  err.Error(),
			Duration: time.Since(start),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, &provider.UpstreamError{
			Message:  fmt.Sprintf("read upstream response: %v", err),
			Duration: duration,
			Err:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &provider.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Message:    fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			Duration:   duration,
		}
	}

	if len(body) > 0 && !json.Valid(body) {
		return nil, &provider.UpstreamError{
			Message:  fmt.Sprintf("malformed upstream response: status %d, %d bytes of non-JSON body", resp.StatusCode, len(body)),
			Duration: duration,
		}
	}

	return &provider.ForwardResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

// newRequest builds the outbound request with credential and protocol headers.
func (c *Client) newRequest(ctx context.Context, req *provider.ForwardRequest) (*http.Request, error) {
	// Without a key the call fails locally with a 500 instead of being sent
	// unauthenticated and relaying the upstream's 401.
	if c.apiKey == "" {
		return nil, provider.ErrNoAPIKey
	}

	url := c.baseURL + req.Path
	if req.RawQuery != "" {
		url += "?" + req.RawQuery
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	method := http.MethodPost
	if req.Route != nil {
		method = req.Route.Method
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	upstreamReq.Header.Set("Content-Type", "application/json")
	upstreamReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if req.Route != nil && req.Route.Beta && c.betaHeader != "" {
		upstreamReq.Header.Set(HeaderBeta, c.betaHeader)
	}
	if req.RequestID != "" {
		upstreamReq.Header.Set(HeaderRequestID, req.RequestID)
	}

	return upstreamReq, nil
}
