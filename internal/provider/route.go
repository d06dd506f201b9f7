package provider

import (
	"net/http"
	"net/url"
	"strings"
)

// BodyMode says what the relay does with the inbound body.
type BodyMode int

const (
	// BodyNone ignores the inbound body.
	BodyNone BodyMode = iota
	// BodyVerbatim forwards the inbound JSON body unchanged.
	BodyVerbatim
	// BodyChat reshapes the inbound body into {model, messages, max_tokens}.
	BodyChat
)

func (m BodyMode) String() string {
	switch m {
	case BodyVerbatim:
		return "verbatim"
	case BodyChat:
		return "chat"
	default:
		return "none"
	}
}

// Route describes one proxied endpoint. Path and Upstream use {name}
// placeholders for path parameters.
type Route struct {
	Name     string
	Method   string
	Path     string
	Upstream string
	Body     BodyMode

	// Beta routes carry the OpenAI-Beta protocol-version header.
	Beta bool

	// LogPayload logs the inbound body before forwarding.
	LogPayload bool
}

// Route names, used as metric and journal labels.
const (
	RouteChatCompletions = "chat_completions"
	RouteCreateThread    = "create_thread"
	RouteCreateMessage   = "create_message"
	RouteCreateRun       = "create_run"
	RouteGetRun          = "get_run"
	RouteListMessages    = "list_messages"
)

// Routes returns the proxied route table.
func Routes() []Route {
	return []Route{
		{
			Name:     RouteChatCompletions,
			Method:   http.MethodPost,
			Path:     "/chat/completions",
			Upstream: "/chat/completions",
			Body:     BodyChat,
		},
		{
			Name:     RouteCreateThread,
			Method:   http.MethodPost,
			Path:     "/threads",
			Upstream: "/threads",
			Body:     BodyNone,
			Beta:     true,
		},
		{
			Name:       RouteCreateMessage,
			Method:     http.MethodPost,
			Path:       "/threads/{threadId}/messages",
			Upstream:   "/threads/{threadId}/messages",
			Body:       BodyVerbatim,
			Beta:       true,
			LogPayload: true,
		},
		{
			Name:     RouteCreateRun,
			Method:   http.MethodPost,
			Path:     "/threads/{threadId}/runs",
			Upstream: "/threads/{threadId}/runs",
			Body:     BodyVerbatim,
			Beta:     true,
		},
		{
			Name:     RouteGetRun,
			Method:   http.MethodGet,
			Path:     "/threads/{threadId}/runs/{runId}",
			Upstream: "/threads/{threadId}/runs/{runId}",
			Body:     BodyNone,
			Beta:     true,
		},
		{
			Name:     RouteListMessages,
			Method:   http.MethodGet,
			Path:     "/threads/{threadId}/messages",
			Upstream: "/threads/{threadId}/messages",
			Body:     BodyNone,
			Beta:     true,
		},
	}
}

// Pattern returns the ServeMux pattern for the route under prefix.
func (r *Route) Pattern(prefix string) string {
	return r.Method + " " + prefix + r.Path
}

// Params returns the placeholder names in the upstream template, in order.
func (r *Route) Params() []string {
	var names []string
	rest := r.Upstream
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}

// UpstreamPath substitutes each placeholder with value(name). Values are
// path-escaped so they decode back verbatim upstream and never leave their
// segment.
func (r *Route) UpstreamPath(value func(name string) string) string {
	path := r.Upstream
	for _, name := range r.Params() {
		path = strings.Replace(path, "{"+name+"}", url.PathEscape(value(name)), 1)
	}
	return path
}
