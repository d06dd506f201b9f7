package app

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/openai-relay/internal/metrics"
	"github.com/mandalnilabja/openai-relay/internal/provider"
	"github.com/mandalnilabja/openai-relay/internal/transport/http/handler"
	"github.com/mandalnilabja/openai-relay/internal/transport/http/middleware"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	// RoutePrefix is prepended to every proxied route, e.g. /api/openai/v1.
	RoutePrefix string
	Logger      *slog.Logger

	// Metrics mounts /metrics and the metrics middleware when non-nil.
	Metrics *metrics.Collector
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	for _, route := range provider.Routes() {
		mux.HandleFunc(route.Pattern(opts.RoutePrefix), repo.Proxy.Relay(route))
	}

	mux.HandleFunc("GET /{$}", repo.Infra.Welcome)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("GET /api/logs", repo.Infra.ListLogs)
	mux.HandleFunc("GET /api/logs/{requestId}", repo.Infra.GetLog)

	mws := []func(http.Handler) http.Handler{
		middleware.CORS,
		middleware.RequestID,
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
		mws = append(mws, middleware.Metrics(opts.Metrics))
	}
	if opts.Logger != nil {
		mws = append(mws, middleware.RequestLogger(opts.Logger))
	}

	return middleware.Chain(mux, mws...)
}
