package infra

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/openai-relay/internal/storage"
	"github.com/mandalnilabja/openai-relay/internal/types"
	"github.com/mandalnilabja/openai-relay/internal/version"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string              `json:"status"`
	App           string              `json:"app"`
	Version       string              `json:"version"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Journal       bool                `json:"journal"`
	Cache         *storage.CacheStats `json:"cache"`
}

// Welcome answers GET / with a fixed plain-text greeting.
func (h *Handlers) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeText))
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "active",
		App:           App,
		Version:       version.Version,
		UptimeSeconds: int64(time.Since(h.StartTime).Seconds()),
		Journal:       h.Storage != nil,
	}
	if c, ok := h.Storage.(cacheStatser); ok {
		stats := c.Stats()
		resp.Cache = &stats
	}
	types.WriteJSON(w, http.StatusOK, resp)
}
