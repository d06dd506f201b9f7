package infra

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mandalnilabja/openai-relay/internal/storage"
	"github.com/mandalnilabja/openai-relay/internal/types"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// ListLogs handles GET /api/logs.
func (h *Handlers) ListLogs(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		types.WriteError(w, http.StatusNotFound, "request journal disabled")
		return
	}

	filter := parseLogFilter(r)
	logs, err := h.Storage.GetRequestLogs(filter)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, "failed to get request logs: "+err.Error())
		return
	}

	types.WriteJSON(w, http.StatusOK, map[string]any{
		"logs":   logs,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetLog handles GET /api/logs/{requestId}.
func (h *Handlers) GetLog(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		types.WriteError(w, http.StatusNotFound, "request journal disabled")
		return
	}

	log, err := h.Storage.GetRequestLog(r.PathValue("requestId"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		types.WriteError(w, http.StatusNotFound, "request log not found")
	case err != nil:
		types.WriteError(w, http.StatusInternalServerError, "failed to get request log: "+err.Error())
	default:
		types.WriteJSON(w, http.StatusOK, log)
	}
}

// parseLogFilter creates a LogFilter from query parameters. Malformed
// values are ignored.
func parseLogFilter(r *http.Request) storage.LogFilter {
	q := r.URL.Query()
	filter := storage.LogFilter{
		Route: q.Get("route"),
		Limit: defaultLogLimit,
	}

	if v := q.Get("status_code"); v != "" {
		if code, err := strconv.Atoi(v); err == nil {
			filter.StatusCode = &code
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = min(limit, maxLogLimit)
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	return filter
}
