package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mandalnilabja/openai-relay/internal/provider"
	"github.com/mandalnilabja/openai-relay/internal/storage"
	"github.com/mandalnilabja/openai-relay/internal/transport/http/middleware"
	"github.com/mandalnilabja/openai-relay/internal/types"
)

// errBadJSON marks an inbound body that is not well-formed JSON.
var errBadJSON = errors.New("invalid JSON body")

// Relay returns the handler for one route of the table.
func (h *Handlers) Relay(route provider.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		logger := h.Logger.With("route", route.Name, "request_id", requestID)

		req := &provider.ForwardRequest{
			Route:     &route,
			Path:      route.UpstreamPath(r.PathValue),
			RequestID: requestID,
		}
		if route.Method == http.MethodGet {
			req.RawQuery = r.URL.RawQuery
		}

		var (
			model  string
			tokens <-chan int
		)
		switch route.Body {
		case provider.BodyVerbatim:
			body, err := readJSONBody(r)
			if err != nil {
				h.writeBodyError(w, logger, err)
				return
			}
			if route.LogPayload {
				logger.Info("relaying payload", "payload", string(body))
			}
			req.Body = body

		case provider.BodyChat:
			body, err := readJSONBody(r)
			if err != nil {
				h.writeBodyError(w, logger, err)
				return
			}
			chat, err := types.ParseChatRequest(body)
			if err != nil {
				h.writeBodyError(w, logger, fmt.Errorf("%w: %v", errBadJSON, err))
				return
			}
			shaped := chat.Shape(h.ChatDefaults)
			if req.Body, err = json.Marshal(shaped); err != nil {
				types.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
			model = shaped.ModelName()
			tokens = h.countPromptTokens(chat, model)
		}

		res, err := h.Provider.Forward(r.Context(), req)

		entry := &storage.RequestLog{
			RequestID:    requestID,
			Route:        route.Name,
			Method:       route.Method,
			UpstreamPath: req.Path,
			Model:        model,
			CreatedAt:    time.Now(),
		}
		if tokens != nil {
			entry.PromptTokens = awaitTokens(tokens)
			logger.Debug("chat prompt estimated", "model", model, "prompt_tokens", entry.PromptTokens)
		}

		var upErr *provider.UpstreamError
		switch {
		case err == nil:
			entry.StatusCode = res.StatusCode
			entry.DurationMs = res.Duration.Milliseconds()
			h.observe(route.Name, res.StatusCode, res.Duration, entry.PromptTokens)
			writeResult(w, res)

		case errors.As(err, &upErr):
			entry.StatusCode = upErr.Status()
			entry.ErrorMessage = upErr.Message
			entry.DurationMs = upErr.Duration.Milliseconds()
			h.observe(route.Name, upErr.StatusCode, upErr.Duration, entry.PromptTokens)
			if h.Metrics != nil {
				h.Metrics.UpstreamError(route.Name, upErr.Kind())
			}
			logger.Error("upstream call failed",
				"provider", h.Provider.Name(),
				"upstream_url", h.Provider.BaseURL()+req.Path,
				"kind", upErr.Kind(),
				"status", upErr.Status(),
				"error", upErr.Error(),
				"upstream_body", string(upErr.Body),
			)
			writeUpstreamError(w, upErr)

		default:
			entry.StatusCode = http.StatusInternalServerError
			entry.ErrorMessage = err.Error()
			logger.Error("forward failed", "error", err)
			types.WriteError(w, http.StatusInternalServerError, err.Error())
		}

		h.journal(logger, entry)
	}
}

// readJSONBody returns the inbound body, or {} when it is empty. Anything
// that is not well-formed JSON is rejected.
func readJSONBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadJSON, maxBodyBytes)
	}
	if len(body) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed document", errBadJSON)
	}
	return body, nil
}

func (h *Handlers) writeBodyError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Warn("rejected request body", "error", err)
	types.WriteError(w, http.StatusBadRequest, err.Error())
}

// countPromptTokens estimates prompt tokens in the background. The
// channel yields nothing when counting is disabled or fails.
func (h *Handlers) countPromptTokens(chat *types.ChatCompletionRequest, model string) <-chan int {
	ch := make(chan int, 1)
	if h.Tokenizer == nil {
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		msgs, err := chat.DecodeMessages()
		if err != nil || len(msgs) == 0 {
			return
		}
		if n, err := h.Tokenizer.CountMessages(msgs, model); err == nil {
			ch <- n
		}
	}()
	return ch
}

func awaitTokens(ch <-chan int) int {
	select {
	case n := <-ch:
		return n
	case <-time.After(tokenCountTimeout):
		return 0
	}
}

func (h *Handlers) observe(route string, code int, d time.Duration, promptTokens int) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.ObserveUpstream(route, code, d)
	if promptTokens > 0 {
		h.Metrics.ObservePromptTokens(promptTokens)
	}
}

// writeResult relays a successful upstream response unchanged.
func writeResult(w http.ResponseWriter, res *provider.ForwardResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}

func writeUpstreamError(w http.ResponseWriter, e *provider.UpstreamError) {
	if len(e.Body) > 0 {
		types.WriteUpstreamError(w, e.Status(), e.Body)
		return
	}
	types.WriteError(w, e.Status(), e.Message)
}

// journal writes the entry in the background; failures are only logged.
func (h *Handlers) journal(logger *slog.Logger, entry *storage.RequestLog) {
	if h.Storage == nil {
		return
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		logger.Debug("journal closed, entry dropped")
		return
	}
	h.pending.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.pending.Done()
		if err := h.Storage.LogRequest(entry); err != nil {
			logger.Warn("journal write failed", "error", err)
		}
	}()
}
