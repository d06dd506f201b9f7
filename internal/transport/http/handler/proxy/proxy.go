// Package proxy relays the OpenAI route table to the upstream provider.
package proxy

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mandalnilabja/openai-relay/internal/provider"
	"github.com/mandalnilabja/openai-relay/internal/storage"
	"github.com/mandalnilabja/openai-relay/internal/tokenizer"
	"github.com/mandalnilabja/openai-relay/internal/types"
)

// tokenCountTimeout is the maximum time to wait for token counting after
// the upstream call has returned.
const tokenCountTimeout = 100 * time.Millisecond

// maxBodyBytes bounds how much of an inbound body is read.
const maxBodyBytes = 10 << 20

// Recorder receives per-call upstream observations.
type Recorder interface {
	ObserveUpstream(route string, code int, d time.Duration)
	UpstreamError(route, kind string)
	ObservePromptTokens(n int)
}

// Handlers holds the dependencies for proxy HTTP handlers. Storage,
// Tokenizer and Metrics are optional.
type Handlers struct {
	Provider     provider.Provider
	Storage      storage.Storage
	Tokenizer    tokenizer.Tokenizer
	Metrics      Recorder
	Logger       *slog.Logger
	ChatDefaults types.ChatDefaults

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// New creates a new instance of proxy handlers.
func New(prov provider.Provider, logger *slog.Logger, defaults types.ChatDefaults) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Provider:     prov,
		Logger:       logger,
		ChatDefaults: defaults,
	}
}

// Wait blocks until every queued journal write has finished.
func (h *Handlers) Wait() {
	h.pending.Wait()
}

// Shutdown stops queueing journal writes and waits for the queued ones.
// Calls that finish afterwards are still answered but not journaled.
func (h *Handlers) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.pending.Wait()
}
