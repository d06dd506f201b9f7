// Package infra serves the relay's own endpoints: welcome, health and the
// request journal.
package infra

import (
	"time"

	"github.com/mandalnilabja/openai-relay/internal/storage"
)

// App is the application name reported by the health endpoint.
const App = "openai-relay"

// WelcomeText is the body of GET /.
const WelcomeText = "Welcome to the OpenAI Reverse Proxy!"

// cacheStatser is implemented by journals with a read cache.
type cacheStatser interface {
	Stats() storage.CacheStats
}

// Handlers holds the dependencies for infrastructure HTTP handlers.
// Storage is nil when the journal is disabled.
type Handlers struct {
	Storage   storage.Storage
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(store storage.Storage, startTime time.Time) *Handlers {
	return &Handlers{
		Storage:   store,
		StartTime: startTime,
	}
}
