// Package handler composes the relay's HTTP handlers.
package handler

import (
	"time"

	"github.com/mandalnilabja/openai-relay/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/openai-relay/internal/transport/http/handler/proxy"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Proxy *proxy.Handlers
	Infra *infra.Handlers
}

// NewRepo wires the infra handlers to the same journal the proxy writes to.
func NewRepo(p *proxy.Handlers) *Repo {
	return &Repo{
		Proxy: p,
		Infra: infra.New(p.Storage, time.Now()),
	}
}
