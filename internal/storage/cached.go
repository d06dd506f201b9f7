package storage

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/openai-relay/internal/storage/models"
)

// CacheStats reports lookup counters of a Cached journal.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// Cached serves GetRequestLog lookups from an in-memory cache in front of
// another Storage. Entries are written through on LogRequest and the whole
// cache is dropped on DeleteRequestLogs.
type Cached struct {
	Storage
	cache *ristretto.Cache[string, *models.RequestLog]
}

// NewCached wraps inner with a cache holding up to maxEntries logs.
func NewCached(inner Storage, maxEntries int64) (*Cached, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *models.RequestLog]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create journal cache: %w", err)
	}
	return &Cached{Storage: inner, cache: cache}, nil
}

// LogRequest stores the entry and caches it under its request ID.
func (c *Cached) LogRequest(log *models.RequestLog) error {
	if err := c.Storage.LogRequest(log); err != nil {
		return err
	}
	entry := *log
	c.cache.Set(log.RequestID, &entry, 1)
	return nil
}

// GetRequestLog returns a copy of the cached entry or loads it from the
// wrapped journal.
func (c *Cached) GetRequestLog(requestID string) (*models.RequestLog, error) {
	if entry, ok := c.cache.Get(requestID); ok {
		out := *entry
		return &out, nil
	}

	log, err := c.Storage.GetRequestLog(requestID)
	if err != nil {
		return nil, err
	}
	entry := *log
	c.cache.Set(requestID, &entry, 1)
	return log, nil
}

// DeleteRequestLogs prunes the wrapped journal and drops every cached entry.
func (c *Cached) DeleteRequestLogs(olderThan time.Time) (int64, error) {
	n, err := c.Storage.DeleteRequestLogs(olderThan)
	if n > 0 {
		c.cache.Clear()
	}
	return n, err
}

// Stats returns the cache hit and miss counts.
func (c *Cached) Stats() CacheStats {
	return CacheStats{
		Hits:   c.cache.Metrics.Hits(),
		Misses: c.cache.Metrics.Misses(),
	}
}

// Wait blocks until pending cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

// Close releases the cache and closes the wrapped journal.
func (c *Cached) Close() error {
	c.cache.Close()
	return c.Storage.Close()
}
