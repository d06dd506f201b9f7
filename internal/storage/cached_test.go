package storage

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// memStorage is a map-backed Storage that counts lookups.
type memStorage struct {
	mu      sync.Mutex
	logs    map[string]*RequestLog
	lookups int
}

func newMemStorage() *memStorage {
	return &memStorage{logs: map[string]*RequestLog{}}
}

func (m *memStorage) LogRequest(log *RequestLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := *log
	m.logs[log.RequestID] = &entry
	return nil
}

func (m *memStorage) GetRequestLog(requestID string) (*RequestLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	log, ok := m.logs[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	entry := *log
	return &entry, nil
}

func (m *memStorage) GetRequestLogs(LogFilter) ([]*RequestLog, error) { return nil, nil }

func (m *memStorage) DeleteRequestLogs(olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, log := range m.logs {
		if log.CreatedAt.Before(olderThan) {
			delete(m.logs, id)
			n++
		}
	}
	return n, nil
}

func (m *memStorage) Close() error { return nil }

func TestCached_ServesWritesFromCache(t *testing.T) {
	inner := newMemStorage()
	c, err := NewCached(inner, 100)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	if err := c.LogRequest(&RequestLog{RequestID: "req-1", Route: "create_thread"}); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}
	c.Wait()

	got, err := c.GetRequestLog("req-1")
	if err != nil {
		t.Fatalf("GetRequestLog: %v", err)
	}
	if got.Route != "create_thread" {
		t.Errorf("Route = %q", got.Route)
	}
	if inner.lookups != 0 {
		t.Errorf("inner lookups = %d, want 0", inner.lookups)
	}
	if s := c.Stats(); s.Hits != 1 {
		t.Errorf("Stats = %+v, want one hit", s)
	}
}

func TestCached_MissFillsCache(t *testing.T) {
	inner := newMemStorage()
	_ = inner.LogRequest(&RequestLog{RequestID: "req-2"})

	c, err := NewCached(inner, 100)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	if _, err := c.GetRequestLog("req-2"); err != nil {
		t.Fatalf("GetRequestLog: %v", err)
	}
	c.Wait()
	if _, err := c.GetRequestLog("req-2"); err != nil {
		t.Fatalf("GetRequestLog: %v", err)
	}
	if inner.lookups != 1 {
		t.Errorf("inner lookups = %d, want 1", inner.lookups)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit and 1 miss", s)
	}
}

func TestCached_NotFoundPassesThrough(t *testing.T) {
	c, err := NewCached(newMemStorage(), 100)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	if _, err := c.GetRequestLog("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCached_DeleteClearsCache(t *testing.T) {
	inner := newMemStorage()
	c, err := NewCached(inner, 100)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	old := time.Now().Add(-48 * time.Hour)
	_ = c.LogRequest(&RequestLog{RequestID: "old", CreatedAt: old})
	c.Wait()

	n, err := c.DeleteRequestLogs(time.Now().Add(-24 * time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteRequestLogs = %d, %v", n, err)
	}
	if _, err := c.GetRequestLog("old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted entry still served: %v", err)
	}
}

func TestCached_ReturnsCopies(t *testing.T) {
	c, err := NewCached(newMemStorage(), 100)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	_ = c.LogRequest(&RequestLog{RequestID: "r", StatusCode: 200})
	c.Wait()

	first, _ := c.GetRequestLog("r")
	first.StatusCode = 500
	second, _ := c.GetRequestLog("r")
	if second.StatusCode != 200 {
		t.Errorf("cached entry mutated through returned pointer")
	}
}
