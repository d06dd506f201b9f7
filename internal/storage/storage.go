// Package storage defines the request journal and its implementations.
package storage

import (
	"time"

	"github.com/mandalnilabja/openai-relay/internal/storage/models"
	"github.com/mandalnilabja/openai-relay/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type (
	RequestLog = models.RequestLog
	LogFilter  = models.LogFilter
)

// MemoryPath selects a journal that lives only as long as the process.
const MemoryPath = sqlite.MemoryPath

// Re-export errors from sqlite package
var (
	ErrNotFound      = sqlite.ErrNotFound
	ErrStorageClosed = sqlite.ErrStorageClosed
)

// Storage is the request journal.
type Storage interface {
	LogRequest(log *models.RequestLog) error
	GetRequestLog(requestID string) (*models.RequestLog, error)
	GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error)
	DeleteRequestLogs(olderThan time.Time) (int64, error)

	Close() error
}

// NewSQLiteStorage opens the SQLite journal at dbPath.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	s, err := sqlite.New(dbPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}
