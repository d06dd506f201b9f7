// Package sqlite provides the SQLite-backed request journal.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a journal that lives only as long as the process.
const MemoryPath = ":memory:"

// Storage implements storage.Storage using SQLite
type Storage struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// New opens (or creates) the journal database at dbPath.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers. An in-memory database is bound to
	// its connection, so that one must never be recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if dbPath != MemoryPath {
		db.SetConnMaxLifetime(time.Hour)
	}

	s := &Storage{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

func (s *Storage) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS request_logs (
		id            TEXT PRIMARY KEY,
		request_id    TEXT NOT NULL,
		route         TEXT NOT NULL,
		method        TEXT NOT NULL,
		upstream_path TEXT NOT NULL,
		model         TEXT,
		prompt_tokens INTEGER DEFAULT 0,
		status_code   INTEGER,
		error_message TEXT,
		duration_ms   INTEGER,
		created_at    DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_created ON request_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_logs_request ON request_logs(request_id);
	CREATE INDEX IF NOT EXISTS idx_logs_route ON request_logs(route);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func generateID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}
