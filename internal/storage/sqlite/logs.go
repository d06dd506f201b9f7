package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mandalnilabja/openai-relay/internal/storage/models"
)

const logColumns = `id, request_id, route, method, upstream_path, COALESCE(model, ''),
	prompt_tokens, status_code, COALESCE(error_message, ''), duration_ms, created_at`

// LogRequest stores a request log entry
func (s *Storage) LogRequest(log *models.RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if log.ID == "" {
		log.ID = generateID("log")
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	log.CreatedAt = log.CreatedAt.UTC()

	_, err := s.db.Exec(`
		INSERT INTO request_logs (id, request_id, route, method, upstream_path, model,
			prompt_tokens, status_code, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.RequestID, log.Route, log.Method, log.UpstreamPath, nullString(log.Model),
		log.PromptTokens, log.StatusCode, nullString(log.ErrorMessage), log.DurationMs, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}

// GetRequestLog returns the most recent entry for a request ID.
func (s *Storage) GetRequestLog(requestID string) (*models.RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	row := s.db.QueryRow(`SELECT `+logColumns+` FROM request_logs
		WHERE request_id = ? ORDER BY created_at DESC LIMIT 1`, requestID)

	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

// GetRequestLogs retrieves request logs with filtering, newest first.
func (s *Storage) GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT ` + logColumns + ` FROM request_logs WHERE 1=1`
	var args []any

	if filter.Route != "" {
		query += " AND route = ?"
		args = append(args, filter.Route)
	}
	if filter.StatusCode != nil {
		query += " AND status_code = ?"
		args = append(args, *filter.StatusCode)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT before OFFSET.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.RequestLog{}
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// DeleteRequestLogs removes entries created before olderThan and reports
// how many were removed.
func (s *Storage) DeleteRequestLogs(olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM request_logs WHERE created_at < ?", olderThan.UTC())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(sc scanner) (*models.RequestLog, error) {
	var log models.RequestLog
	err := sc.Scan(&log.ID, &log.RequestID, &log.Route, &log.Method, &log.UpstreamPath, &log.Model,
		&log.PromptTokens, &log.StatusCode, &log.ErrorMessage, &log.DurationMs, &log.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
