// Package models holds the records persisted by the request journal.
package models

import "time"

// RequestLog is one journal entry for a forwarded call.
type RequestLog struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	Route        string    `json:"route"`
	Method       string    `json:"method"`
	UpstreamPath string    `json:"upstream_path"`
	Model        string    `json:"model,omitempty"`
	PromptTokens int       `json:"prompt_tokens"`
	StatusCode   int       `json:"status_code"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// LogFilter contains parameters for filtering request logs
type LogFilter struct {
	Route      string
	StatusCode *int
	Limit      int
	Offset     int
}
