package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mandalnilabja/openai-relay/internal/storage/models"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogRequest_RoundTrip(t *testing.T) {
	s := setupTestDB(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log := &models.RequestLog{
		RequestID:    "req-1",
		Route:        "chat_completions",
		Method:       "POST",
		UpstreamPath: "/chat/completions",
		Model:        "gpt-4o-mini",
		PromptTokens: 12,
		StatusCode:   200,
		DurationMs:   340,
		CreatedAt:    created,
	}
	if err := s.LogRequest(log); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}
	if log.ID == "" {
		t.Error("expected ID to be generated")
	}

	got, err := s.GetRequestLog("req-1")
	if err != nil {
		t.Fatalf("GetRequestLog: %v", err)
	}
	if diff := cmp.Diff(log, got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("GetRequestLog mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRequestLog_NotFound(t *testing.T) {
	s := setupTestDB(t)

	if _, err := s.GetRequestLog("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRequestLogs_Filter(t *testing.T) {
	s := setupTestDB(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []struct {
		id     string
		route  string
		status int
	}{
		{"a", "create_thread", 200},
		{"b", "chat_completions", 200},
		{"c", "chat_completions", 401},
		{"d", "create_message", 200},
	}
	for i, e := range entries {
		err := s.LogRequest(&models.RequestLog{
			RequestID:  e.id,
			Route:      e.route,
			Method:     "POST",
			StatusCode: e.status,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("LogRequest: %v", err)
		}
	}

	unauthorized := 401
	tests := []struct {
		name   string
		filter models.LogFilter
		want   []string
	}{
		{name: "all newest first", filter: models.LogFilter{}, want: []string{"d", "c", "b", "a"}},
		{name: "by route", filter: models.LogFilter{Route: "chat_completions"}, want: []string{"c", "b"}},
		{name: "by status", filter: models.LogFilter{StatusCode: &unauthorized}, want: []string{"c"}},
		{name: "limit", filter: models.LogFilter{Limit: 2}, want: []string{"d", "c"}},
		{name: "limit and offset", filter: models.LogFilter{Limit: 2, Offset: 1}, want: []string{"c", "b"}},
		{name: "offset only", filter: models.LogFilter{Offset: 3}, want: []string{"a"}},
		{name: "no match", filter: models.LogFilter{Route: "get_run"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := s.GetRequestLogs(tt.filter)
			if err != nil {
				t.Fatalf("GetRequestLogs: %v", err)
			}
			got := []string{}
			for _, l := range logs {
				got = append(got, l.RequestID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("request IDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteRequestLogs(t *testing.T) {
	s := setupTestDB(t)

	now := time.Now().UTC()
	for id, age := range map[string]time.Duration{
		"old":    40 * 24 * time.Hour,
		"recent": 2 * 24 * time.Hour,
		"fresh":  time.Minute,
	} {
		if err := s.LogRequest(&models.RequestLog{RequestID: id, Route: "create_thread", Method: "POST", CreatedAt: now.Add(-age)}); err != nil {
			t.Fatalf("LogRequest: %v", err)
		}
	}

	n, err := s.DeleteRequestLogs(now.Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteRequestLogs: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	if _, err := s.GetRequestLog("old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old entry still present: %v", err)
	}
	if _, err := s.GetRequestLog("recent"); err != nil {
		t.Errorf("recent entry removed: %v", err)
	}
}

func TestMemoryDatabase(t *testing.T) {
	s, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	defer s.Close()

	if err := s.LogRequest(&models.RequestLog{RequestID: "m", Route: "create_thread", Method: "POST"}); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}
	if _, err := s.GetRequestLog("m"); err != nil {
		t.Errorf("GetRequestLog: %v", err)
	}
}

func TestClosedStorage(t *testing.T) {
	s := setupTestDB(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := s.LogRequest(&models.RequestLog{}); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("LogRequest after close = %v", err)
	}
	if _, err := s.GetRequestLogs(models.LogFilter{}); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("GetRequestLogs after close = %v", err)
	}
	if _, err := s.DeleteRequestLogs(time.Now()); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("DeleteRequestLogs after close = %v", err)
	}
}
