package infra

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mandalnilabja/openai-relay/internal/storage"
	"github.com/mandalnilabja/openai-relay/internal/storage/sqlite"
)

func TestWelcome(t *testing.T) {
	rec := httptest.NewRecorder()
	New(nil, time.Now()).Welcome(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != WelcomeText {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		store       func(t *testing.T) storage.Storage
		wantJournal bool
		wantCache   bool
	}{
		{
			name:  "journal disabled",
			store: func(*testing.T) storage.Storage { return nil },
		},
		{
			name:        "plain journal",
			store:       openJournal,
			wantJournal: true,
		},
		{
			name: "cached journal",
			store: func(t *testing.T) storage.Storage {
				c, err := storage.NewCached(openJournal(t), 10)
				if err != nil {
					t.Fatalf("NewCached: %v", err)
				}
				return c
			},
			wantJournal: true,
			wantCache:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.store(t), time.Now().Add(-90*time.Second))
			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			var got HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Status != "active" || got.App != App {
				t.Errorf("status/app = %q/%q", got.Status, got.App)
			}
			if got.UptimeSeconds < 90 {
				t.Errorf("uptime = %d, want >= 90", got.UptimeSeconds)
			}
			if got.Journal != tt.wantJournal {
				t.Errorf("journal = %v, want %v", got.Journal, tt.wantJournal)
			}
			if (got.Cache != nil) != tt.wantCache {
				t.Errorf("cache = %+v, want present=%v", got.Cache, tt.wantCache)
			}
		})
	}
}

func openJournal(t *testing.T) storage.Storage {
	t.Helper()
	s, err := sqlite.New(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func serve(h *Handlers, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/logs", h.ListLogs)
	mux.HandleFunc("GET /api/logs/{requestId}", h.GetLog)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLogs_Disabled(t *testing.T) {
	h := New(nil, time.Now())
	for _, target := range []string{"/api/logs", "/api/logs/req-1"} {
		rec := serve(h, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", target, rec.Code)
		}
	}
}

func TestLogs_ListAndGet(t *testing.T) {
	store := openJournal(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"req-a", "req-b", "req-c"} {
		status := http.StatusOK
		if id == "req-b" {
			status = http.StatusUnauthorized
		}
		_ = store.LogRequest(&storage.RequestLog{
			RequestID:  id,
			Route:      "create_thread",
			Method:     http.MethodPost,
			StatusCode: status,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	h := New(store, time.Now())

	t.Run("list newest first with paging", func(t *testing.T) {
		rec := serve(h, "/api/logs?limit=2&offset=0")
		var got struct {
			Logs   []storage.RequestLog `json:"logs"`
			Limit  int                  `json:"limit"`
			Offset int                  `json:"offset"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		var ids []string
		for _, l := range got.Logs {
			ids = append(ids, l.RequestID)
		}
		if diff := cmp.Diff([]string{"req-c", "req-b"}, ids); diff != "" {
			t.Errorf("ids mismatch (-want +got):\n%s", diff)
		}
		if got.Limit != 2 {
			t.Errorf("limit = %d", got.Limit)
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		rec := serve(h, "/api/logs?status_code=401")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got struct {
			Logs []storage.RequestLog `json:"logs"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		if len(got.Logs) != 1 || got.Logs[0].RequestID != "req-b" {
			t.Errorf("logs = %+v", got.Logs)
		}
	})

	t.Run("get by request id", func(t *testing.T) {
		rec := serve(h, "/api/logs/req-a")
		var got storage.RequestLog
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.RequestID != "req-a" || got.Route != "create_thread" {
			t.Errorf("entry = %+v", got)
		}
	})

	t.Run("unknown request id", func(t *testing.T) {
		if rec := serve(h, "/api/logs/nope"); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestParseLogFilter(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
		wantRoute  string
	}{
		{query: "", wantLimit: defaultLogLimit},
		{query: "limit=10&offset=20&route=get_run", wantLimit: 10, wantOffset: 20, wantRoute: "get_run"},
		{query: "limit=100000", wantLimit: maxLogLimit},
		{query: "limit=-3&offset=-1", wantLimit: defaultLogLimit},
		{query: "limit=abc&status_code=xyz", wantLimit: defaultLogLimit},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/logs?"+tt.query, nil)
		f := parseLogFilter(r)
		if f.Limit != tt.wantLimit || f.Offset != tt.wantOffset || f.Route != tt.wantRoute {
			t.Errorf("parseLogFilter(%q) = %+v", tt.query, f)
		}
		if f.StatusCode != nil {
			t.Errorf("parseLogFilter(%q) StatusCode = %d, want nil", tt.query, *f.StatusCode)
		}
	}
}
