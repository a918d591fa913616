package importer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func statusServer(t *testing.T, code int) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if code/100 == 3 {
			w.Header().Set("Location", "https://example.org/moved.tsv")
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckAll(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantOK     bool
		wantErr    string
	}{
		{"ok", statusServer(t, http.StatusOK), 200, true, ""},
		{"redirect", statusServer(t, http.StatusMovedPermanently), 301, true, ""},
		{"not-found", statusServer(t, http.StatusNotFound), 404, false, ""},
		{"server-error", statusServer(t, http.StatusInternalServerError), 500, false, ""},
		{"unreachable", "http://127.0.0.1:1/banks.tsv", 0, false, "HEAD"},
		{"redis-down", "redis://127.0.0.1:1/0", 0, false, "PING"},
	}

	sdb := tempSourceDB(t)
	var adapters []Adapter
	for _, tt := range tests {
		adapters = append(adapters, &fakeAdapter{tt.name, "d-" + tt.name, tt.name, tt.url, "CC0"})
	}
	if err := sdb.Seed(adapters); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	checker := NewChecker(sdb, quietLogger(), time.Hour)
	checker.client.Timeout = 2 * time.Second
	report := checker.CheckAll(context.Background())

	if report.OK != 2 || len(report.Unavailable) != 4 {
		t.Errorf("report = %+v, want 2 ok and 4 unavailable", report)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := sdb.Get(tt.name)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if src.LastStatus != tt.wantStatus {
				t.Errorf("LastStatus = %d, want %d", src.LastStatus, tt.wantStatus)
			}
			if src.LastCheck.IsZero() {
				t.Error("LastCheck not set")
			}
			if tt.wantErr == "" && src.LastError != "" {
				t.Errorf("LastError = %q, want empty", src.LastError)
			}
			if tt.wantErr != "" && !strings.Contains(src.LastError, tt.wantErr) {
				t.Errorf("LastError = %q, want it to mention %s", src.LastError, tt.wantErr)
			}
		})
	}
}

func TestCheckAll_Empty(t *testing.T) {
	report := NewChecker(tempSourceDB(t), quietLogger(), time.Hour).CheckAll(context.Background())
	if report.OK != 0 || len(report.Unavailable) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestCheckAll_Cancelled(t *testing.T) {
	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{&fakeAdapter{"a", "d", "a", statusServer(t, 200), "CC0"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewChecker(sdb, quietLogger(), time.Hour).CheckAll(ctx)

	src, _ := sdb.Get("a")
	if !src.LastCheck.IsZero() {
		t.Error("source checked after cancellation")
	}
}

func TestChecker_StartStops(t *testing.T) {
	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{&fakeAdapter{"a", "d", "a", statusServer(t, 200), "CC0"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewChecker(sdb, quietLogger(), 10*time.Millisecond).Start(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if src, _ := sdb.Get("a"); !src.LastCheck.IsZero() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("source never checked")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
