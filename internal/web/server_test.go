package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"imgtrack/internal/store"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "imgtrack.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewServer(0, st, slog.New(slog.DiscardHandler)), st
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected ok body, got %q", rec.Body.String())
	}
}

func TestRunsEndpoints(t *testing.T) {
	s, st := testServer(t)
	st.RecordRunQueued(store.RunRecord{ID: "run-1", Analysis: "ctrack", Status: "queued", Frames: 10})
	st.RecordRunStart("run-1")
	st.RecordRunResult("run-1", "completed", map[string]any{"rows": 10.0}, "")

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var runs []store.RunRecord
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Errorf("unexpected runs %+v", runs)
	}

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/run-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var run store.RunRecord
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatal(err)
	}
	if run.Analysis != "ctrack" || run.Status != "completed" {
		t.Errorf("unexpected run %+v", run)
	}

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/run-1/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary["rows"] != 10.0 {
		t.Errorf("expected rows 10, got %v", summary["rows"])
	}
}

func TestRunNotFound(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPublishDoesNotBlock(t *testing.T) {
	s, _ := testServer(t)
	// No hub goroutine is running; Publish must still return once the
	// buffer fills instead of blocking the analysis loop.
	for i := 0; i < 100; i++ {
		s.Publish(ProgressEvent{RunID: "run-1", Analysis: "ctrack", Done: i, Total: 100})
	}
}
