package store

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "imgtrack.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)

	rec := RunRecord{
		ID:         "run-1",
		Analysis:   "ctrack",
		Status:     "queued",
		InputPath:  "/data/series1",
		SavePath:   "/data/series1",
		ParamsJSON: `{"level":90}`,
		Frames:     120,
	}
	if err := s.RecordRunQueued(rec); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRunStart("run-1"); err != nil {
		t.Fatal(err)
	}

	got, err := s.Run("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "running" {
		t.Errorf("expected status running, got %s", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("expected a start timestamp")
	}
	if got.CompletedAt != nil {
		t.Error("run should not be completed yet")
	}
	if got.Frames != 120 || got.Analysis != "ctrack" {
		t.Errorf("unexpected record %+v", got)
	}

	meta := map[string]any{"rows": 120.0}
	if err := s.RecordRunResult("run-1", "completed", meta, ""); err != nil {
		t.Fatal(err)
	}

	got, err = s.Run("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" || got.CompletedAt == nil {
		t.Errorf("expected completed run, got %+v", got)
	}

	summary, err := s.RunSummary("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if summary["rows"] != 120.0 {
		t.Errorf("expected summary rows 120, got %v", summary["rows"])
	}
}

func TestRunFailure(t *testing.T) {
	s := testStore(t)

	s.RecordRunQueued(RunRecord{ID: "run-2", Analysis: "glevel", Status: "queued"})
	s.RecordRunStart("run-2")
	if err := s.RecordRunResult("run-2", "failed", nil, "read frame 5: no such file"); err != nil {
		t.Fatal(err)
	}

	got, err := s.Run("run-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "failed" {
		t.Errorf("expected failed status, got %s", got.Status)
	}
	if got.Error != "read frame 5: no such file" {
		t.Errorf("unexpected error message %q", got.Error)
	}
}

func TestRunNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Run("missing"); err == nil {
		t.Error("expected an error for an unknown run id")
	}
}

func TestRecentRuns(t *testing.T) {
	s := testStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.RecordRunQueued(RunRecord{ID: id, Analysis: "glevel", Status: "queued"}); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.RecentRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(recs))
	}

	all, err := s.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}
}

func TestNilStoreTolerated(t *testing.T) {
	var s *Store
	if err := s.RecordRunQueued(RunRecord{ID: "x"}); err != nil {
		t.Error("nil store should ignore writes")
	}
	if err := s.RecordRunStart("x"); err != nil {
		t.Error("nil store should ignore writes")
	}
	if err := s.RecordRunResult("x", "completed", nil, ""); err != nil {
		t.Error("nil store should ignore writes")
	}
	if _, err := s.RecentRuns(5); err == nil {
		t.Error("nil store reads should fail")
	}
}
