package track

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"imgtrack/internal/contour"
	"imgtrack/internal/imgio"
)

const (
	testPeak  = 100.0
	testLevel = 90.0 // cone iso-contour radius 10
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// diskFrame builds a frame with a radial intensity cone at (cx, cy),
// whose iso-contour at testLevel is a circle of radius 10.
func diskFrame(nx, ny int, cx, cy float64) imgio.Gray {
	img := imgio.NewGray(nx, ny, testPeak)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v := testPeak - math.Hypot(float64(x)-cx, float64(y)-cy)
			if v < 0 {
				v = 0
			}
			img.Set(x, y, v)
		}
	}
	return img
}

// diskConfig builds a single-object configuration referenced on the
// first frame of src.
func diskConfig(t *testing.T, src imgio.FrameSource, maxDisp float64) Config {
	t.Helper()
	img, err := src.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	candidates := contour.MeasureAll(contour.Extract(img, testLevel))
	if len(candidates) != 1 {
		t.Fatalf("expected 1 reference contour on frame 0, got %d", len(candidates))
	}
	return Config{
		Level:   testLevel,
		Image:   0,
		Objects: []Object{{Name: "drop", Reference: candidates[0].Props}},
		Tolerance: contour.Tolerance{
			MaxDisplacement: &maxDisp,
		},
	}
}

func TestSessionRunTracksAndCoasts(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{
		diskFrame(120, 120, 50, 50),
		diskFrame(120, 120, 55, 50),
		diskFrame(120, 120, 100, 100), // jumped beyond the displacement limit
	}}
	cfg := diskConfig(t, src, 20)

	session := NewSession(src, cfg, testLogger())
	records, err := session.Run(context.Background(), []int{0, 1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	for i, wantX := range []float64{50, 55} {
		obj := records[i].Objects[0]
		if !obj.Found {
			t.Fatalf("frame %d: object should be found", i)
		}
		if math.Abs(obj.X-wantX) > 0.2 || math.Abs(obj.Y-50) > 0.2 {
			t.Errorf("frame %d: expected centroid near (%f, 50), got (%f, %f)", i, wantX, obj.X, obj.Y)
		}
		if obj.Area == 0 || math.IsNaN(obj.Perimeter) {
			t.Errorf("frame %d: missing measurements", i)
		}
		if obj.Shape.Len() == 0 {
			t.Errorf("frame %d: matched record should carry the contour", i)
		}
	}

	// Frame 2: the disk moved too far, the object coasts.
	lost := records[2].Objects[0]
	if lost.Found {
		t.Error("frame 2: object should be lost")
	}
	if !math.IsNaN(lost.X) || !math.IsNaN(lost.Y) || !math.IsNaN(lost.Perimeter) || !math.IsNaN(lost.Area) {
		t.Error("frame 2: lost object should measure NaN")
	}

	// The reference stayed at the last matched position.
	refs := session.References()
	if math.Abs(refs[0].Centroid.X-55) > 0.2 {
		t.Errorf("reference should coast at x~55, got %f", refs[0].Centroid.X)
	}
	if session.State() != Finished {
		t.Errorf("expected Finished state, got %v", session.State())
	}
}

func TestSessionReacquiresAfterLoss(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{
		diskFrame(120, 120, 50, 50),
		imgio.NewGray(120, 120, testPeak), // no contour at all
		diskFrame(120, 120, 52, 50),
	}}
	cfg := diskConfig(t, src, 20)

	session := NewSession(src, cfg, testLogger())
	records, err := session.Run(context.Background(), []int{0, 1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if records[1].Objects[0].Found {
		t.Error("frame 1: empty frame should lose the object")
	}
	reacquired := records[2].Objects[0]
	if !reacquired.Found {
		t.Fatal("frame 2: object should be reacquired near the coasted reference")
	}
	if math.Abs(reacquired.X-52) > 0.2 {
		t.Errorf("frame 2: expected centroid near x=52, got %f", reacquired.X)
	}
}

func TestSessionNotConfigured(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{diskFrame(60, 60, 30, 30)}}
	session := NewSession(src, Config{Level: testLevel}, testLogger())

	_, err := session.Run(context.Background(), []int{0}, nil)
	if err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSessionLevelOutOfRange(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{diskFrame(60, 60, 30, 30)}}
	cfg := diskConfig(t, src, 20)
	cfg.Level = testPeak + 50

	session := NewSession(src, cfg, testLogger())
	_, err := session.Run(context.Background(), []int{0}, nil)
	if err == nil {
		t.Fatal("expected an error for a level above the representable range")
	}
}

func TestSessionTwoPassMatchesSequential(t *testing.T) {
	frames := []imgio.Gray{
		diskFrame(120, 120, 50, 50),
		diskFrame(120, 120, 55, 50),
		diskFrame(120, 120, 100, 100),
		diskFrame(120, 120, 58, 52),
	}
	src := &imgio.MemSource{Frames: frames}
	nums := []int{0, 1, 2, 3}

	cfg := diskConfig(t, src, 20)
	seq, err := NewSession(src, cfg, testLogger()).Run(context.Background(), nums, nil)
	if err != nil {
		t.Fatal(err)
	}
	par, err := NewSession(src, cfg, testLogger()).RunTwoPass(context.Background(), nums, 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(seq) != len(par) {
		t.Fatalf("record count mismatch: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		a, b := seq[i].Objects[0], par[i].Objects[0]
		if a.Found != b.Found {
			t.Fatalf("frame %d: Found mismatch", i)
		}
		if a.Found && (a.X != b.X || a.Y != b.Y || a.Perimeter != b.Perimeter || a.Area != b.Area) {
			t.Errorf("frame %d: measurement mismatch between sequential and two-pass", i)
		}
	}
}

func TestSessionProgressAndSparseNums(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{
		diskFrame(120, 120, 50, 50),
		diskFrame(120, 120, 51, 50),
		diskFrame(120, 120, 52, 50),
		diskFrame(120, 120, 53, 50),
	}}
	cfg := diskConfig(t, src, 20)

	var calls int
	session := NewSession(src, cfg, testLogger())
	records, err := session.Run(context.Background(), []int{0, 2}, func(done, total int) {
		calls++
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected 2 progress calls, got %d", calls)
	}
	if records[0].Num != 0 || records[1].Num != 2 {
		t.Errorf("records should carry the requested nums, got %d and %d", records[0].Num, records[1].Num)
	}
}

func TestSessionCancellation(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{
		diskFrame(120, 120, 50, 50),
		diskFrame(120, 120, 51, 50),
	}}
	cfg := diskConfig(t, src, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := NewSession(src, cfg, testLogger())
	records, err := session.Run(ctx, []int{0, 1}, nil)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records after immediate cancellation, got %d", len(records))
	}
}

func TestSessionReadErrorAborts(t *testing.T) {
	src := &imgio.MemSource{Frames: []imgio.Gray{
		diskFrame(120, 120, 50, 50),
	}}
	cfg := diskConfig(t, src, 20)

	session := NewSession(src, cfg, testLogger())
	records, err := session.Run(context.Background(), []int{0, 7}, nil)
	if err == nil {
		t.Fatal("expected an error for the out-of-range frame")
	}
	if len(records) != 1 {
		t.Errorf("expected the record accumulated before the failure, got %d", len(records))
	}
}
