package results

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestTableSetRowAndAt(t *testing.T) {
	table := NewTable([]string{"x", "y"})

	if err := table.SetRow(0, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := table.SetRow(5, []float64{3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := table.SetRow(0, []float64{10, 20}); err != nil {
		t.Fatal(err)
	}

	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
	if v, ok := table.At(0, "y"); !ok || v != 20 {
		t.Errorf("expected overwritten value 20, got %f", v)
	}
	if v, ok := table.At(5, "x"); !ok || v != 3 {
		t.Errorf("expected 3, got %f", v)
	}
	if _, ok := table.At(3, "x"); ok {
		t.Error("missing frame should report not ok")
	}
	if _, ok := table.At(0, "z"); ok {
		t.Error("missing column should report not ok")
	}
}

func TestTableSetRowWidthMismatch(t *testing.T) {
	table := NewTable([]string{"x", "y"})
	if err := table.SetRow(0, []float64{1}); err == nil {
		t.Error("expected an error for a short row")
	}
}

func TestTableRowCopies(t *testing.T) {
	table := NewTable([]string{"x"})
	values := []float64{7}
	table.SetRow(0, values)
	values[0] = 99

	if v, _ := table.At(0, "x"); v != 7 {
		t.Errorf("table must copy rows, got %f", v)
	}
}

func TestTSVRoundTrip(t *testing.T) {
	table := NewTable([]string{"drop_x", "drop_y"})
	table.SetRow(0, []float64{50.25, 50})
	table.SetRow(1, []float64{math.NaN(), math.NaN()})
	table.SetRow(2, []float64{55, 51.5})

	var sb strings.Builder
	if err := table.WriteTSV(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "num\tdrop_x\tdrop_y\n") {
		t.Errorf("unexpected header in %q", out)
	}
	if !strings.Contains(out, "1\tNaN\tNaN\n") {
		t.Errorf("NaN cells should be written literally, got %q", out)
	}

	loaded, err := ReadTSV(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", loaded.Len())
	}
	if v, _ := loaded.At(0, "drop_x"); v != 50.25 {
		t.Errorf("expected 50.25, got %f", v)
	}
	if v, _ := loaded.At(1, "drop_y"); !math.IsNaN(v) {
		t.Errorf("expected NaN, got %f", v)
	}
	if v, _ := loaded.At(2, "drop_y"); v != 51.5 {
		t.Errorf("expected 51.5, got %f", v)
	}
}

func TestSaveLoadTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Img_ContourTracking.tsv")

	table := NewTable([]string{"a"})
	table.SetRow(3, []float64{1.5})
	if err := table.SaveTSV(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := loaded.At(3, "a"); !ok || v != 1.5 {
		t.Errorf("expected 1.5 at frame 3, got %f", v)
	}
}

func TestReadTSVBadHeader(t *testing.T) {
	if _, err := ReadTSV(strings.NewReader("frame\tx\n0\t1\n")); err == nil {
		t.Error("expected an error for a header without num")
	}
}

func TestShapeStoreRoundTrip(t *testing.T) {
	store := NewShapeStore([]string{"drop"})
	store.Put("drop", 0, Shape{X: []float64{1, 2, 3}, Y: []float64{4, 5, 6}})
	store.Put("drop", 7, Shape{X: []float64{9}, Y: []float64{10}})

	if _, ok := store.Get("drop", 1); ok {
		t.Error("unmatched frame should be absent")
	}

	path := filepath.Join(t.TempDir(), "Img_ContourTracking_Data.json")
	if err := store.SaveJSON(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadShapes(path)
	if err != nil {
		t.Fatal(err)
	}

	shape, ok := loaded.Get("drop", 7)
	if !ok {
		t.Fatal("expected shape for frame 7")
	}
	if len(shape.X) != 1 || shape.X[0] != 9 || shape.Y[0] != 10 {
		t.Errorf("unexpected shape %v", shape)
	}
}

func TestShapeStorePutUnknownObject(t *testing.T) {
	store := NewShapeStore(nil)
	store.Put("late", 0, Shape{X: []float64{1}, Y: []float64{1}})
	if _, ok := store.Get("late", 0); !ok {
		t.Error("Put should create the per-object map on demand")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := NewMetadata("glevel")
	meta["level"] = 90.0
	meta["zones"] = []string{"zone 1"}

	if meta["analysis"] != "glevel" {
		t.Errorf("expected analysis glevel, got %v", meta["analysis"])
	}
	if _, ok := meta["date"]; !ok {
		t.Error("metadata should be stamped with a date")
	}

	path := filepath.Join(t.TempDir(), "Img_GreyLevel.json")
	if err := meta.SaveJSON(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded["analysis"] != "glevel" {
		t.Errorf("expected analysis glevel after reload, got %v", loaded["analysis"])
	}
	if loaded["level"] != 90.0 {
		t.Errorf("expected level 90, got %v", loaded["level"])
	}
}
