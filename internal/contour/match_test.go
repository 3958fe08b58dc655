package contour

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func candidate(x, y, area float64) Measured {
	return Measured{Props: Properties{Centroid: Point{X: x, Y: y}, Area: area}}
}

func TestMatchNearest(t *testing.T) {
	candidates := []Measured{
		candidate(100, 100, 50),
		candidate(12, 10, 50),
		candidate(30, 30, 50),
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}

	idx, ok := Match(candidates, ref, Tolerance{})
	if !ok {
		t.Fatal("expected a match")
	}
	if idx != 1 {
		t.Errorf("expected nearest candidate 1, got %d", idx)
	}
}

func TestMatchMaxDisplacement(t *testing.T) {
	candidates := []Measured{
		candidate(50, 10, 50),
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}

	if _, ok := Match(candidates, ref, Tolerance{MaxDisplacement: fptr(20)}); ok {
		t.Error("candidate 40px away should not survive a 20px displacement limit")
	}
	if _, ok := Match(candidates, ref, Tolerance{MaxDisplacement: fptr(45)}); !ok {
		t.Error("candidate 40px away should survive a 45px displacement limit")
	}
}

func TestMatchMaxRelativeArea(t *testing.T) {
	candidates := []Measured{
		candidate(10, 10, 80), // 60% larger
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}

	if _, ok := Match(candidates, ref, Tolerance{MaxRelativeArea: fptr(0.5)}); ok {
		t.Error("60% area change should not survive a 50% limit")
	}
	if _, ok := Match(candidates, ref, Tolerance{MaxRelativeArea: fptr(0.7)}); !ok {
		t.Error("60% area change should survive a 70% limit")
	}
}

func TestMatchAreaSignIgnored(t *testing.T) {
	// Winding direction flips the area sign; matching must compare
	// absolute values.
	candidates := []Measured{
		candidate(10, 10, -50),
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}

	if _, ok := Match(candidates, ref, Tolerance{MaxRelativeArea: fptr(0.1)}); !ok {
		t.Error("equal absolute areas with opposite signs should match")
	}
}

func TestMatchZeroReferenceArea(t *testing.T) {
	// A degenerate reference skips the relative-area filter entirely.
	candidates := []Measured{
		candidate(11, 10, 500),
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 0}

	if _, ok := Match(candidates, ref, Tolerance{MaxRelativeArea: fptr(0.1)}); !ok {
		t.Error("zero reference area should disable the area filter")
	}
}

func TestMatchNoCandidates(t *testing.T) {
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}
	if _, ok := Match(nil, ref, Tolerance{}); ok {
		t.Error("empty candidate set should not match")
	}
}

func TestMatchTieBreaksToFirst(t *testing.T) {
	candidates := []Measured{
		candidate(10, 20, 50),
		candidate(10, 0, 50), // same distance from (10, 10)
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}

	idx, ok := Match(candidates, ref, Tolerance{})
	if !ok {
		t.Fatal("expected a match")
	}
	if idx != 0 {
		t.Errorf("distance tie should resolve to the first candidate, got %d", idx)
	}
}

func TestMatchDoesNotMutate(t *testing.T) {
	candidates := []Measured{
		candidate(12, 10, 50),
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}
	before := candidates[0].Props

	Match(candidates, ref, Tolerance{MaxDisplacement: fptr(5)})
	Match(candidates, ref, Tolerance{})

	if candidates[0].Props != before {
		t.Error("matching must not mutate candidates")
	}
	if ref.Centroid != (Point{X: 10, Y: 10}) || ref.Area != 50 {
		t.Error("matching must not mutate the reference")
	}
}

func TestMatchCombinedFilters(t *testing.T) {
	candidates := []Measured{
		candidate(11, 10, 200), // close but wrong area
		candidate(14, 10, 52),  // further, right area
	}
	ref := Properties{Centroid: Point{X: 10, Y: 10}, Area: 50}
	tol := Tolerance{MaxDisplacement: fptr(10), MaxRelativeArea: fptr(0.2)}

	idx, ok := Match(candidates, ref, tol)
	if !ok {
		t.Fatal("expected a match")
	}
	if idx != 1 {
		t.Errorf("expected the area-compatible candidate 1, got %d", idx)
	}
	if math.Abs(Dist(candidates[idx].Props.Centroid, ref.Centroid)-4) > eps {
		t.Errorf("unexpected matched distance")
	}
}
