package contour

import "math"

// Tolerance restricts which candidates may match a reference contour.
// A nil field means no restriction on that axis.
type Tolerance struct {
	// MaxDisplacement is the maximum centroid-to-centroid Euclidean
	// distance, in pixels.
	MaxDisplacement *float64 `json:"max_displacement,omitempty"`
	// MaxRelativeArea is the maximum relative change in absolute area,
	// |a - a0| / |a0|.
	MaxRelativeArea *float64 `json:"max_relative_area_change,omitempty"`
}

// Match selects, among the candidates surviving the tolerance filters,
// the one whose centroid is closest to the reference centroid. It
// returns the index into candidates, or ok=false when nothing
// survives. No survivor is a normal outcome signaling tracking loss
// for this frame, never an error.
//
// Areas are compared in absolute value because the sign only encodes
// winding direction. When the reference area is zero the relative-area
// filter is skipped entirely, so a degenerate reference cannot discard
// every candidate through a division by zero.
//
// Ties on distance resolve to the first candidate encountered, which is
// deterministic because extraction order is deterministic for a fixed
// image and level.
func Match(candidates []Measured, ref Properties, tol Tolerance) (int, bool) {
	best := -1
	bestDist := math.Inf(1)

	refArea := math.Abs(ref.Area)

	for i, cand := range candidates {
		d := Dist(cand.Props.Centroid, ref.Centroid)

		if tol.MaxDisplacement != nil && d > *tol.MaxDisplacement {
			continue
		}
		if tol.MaxRelativeArea != nil && refArea != 0 {
			change := math.Abs(math.Abs(cand.Props.Area)-refArea) / refArea
			if change > *tol.MaxRelativeArea {
				continue
			}
		}

		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	if best < 0 {
		return 0, false
	}
	return best, true
}
