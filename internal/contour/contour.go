// Package contour holds the geometric core of the tracking engine:
// iso-level contour extraction, polyline geometry, and reference
// matching under displacement/area tolerances.
package contour

import "math"

// Point is a 2-D position in pixel coordinates (x = column, y = row).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func Dist(p1, p2 Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}

// Contour is an ordered closed polyline approximating an iso-intensity
// boundary. The closing segment from the last point back to the first
// is implicit. Coordinates are immutable once extracted.
type Contour struct {
	X []float64
	Y []float64
}

// Len returns the number of vertices.
func (c Contour) Len() int { return len(c.X) }

// Properties are the derived measurements of a closed contour. Area is
// signed: its sign depends on the winding direction of the polyline,
// and consumers comparing areas must use the absolute value.
type Properties struct {
	Centroid  Point   `json:"centroid"`
	Perimeter float64 `json:"perimeter"`
	Area      float64 `json:"area"`
}

// Measured pairs a contour with its computed properties. Matching
// operates on Measured values only, so "has been measured" is visible
// in the type rather than tracked by a runtime cache flag.
type Measured struct {
	Contour
	Props Properties
}

// Measure computes centroid, perimeter and signed area of a contour by
// discrete polyline integration (shoelace formulas over the closed
// loop).
//
// Degenerate contours (fewer than 3 vertices, or zero enclosed area)
// never fail: the perimeter is still the sum of segment lengths around
// the loop, the area is 0, and the centroid falls back to the
// arithmetic mean of the vertices.
func Measure(c Contour) Measured {
	n := c.Len()
	m := Measured{Contour: c}
	if n == 0 {
		return m
	}
	if n == 1 {
		m.Props.Centroid = Point{X: c.X[0], Y: c.Y[0]}
		return m
	}

	var perimeter, area2, cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		dx := c.X[j] - c.X[i]
		dy := c.Y[j] - c.Y[i]
		perimeter += math.Hypot(dx, dy)

		cross := c.X[i]*c.Y[j] - c.X[j]*c.Y[i]
		area2 += cross
		cx += (c.X[i] + c.X[j]) * cross
		cy += (c.Y[i] + c.Y[j]) * cross
	}
	area := area2 / 2

	m.Props.Perimeter = perimeter
	if n < 3 || area == 0 {
		m.Props.Centroid = meanPoint(c)
		m.Props.Area = 0
		return m
	}
	m.Props.Centroid = Point{X: cx / (6 * area), Y: cy / (6 * area)}
	m.Props.Area = area
	return m
}

// MeasureAll measures every contour of a candidate set once; the
// result is shared read-only by all per-object matching passes of a
// frame.
func MeasureAll(contours []Contour) []Measured {
	out := make([]Measured, len(contours))
	for i, c := range contours {
		out[i] = Measure(c)
	}
	return out
}

// Degenerate reports whether the measured contour fell back to the
// degenerate geometry path.
func (m Measured) Degenerate() bool {
	return m.Len() < 3 || m.Props.Area == 0
}

func meanPoint(c Contour) Point {
	var sx, sy float64
	for i := range c.X {
		sx += c.X[i]
		sy += c.Y[i]
	}
	n := float64(c.Len())
	return Point{X: sx / n, Y: sy / n}
}
