package contour

import (
	"math"

	"imgtrack/internal/imgio"
)

// Extract finds the iso-intensity contours of img at the given level
// using marching squares with linear interpolation of the crossing
// position along cell edges.
//
// The result is zero or more polylines. Contours closing on themselves
// are returned without the duplicated end point; contours running into
// the image border stay open and are treated as implicitly closed by
// the geometry code. Output order is deterministic for a fixed image
// and level (row-major cell scan) but callers must not rely on it
// beyond determinism.
//
// A level outside the data range is not an error: it simply produces
// no crossings and therefore an empty result. Validation of the level
// against the representable intensity range happens at configuration
// time, before any frame is processed.
func Extract(img imgio.Gray, level float64) []Contour {
	var segs []segment

	for r := 0; r < img.NY-1; r++ {
		for c := 0; c < img.NX-1; c++ {
			tl := img.At(c, r)
			tr := img.At(c+1, r)
			bl := img.At(c, r+1)
			br := img.At(c+1, r+1)
			if hasNaN(tl, tr, bl, br) {
				continue
			}

			idx := 0
			if tl > level {
				idx |= 1
			}
			if tr > level {
				idx |= 2
			}
			if br > level {
				idx |= 4
			}
			if bl > level {
				idx |= 8
			}
			if idx == 0 || idx == 15 {
				continue
			}

			x := float64(c)
			y := float64(r)
			top := Point{X: x + frac(tl, tr, level), Y: y}
			bottom := Point{X: x + frac(bl, br, level), Y: y + 1}
			left := Point{X: x, Y: y + frac(tl, bl, level)}
			right := Point{X: x + 1, Y: y + frac(tr, br, level)}

			switch idx {
			case 1:
				segs = append(segs, segment{left, top})
			case 2:
				segs = append(segs, segment{top, right})
			case 3:
				segs = append(segs, segment{left, right})
			case 4:
				segs = append(segs, segment{right, bottom})
			case 5:
				if (tl+tr+bl+br)/4 > level {
					segs = append(segs, segment{top, right}, segment{left, bottom})
				} else {
					segs = append(segs, segment{left, top}, segment{right, bottom})
				}
			case 6:
				segs = append(segs, segment{top, bottom})
			case 7:
				segs = append(segs, segment{left, bottom})
			case 8:
				segs = append(segs, segment{bottom, left})
			case 9:
				segs = append(segs, segment{top, bottom})
			case 10:
				if (tl+tr+bl+br)/4 > level {
					segs = append(segs, segment{left, top}, segment{right, bottom})
				} else {
					segs = append(segs, segment{top, right}, segment{left, bottom})
				}
			case 11:
				segs = append(segs, segment{right, bottom})
			case 12:
				segs = append(segs, segment{left, right})
			case 13:
				segs = append(segs, segment{top, right})
			case 14:
				segs = append(segs, segment{left, top})
			}
		}
	}

	return stitch(segs)
}

type segment struct {
	a Point
	b Point
}

// frac returns the interpolated crossing position between two samples
// on opposite sides of the level. Callers only invoke it on edges with
// an actual sign change, so va != vb.
func frac(va, vb, level float64) float64 {
	return (level - va) / (vb - va)
}

func hasNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// pointKey quantizes coordinates for endpoint matching. Crossings on a
// shared cell edge are computed from the same two samples in both
// adjacent cells and are bitwise identical, so the quantization only
// guards against pathological float noise.
type pointKey struct {
	x int64
	y int64
}

const keyScale = 1 << 20

func keyOf(p Point) pointKey {
	return pointKey{
		x: int64(math.Round(p.X * keyScale)),
		y: int64(math.Round(p.Y * keyScale)),
	}
}

// stitch joins segments into polylines by walking shared endpoints.
// Each polyline is grown forward from its seed segment, then extended
// backward, so border-to-border contours come out as single open
// polylines.
func stitch(segs []segment) []Contour {
	if len(segs) == 0 {
		return nil
	}

	adj := make(map[pointKey][]int, 2*len(segs))
	for i, s := range segs {
		adj[keyOf(s.a)] = append(adj[keyOf(s.a)], i)
		adj[keyOf(s.b)] = append(adj[keyOf(s.b)], i)
	}
	used := make([]bool, len(segs))

	takeNext := func(at pointKey) (int, bool) {
		for _, i := range adj[at] {
			if !used[i] {
				return i, true
			}
		}
		return 0, false
	}

	other := func(s segment, at pointKey) Point {
		if keyOf(s.a) == at {
			return s.b
		}
		return s.a
	}

	var contours []Contour
	for seed := range segs {
		if used[seed] {
			continue
		}
		used[seed] = true
		pts := []Point{segs[seed].a, segs[seed].b}

		// Forward walk from the tail.
		for {
			at := keyOf(pts[len(pts)-1])
			if at == keyOf(pts[0]) {
				pts = pts[:len(pts)-1] // closed: drop duplicated end point
				break
			}
			i, ok := takeNext(at)
			if !ok {
				break
			}
			used[i] = true
			pts = append(pts, other(segs[i], at))
		}

		// Backward walk from the head for open chains.
		if len(pts) > 1 && keyOf(pts[0]) != keyOf(pts[len(pts)-1]) {
			for {
				at := keyOf(pts[0])
				i, ok := takeNext(at)
				if !ok {
					break
				}
				used[i] = true
				pts = append([]Point{other(segs[i], at)}, pts...)
			}
		}

		c := Contour{X: make([]float64, len(pts)), Y: make([]float64, len(pts))}
		for i, p := range pts {
			c.X[i] = p.X
			c.Y[i] = p.Y
		}
		contours = append(contours, c)
	}
	return contours
}
