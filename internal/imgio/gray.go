package imgio

import (
	"image"
	"math"
)

// Luminance weights used when collapsing RGB samples to grey.
const (
	lumR = 0.2125
	lumG = 0.7154
	lumB = 0.0721
)

// Gray is a single-channel image held as a float64 grid, row-major.
// MaxVal records the representable maximum of the source pixel type
// (255 for 8-bit files, 65535 for 16-bit, 1.0 for normalized data) so
// that iso-levels and thresholds can be validated against the actual
// intensity range.
type Gray struct {
	NX     int
	NY     int
	Pix    []float64
	MaxVal float64
}

// NewGray allocates a zeroed grid of nx columns by ny rows.
func NewGray(nx, ny int, maxVal float64) Gray {
	return Gray{
		NX:     nx,
		NY:     ny,
		Pix:    make([]float64, nx*ny),
		MaxVal: maxVal,
	}
}

// At returns the sample at column x, row y.
func (g Gray) At(x, y int) float64 {
	return g.Pix[y*g.NX+x]
}

// Set writes the sample at column x, row y.
func (g Gray) Set(x, y int, v float64) {
	g.Pix[y*g.NX+x] = v
}

// Row returns the samples of row y as a slice into the grid.
func (g Gray) Row(y int) []float64 {
	return g.Pix[y*g.NX : (y+1)*g.NX]
}

// Clone returns a deep copy of the image.
func (g Gray) Clone() Gray {
	out := g
	out.Pix = make([]float64, len(g.Pix))
	copy(out.Pix, g.Pix)
	return out
}

// Crop returns a copy of the rectangular region of width w and height h
// whose top-left corner is at (x, y). The region is clamped to the
// image bounds.
func (g Gray) Crop(x, y, w, h int) Gray {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > g.NX {
		w = g.NX - x
	}
	if y+h > g.NY {
		h = g.NY - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	out := NewGray(w, h, g.MaxVal)
	for r := 0; r < h; r++ {
		copy(out.Row(r), g.Pix[(y+r)*g.NX+x:(y+r)*g.NX+x+w])
	}
	return out
}

// FromImage converts a decoded standard-library image to a Gray grid.
// Color images are collapsed with the usual luminance weights; 16-bit
// sources keep their full range.
func FromImage(src image.Image) Gray {
	b := src.Bounds()
	nx, ny := b.Dx(), b.Dy()

	switch im := src.(type) {
	case *image.Gray:
		g := NewGray(nx, ny, 255)
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				g.Set(x, y, float64(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return g
	case *image.Gray16:
		g := NewGray(nx, ny, 65535)
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				g.Set(x, y, float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return g
	}

	// Generic path: RGBA64 samples are 16-bit, scale back to the 8-bit
	// range common to the usual RGB file formats.
	g := NewGray(nx, ny, 255)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			r, gr, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := lumR*float64(r) + lumG*float64(gr) + lumB*float64(bl)
			g.Set(x, y, lum/257.0)
		}
	}
	return g
}

// Range returns the finite min and max sample values.
func (g Gray) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
