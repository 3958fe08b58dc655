package transform

import (
	"math"

	"imgtrack/internal/imgio"
)

// Rotate rotates the image counterclockwise by angle degrees around its
// center, using bilinear interpolation. The output keeps the input
// dimensions; samples rotated in from outside the frame are zero.
// Multiples of 90 degrees take an exact lattice path.
func Rotate(img imgio.Gray, angle float64) imgio.Gray {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	switch angle {
	case 0:
		return img
	case 90, 180, 270:
		return rotateExact(img, int(angle))
	}

	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx := float64(img.NX-1) / 2
	cy := float64(img.NY-1) / 2

	out := imgio.NewGray(img.NX, img.NY, img.MaxVal)
	for y := 0; y < img.NY; y++ {
		for x := 0; x < img.NX; x++ {
			// Inverse mapping: output pixel -> source position.
			dx := float64(x) - cx
			dy := float64(y) - cy
			sx := cos*dx + sin*dy + cx
			sy := -sin*dx + cos*dy + cy
			out.Set(x, y, bilinear(img, sx, sy))
		}
	}
	return out
}

func rotateExact(img imgio.Gray, angle int) imgio.Gray {
	var out imgio.Gray
	switch angle {
	case 90:
		out = imgio.NewGray(img.NY, img.NX, img.MaxVal)
		for y := 0; y < img.NY; y++ {
			for x := 0; x < img.NX; x++ {
				out.Set(y, img.NX-1-x, img.At(x, y))
			}
		}
	case 180:
		out = imgio.NewGray(img.NX, img.NY, img.MaxVal)
		for y := 0; y < img.NY; y++ {
			for x := 0; x < img.NX; x++ {
				out.Set(img.NX-1-x, img.NY-1-y, img.At(x, y))
			}
		}
	case 270:
		out = imgio.NewGray(img.NY, img.NX, img.MaxVal)
		for y := 0; y < img.NY; y++ {
			for x := 0; x < img.NX; x++ {
				out.Set(img.NY-1-y, x, img.At(x, y))
			}
		}
	}
	return out
}

func bilinear(img imgio.Gray, x, y float64) float64 {
	if x < 0 || y < 0 || x > float64(img.NX-1) || y > float64(img.NY-1) {
		return 0
	}
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1, y1 := x0+1, y0+1
	if x1 > img.NX-1 {
		x1 = x0
	}
	if y1 > img.NY-1 {
		y1 = y0
	}
	fx := x - float64(x0)
	fy := y - float64(y0)
	top := img.At(x0, y0)*(1-fx) + img.At(x1, y0)*fx
	bot := img.At(x0, y1)*(1-fx) + img.At(x1, y1)*fx
	return top*(1-fy) + bot*fy
}

// Gaussian blurs the image with a separable gaussian kernel of the
// given standard deviation (pixels). Borders are handled by clamping.
func Gaussian(img imgio.Gray, sigma float64) imgio.Gray {
	if sigma <= 0 {
		return img
	}
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	clamp := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}

	// Horizontal pass.
	tmp := imgio.NewGray(img.NX, img.NY, img.MaxVal)
	for y := 0; y < img.NY; y++ {
		for x := 0; x < img.NX; x++ {
			var acc float64
			for i, k := range kernel {
				acc += k * img.At(clamp(x+i-radius, img.NX-1), y)
			}
			tmp.Set(x, y, acc)
		}
	}
	// Vertical pass.
	out := imgio.NewGray(img.NX, img.NY, img.MaxVal)
	for y := 0; y < img.NY; y++ {
		for x := 0; x < img.NX; x++ {
			var acc float64
			for i, k := range kernel {
				acc += k * tmp.At(x, clamp(y+i-radius, img.NY-1))
			}
			out.Set(x, y, acc)
		}
	}
	return out
}

// Subtract returns img minus ref, sample by sample. The images must
// share dimensions; mismatched references leave img untouched.
func Subtract(img, ref imgio.Gray) imgio.Gray {
	if img.NX != ref.NX || img.NY != ref.NY {
		return img
	}
	out := imgio.NewGray(img.NX, img.NY, img.MaxVal)
	for i := range img.Pix {
		out.Pix[i] = img.Pix[i] - ref.Pix[i]
	}
	return out
}

// DoubleThreshold binarizes the image: samples within [vmin, vmax] map
// to 1, everything else to 0.
func DoubleThreshold(img imgio.Gray, vmin, vmax float64) imgio.Gray {
	out := imgio.NewGray(img.NX, img.NY, 1)
	for i, v := range img.Pix {
		if v >= vmin && v <= vmax {
			out.Pix[i] = 1
		}
	}
	return out
}
