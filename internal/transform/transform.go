// Package transform implements the geometric and photometric
// operations applied to every frame before analysis: rotation, crop,
// gaussian blur, reference subtraction and double thresholding. Each
// operation is a pure function from image to image; a Pipeline composes
// the active ones in a fixed order and its parameters are serialized
// into result metadata for provenance.
package transform

import (
	"imgtrack/internal/imgio"
)

// Params describes the active transforms. Zero values mean the
// corresponding transform is off, matching the serialized metadata
// form where absent transforms are simply not listed.
type Params struct {
	Rotation    float64      `json:"rotation,omitempty"`     // degrees, counterclockwise
	Crop        *CropZone    `json:"crop,omitempty"`         // x, y, width, height
	Filter      float64      `json:"filter,omitempty"`       // gaussian sigma in pixels
	Subtraction []float64    `json:"subtraction,omitempty"`  // reference frame nums to average and subtract
	Threshold   *DoubleRange `json:"threshold,omitempty"`    // binarization range
}

// CropZone is a rectangular region (x, y, width, height) in pixels.
type CropZone struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"width"`
	H int `json:"height"`
}

// DoubleRange holds the bounds of a double threshold: samples with
// vmin <= v <= vmax map to 1, everything else to 0.
type DoubleRange struct {
	Min float64 `json:"vmin"`
	Max float64 `json:"vmax"`
}

// Pipeline applies the active transforms in the fixed order rotation,
// crop, filter, subtraction, threshold. Grayscale conversion happens at
// decode time and is not part of the pipeline.
type Pipeline struct {
	params  Params
	baseline imgio.Gray
	hasBase  bool
}

// NewPipeline builds a pipeline from parameters. If subtraction is
// requested, the referenced frames are read from src up front and
// averaged into the baseline image (after the geometric transforms, so
// the baseline matches what analysis frames look like).
func NewPipeline(params Params, src imgio.FrameSource) (*Pipeline, error) {
	p := &Pipeline{params: params}
	if len(params.Subtraction) > 0 {
		var sum imgio.Gray
		for i, fnum := range params.Subtraction {
			img, err := src.Read(int(fnum))
			if err != nil {
				return nil, err
			}
			img = p.geometric(img)
			if i == 0 {
				sum = img.Clone()
				continue
			}
			for j := range sum.Pix {
				sum.Pix[j] += img.Pix[j]
			}
		}
		n := float64(len(params.Subtraction))
		for j := range sum.Pix {
			sum.Pix[j] /= n
		}
		p.baseline = sum
		p.hasBase = true
	}
	return p, nil
}

// Params returns the parameters the pipeline was built with, for
// inclusion in result metadata.
func (p *Pipeline) Params() Params { return p.params }

// Active reports whether any transform is configured.
func (p *Pipeline) Active() bool {
	pr := p.params
	return pr.Rotation != 0 || pr.Crop != nil || pr.Filter > 0 ||
		len(pr.Subtraction) > 0 || pr.Threshold != nil
}

// Apply runs the full pipeline on one frame.
func (p *Pipeline) Apply(img imgio.Gray) imgio.Gray {
	out := p.geometric(img)
	if p.params.Filter > 0 {
		out = Gaussian(out, p.params.Filter)
	}
	if p.hasBase {
		out = Subtract(out, p.baseline)
	}
	if p.params.Threshold != nil {
		out = DoubleThreshold(out, p.params.Threshold.Min, p.params.Threshold.Max)
	}
	return out
}

// geometric applies only rotation and crop, the transforms that change
// the pixel lattice.
func (p *Pipeline) geometric(img imgio.Gray) imgio.Gray {
	out := img
	if p.params.Rotation != 0 {
		out = Rotate(out, p.params.Rotation)
	}
	if c := p.params.Crop; c != nil {
		out = out.Crop(c.X, c.Y, c.W, c.H)
	}
	return out
}
