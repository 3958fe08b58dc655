package imgio

import (
	"fmt"
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"
)

var magickOnce sync.Once

// initMagick initializes the ImageMagick runtime once per process.
// Terminate is deliberately never called: the runtime stays up for the
// life of the process, as wands may be created from several goroutines.
func initMagick() {
	magickOnce.Do(imagick.Initialize)
}

// readMagick decodes a single image through ImageMagick. It covers the
// formats the pure-Go decoders reject, camera RAW files in particular.
func readMagick(path string) (Gray, error) {
	initMagick()
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return Gray{}, fmt.Errorf("magick read %s: %w", path, err)
	}
	return wandToGray(mw)
}

// wandToGray exports the current wand frame as a float64 intensity
// grid. Samples come back normalized to [0, 1]; the original bit depth
// is kept in MaxVal so level validation still sees the source range.
func wandToGray(mw *imagick.MagickWand) (Gray, error) {
	nx := int(mw.GetImageWidth())
	ny := int(mw.GetImageHeight())
	if nx == 0 || ny == 0 {
		return Gray{}, fmt.Errorf("magick: empty image")
	}

	vals, err := mw.ExportImagePixels(0, 0, uint(nx), uint(ny), "I", imagick.PIXEL_DOUBLE)
	if err != nil {
		return Gray{}, fmt.Errorf("magick export pixels: %w", err)
	}
	pix, ok := vals.([]float64)
	if !ok || len(pix) != nx*ny {
		return Gray{}, fmt.Errorf("magick export pixels: unexpected buffer")
	}

	depth := mw.GetImageDepth()
	maxVal := float64(uint64(1)<<depth) - 1
	g := Gray{NX: nx, NY: ny, Pix: make([]float64, nx*ny), MaxVal: maxVal}
	for i, v := range pix {
		g.Pix[i] = v * maxVal
	}
	return g, nil
}
