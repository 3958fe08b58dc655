package analysis

import (
	"fmt"
	"strconv"

	"imgtrack/internal/imgio"
	"imgtrack/internal/results"
)

// Front1D reduces each frame to a 1-D profile: the mean intensity of
// every pixel column. Tracking a wetting or drying front then amounts
// to following the profile over time.
type Front1D struct {
	nx int
}

func (f *Front1D) Name() string      { return "front1d" }
func (f *Front1D) Independent() bool { return true }

func (f *Front1D) Init(src imgio.FrameSource) error {
	img, err := src.Read(0)
	if err != nil {
		return fmt.Errorf("read first frame for profile width: %w", err)
	}
	f.nx = img.NX
	return nil
}

func (f *Front1D) Columns() []string {
	cols := make([]string, f.nx)
	for x := range cols {
		cols[x] = strconv.Itoa(x)
	}
	return cols
}

func (f *Front1D) AnalyzeOne(num int, img imgio.Gray) ([]float64, error) {
	if img.NX != f.nx {
		return nil, fmt.Errorf("frame %d is %d columns wide, profile has %d", num, img.NX, f.nx)
	}
	row := make([]float64, img.NX)
	for y := 0; y < img.NY; y++ {
		line := img.Row(y)
		for x, v := range line {
			row[x] += v
		}
	}
	for x := range row {
		row[x] /= float64(img.NY)
	}
	return row, nil
}

func (f *Front1D) Metadata() results.Metadata {
	return results.NewMetadata(f.Name())
}
