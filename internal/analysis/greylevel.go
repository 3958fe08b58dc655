package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"imgtrack/internal/imgio"
	"imgtrack/internal/results"
	"imgtrack/internal/transform"
)

// Zone is a named rectangular region of interest.
type Zone struct {
	Name string             `json:"name"`
	Rect transform.CropZone `json:"rect"`
}

// GreyLevel computes one statistic of the pixel values inside each
// configured zone, per frame. With no zones configured the whole image
// becomes a single default zone.
type GreyLevel struct {
	Zones []Zone
	Stat  string // "mean" (default), "sum", "max", "min"

	apply func([]float64) float64
}

func (g *GreyLevel) Name() string      { return "glevel" }
func (g *GreyLevel) Independent() bool { return true }

func (g *GreyLevel) Init(src imgio.FrameSource) error {
	if len(g.Zones) == 0 {
		img, err := src.Read(0)
		if err != nil {
			return fmt.Errorf("read first frame for default zone: %w", err)
		}
		g.Zones = []Zone{{
			Name: "zone 1",
			Rect: transform.CropZone{X: 0, Y: 0, W: img.NX, H: img.NY},
		}}
	}
	apply, err := statFunc(g.Stat)
	if err != nil {
		return err
	}
	g.apply = apply
	return nil
}

func (g *GreyLevel) Columns() []string {
	cols := make([]string, len(g.Zones))
	for i, z := range g.Zones {
		cols[i] = z.Name
	}
	return cols
}

func (g *GreyLevel) AnalyzeOne(num int, img imgio.Gray) ([]float64, error) {
	row := make([]float64, len(g.Zones))
	for i, z := range g.Zones {
		crop := img.Crop(z.Rect.X, z.Rect.Y, z.Rect.W, z.Rect.H)
		if len(crop.Pix) == 0 {
			return nil, fmt.Errorf("zone %q is empty after cropping frame %d", z.Name, num)
		}
		row[i] = g.apply(crop.Pix)
	}
	return row, nil
}

func (g *GreyLevel) Metadata() results.Metadata {
	m := results.NewMetadata(g.Name())
	m["zones"] = g.Zones
	m["function"] = statName(g.Stat)
	return m
}

func statFunc(name string) (func([]float64) float64, error) {
	switch statName(name) {
	case "mean":
		return func(vs []float64) float64 { return stat.Mean(vs, nil) }, nil
	case "sum":
		return floats.Sum, nil
	case "max":
		return floats.Max, nil
	case "min":
		return floats.Min, nil
	}
	return nil, fmt.Errorf("unknown zone statistic %q (want mean, sum, max or min)", name)
}

func statName(name string) string {
	if name == "" {
		return "mean"
	}
	return name
}
