package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"imgtrack/internal/imgio"
	"imgtrack/internal/results"
)

// Flicker measures global illumination fluctuation: per zone, the
// ratio of the zone statistic to its value on a fixed reference frame,
// plus the mean ratio across zones. The mean ratio column is what
// flicker correction divides frames by.
type Flicker struct {
	GreyLevel
	// Reference is the num of the frame other frames are normalized
	// against.
	Reference int

	refValues []float64
}

func (f *Flicker) Name() string      { return "flicker" }
func (f *Flicker) Independent() bool { return true }

func (f *Flicker) Init(src imgio.FrameSource) error {
	if err := f.GreyLevel.Init(src); err != nil {
		return err
	}
	img, err := src.Read(f.Reference)
	if err != nil {
		return fmt.Errorf("read reference frame %d: %w", f.Reference, err)
	}
	refValues, err := f.GreyLevel.AnalyzeOne(f.Reference, img)
	if err != nil {
		return err
	}
	for i, v := range refValues {
		if v == 0 {
			return fmt.Errorf("zone %q has zero %s on reference frame %d",
				f.Zones[i].Name, statName(f.Stat), f.Reference)
		}
	}
	f.refValues = refValues
	return nil
}

func (f *Flicker) Columns() []string {
	return append(f.GreyLevel.Columns(), "ratio")
}

func (f *Flicker) AnalyzeOne(num int, img imgio.Gray) ([]float64, error) {
	values, err := f.GreyLevel.AnalyzeOne(num, img)
	if err != nil {
		return nil, err
	}
	ratios := make([]float64, len(values), len(values)+1)
	for i, v := range values {
		ratios[i] = v / f.refValues[i]
	}
	return append(ratios, stat.Mean(ratios, nil)), nil
}

func (f *Flicker) Metadata() results.Metadata {
	m := f.GreyLevel.Metadata()
	m["analysis"] = f.Name()
	m["reference"] = f.Reference
	return m
}
