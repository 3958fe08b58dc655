package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"imgtrack/internal/imgio"
	"imgtrack/internal/transform"
)

// sourceFlags holds the flags shared by every analysis command: where
// the frames come from, which frames to process, and the transforms to
// apply before analysis.
type sourceFlags struct {
	stack     string
	extension string
	start     int
	end       int
	skip      int

	rotate    float64
	crop      string
	blur      float64
	subtract  []int
	threshold string
}

func (f *sourceFlags) register(cmd *cobra.Command, defaultExt string) {
	cmd.Flags().StringVar(&f.stack, "stack", "", "multi-frame TIFF stack file (instead of folder arguments)")
	cmd.Flags().StringVar(&f.extension, "extension", defaultExt, "image file extension of the series")
	cmd.Flags().IntVar(&f.start, "start", 0, "first frame num to process")
	cmd.Flags().IntVar(&f.end, "end", 0, "frame num to stop before (0 = end of series)")
	cmd.Flags().IntVar(&f.skip, "skip", 1, "process every skip-th frame")

	cmd.Flags().Float64Var(&f.rotate, "rotate", 0, "rotate frames counterclockwise by this many degrees")
	cmd.Flags().StringVar(&f.crop, "crop", "", "crop frames to x,y,width,height")
	cmd.Flags().Float64Var(&f.blur, "blur", 0, "gaussian blur sigma in pixels")
	cmd.Flags().IntSliceVar(&f.subtract, "subtract", nil, "frame nums to average and subtract as a baseline")
	cmd.Flags().StringVar(&f.threshold, "threshold", "", "binarize with double threshold min,max")
}

// build turns positional folder arguments (or --stack) into a cached,
// transformed frame source plus the selected frame nums.
func (f *sourceFlags) build(args []string, cacheSize int) (imgio.FrameSource, []int, transform.Params, string, error) {
	var (
		raw   imgio.FrameSource
		input string
		err   error
	)
	switch {
	case f.stack != "":
		if len(args) > 0 {
			return nil, nil, transform.Params{}, "", fmt.Errorf("pass either folders or --stack, not both")
		}
		raw, err = imgio.NewTiffStack(f.stack)
		input = f.stack
	case len(args) > 0:
		raw, err = imgio.NewSequence(args, f.extension)
		input = strings.Join(args, ",")
	default:
		return nil, nil, transform.Params{}, "", fmt.Errorf("no input: pass series folders or --stack")
	}
	if err != nil {
		return nil, nil, transform.Params{}, "", err
	}

	params, err := f.transformParams()
	if err != nil {
		return nil, nil, transform.Params{}, "", err
	}
	src := raw
	pipe, err := transform.NewPipeline(params, raw)
	if err != nil {
		return nil, nil, transform.Params{}, "", err
	}
	if pipe.Active() {
		src = &imgio.Transformed{Src: raw, Fn: pipe.Apply}
	}
	src = imgio.NewCached(src, cacheSize)

	nums := imgio.SubStack(src, f.start, f.end, f.skip)
	if len(nums) == 0 {
		return nil, nil, transform.Params{}, "", fmt.Errorf("frame selection is empty (series has %d frames)", src.Len())
	}
	return src, nums, params, input, nil
}

func (f *sourceFlags) transformParams() (transform.Params, error) {
	params := transform.Params{
		Rotation: f.rotate,
		Filter:   f.blur,
	}
	for _, n := range f.subtract {
		params.Subtraction = append(params.Subtraction, float64(n))
	}
	if f.crop != "" {
		vals, err := parseInts(f.crop, 4)
		if err != nil {
			return params, fmt.Errorf("invalid --crop %q: %v", f.crop, err)
		}
		params.Crop = &transform.CropZone{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}
	}
	if f.threshold != "" {
		vals, err := parseFloats(f.threshold, 2)
		if err != nil {
			return params, fmt.Errorf("invalid --threshold %q: %v", f.threshold, err)
		}
		params.Threshold = &transform.DoubleRange{Min: vals[0], Max: vals[1]}
	}
	return params, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	vals := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
