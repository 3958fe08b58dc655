package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"imgtrack/internal/analysis"
	"imgtrack/internal/transform"
)

func newGreyLevelCmd(root *Root) *cobra.Command {
	var (
		src      sourceFlags
		zones    []string
		stat     string
		savePath string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "greylevel [folders...]",
		Short: "Measure grey level statistics per zone and frame",
		Long: `Compute one statistic of the pixel values inside each zone, per frame.
Without --zone the whole image is a single zone.

Examples:
  imgtrack greylevel /data/series1
  imgtrack greylevel /data/series1 --zone 10,10,50,50 --zone 100,10,50,50 --stat max`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseZones(zones)
			if err != nil {
				return err
			}
			source, nums, params, input, err := src.build(args, root.cfg.Processing.CacheSize)
			if err != nil {
				return err
			}
			if savePath == "" {
				savePath = root.cfg.Paths.DefaultSavePath
			}
			if workers == 0 {
				workers = root.cfg.Processing.ParallelJobs
			}
			a := &analysis.GreyLevel{Zones: parsed, Stat: stat}
			return root.runAnalysis(a, source, nums, params, input, savePath, workers)
		},
	}

	src.register(cmd, root.cfg.Series.Extension)
	cmd.Flags().StringArrayVar(&zones, "zone", nil, "zone as x,y,width,height (repeatable)")
	cmd.Flags().StringVar(&stat, "stat", "", "zone statistic (mean|sum|max|min, default mean)")
	cmd.Flags().StringVarP(&savePath, "output", "o", "", "directory for result files")
	cmd.Flags().IntVar(&workers, "parallel", 0, "worker count (frames are independent)")

	return cmd
}

func newFront1DCmd(root *Root) *cobra.Command {
	var (
		src      sourceFlags
		savePath string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "front1d [folders...]",
		Short: "Measure 1-D front profiles (column-averaged intensity)",
		Long: `Average pixel intensity over each image column, producing one profile
per frame. Combine with --crop to restrict the averaged band.

Examples:
  imgtrack front1d /data/series1 --crop 0,200,1024,50`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, nums, params, input, err := src.build(args, root.cfg.Processing.CacheSize)
			if err != nil {
				return err
			}
			if savePath == "" {
				savePath = root.cfg.Paths.DefaultSavePath
			}
			if workers == 0 {
				workers = root.cfg.Processing.ParallelJobs
			}
			return root.runAnalysis(&analysis.Front1D{}, source, nums, params, input, savePath, workers)
		},
	}

	src.register(cmd, root.cfg.Series.Extension)
	cmd.Flags().StringVarP(&savePath, "output", "o", "", "directory for result files")
	cmd.Flags().IntVar(&workers, "parallel", 0, "worker count (frames are independent)")

	return cmd
}

func newFlickerCmd(root *Root) *cobra.Command {
	var (
		src      sourceFlags
		zones    []string
		stat     string
		ref      int
		savePath string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "flicker [folders...]",
		Short: "Measure illumination fluctuation against a reference frame",
		Long: `Compute per-zone intensity ratios against a fixed reference frame. The
mean ratio column is what flicker correction divides frames by.

Examples:
  imgtrack flicker /data/series1 --ref 0 --zone 10,10,50,50`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseZones(zones)
			if err != nil {
				return err
			}
			source, nums, params, input, err := src.build(args, root.cfg.Processing.CacheSize)
			if err != nil {
				return err
			}
			if savePath == "" {
				savePath = root.cfg.Paths.DefaultSavePath
			}
			if workers == 0 {
				workers = root.cfg.Processing.ParallelJobs
			}
			a := &analysis.Flicker{
				GreyLevel: analysis.GreyLevel{Zones: parsed, Stat: stat},
				Reference: ref,
			}
			return root.runAnalysis(a, source, nums, params, input, savePath, workers)
		},
	}

	src.register(cmd, root.cfg.Series.Extension)
	cmd.Flags().StringArrayVar(&zones, "zone", nil, "zone as x,y,width,height (repeatable)")
	cmd.Flags().StringVar(&stat, "stat", "", "zone statistic (mean|sum|max|min, default mean)")
	cmd.Flags().IntVar(&ref, "ref", 0, "reference frame num")
	cmd.Flags().StringVarP(&savePath, "output", "o", "", "directory for result files")
	cmd.Flags().IntVar(&workers, "parallel", 0, "worker count (frames are independent)")

	return cmd
}

func parseZones(specs []string) ([]analysis.Zone, error) {
	zones := make([]analysis.Zone, 0, len(specs))
	for i, spec := range specs {
		vals, err := parseInts(spec, 4)
		if err != nil {
			return nil, fmt.Errorf("invalid --zone %q: %v", spec, err)
		}
		zones = append(zones, analysis.Zone{
			Name: fmt.Sprintf("zone %d", i+1),
			Rect: transform.CropZone{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]},
		})
	}
	return zones, nil
}
