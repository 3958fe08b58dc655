package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"imgtrack/internal/analysis"
	"imgtrack/internal/imgio"
	"imgtrack/internal/logging"
	"imgtrack/internal/results"
	"imgtrack/internal/track"
	"imgtrack/internal/transform"
)

func newTrackCmd(root *Root) *cobra.Command {
	var (
		src      sourceFlags
		contours string
		savePath string
		workers  int
		twoPass  bool
	)

	cmd := &cobra.Command{
		Use:   "track [folders...]",
		Short: "Track contours across an image series",
		Long: `Track reference contours frame by frame: extract iso-contours at the
configured grey level, match each tracked object to the nearest
candidate within tolerances, and carry references forward. Objects
that temporarily disappear produce NaN rows until they reappear near
their last known position.

The reference configuration (level, objects, tolerances) is a JSON
file produced during interactive setup.

Examples:
  imgtrack track /data/series1 /data/series2 --contours contours.json
  imgtrack track --stack movie.tif --contours contours.json --two-pass --parallel 8`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := track.LoadConfig(contours)
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
			if twoPass {
				return root.runTrackTwoPass(cfg, source, nums, params, input, savePath, workers)
			}
			return root.runAnalysis(analysis.NewTracking(cfg, root.log), source, nums, params, input, savePath, workers)
		},
	}

	src.register(cmd, root.cfg.Series.Extension)
	cmd.Flags().StringVar(&contours, "contours", "", "reference contour configuration (JSON)")
	cmd.Flags().StringVarP(&savePath, "output", "o", "", "directory for result files")
	cmd.Flags().IntVar(&workers, "parallel", 0, "worker count for two-pass extraction")
	cmd.Flags().BoolVar(&twoPass, "two-pass", false, "extract all frames in parallel before the sequential matching pass")
	cmd.MarkFlagRequired("contours")

	return cmd
}

// runTrackTwoPass drives the tracking session directly instead of
// through the analysis runner, so extraction can run across workers
// while matching stays sequential.
func (root *Root) runTrackTwoPass(cfg track.Config, src imgio.FrameSource, nums []int, params transform.Params, input, savePath string, workers int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tracker := analysis.NewTracking(cfg, root.log)
	id := uuid.NewString()
	if err := root.recordQueued(id, tracker.Name(), input, savePath, params, len(nums)); err != nil {
		root.log.Warn("run registry unavailable", "error", err)
	}

	logging.LogRunStart(root.log, tracker.Name(), id, input, len(nums))
	root.store.RecordRunStart(id)
	started := time.Now()

	bar := progressbar.NewOptions(len(nums),
		progressbar.OptionSetDescription(tracker.Name()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	session := track.NewSession(src, cfg, root.log)
	records, err := session.RunTwoPass(ctx, nums, workers, func(done, total int) {
		bar.Set(done)
	})
	bar.Finish()
	if err != nil {
		logging.LogRunError(root.log, tracker.Name(), id, time.Since(started), err)
		root.store.RecordRunResult(id, "failed", nil, err.Error())
		return err
	}

	table, shapes := recordsToResults(cfg, tracker.Columns(), records)
	meta := root.runMetadata(tracker, params, input, nums)
	if err := root.saveResults(tracker.Name(), savePath, table, meta, shapes); err != nil {
		logging.LogRunError(root.log, tracker.Name(), id, time.Since(started), err)
		root.store.RecordRunResult(id, "failed", meta, err.Error())
		return err
	}

	logging.LogRunComplete(root.log, tracker.Name(), id, time.Since(started), table.Len())
	return root.store.RecordRunResult(id, "completed", meta, "")
}

func recordsToResults(cfg track.Config, columns []string, records []track.FrameRecord) (*results.Table, results.ShapeStore) {
	names := make([]string, len(cfg.Objects))
	for i, obj := range cfg.Objects {
		names[i] = obj.Name
	}
	table := results.NewTable(columns)
	shapes := results.NewShapeStore(names)
	for _, rec := range records {
		row := make([]float64, 0, 4*len(rec.Objects))
		for i, obj := range rec.Objects {
			row = append(row, obj.X, obj.Y, obj.Perimeter, obj.Area)
			if obj.Found {
				shapes.Put(names[i], rec.Num, results.Shape{X: obj.Shape.X, Y: obj.Shape.Y})
			}
		}
		table.SetRow(rec.Num, row)
	}
	return table, shapes
}
