package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"imgtrack/internal/analysis"
	"imgtrack/internal/imgio"
	"imgtrack/internal/logging"
	"imgtrack/internal/results"
	"imgtrack/internal/store"
	"imgtrack/internal/transform"
)

// fileStems maps analysis names to the result file stems. Each run
// writes <stem>.tsv (the table) and <stem>.json (parameters and
// provenance); contour tracking additionally writes <stem>_Data.json
// with the matched contour coordinates.
var fileStems = map[string]string{
	"glevel":  "Img_GreyLevel",
	"ctrack":  "Img_ContourTracking",
	"front1d": "Img_Front1D",
	"flicker": "Img_Flicker",
}

// runAnalysis executes one analysis end to end: registry bookkeeping,
// progress reporting, execution and result persistence.
func (root *Root) runAnalysis(a analysis.Analyzer, src imgio.FrameSource, nums []int, params transform.Params, input, savePath string, workers int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	id := uuid.NewString()
	if err := root.recordQueued(id, a.Name(), input, savePath, params, len(nums)); err != nil {
		root.log.Warn("run registry unavailable", "error", err)
	}

	logging.LogRunStart(root.log, a.Name(), id, input, len(nums))
	root.store.RecordRunStart(id)
	started := time.Now()

	bar := progressbar.NewOptions(len(nums),
		progressbar.OptionSetDescription(a.Name()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	runner := &analysis.Runner{
		Src:     src,
		Log:     root.log,
		Workers: workers,
		Progress: func(done, total int) {
			bar.Set(done)
		},
	}

	table, err := runner.Run(ctx, a, nums)
	bar.Finish()
	if err != nil {
		logging.LogRunError(root.log, a.Name(), id, time.Since(started), err)
		root.store.RecordRunResult(id, "failed", nil, err.Error())
		return err
	}

	meta := root.runMetadata(a, params, input, nums)
	var shapes results.ShapeStore
	if tracker, ok := a.(*analysis.Tracking); ok {
		shapes = tracker.Shapes()
	}
	if err := root.saveResults(a.Name(), savePath, table, meta, shapes); err != nil {
		logging.LogRunError(root.log, a.Name(), id, time.Since(started), err)
		root.store.RecordRunResult(id, "failed", meta, err.Error())
		return err
	}

	logging.LogRunComplete(root.log, a.Name(), id, time.Since(started), table.Len())
	return root.store.RecordRunResult(id, "completed", meta, "")
}

func (root *Root) recordQueued(id, name, input, savePath string, params transform.Params, frames int) error {
	paramsJSON, _ := json.Marshal(params)
	return root.store.RecordRunQueued(store.RunRecord{
		ID:         id,
		Analysis:   name,
		Status:     "queued",
		InputPath:  input,
		SavePath:   savePath,
		ParamsJSON: string(paramsJSON),
		Frames:     frames,
	})
}

// runMetadata assembles the provenance sidecar: analysis parameters
// plus the frame selection and active transforms.
func (root *Root) runMetadata(a analysis.Analyzer, params transform.Params, input string, nums []int) results.Metadata {
	meta := a.Metadata()
	meta["path"] = input
	meta["frames"] = map[string]int{
		"first": nums[0],
		"last":  nums[len(nums)-1],
		"count": len(nums),
	}
	if !paramsZero(params) {
		meta["transform"] = params
	}
	return meta
}

func paramsZero(p transform.Params) bool {
	return p.Rotation == 0 && p.Crop == nil && p.Filter == 0 &&
		len(p.Subtraction) == 0 && p.Threshold == nil
}

// saveResults writes the table, the metadata sidecar and, when
// present, the contour coordinate file next to each other under
// savePath.
func (root *Root) saveResults(name, savePath string, table *results.Table, meta results.Metadata, shapes results.ShapeStore) error {
	stem := fileStems[name]
	if stem == "" {
		stem = "Img_" + name
	}
	if err := os.MkdirAll(savePath, 0o755); err != nil {
		return err
	}
	if err := table.SaveTSV(filepath.Join(savePath, stem+".tsv")); err != nil {
		return err
	}
	if err := meta.SaveJSON(filepath.Join(savePath, stem+".json")); err != nil {
		return err
	}
	if shapes != nil {
		if err := shapes.SaveJSON(filepath.Join(savePath, stem+"_Data.json")); err != nil {
			return err
		}
	}
	return nil
}
