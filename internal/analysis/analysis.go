// Package analysis defines the shared pipeline every analysis flavor
// plugs into: a small capability interface (initialize, analyze one
// frame, describe columns) and a runner that drives it over a frame
// selection, sequentially or across workers when frames are
// independent.
package analysis

import (
	"context"
	"log/slog"
	"sync"

	"imgtrack/internal/imgio"
	"imgtrack/internal/results"
)

// Analyzer is one analysis flavor (grey level, contour tracking, 1-D
// front, flicker). Init runs once before the first frame and is where
// configuration problems must surface; AnalyzeOne maps a frame to one
// table row.
type Analyzer interface {
	// Name is the short analysis identifier used in filenames and the
	// run registry (e.g. "ctrack", "glevel").
	Name() string
	// Init validates configuration and prepares per-run state. It may
	// read frames (dimensions, reference frames) from src.
	Init(src imgio.FrameSource) error
	// Columns lists the result table columns. Only valid after Init.
	Columns() []string
	// AnalyzeOne computes the row for one frame.
	AnalyzeOne(num int, img imgio.Gray) ([]float64, error)
	// Independent reports whether rows depend only on their own frame.
	// Only independent analyzers may run in parallel.
	Independent() bool
	// Metadata returns the analysis parameters for the provenance
	// sidecar.
	Metadata() results.Metadata
}

// Runner drives an Analyzer over a frame selection.
type Runner struct {
	Src imgio.FrameSource
	Log *slog.Logger
	// Workers enables parallel frame processing for independent
	// analyzers; <= 1 means sequential.
	Workers int
	// Progress, if set, is called after each completed frame.
	Progress func(done, total int)
}

// Run executes the analysis over nums and returns the accumulated
// table. Frame read failures and analyzer errors abort the run; the
// table holds whatever was accumulated before the failure.
func (r *Runner) Run(ctx context.Context, a Analyzer, nums []int) (*results.Table, error) {
	if err := a.Init(r.Src); err != nil {
		return nil, err
	}
	table := results.NewTable(a.Columns())

	if a.Independent() && r.Workers > 1 {
		return table, r.runParallel(ctx, a, nums, table)
	}
	return table, r.runSequential(ctx, a, nums, table)
}

func (r *Runner) runSequential(ctx context.Context, a Analyzer, nums []int, table *results.Table) error {
	for i, num := range nums {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := r.Src.Read(num)
		if err != nil {
			return err
		}
		row, err := a.AnalyzeOne(num, img)
		if err != nil {
			return err
		}
		if err := table.SetRow(num, row); err != nil {
			return err
		}
		if r.Progress != nil {
			r.Progress(i+1, len(nums))
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, a Analyzer, nums []int, table *results.Table) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		num int
		row []float64
		err error
	}

	jobs := make(chan int)
	outcomes := make(chan outcome, len(nums))
	var wg sync.WaitGroup

	for w := 0; w < r.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for num := range jobs {
				if ctx.Err() != nil {
					outcomes <- outcome{num: num, err: ctx.Err()}
					continue
				}
				img, err := r.Src.Read(num)
				if err != nil {
					outcomes <- outcome{num: num, err: err}
					continue
				}
				row, err := a.AnalyzeOne(num, img)
				outcomes <- outcome{num: num, row: row, err: err}
			}
		}()
	}

	go func() {
		for _, num := range nums {
			jobs <- num
		}
		close(jobs)
	}()

	rows := make(map[int][]float64, len(nums))
	var firstErr error
	done := 0
	for range nums {
		out := <-outcomes
		done++
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
				cancel()
			}
			continue
		}
		rows[out.num] = out.row
		if r.Progress != nil && firstErr == nil {
			r.Progress(done, len(nums))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	// Fill the table in frame order so the index stays sorted.
	for _, num := range nums {
		if err := table.SetRow(num, rows[num]); err != nil {
			return err
		}
	}
	return nil
}
