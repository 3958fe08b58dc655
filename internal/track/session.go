// Package track implements the contour tracking session: the
// sequential frame loop that extracts candidate contours, matches each
// tracked object against them, and carries reference positions forward
// frame to frame.
package track

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pkg/errors"

	"imgtrack/internal/contour"
	"imgtrack/internal/imgio"
)

// State of a session. A session moves Idle -> Running -> Finished and
// cannot be reused after finishing.
type State int

const (
	Idle State = iota
	Running
	Finished
)

// ErrNotConfigured is returned by Run before any frame is processed
// when the session has no tracked objects.
var ErrNotConfigured = errors.New("no reference contours configured")

// ObjectRecord is the per-object outcome of one frame. When no
// candidate survived matching, Found is false and the measurements are
// NaN; the object's reference is left at its last known good value.
type ObjectRecord struct {
	X         float64
	Y         float64
	Perimeter float64
	Area      float64
	Found     bool
	Shape     contour.Contour
}

// FrameRecord is the outcome of one processed frame, one entry per
// tracked object in configuration order. Records are immutable once
// emitted.
type FrameRecord struct {
	Num     int
	Objects []ObjectRecord
}

// Session tracks a fixed set of objects across a frame sequence. The
// per-object reference properties are the only state carried between
// frames; they are owned exclusively by the session loop.
type Session struct {
	src imgio.FrameSource
	cfg Config
	log *slog.Logger

	state     State
	refs      []contour.Properties
	levelOnce sync.Once
	levelErr  error
}

// NewSession builds an Idle session from a frame source and a loaded
// reference configuration.
func NewSession(src imgio.FrameSource, cfg Config, log *slog.Logger) *Session {
	refs := make([]contour.Properties, len(cfg.Objects))
	for i, obj := range cfg.Objects {
		refs[i] = obj.Reference
	}
	return &Session{src: src, cfg: cfg, log: log, refs: refs}
}

// References returns a copy of the current per-object reference
// properties (the matched measurement of the last frame with a match).
func (s *Session) References() []contour.Properties {
	out := make([]contour.Properties, len(s.refs))
	copy(out, s.refs)
	return out
}

// State returns the session state.
func (s *Session) State() State { return s.state }

// Run processes the given frame ids in order and returns one record
// per frame. Frame ids need not be contiguous, only increasing.
//
// A frame read failure aborts the whole run and returns the records
// accumulated so far alongside the error; an object not being found on
// a frame is not an error and shows up as NaN values in its record.
// Cancellation is honored at frame boundaries only.
func (s *Session) Run(ctx context.Context, nums []int, progress func(done, total int)) ([]FrameRecord, error) {
	if err := s.start(); err != nil {
		return nil, err
	}
	defer func() { s.state = Finished }()

	records := make([]FrameRecord, 0, len(nums))
	for i, num := range nums {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		img, err := s.src.Read(num)
		if err != nil {
			return records, errors.Wrapf(err, "read frame %d", num)
		}
		if err := s.checkLevel(img); err != nil {
			return records, err
		}
		records = append(records, s.Step(num, img))
		if progress != nil {
			progress(i+1, len(nums))
		}
	}
	return records, nil
}

// RunTwoPass produces the same records as Run but extracts and
// measures candidate contours for all frames in parallel first, then
// runs the sequential matching pass over the per-frame candidate sets.
// The matching recurrence (reference carry-forward) is preserved
// because only the frame-independent extraction stage is parallel.
func (s *Session) RunTwoPass(ctx context.Context, nums []int, workers int, progress func(done, total int)) ([]FrameRecord, error) {
	if err := s.start(); err != nil {
		return nil, err
	}
	defer func() { s.state = Finished }()

	if workers < 1 {
		workers = 1
	}

	type extracted struct {
		candidates []contour.Measured
		err        error
	}
	results := make([]extracted, len(nums))

	// Pass 1: parallel extraction.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				img, err := s.src.Read(nums[i])
				if err != nil {
					results[i] = extracted{err: errors.Wrapf(err, "read frame %d", nums[i])}
					continue
				}
				if err := s.checkLevel(img); err != nil {
					results[i] = extracted{err: err}
					continue
				}
				cands := contour.MeasureAll(contour.Extract(img, s.cfg.Level))
				results[i] = extracted{candidates: cands}
			}
		}()
	}
	for i := range nums {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Pass 2: sequential matching fold.
	records := make([]FrameRecord, 0, len(nums))
	for i, num := range nums {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if results[i].err != nil {
			return records, results[i].err
		}
		records = append(records, s.matchStep(num, results[i].candidates))
		if progress != nil {
			progress(i+1, len(nums))
		}
	}
	return records, nil
}

// StepChecked is Step preceded by the one-time level validation done
// against the first frame's pixel range. External drivers that feed
// frames one at a time (the analysis runner) use this instead of Run.
func (s *Session) StepChecked(num int, img imgio.Gray) (FrameRecord, error) {
	if err := s.checkLevel(img); err != nil {
		return FrameRecord{}, err
	}
	return s.Step(num, img), nil
}

// Step processes a single already-read frame: extract candidates once,
// match every tracked object independently against the full candidate
// set, update references from successful matches. Exported so the
// analysis runner can drive the session frame by frame.
func (s *Session) Step(num int, img imgio.Gray) FrameRecord {
	candidates := contour.MeasureAll(contour.Extract(img, s.cfg.Level))
	return s.matchStep(num, candidates)
}

func (s *Session) matchStep(num int, candidates []contour.Measured) FrameRecord {
	degenerate := 0
	for _, cand := range candidates {
		if cand.Degenerate() {
			degenerate++
		}
	}
	if degenerate > 0 {
		s.log.Warn("degenerate contours among candidates",
			"frame", num, "count", degenerate, "total", len(candidates))
	}

	rec := FrameRecord{Num: num, Objects: make([]ObjectRecord, len(s.refs))}
	for i := range s.refs {
		// Objects are matched independently; two objects may select
		// the same candidate when geometry is ambiguous.
		idx, ok := contour.Match(candidates, s.refs[i], s.cfg.Tolerance)
		if !ok {
			rec.Objects[i] = ObjectRecord{
				X:         math.NaN(),
				Y:         math.NaN(),
				Perimeter: math.NaN(),
				Area:      math.NaN(),
			}
			s.log.Debug("object lost on frame",
				"frame", num, "object", s.cfg.Objects[i].Name)
			continue
		}
		matched := candidates[idx]
		s.refs[i] = matched.Props
		rec.Objects[i] = ObjectRecord{
			X:         matched.Props.Centroid.X,
			Y:         matched.Props.Centroid.Y,
			Perimeter: matched.Props.Perimeter,
			Area:      matched.Props.Area,
			Found:     true,
			Shape:     matched.Contour,
		}
	}
	return rec
}

func (s *Session) start() error {
	if len(s.cfg.Objects) == 0 {
		return ErrNotConfigured
	}
	if s.state == Finished {
		return errors.New("session already finished")
	}
	s.state = Running
	return nil
}

// checkLevel validates the configured level against the representable
// intensity range of the frames, once, on the first frame read. A level
// outside the range would otherwise produce all-NaN rows for the whole
// run without any signal.
func (s *Session) checkLevel(img imgio.Gray) error {
	s.levelOnce.Do(func() {
		if s.cfg.Level < 0 || s.cfg.Level > img.MaxVal {
			s.levelErr = errors.Errorf("level %g outside representable range [0, %g]", s.cfg.Level, img.MaxVal)
		}
	})
	return s.levelErr
}
