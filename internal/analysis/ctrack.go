package analysis

import (
	"log/slog"

	"imgtrack/internal/imgio"
	"imgtrack/internal/results"
	"imgtrack/internal/track"
)

// Tracking adapts a contour tracking session to the Analyzer
// interface. It is the one flavor whose rows depend on previous frames
// (reference carry-forward), so it never runs in parallel.
type Tracking struct {
	cfg     track.Config
	log     *slog.Logger
	session *track.Session
	shapes  results.ShapeStore
}

// NewTracking builds the analyzer from a loaded reference
// configuration.
func NewTracking(cfg track.Config, log *slog.Logger) *Tracking {
	return &Tracking{cfg: cfg, log: log}
}

func (t *Tracking) Name() string      { return "ctrack" }
func (t *Tracking) Independent() bool { return false }

func (t *Tracking) Init(src imgio.FrameSource) error {
	if len(t.cfg.Objects) == 0 {
		return track.ErrNotConfigured
	}
	t.session = track.NewSession(src, t.cfg, t.log)
	names := make([]string, len(t.cfg.Objects))
	for i, obj := range t.cfg.Objects {
		names[i] = obj.Name
	}
	t.shapes = results.NewShapeStore(names)
	return nil
}

func (t *Tracking) Columns() []string {
	cols := make([]string, 0, 4*len(t.cfg.Objects))
	for _, obj := range t.cfg.Objects {
		cols = append(cols, obj.Name+"_x", obj.Name+"_y", obj.Name+"_p", obj.Name+"_a")
	}
	return cols
}

func (t *Tracking) AnalyzeOne(num int, img imgio.Gray) ([]float64, error) {
	rec, err := t.session.StepChecked(num, img)
	if err != nil {
		return nil, err
	}
	row := make([]float64, 0, 4*len(rec.Objects))
	for i, obj := range rec.Objects {
		row = append(row, obj.X, obj.Y, obj.Perimeter, obj.Area)
		if obj.Found {
			t.shapes.Put(t.cfg.Objects[i].Name, num, results.Shape{X: obj.Shape.X, Y: obj.Shape.Y})
		}
	}
	return row, nil
}

// Shapes returns the raw coordinates of every matched contour,
// populated during the run.
func (t *Tracking) Shapes() results.ShapeStore { return t.shapes }

// Session exposes the underlying tracking session (reference state,
// for inspection after a run).
func (t *Tracking) Session() *track.Session { return t.session }

func (t *Tracking) Metadata() results.Metadata {
	m := results.NewMetadata(t.Name())
	m["level"] = t.cfg.Level
	m["image"] = t.cfg.Image
	m["objects"] = t.cfg.Objects
	m["tolerances"] = t.cfg.Tolerance
	return m
}
