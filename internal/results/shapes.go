package results

import (
	"encoding/json"
	"os"
	"strconv"
)

// Shape is the raw coordinate data of one matched contour.
type Shape struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// ShapeStore keeps the full coordinates of every matched contour,
// keyed by object name then frame num, for later geometry export.
// Frame keys are strings so the in-memory form matches the JSON form
// exactly and reloaded data is interchangeable with live data.
type ShapeStore map[string]map[string]Shape

// NewShapeStore prepares empty per-object maps for the given object
// names.
func NewShapeStore(names []string) ShapeStore {
	s := make(ShapeStore, len(names))
	for _, name := range names {
		s[name] = make(map[string]Shape)
	}
	return s
}

// Put records the shape of object name on frame num. Unmatched frames
// are simply absent from the store.
func (s ShapeStore) Put(name string, num int, shape Shape) {
	frames, ok := s[name]
	if !ok {
		frames = make(map[string]Shape)
		s[name] = frames
	}
	frames[strconv.Itoa(num)] = shape
}

// Get returns the shape of object name on frame num.
func (s ShapeStore) Get(name string, num int) (Shape, bool) {
	shape, ok := s[name][strconv.Itoa(num)]
	return shape, ok
}

// SaveJSON writes the store to a JSON file.
func (s ShapeStore) SaveJSON(path string) error {
	raw, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0644)
}

// LoadShapes reads a store previously written by SaveJSON.
func LoadShapes(path string) (ShapeStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s ShapeStore
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}
