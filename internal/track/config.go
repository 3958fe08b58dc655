package track

import (
	"encoding/json"
	"fmt"
	"os"

	"imgtrack/internal/contour"
)

// Object is one tracked contour: a stable name and the reference
// measurement anchoring the search on the next frame.
type Object struct {
	Name      string             `json:"name"`
	Reference contour.Properties `json:"reference"`
}

// Config is the output contract of the reference-selection step,
// loaded from persisted metadata: the detection level, the ordered set
// of tracked objects with their initial reference measurements, and
// the matching tolerances. The object set is fixed for a whole session.
type Config struct {
	Level     float64           `json:"level"`
	Image     int               `json:"image"` // frame the references were defined on
	Objects   []Object          `json:"objects"`
	Tolerance contour.Tolerance `json:"tolerances"`
}

// LoadConfig reads a serialized Config from a JSON file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load contour config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse contour config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the Config as indented JSON.
func SaveConfig(cfg Config, path string) error {
	raw, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0644)
}
