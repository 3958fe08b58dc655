package results

import (
	"encoding/json"
	"os"
	"time"
)

// Metadata is the provenance sidecar saved next to each results table:
// analysis parameters, transform parameters, series paths, timing. It
// is a free-form document so each analysis can add what it needs.
type Metadata map[string]any

// NewMetadata starts a metadata document stamped with the current
// time.
func NewMetadata(analysis string) Metadata {
	return Metadata{
		"analysis": analysis,
		"date":     time.Now().Format(time.RFC3339),
	}
}

// SaveJSON writes the metadata as indented JSON.
func (m Metadata) SaveJSON(path string) error {
	raw, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0644)
}

// LoadMetadata reads a metadata document from a JSON file.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
