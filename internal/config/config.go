// Package config loads user-editable settings from a JSON file,
// falling back to defaults when no file exists.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const (
	defaultConfigPath = "~/.config/imgtrack/config.json"
	defaultParallel   = 4
	defaultCacheSize  = 256
)

// Config holds user-editable settings.
type Config struct {
	Processing Processing `json:"processing"`
	Logging    Logging    `json:"logging"`
	Paths      Paths      `json:"paths"`
	Series     Series     `json:"series"`
	Server     Server     `json:"server"`
}

// Processing captures execution preferences.
type Processing struct {
	ParallelJobs int `json:"parallel_jobs"`
	CacheSize    int `json:"cache_size"` // decoded frames kept in memory
}

// Logging controls verbosity and output format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Paths configures default locations.
type Paths struct {
	DefaultSavePath string `json:"default_save_path"`
	DatabasePath    string `json:"database_path"`
}

// Series configures how image series are discovered.
type Series struct {
	Extension string `json:"extension"`
}

// Server configures the progress/results HTTP surface.
type Server struct {
	Port int `json:"port"`
}

// Load reads configuration from disk, falling back to sensible
// defaults. The path comes from IMGTRACK_CONFIG or the default
// location; a missing file is not an error.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("IMGTRACK_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Processing: Processing{
			ParallelJobs: defaultParallel,
			CacheSize:    defaultCacheSize,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Paths: Paths{
			DefaultSavePath: ".",
			DatabasePath:    filepath.Join(os.TempDir(), "imgtrack.db"),
		},
		Series: Series{
			Extension: ".png",
		},
		Server: Server{
			Port: 8650,
		},
	}
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
