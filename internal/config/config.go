// Package config persists Slack-Pack run configuration (algorithm
// parameters and storage backend choice) to a JSON file under the
// user's home directory. Grounded on
// piwi3910-cnc-calculator/internal/project/appconfig.go's
// DefaultConfigDir/SaveAppConfig/LoadAppConfig pattern.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names the box storage variant a run should use.
type Backend string

const (
	BackendMemory      Backend = "memory"
	BackendSQL         Backend = "sql"
	BackendPartitioned Backend = "partitioned"
)

// RunConfig captures everything needed to reproduce a Slack-Pack run:
// the algorithm parameters from spec.md's Engine configuration plus
// which storage backend and cache sizing to use.
type RunConfig struct {
	Gamma             float64 `json:"gamma"`
	N0                int     `json:"n0"`
	MaxPlaced         int     `json:"max_placed"`
	Backend           Backend `json:"backend"`
	CacheSize         int     `json:"cache_size"`
	BoxesPerPartition int     `json:"boxes_per_partition"`
	UpdatePlacements  bool    `json:"update_placements"`
	DatabasePath      string  `json:"database_path,omitempty"`
}

// Default returns the configuration the CLI falls back to when no
// config file exists yet.
func Default() RunConfig {
	return RunConfig{
		Gamma:             4.0 / 3.0,
		N0:                1,
		MaxPlaced:         1000,
		Backend:           BackendMemory,
		CacheSize:         1_000_000,
		BoxesPerPartition: 1_000_000,
		UpdatePlacements:  true,
	}
}

// DefaultDir returns ~/.slackpack, creating nothing itself.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".slackpack")
}

// DefaultPath returns ~/.slackpack/config.json.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json")
}

// Save writes cfg to path as indented JSON, creating parent
// directories as needed.
func Save(path string, cfg RunConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Load reads a RunConfig from path, returning Default() with no error
// when the file does not yet exist.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return RunConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
