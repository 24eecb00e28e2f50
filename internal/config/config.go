package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// ProgressInterval is how many nodes are processed between progress lines.
	ProgressInterval int `json:"progress_interval"`

	// DBDir is the storage sub-directory of a repository, relative to the
	// repository root. It holds one file per table.
	DBDir string `json:"db_dir,omitempty"`

	// BusyTimeoutMS is passed to sqlite as busy_timeout for every table.
	BusyTimeoutMS int `json:"busy_timeout_ms,omitempty"`

	// Verbose enables debug logging. DEBUG=1 in the environment does the same.
	Verbose bool `json:"verbose,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProgressInterval: 10000,
		DBDir:            "db",
		BusyTimeoutMS:    5000,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.textwipe.
func Load(baseDir string) (*Config, error) {
	return LoadFile(filepath.Join(baseDir, "config.json"))
}

// LoadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func LoadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars when set.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if positive / non-empty, else base
	result.ProgressInterval = overlay.ProgressInterval
	if result.ProgressInterval <= 0 {
		result.ProgressInterval = base.ProgressInterval
	}

	result.DBDir = overlay.DBDir
	if result.DBDir == "" {
		result.DBDir = base.DBDir
	}

	result.BusyTimeoutMS = overlay.BusyTimeoutMS
	if result.BusyTimeoutMS <= 0 {
		result.BusyTimeoutMS = base.BusyTimeoutMS
	}

	// Booleans: overlay wins if true, else base
	result.Verbose = base.Verbose || overlay.Verbose

	return result
}
