// Package config loads turnwise configuration from YAML with defaults that
// work without any file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryConfig controls the SQLite run archive.
type HistoryConfig struct {
	// Enabled turns run archiving on
	Enabled bool `yaml:"enabled"`

	// DBPath overrides the database location; empty uses the turnwise home
	DBPath string `yaml:"db_path"`

	// Retention is how many runs to keep when pruning (0 = keep all)
	Retention int `yaml:"retention"`
}

// Config holds the turnwise runtime options.
type Config struct {
	// InputDir is the default results directory to analyze
	InputDir string `yaml:"input_dir"`

	// OutputDir is where tables, figures, and reports are written
	OutputDir string `yaml:"output_dir"`

	// LogLevel sets console verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// WatchDebounce is the settle delay for the watch command
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// History contains run-archive configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		InputDir:      "results",
		OutputDir:     "analysis",
		LogLevel:      "info",
		WatchDebounce: 500 * time.Millisecond,
		History: HistoryConfig{
			Enabled:   true,
			DBPath:    "",
			Retention: 50,
		},
	}
}

// LoadConfig loads configuration from path, merging over the defaults. A
// missing file returns the defaults without error; a malformed file is an
// error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings ("750ms"), so parse through a shadow
	// struct instead of unmarshalling directly.
	type yamlConfig struct {
		InputDir      string        `yaml:"input_dir"`
		OutputDir     string        `yaml:"output_dir"`
		LogLevel      string        `yaml:"log_level"`
		WatchDebounce string        `yaml:"watch_debounce"`
		History       HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.InputDir != "" {
		cfg.InputDir = yamlCfg.InputDir
	}
	if yamlCfg.OutputDir != "" {
		cfg.OutputDir = yamlCfg.OutputDir
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.WatchDebounce != "" {
		debounce, err := time.ParseDuration(yamlCfg.WatchDebounce)
		if err != nil {
			return nil, fmt.Errorf("invalid watch_debounce %q: %w", yamlCfg.WatchDebounce, err)
		}
		cfg.WatchDebounce = debounce
	}

	// The history section only overrides keys it actually carries, so a file
	// that sets retention alone keeps archiving enabled.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
			if _, exists := historyMap["retention"]; exists {
				cfg.History.Retention = yamlCfg.History.Retention
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .turnwise/config.yaml under the
// given directory, falling back to defaults when absent.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".turnwise", "config.yaml"))
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be >= 0, got %v", c.WatchDebounce)
	}
	if c.History.Retention < 0 {
		return fmt.Errorf("history.retention must be >= 0, got %d", c.History.Retention)
	}
	return nil
}

// HistoryDBPath resolves the history database location: an explicit db_path
// wins, otherwise the database lives under the turnwise home.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}
