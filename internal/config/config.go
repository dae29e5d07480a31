// Package config loads the tunables an index build or CLI invocation runs
// with, grounded on GoStore's internal/config: an env-var-overridable home
// directory, a defaults struct literal, and an optional YAML file that
// overrides individual fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"btreeidx/internal/page"
)

// Config holds everything an Index build needs beyond the index file path
// itself: page geometry, buffer pool sizing, and logging verbosity.
type Config struct {
	// Home is the directory Load creates if missing and looks for
	// config.yaml in when no config path is given.
	Home string `yaml:"home"`

	// PageSize overrides the default page size (btreeidx/internal/page.Size).
	// Smaller values shrink node fan-out; values above page.Size are rejected.
	PageSize int `yaml:"page_size"`

	// BufferPoolPages caps the number of resident frames in the buffer
	// manager's frame table.
	BufferPoolPages int `yaml:"buffer_pool_pages"`

	// SecondChanceBytes bounds the ristretto second-chance cache's cost
	// budget for evicted clean pages.
	SecondChanceBytes int64 `yaml:"second_chance_bytes"`

	// LogLevel is one of logrus's level names ("debug", "info", "warn", ...).
	// It is loaded but not applied: idxtool sets the logger's level from
	// its --log-level flag only.
	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from configOverride if it exists, layered over
// defaults. homeOverride, if non-empty, wins over BTREEIDX_HOME and the
// user's home directory when computing Home.
func Load(homeOverride, configOverride string) (*Config, error) {
	home := homeOverride
	if home == "" {
		home = os.Getenv("BTREEIDX_HOME")
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, ".local", "share", "btreeidx")
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("config: create home %s: %w", home, err)
	}

	cfg := &Config{
		Home:              home,
		PageSize:          4096,
		BufferPoolPages:   256,
		SecondChanceBytes: 4 << 20,
		LogLevel:          "info",
	}

	cfgPath := configOverride
	if cfgPath == "" {
		cfgPath = filepath.Join(home, "config.yaml")
	}
	if f, err := os.Open(cfgPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", cfgPath, err)
		}
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("config: page_size must be positive, got %d", cfg.PageSize)
	}
	if cfg.PageSize > page.Size {
		return nil, fmt.Errorf("config: page_size %d exceeds the fixed page buffer size %d; only smaller values, for shrinking fan-out in test fixtures, are supported", cfg.PageSize, page.Size)
	}
	if cfg.BufferPoolPages <= 0 {
		return nil, fmt.Errorf("config: buffer_pool_pages must be positive, got %d", cfg.BufferPoolPages)
	}

	return cfg, nil
}
