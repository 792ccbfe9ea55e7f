// Package config loads the autosort settings file. The extension rule set
// lives in its own JSON file managed by the rules package; this package
// covers everything else a session needs: watched directories, debounce
// tuning, fallback routing, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all daemon and CLI settings.
type Config struct {
	DataDir string `toml:"data_dir"`

	// WatchDirs are tracked when `track` or `start` is invoked without
	// explicit directories.
	WatchDirs []string `toml:"watch_dirs"`
	Recursive bool     `toml:"recursive"`

	// FallbackDir receives files whose extension has no rule. Empty means
	// such files are skipped.
	FallbackDir string `toml:"fallback_dir"`

	// DatedSubdirs routes moves into <dest>/<year>/<month>.
	DatedSubdirs bool `toml:"dated_subdirs"`

	DebounceMS     int      `toml:"debounce_ms"`
	StopTimeoutSec int      `toml:"stop_timeout_sec"`
	IgnorePatterns []string `toml:"ignore_patterns"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`
}

// DefaultDataDir returns ~/.autosort, falling back to the working directory
// when the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".autosort")
}

// Default returns a Config with usable defaults.
func Default() *Config {
	return &Config{
		DataDir:        DefaultDataDir(),
		DebounceMS:     500,
		StopTimeoutSec: 10,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Path returns the default settings file location.
func Path() string {
	return filepath.Join(DefaultDataDir(), "config.toml")
}

// Load reads the TOML settings at path over the defaults. A missing file is
// fine; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.DebounceMS <= 0 {
		cfg.DebounceMS = 500
	}
	if cfg.StopTimeoutSec <= 0 {
		cfg.StopTimeoutSec = 10
	}
	return cfg, nil
}

// Save writes the settings back as TOML, creating the data dir if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}

// RulesPath returns the extension rule file location.
func (c *Config) RulesPath() string {
	return filepath.Join(c.DataDir, "rules.json")
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.DataDir, "autosort.sock")
}

// DBPath returns the move journal location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "autosort.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "autosort.lock")
}

// DebounceWindow returns the debounce quiet window as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// StopTimeout returns the bounded shutdown join as a duration.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSec) * time.Second
}
