package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverLocal  = "local"
	DriverRemote = "remote"

	EngineChromedp = "chromedp"
	EngineRod      = "rod"

	DefaultDownloadsDir  = "tmp/downloads"
	DefaultHistoryPath   = "tmp/history.json"
	DefaultRemoteURL     = "http://127.0.0.1:4444/wd/hub"
	DefaultRemoteTimeout = 180 * time.Second
	DefaultGeckoDriver   = "geckodriver"
)

// Config holds all runtime configuration that is not a command-line flag.
type Config struct {
	// DownloadsDir receives one HTML file per successful fetch.
	DownloadsDir string `yaml:"downloads_dir"`

	// HistoryPath is the JSON file mapping URL to last fetch time.
	HistoryPath string `yaml:"history_path"`

	// IndexPath is an optional SQLite database recording every fetch attempt.
	// Empty disables the index.
	IndexPath string `yaml:"index_path"`

	// Progress shows a spinner while a page loads, on terminals only.
	Progress bool `yaml:"progress"`

	Driver DriverConfig `yaml:"driver"`
}

// DriverConfig controls how the browser-driver session is obtained.
type DriverConfig struct {
	// Mode is "local" (spawn a browser or driver process) or "remote"
	// (connect to a running WebDriver endpoint).
	Mode string `yaml:"mode"`

	// Engine picks the local Chrome automation library: "chromedp" or "rod".
	Engine string `yaml:"engine"`

	RemoteURL     string        `yaml:"remote_url"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`

	// ChromeBin overrides the Chrome binary for local sessions.
	ChromeBin string `yaml:"chrome_bin"`

	// GeckoDriver is the geckodriver executable used for local Firefox sessions.
	GeckoDriver string `yaml:"geckodriver"`
}

// ValidationError reports an unusable configuration value
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Kind() string { return "ConfigError" }

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DownloadsDir: DefaultDownloadsDir,
		HistoryPath:  DefaultHistoryPath,
		Progress:     true,
		Driver: DriverConfig{
			Mode:          DriverLocal,
			Engine:        EngineChromedp,
			RemoteURL:     DefaultRemoteURL,
			RemoteTimeout: DefaultRemoteTimeout,
			GeckoDriver:   DefaultGeckoDriver,
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// SIMPLEFETCH_CONFIG and SIMPLEFETCH_* environment variables, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("SIMPLEFETCH_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.DownloadsDir = envOr("SIMPLEFETCH_DOWNLOADS_DIR", c.DownloadsDir)
	c.HistoryPath = envOr("SIMPLEFETCH_HISTORY_PATH", c.HistoryPath)
	c.IndexPath = envOr("SIMPLEFETCH_INDEX_PATH", c.IndexPath)
	c.Progress = envBoolOr("SIMPLEFETCH_PROGRESS", c.Progress)

	c.Driver.Mode = envOr("SIMPLEFETCH_DRIVER", c.Driver.Mode)
	c.Driver.Engine = envOr("SIMPLEFETCH_ENGINE", c.Driver.Engine)
	c.Driver.RemoteURL = envOr("SIMPLEFETCH_REMOTE_URL", c.Driver.RemoteURL)
	c.Driver.RemoteTimeout = envDurationOr("SIMPLEFETCH_REMOTE_TIMEOUT", c.Driver.RemoteTimeout)
	c.Driver.ChromeBin = envOr("SIMPLEFETCH_CHROME_BIN", c.Driver.ChromeBin)
	c.Driver.GeckoDriver = envOr("SIMPLEFETCH_GECKODRIVER", c.Driver.GeckoDriver)
}

// Validate checks that every field holds a usable value
func (c *Config) Validate() error {
	if c.DownloadsDir == "" {
		return &ValidationError{Field: "downloads_dir", Reason: "is required"}
	}

	if c.HistoryPath == "" {
		return &ValidationError{Field: "history_path", Reason: "is required"}
	}

	switch c.Driver.Mode {
	case DriverLocal, DriverRemote:
	default:
		return &ValidationError{Field: "driver.mode", Reason: fmt.Sprintf("must be %q or %q, got %q", DriverLocal, DriverRemote, c.Driver.Mode)}
	}

	switch c.Driver.Engine {
	case EngineChromedp, EngineRod:
	default:
		return &ValidationError{Field: "driver.engine", Reason: fmt.Sprintf("must be %q or %q, got %q", EngineChromedp, EngineRod, c.Driver.Engine)}
	}

	if c.Driver.Mode == DriverRemote && c.Driver.RemoteURL == "" {
		return &ValidationError{Field: "driver.remote_url", Reason: "is required for remote sessions"}
	}

	if c.Driver.RemoteTimeout <= 0 {
		return &ValidationError{Field: "driver.remote_timeout", Reason: fmt.Sprintf("must be positive, got %v", c.Driver.RemoteTimeout)}
	}

	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDurationOr accepts Go durations ("90s") and bare seconds ("90").
func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
