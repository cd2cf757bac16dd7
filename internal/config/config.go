// Package config loads relay settings from defaults, an optional YAML file,
// and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Geun-Oh/splitbuf/internal/sink"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultCapacity is the buffer size used when none is configured.
const DefaultCapacity = 64 * 1024

// Config holds the relay settings.
type Config struct {
	Capacity    int      `yaml:"capacity"`
	Mmap        bool     `yaml:"mmap"`
	Format      string   `yaml:"format"`
	Output      string   `yaml:"output"`
	Color       bool     `yaml:"color"`
	Follow      bool     `yaml:"follow"`
	Grep        []string `yaml:"grep"`
	Regex       string   `yaml:"regex"`
	Grok        string   `yaml:"grok"`
	Exclude     []string `yaml:"exclude"`
	RateLimit   float64  `yaml:"rate_limit"`
	Stats       bool     `yaml:"stats"`
	MetricsAddr string   `yaml:"metrics_addr"`
	LogLevel    string   `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Capacity: DefaultCapacity,
		Format:   string(sink.FormatText),
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the relay cannot run with.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative, got %g", ErrInvalidConfig, c.RateLimit)
	}
	if _, err := sink.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ParseLevel converts a level name to a slog level. Case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
