// Package config loads the optional YAML file holding default probe settings.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tcpping/tcpping/attempt"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config represents the defaults a user can keep in a file instead of
// repeating flags. Command line flags always win over these values.
type Config struct {
	Interval  float64 `yaml:"interval"` // seconds
	Timeout   float64 `yaml:"timeout"`  // seconds
	Count     uint    `yaml:"count"`
	BoundIf   string  `yaml:"boundif"`
	Payload   *string `yaml:"payload"`
	IPv4      bool    `yaml:"ipv4"`
	IPv6      bool    `yaml:"ipv6"`
	NoColor   bool    `yaml:"no_color"`
	Timestamp bool    `yaml:"timestamp"`
	LogFile   string  `yaml:"log_file"`
}

// DefaultConfig returns the built-in defaults used when no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		Interval: 1,
		Timeout:  4,
	}
}

// Load reads configuration from the yaml file at path. An empty path returns
// the defaults. Keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects values no flag would accept either.
func (c Config) Validate() error {
	switch {
	case !attempt.ValidSeconds(c.Interval):
		return fmt.Errorf("%w: interval must be between 0 and %.0f seconds", ErrInvalidConfig, attempt.MaxSeconds)
	case !attempt.ValidSeconds(c.Timeout):
		return fmt.Errorf("%w: timeout must be between 0 and %.0f seconds", ErrInvalidConfig, attempt.MaxSeconds)
	case c.IPv4 && c.IPv6:
		return fmt.Errorf("%w: ipv4 and ipv6 are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}
