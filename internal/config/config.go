// Package config loads eventc settings from an optional YAML file and then
// applies EVENTC_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all eventc settings.
type Config struct {
	LogLevel  string `yaml:"log_level" env:"EVENTC_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"EVENTC_LOG_FORMAT"`

	// Workers bounds concurrent script compiles.
	Workers int `yaml:"workers" env:"EVENTC_WORKERS"`
	// Cache is the SQLite cache path; empty disables caching.
	Cache string `yaml:"cache" env:"EVENTC_CACHE"`
	// Comments keeps comments and blank lines in compiled output.
	Comments bool `yaml:"comments" env:"EVENTC_COMMENTS"`

	Telemetry Telemetry `yaml:"telemetry"`
}

// Telemetry configures OpenTelemetry tracing. Tracing is off unless
// Endpoint is set.
type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"EVENTC_OTEL_ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"EVENTC_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"EVENTC_OTEL_SERVICE_NAME"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   4,
		Comments:  true,
		Telemetry: Telemetry{
			Enabled:     true,
			ServiceName: "eventc",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", path, err)
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ParseEnv applies environment overrides to target. Unset variables leave
// fields untouched.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Validate checks the settings for consistency.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	if !oneOf(cfg.LogLevel, validLevels) {
		return fmt.Errorf("invalid log_level %q: must be one of %s", cfg.LogLevel, strings.Join(validLevels, ", "))
	}
	if !oneOf(cfg.LogFormat, validFormats) {
		return fmt.Errorf("invalid log_format %q: must be one of %s", cfg.LogFormat, strings.Join(validFormats, ", "))
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("invalid workers %d: must be at least 1", cfg.Workers)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint != "" && cfg.Telemetry.ServiceName == "" {
		return errors.New("telemetry.service_name is required when tracing is enabled")
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
