// Package config loads glimpse settings from YAML with strict field
// checking, so typos fail loudly instead of silently using defaults.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MatchConfig holds default tolerances for pixel matching. Both values are
// fractions in [0, 1]; zero means exact matching.
type MatchConfig struct {
	// ColorTolerance is the default per-pixel color tolerance.
	ColorTolerance float64 `yaml:"color_tolerance"`
	// MaxMismatch is the default fraction of feature pixels allowed to
	// miss before a placement is rejected.
	MaxMismatch float64 `yaml:"max_mismatch"`
}

// PointerConfig shapes planned pointer paths.
type PointerConfig struct {
	// StepMs is the pacing interval between path steps.
	StepMs int `yaml:"step_ms"`
	// MinOvershootDistance is the travel distance, in pixels, above which
	// paths overshoot the target and correct back.
	MinOvershootDistance int `yaml:"min_overshoot_distance"`
	// MaxOvershootFactor caps the overshoot offset relative to the
	// travel distance.
	MaxOvershootFactor float64 `yaml:"max_overshoot_factor"`
	// MaxArcFactor caps the curve's control-point offset relative to the
	// travel distance.
	MaxArcFactor float64 `yaml:"max_arc_factor"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel    string        `yaml:"log_level"`
	RasterLimit int           `yaml:"raster_limit"`
	Display     string        `yaml:"display,omitempty"`
	XAuthority  string        `yaml:"xauthority,omitempty"`
	Match       MatchConfig   `yaml:"match"`
	Pointer     PointerConfig `yaml:"pointer"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		RasterLimit: 20,
		Match:       MatchConfig{},
		Pointer: PointerConfig{
			StepMs:               10,
			MinOvershootDistance: 50,
			MaxOvershootFactor:   0.1,
			MaxArcFactor:         0.1,
		},
	}
}

// ValidationError reports an invalid configuration value by its YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfigPath returns the standard config location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "glimpse", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from path. A missing file yields the
// defaults; any present file must parse strictly and validate.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.RasterLimit < 1 {
		return &ValidationError{Path: "raster_limit", Err: fmt.Errorf("raster_limit must be >= 1")}
	}
	if c.Match.ColorTolerance < 0 || c.Match.ColorTolerance > 1 {
		return &ValidationError{Path: "match.color_tolerance", Err: fmt.Errorf("color_tolerance must be between 0 and 1")}
	}
	if c.Match.MaxMismatch < 0 || c.Match.MaxMismatch > 1 {
		return &ValidationError{Path: "match.max_mismatch", Err: fmt.Errorf("max_mismatch must be between 0 and 1")}
	}
	if c.Pointer.StepMs < 1 {
		return &ValidationError{Path: "pointer.step_ms", Err: fmt.Errorf("step_ms must be >= 1")}
	}
	if c.Pointer.MinOvershootDistance < 0 {
		return &ValidationError{Path: "pointer.min_overshoot_distance", Err: fmt.Errorf("min_overshoot_distance must be >= 0")}
	}
	if c.Pointer.MaxOvershootFactor < 0 || c.Pointer.MaxOvershootFactor > 1 {
		return &ValidationError{Path: "pointer.max_overshoot_factor", Err: fmt.Errorf("max_overshoot_factor must be between 0 and 1")}
	}
	if c.Pointer.MaxArcFactor < 0 || c.Pointer.MaxArcFactor > 1 {
		return &ValidationError{Path: "pointer.max_arc_factor", Err: fmt.Errorf("max_arc_factor must be between 0 and 1")}
	}
	return nil
}

// SlogLevel maps the configured log level onto slog's scale.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ApplyX11Env exports the configured DISPLAY and XAUTHORITY when the process
// was launched without them, so captures work from sessions that lack GUI
// environment (systemd units, MCP hosts).
func (c *Config) ApplyX11Env() {
	if c.Display != "" && os.Getenv("DISPLAY") == "" {
		os.Setenv("DISPLAY", c.Display)
	}
	if c.XAuthority != "" && os.Getenv("XAUTHORITY") == "" {
		os.Setenv("XAUTHORITY", c.XAuthority)
	}
}
