package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.RasterLimit != 20 {
		t.Fatalf("expected raster_limit 20, got %d", cfg.RasterLimit)
	}
	if cfg.Pointer.StepMs != 10 {
		t.Fatalf("expected step_ms 10, got %d", cfg.Pointer.StepMs)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", cfg.LogLevel)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pointer.MaxArcFactor != 0.1 {
		t.Fatalf("expected max_arc_factor 0.1, got %v", cfg.Pointer.MaxArcFactor)
	}
}

func TestLoadFromPath_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"log_level: debug",
		"raster_limit: 4",
		"match:",
		"  color_tolerance: 0.02",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level debug, got %q", cfg.LogLevel)
	}
	if cfg.RasterLimit != 4 {
		t.Fatalf("expected raster_limit 4, got %d", cfg.RasterLimit)
	}
	if cfg.Match.ColorTolerance != 0.02 {
		t.Fatalf("expected color_tolerance 0.02, got %v", cfg.Match.ColorTolerance)
	}
	// Untouched sections keep their defaults.
	if cfg.Pointer.MinOvershootDistance != 50 {
		t.Fatalf("expected min_overshoot_distance 50, got %d", cfg.Pointer.MinOvershootDistance)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"zero raster limit", func(c *Config) { c.RasterLimit = 0 }, "raster_limit"},
		{"tolerance above one", func(c *Config) { c.Match.ColorTolerance = 1.5 }, "match.color_tolerance"},
		{"negative mismatch", func(c *Config) { c.Match.MaxMismatch = -0.1 }, "match.max_mismatch"},
		{"zero step", func(c *Config) { c.Pointer.StepMs = 0 }, "pointer.step_ms"},
		{"overshoot factor above one", func(c *Config) { c.Pointer.MaxOvershootFactor = 2 }, "pointer.max_overshoot_factor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Path != tc.path {
				t.Fatalf("expected path %q, got %q", tc.path, verr.Path)
			}
		})
	}
}

func TestLoadFromPath_InvalidValueIncludesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("raster_limit: 0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for raster_limit 0")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError in chain, got %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range cases {
		cfg := Default()
		cfg.LogLevel = name
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestApplyX11Env(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("XAUTHORITY", "")
	os.Unsetenv("DISPLAY")
	os.Unsetenv("XAUTHORITY")

	cfg := Default()
	cfg.Display = ":9"
	cfg.XAuthority = "/tmp/xauth-test"
	cfg.ApplyX11Env()

	if got := os.Getenv("DISPLAY"); got != ":9" {
		t.Errorf("DISPLAY = %q, want %q", got, ":9")
	}
	if got := os.Getenv("XAUTHORITY"); got != "/tmp/xauth-test" {
		t.Errorf("XAUTHORITY = %q, want %q", got, "/tmp/xauth-test")
	}

	// A present value wins over the configured one.
	t.Setenv("DISPLAY", ":0")
	cfg.ApplyX11Env()
	if got := os.Getenv("DISPLAY"); got != ":0" {
		t.Errorf("DISPLAY = %q, want %q", got, ":0")
	}
}
