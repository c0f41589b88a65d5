package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("unexpected default listen: %q", cfg.Listen)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 perms, got %o", perm)
	}
}

func TestLoad_NormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "listen: 0.0.0.0:9000\nlayout:\n  pixels_per_hour: 48\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Fatalf("explicit value lost: %q", cfg.Listen)
	}
	if cfg.Layout.PixelsPerHour != 48 {
		t.Fatalf("explicit layout value lost: %v", cfg.Layout.PixelsPerHour)
	}
	if cfg.Layout.CollapseMinutes != 60 {
		t.Fatalf("missing value not defaulted: %d", cfg.Layout.CollapseMinutes)
	}
	if cfg.Capture.Width != 1280 || cfg.PDF.Orientation != "L" {
		t.Fatalf("capture/pdf defaults missing: %+v %+v", cfg.Capture, cfg.PDF)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("WEEKGRID_LISTEN", "127.0.0.1:7777")
	t.Setenv("WEEKGRID_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Listen != "127.0.0.1:7777" {
		t.Fatalf("env override lost: %q", cfg.Listen)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("env override lost: %q", cfg.LogLevel)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:8123"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Listen != "127.0.0.1:8123" {
		t.Fatalf("round trip lost listen: %q", loaded.Listen)
	}
	if loaded.BasicAuth == nil || loaded.BasicAuth.Username != "u" {
		t.Fatalf("round trip lost basic auth: %+v", loaded.BasicAuth)
	}
}
