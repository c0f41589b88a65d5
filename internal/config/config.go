package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LayoutConfig tunes the proportional scale of the rendered week grid.
type LayoutConfig struct {
	// PixelsPerHour is the vertical scale of uncompressed time ranges.
	PixelsPerHour float64 `yaml:"pixels_per_hour" json:"pixels_per_hour"`
	// GapHeight is the fixed rendered height of a collapsed idle gap.
	GapHeight float64 `yaml:"gap_height" json:"gap_height"`
	// MinEventHeight keeps very short events legible.
	MinEventHeight float64 `yaml:"min_event_height" json:"min_event_height"`
	// CollapseMinutes is the minimum idle stretch that collapses.
	CollapseMinutes int `yaml:"collapse_minutes" json:"collapse_minutes"`
	// DefaultStartHour/DefaultEndHour bound the visible window when the
	// collection is empty.
	DefaultStartHour int `yaml:"default_start_hour" json:"default_start_hour"`
	DefaultEndHour   int `yaml:"default_end_hour" json:"default_end_hour"`
}

// CaptureConfig controls the headless-browser screenshot used for the
// preview image and PDF export.
type CaptureConfig struct {
	Width          int `yaml:"width" json:"width"`
	Height         int `yaml:"height" json:"height"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// PDFConfig controls the exported page setup.
type PDFConfig struct {
	// Orientation is "P" (portrait) or "L" (landscape).
	Orientation string `yaml:"orientation" json:"orientation"`
	// PageSize is a gofpdf size name such as "A4" or "Letter".
	PageSize string `yaml:"page_size" json:"page_size"`
	// MarginMM is the page margin in millimeters.
	MarginMM float64 `yaml:"margin_mm" json:"margin_mm"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the grid page and API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// refreshing the preview capture in serve mode. Empty disables it.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Layout  LayoutConfig  `yaml:"layout" json:"layout"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`
	PDF     PDFConfig     `yaml:"pdf" json:"pdf"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		LogLevel:    "info",
		RefreshCron: "*/15 * * * *",
		Layout: LayoutConfig{
			PixelsPerHour:    60,
			GapHeight:        24,
			MinEventHeight:   18,
			CollapseMinutes:  60,
			DefaultStartHour: 6,
			DefaultEndHour:   23,
		},
		Capture: CaptureConfig{
			Width:          1280,
			Height:         1600,
			TimeoutSeconds: 30,
		},
		PDF: PDFConfig{
			Orientation: "L",
			PageSize:    "A4",
			MarginMM:    6,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	if c.Layout.PixelsPerHour <= 0 {
		c.Layout.PixelsPerHour = def.Layout.PixelsPerHour
	}
	if c.Layout.GapHeight <= 0 {
		c.Layout.GapHeight = def.Layout.GapHeight
	}
	if c.Layout.MinEventHeight <= 0 {
		c.Layout.MinEventHeight = def.Layout.MinEventHeight
	}
	if c.Layout.CollapseMinutes <= 0 {
		c.Layout.CollapseMinutes = def.Layout.CollapseMinutes
	}
	if c.Layout.DefaultEndHour <= c.Layout.DefaultStartHour {
		c.Layout.DefaultStartHour = def.Layout.DefaultStartHour
		c.Layout.DefaultEndHour = def.Layout.DefaultEndHour
	}

	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = def.Capture.TimeoutSeconds
	}

	switch c.PDF.Orientation {
	case "P", "L":
	default:
		c.PDF.Orientation = def.PDF.Orientation
	}
	if c.PDF.PageSize == "" {
		c.PDF.PageSize = def.PDF.PageSize
	}
	if c.PDF.MarginMM <= 0 {
		c.PDF.MarginMM = def.PDF.MarginMM
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - A .env file in the working directory, if present, is loaded first
//     so that WEEKGRID_* variables can override file values.
//   - If the file does not exist, a default config is written there
//     (0600) and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			applyEnv(cfg)
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	applyEnv(&cfg)

	return &cfg, nil
}

// applyEnv overlays WEEKGRID_* environment variables onto cfg. Only the
// operational knobs are exposed this way; layout tuning stays in YAML.
func applyEnv(cfg *Config) {
	if v := os.Getenv("WEEKGRID_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("WEEKGRID_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WEEKGRID_REFRESH"); v != "" {
		cfg.RefreshCron = v
	}
	if v := os.Getenv("WEEKGRID_CAPTURE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Capture.TimeoutSeconds = n
		}
	}
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
