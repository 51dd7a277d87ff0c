// Package config loads the server's YAML configuration.
//
// Every field has a default, so a missing file or a partial file is fine:
// keys absent from the file keep their default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by FromEnv.
const (
	EnvConfigPath = "WHITESPACE_MCP_CONFIG"
	EnvLogLevel   = "WHITESPACE_MCP_LOG_LEVEL"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full server configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Search    SearchConfig    `yaml:"search"`
	Highlight HighlightConfig `yaml:"highlight"`
	Placement PlacementConfig `yaml:"placement"`
	Batch     BatchConfig     `yaml:"batch"`
	OCR       OCRConfig       `yaml:"ocr"`
}

// SearchConfig holds defaults for whitespace searches. Tool arguments
// override them per call.
type SearchConfig struct {
	MinWidth      int `yaml:"min_width"`
	MinHeight     int `yaml:"min_height"`
	MaxResults    int `yaml:"max_results"`
	MaxIterations int `yaml:"max_iterations"`
	// Threshold is the binarization level. 0 selects Otsu's method.
	Threshold int `yaml:"threshold"`
}

// HighlightConfig controls the overlay drawn by whitespace_highlight.
type HighlightConfig struct {
	Color   string  `yaml:"color"`
	Opacity float64 `yaml:"opacity"`
}

// PlacementConfig controls QR code placement.
type PlacementConfig struct {
	Margin   int `yaml:"margin"`
	QRModule int `yaml:"qr_module"`
}

// BatchConfig controls whitespace_find_batch.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// OCRConfig controls Tesseract word extraction.
type OCRConfig struct {
	Language      string  `yaml:"language"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Search: SearchConfig{
			MinWidth:      20,
			MinHeight:     20,
			MaxResults:    10,
			MaxIterations: 100000,
		},
		Highlight: HighlightConfig{
			Color:   "#1E90FF",
			Opacity: 0.35,
		},
		Placement: PlacementConfig{
			Margin:   4,
			QRModule: 4,
		},
		Batch: BatchConfig{Workers: 4},
		OCR: OCRConfig{
			Language:      "eng",
			MinConfidence: 0.5,
		},
	}
}

// Load reads the configuration at path. If the file does not exist it
// returns Default with no error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads the file named by WHITESPACE_MCP_CONFIG, or the defaults if
// it is unset, then applies WHITESPACE_MCP_LOG_LEVEL on top.
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Validate checks every field and reports the first problem found.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "info", "debug":
	default:
		return invalid("log_level must be info or debug, got %q", c.LogLevel)
	}

	s := c.Search
	if s.MinWidth < 1 || s.MinHeight < 1 {
		return invalid("search.min_width and search.min_height must be at least 1")
	}
	if s.MaxResults < 0 {
		return invalid("search.max_results must not be negative")
	}
	if s.MaxIterations < 1 {
		return invalid("search.max_iterations must be at least 1")
	}
	if s.Threshold < 0 || s.Threshold > 255 {
		return invalid("search.threshold must be within 0..255, got %d", s.Threshold)
	}

	if _, err := colorful.Hex(c.Highlight.Color); err != nil {
		return invalid("highlight.color %q is not a hex colour", c.Highlight.Color)
	}
	if c.Highlight.Opacity < 0 || c.Highlight.Opacity > 1 {
		return invalid("highlight.opacity must be within 0..1")
	}

	if c.Placement.Margin < 0 {
		return invalid("placement.margin must not be negative")
	}
	if c.Placement.QRModule < 1 {
		return invalid("placement.qr_module must be at least 1")
	}
	if c.Batch.Workers < 1 {
		return invalid("batch.workers must be at least 1")
	}
	if c.OCR.Language == "" {
		return invalid("ocr.language must not be empty")
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return invalid("ocr.min_confidence must be within 0..1")
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
