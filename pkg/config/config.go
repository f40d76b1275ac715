package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string `yaml:"addr"`
	UploadBase  string `yaml:"upload_base"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	// ConversionTTL is how long an uploaded session may wait for apply before cleanup.
	ConversionTTL time.Duration `yaml:"conversion_ttl"`
	OCR           OCRConfig     `yaml:"ocr"`
	Parser        ParserConfig  `yaml:"parser"`
}

type OCRConfig struct {
	// AutocontrastCutoff is the percentage of outlier pixels ignored on each end.
	AutocontrastCutoff float64 `yaml:"autocontrast_cutoff"`
}

type ParserConfig struct {
	LeagueKeywords []string `yaml:"league_keywords"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Addr:          ":8081",
		UploadBase:    "uploads",
		MaxUploadMB:   10,
		ConversionTTL: 24 * time.Hour,
	}
}

// Load reads a YAML config on top of the defaults. An empty path skips the file.
// Environment variables UPLOAD_BASE, ADDR and MAX_UPLOAD_MB override the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		cfg.UploadBase = v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		cfg.MaxUploadMB = n
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.ConversionTTL <= 0 {
		cfg.ConversionTTL = 24 * time.Hour
	}
	return cfg, nil
}

// MaxUploadBytes is the per-file upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}
