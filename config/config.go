// Package config handles loading and managing application configuration
// from YAML files, an optional .env file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/armature-corp/qrchart/provider"
)

// Config holds all application configuration values.
type Config struct {
	Port               int      `yaml:"port"`
	DataDir            string   `yaml:"data_dir"`
	LogLevel           string   `yaml:"log_level"`
	Provider           string   `yaml:"provider"`
	ErrorCorrection    string   `yaml:"error_correction"`
	MarginRows         int      `yaml:"margin_rows"`
	BaseURL            string   `yaml:"base_url"`
	Timeout            Duration `yaml:"timeout"`
	PinnedFingerprints []string `yaml:"pinned_fingerprints"`
	History            bool     `yaml:"history"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		Port:            8556,
		DataDir:         filepath.Join(homeDir, ".qrchart"),
		LogLevel:        "info",
		Provider:        provider.NameGoogleCharts,
		ErrorCorrection: "L",
		MarginRows:      1,
		BaseURL:         provider.GoogleChartsBaseURL,
		Timeout:         Duration{30 * time.Second},
		History:         false,
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. A .env file in the working directory
// is loaded into the environment if present, then QRCHART_* variables
// override any file or default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies QRCHART_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRCHART_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRCHART_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRCHART_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QRCHART_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("QRCHART_LEVEL"); v != "" {
		cfg.ErrorCorrection = v
	}
	if v := os.Getenv("QRCHART_MARGIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MarginRows = n
		}
	}
	if v := os.Getenv("QRCHART_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("QRCHART_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = Duration{d}
		}
	}
	if v := os.Getenv("QRCHART_PINNED_FINGERPRINTS"); v != "" {
		var pins []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pins = append(pins, p)
			}
		}
		cfg.PinnedFingerprints = pins
	}
	if v := os.Getenv("QRCHART_HISTORY"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.History = true
		case "false", "0", "no":
			cfg.History = false
		}
	}
}

// Validate rejects values no provider could be built from.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Provider {
	case provider.NameGoogleCharts, provider.NameLocal:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if _, err := provider.ParseErrorCorrectionLevel(c.ErrorCorrection); err != nil {
		return err
	}
	if c.MarginRows < 0 {
		return fmt.Errorf("margin_rows must be >= 0, got %d", c.MarginRows)
	}
	return nil
}

// Level parses ErrorCorrection.
func (c *Config) Level() (provider.ErrorCorrectionLevel, error) {
	return provider.ParseErrorCorrectionLevel(c.ErrorCorrection)
}

// ProviderOptions translates the configuration into provider options.
func (c *Config) ProviderOptions() ([]provider.Option, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := []provider.Option{
		provider.WithErrorCorrectionLevel(level),
		provider.WithMarginRows(c.MarginRows),
		provider.WithTimeout(c.Timeout.Duration),
	}
	if c.BaseURL != "" {
		opts = append(opts, provider.WithBaseURL(c.BaseURL))
	}
	if len(c.PinnedFingerprints) > 0 {
		opts = append(opts, provider.WithCertPolicy(provider.PinnedFingerprints(c.PinnedFingerprints...)))
	}
	return opts, nil
}

// EnsureDataDir creates the DataDir if it does not already exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}
