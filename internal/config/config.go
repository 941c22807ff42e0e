// Package config loads and validates the service configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Geometry GeometryConfig `yaml:"geometry"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes
}

// StorageConfig represents upload/output directory configuration
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	OutputDir string `yaml:"output_dir"`
	TempDir   string `yaml:"temp_dir"`
}

// GeometryConfig controls tessellation defaults and kernel behavior
type GeometryConfig struct {
	DefaultDeflection        float64 `yaml:"default_deflection"`
	DefaultAngularDeflection float64 `yaml:"default_angular_deflection"`

	// AllowPlaceholder enables the degraded-mode placeholder fallback on
	// the synchronous service path when no geometry kernel is present.
	// Placeholder output is always tagged in mesh metadata.
	AllowPlaceholder bool `yaml:"allow_placeholder"`
}

// CleanupConfig represents the TTL file reaper configuration
type CleanupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
	Interval time.Duration `yaml:"interval"`
}

// JobsConfig represents the async job tracker configuration
type JobsConfig struct {
	// PruneAge is how long terminal job records are kept before the
	// daemon's prune schedule removes them. Negative disables pruning.
	PruneAge      time.Duration `yaml:"prune_age"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// MetricsConfig represents the Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads a configuration file, applies .env, environment overrides,
// defaults, and validation. A missing file is not an error: defaults
// plus environment are enough to run.
func Load(path string) (*Config, error) {
	// .env values never override the real process environment.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureDirectories creates the configured storage directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Storage.UploadDir, c.Storage.OutputDir, c.Storage.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReapedDirectories returns the directories swept by the file reaper.
func (c *Config) ReapedDirectories() []string {
	return []string{c.Storage.UploadDir, c.Storage.OutputDir, c.Storage.TempDir}
}
