package config

import "time"

// Default values applied when neither the config file nor the
// environment provides a setting.
const (
	DefaultPort          = 8080
	DefaultMaxUploadSize = 100 * 1024 * 1024 // 100MB

	DefaultUploadDir = "uploads"
	DefaultOutputDir = "outputs"
	DefaultTempDir   = "temp"

	DefaultDeflection        = 0.1
	DefaultAngularDeflection = 0.5

	DefaultCleanupTTL      = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute

	DefaultJobPruneAge      = 24 * time.Hour
	DefaultJobPruneInterval = time.Hour
)

// ApplyDefaults fills in zero-valued fields across all configuration domains.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.MaxUploadSize <= 0 {
		cfg.Server.MaxUploadSize = DefaultMaxUploadSize
	}

	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = DefaultUploadDir
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = DefaultOutputDir
	}
	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = DefaultTempDir
	}

	if cfg.Geometry.DefaultDeflection <= 0 {
		cfg.Geometry.DefaultDeflection = DefaultDeflection
	}
	if cfg.Geometry.DefaultAngularDeflection <= 0 {
		cfg.Geometry.DefaultAngularDeflection = DefaultAngularDeflection
	}

	if cfg.Cleanup.TTL <= 0 {
		cfg.Cleanup.TTL = DefaultCleanupTTL
	}
	if cfg.Cleanup.Interval <= 0 {
		cfg.Cleanup.Interval = DefaultCleanupInterval
	}

	if cfg.Jobs.PruneAge == 0 {
		cfg.Jobs.PruneAge = DefaultJobPruneAge
	}
	if cfg.Jobs.PruneInterval <= 0 {
		cfg.Jobs.PruneInterval = DefaultJobPruneInterval
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
