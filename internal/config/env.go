package config

import (
	"os"
	"strconv"
	"time"
)

// applyEnvOverrides applies MESHFORGE_* environment variables on top of
// the file-derived configuration. Environment always wins over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MESHFORGE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := envInt("MESHFORGE_PORT"); v > 0 {
		cfg.Server.Port = v
	}
	if v := envInt64("MESHFORGE_MAX_UPLOAD_SIZE"); v > 0 {
		cfg.Server.MaxUploadSize = v
	}

	if v := os.Getenv("MESHFORGE_UPLOAD_DIR"); v != "" {
		cfg.Storage.UploadDir = v
	}
	if v := os.Getenv("MESHFORGE_OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("MESHFORGE_TEMP_DIR"); v != "" {
		cfg.Storage.TempDir = v
	}

	if v := envFloat("MESHFORGE_DEFAULT_DEFLECTION"); v > 0 {
		cfg.Geometry.DefaultDeflection = v
	}
	if v := envFloat("MESHFORGE_DEFAULT_ANGULAR_DEFLECTION"); v > 0 {
		cfg.Geometry.DefaultAngularDeflection = v
	}
	if v := os.Getenv("MESHFORGE_ALLOW_PLACEHOLDER"); v != "" {
		cfg.Geometry.AllowPlaceholder = v == "true" || v == "1"
	}

	if v := os.Getenv("MESHFORGE_CLEANUP_ENABLED"); v != "" {
		cfg.Cleanup.Enabled = v == "true" || v == "1"
	}
	if v := envDuration("MESHFORGE_CLEANUP_TTL"); v > 0 {
		cfg.Cleanup.TTL = v
	}
	if v := envDuration("MESHFORGE_CLEANUP_INTERVAL"); v > 0 {
		cfg.Cleanup.Interval = v
	}

	if v := os.Getenv("MESHFORGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envInt64(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func envFloat(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func envDuration(key string) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
