package config

import (
	"errors"
	"fmt"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateServer(); err != nil {
		return err
	}
	if err := cv.validateStorage(); err != nil {
		return err
	}
	if err := cv.validateGeometry(); err != nil {
		return err
	}
	if err := cv.validateCleanup(); err != nil {
		return err
	}
	return cv.validateLogging()
}

func (cv *configurationValidator) validateServer() error {
	if cv.config.Server.Port < 1 || cv.config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cv.config.Server.Port)
	}
	if cv.config.Server.MaxUploadSize <= 0 {
		return errors.New("max upload size must be positive")
	}
	return nil
}

func (cv *configurationValidator) validateStorage() error {
	dirs := map[string]string{
		"upload_dir": cv.config.Storage.UploadDir,
		"output_dir": cv.config.Storage.OutputDir,
		"temp_dir":   cv.config.Storage.TempDir,
	}
	seen := make(map[string]string)
	for name, dir := range dirs {
		if dir == "" {
			return fmt.Errorf("storage %s cannot be empty", name)
		}
		if other, dup := seen[dir]; dup {
			return fmt.Errorf("storage %s and %s must be distinct directories (both %q)", name, other, dir)
		}
		seen[dir] = name
	}
	return nil
}

func (cv *configurationValidator) validateGeometry() error {
	if cv.config.Geometry.DefaultDeflection <= 0 {
		return errors.New("default deflection must be positive")
	}
	if cv.config.Geometry.DefaultAngularDeflection <= 0 {
		return errors.New("default angular deflection must be positive")
	}
	return nil
}

func (cv *configurationValidator) validateCleanup() error {
	if !cv.config.Cleanup.Enabled {
		return nil
	}
	if cv.config.Cleanup.TTL <= 0 {
		return errors.New("cleanup TTL must be positive")
	}
	if cv.config.Cleanup.Interval <= 0 {
		return errors.New("cleanup interval must be positive")
	}
	if cv.config.Cleanup.Interval > cv.config.Cleanup.TTL {
		// A sweep interval longer than the TTL means files routinely
		// outlive their TTL by a full interval.
		return fmt.Errorf("cleanup interval (%s) must not exceed TTL (%s)",
			cv.config.Cleanup.Interval, cv.config.Cleanup.TTL)
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	switch cv.config.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level %q (expected debug, info, warn, or error)", cv.config.Logging.Level)
	}
}
