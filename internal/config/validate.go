package config

import (
	"fmt"
	"slices"
)

// Parallelism bounds.
const (
	MinParallel = 1
	MaxParallel = 256

	minMaxOutputBytes = 1 << 10
)

var logLevels = []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration for errors and returns warnings for
// non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if cfg.Parallel < MinParallel || cfg.Parallel > MaxParallel {
		return nil, &ValidationError{
			Field:   "parallel",
			Message: fmt.Sprintf("must be between %d and %d", MinParallel, MaxParallel),
		}
	}
	if cfg.MaxOutputBytes < minMaxOutputBytes {
		return nil, &ValidationError{
			Field:   "max_output_bytes",
			Message: fmt.Sprintf("must be at least %d", minMaxOutputBytes),
		}
	}
	if err := ValidateLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if err := validateArgs("cargo_args", cfg.CargoArgs); err != nil {
		return nil, err
	}

	if !cfg.UnitTests() && !cfg.IntegrationTests() {
		warnings = append(warnings, "both load_unit_tests and load_integration_tests are false; no tests will be loaded")
	}
	for _, arg := range cfg.TestArgs {
		if arg == "--exact" || arg == "--list" {
			warnings = append(warnings, fmt.Sprintf("test_args contains %q, which cargotest sets itself", arg))
		}
	}
	return warnings, nil
}

// ValidateLogLevel checks that level is one of debug, info, warn, error.
func ValidateLogLevel(level string) error {
	if !slices.Contains(logLevels, level) {
		return &ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of %v, got %q", logLevels, level),
		}
	}
	return nil
}

// validateArgs rejects "--", which would move cargo arguments into the
// test binary's arguments.
func validateArgs(field string, args []string) error {
	for i, arg := range args {
		if arg == "--" {
			return &ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: `must not contain "--"; use test_args for test binary arguments`,
			}
		}
	}
	return nil
}
