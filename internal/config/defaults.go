package config

import "runtime"

// Default configuration values.
const (
	DefaultCargo          = "cargo"
	DefaultEnvFile        = ".env"
	DefaultMaxOutputBytes = 16 << 20
	DefaultLogLevel       = LogLevelWarn
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Cargo == "" {
		cfg.Cargo = DefaultCargo
	}
	if cfg.Parallel == 0 {
		cfg.Parallel = max(runtime.NumCPU(), MinParallel)
	}
	if cfg.MaxOutputBytes == 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	applyTestKindDefaults(cfg)
}

func applyTestKindDefaults(cfg *Config) {
	if cfg.LoadUnitTests == nil {
		cfg.LoadUnitTests = boolPtr(true)
	}
	if cfg.LoadIntegrationTests == nil {
		cfg.LoadIntegrationTests = boolPtr(true)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
