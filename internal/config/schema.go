// Package config provides loading and validation of .cargotest.yaml.
package config

// Config represents the complete .cargotest.yaml configuration.
type Config struct {
	// Cargo is the cargo binary, "cargo" by default.
	Cargo string `yaml:"cargo,omitempty" json:"cargo,omitempty"`
	// CargoArgs are appended to every `cargo test`, e.g. ["--features", "x"].
	CargoArgs []string `yaml:"cargo_args,omitempty" json:"cargo_args,omitempty"`
	// TestArgs are passed to test binaries after `--` on runs.
	TestArgs []string `yaml:"test_args,omitempty" json:"test_args,omitempty"`
	// Env is added to the environment of cargo processes.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	// EnvFile is a dotenv file relative to the workspace root. Values in Env
	// take precedence over it.
	EnvFile string `yaml:"env_file,omitempty" json:"env_file,omitempty"`

	LoadUnitTests        *bool `yaml:"load_unit_tests,omitempty" json:"load_unit_tests,omitempty"`
	LoadIntegrationTests *bool `yaml:"load_integration_tests,omitempty" json:"load_integration_tests,omitempty"`

	// Parallel bounds concurrent cargo processes.
	Parallel int `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	// MaxOutputBytes caps the output captured from one cargo process.
	MaxOutputBytes int    `yaml:"max_output_bytes,omitempty" json:"max_output_bytes,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// UnitTests reports whether lib and bin targets are loaded.
func (c *Config) UnitTests() bool {
	return c.LoadUnitTests == nil || *c.LoadUnitTests
}

// IntegrationTests reports whether tests/ targets are loaded.
func (c *Config) IntegrationTests() bool {
	return c.LoadIntegrationTests == nil || *c.LoadIntegrationTests
}

// LogLevel values.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
