package config

import (
	"encoding/json"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/schema"
)

// FileName is the name of the configuration file at the workspace root.
const FileName = ".cargotest.yaml"

// Environment variables that override the configuration file.
const (
	EnvParallel = "CARGOTEST_PARALLEL"
	EnvLogLevel = "CARGOTEST_LOG_LEVEL"
	EnvCargo    = "CARGO"
)

// Load reads and parses a configuration file without defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configf("failed to read config file: %v", err)
	}
	cfg, _, err := parse(data)
	return cfg, err
}

// parse decodes YAML and reports unknown keys.
func parse(data []byte) (*Config, []string, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, errors.Configf("failed to parse config file: %v", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Configf("failed to parse config file: %v", err)
	}
	return &cfg, detectUnknownFields(raw), nil
}

// LoadAndValidate reads a config file, checks it against the schema,
// applies defaults and environment overrides, validates, and returns
// warnings. A missing file yields the defaults.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data = nil
	} else if err != nil {
		return nil, nil, errors.Configf("failed to read config file: %v", err)
	}
	return LoadData(data, os.LookupEnv)
}

// LoadData is LoadAndValidate over in-memory YAML and a custom environment.
func LoadData(data []byte, lookupEnv func(string) (string, bool)) (*Config, []string, error) {
	if err := validateSchema(data); err != nil {
		return nil, nil, err
	}
	cfg, warnings, err := parse(data)
	if err != nil {
		return nil, nil, err
	}

	envWarnings := applyEnv(cfg, lookupEnv)
	applyDefaults(cfg)

	validationWarnings, err := Validate(cfg)
	allWarnings := make([]string, 0, len(warnings)+len(envWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, warnings...)
	allWarnings = append(allWarnings, envWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)
	if err != nil {
		return nil, allWarnings, errors.Config(err.Error())
	}
	return cfg, allWarnings, nil
}

// validateSchema converts YAML to JSON and checks it against the embedded
// schema.
func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Configf("failed to parse config file: %v", err)
	}
	if doc == nil {
		return nil
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return errors.Configf("config file is not representable as JSON: %v", err)
	}
	if err := schema.ValidateConfig(jsonData); err != nil {
		return errors.Config(err.Error())
	}
	return nil
}

// applyEnv applies environment overrides. Invalid values are ignored with a
// warning.
func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) []string {
	var warnings []string
	if v, ok := lookupEnv(EnvParallel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < MinParallel || n > MaxParallel {
			warnings = append(warnings, "invalid "+EnvParallel+" value "+strconv.Quote(v)+", ignored")
		} else {
			cfg.Parallel = n
		}
	}
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		if ValidateLogLevel(v) != nil {
			warnings = append(warnings, "invalid "+EnvLogLevel+" value "+strconv.Quote(v)+", ignored")
		} else {
			cfg.LogLevel = v
		}
	}
	if v, ok := lookupEnv(EnvCargo); ok && v != "" && cfg.Cargo == "" {
		cfg.Cargo = v
	}
	return warnings
}
