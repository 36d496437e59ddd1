package project

import (
	"fmt"
	"path/filepath"

	"github.com/AndreyAkinshin/cargotest/internal/config"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
)

// Project is a Cargo workspace with its loaded configuration.
type Project struct {
	Root     string
	Config   *config.Config
	Warnings []string
	// Env holds the KEY=VALUE entries added to cargo processes.
	Env []string
}

// LoadProject finds and loads a project from the current directory.
func LoadProject() (*Project, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads a project from a specified root directory. A missing
// .cargotest.yaml yields the default configuration.
func LoadProjectFrom(root string) (*Project, error) {
	return LoadProjectWithConfig(root, "")
}

// LoadProjectWithConfig loads a project using the configuration file at
// configPath instead of the one at the root. An empty path means the root's.
func LoadProjectWithConfig(root, configPath string) (*Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = filepath.Join(root, config.FileName)
	} else if !fileExists(configPath) {
		return nil, errors.Configf("config file %s not found", configPath)
	}

	cfg, warnings, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	env, err := cfg.ProcessEnv(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	return &Project{
		Root:     root,
		Config:   cfg,
		Warnings: warnings,
		Env:      env,
	}, nil
}

// ConfigPath returns the full path to the project configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, config.FileName)
}
