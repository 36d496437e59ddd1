// Package project locates a Cargo workspace and loads its configuration.
package project

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/cargotest/internal/config"
)

// ManifestFileName is the name of a Cargo manifest.
const ManifestFileName = "Cargo.toml"

// ErrNoProjectRoot is returned when no Cargo.toml is found.
var ErrNoProjectRoot = errors.New("Cargo.toml not found: not a cargo project (or any parent up to the root)")

// FindRoot walks up from the current working directory to the workspace root.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from startDir and returns the first directory that
// holds .cargotest.yaml or a manifest with a [workspace] table. Without
// either, the nearest directory with a Cargo.toml is returned.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	nearest := ""
	for {
		if fileExists(filepath.Join(dir, config.FileName)) {
			return dir, nil
		}
		manifest := filepath.Join(dir, ManifestFileName)
		if fileExists(manifest) {
			if isWorkspaceManifest(manifest) {
				return dir, nil
			}
			if nearest == "" {
				nearest = dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			if nearest == "" {
				return "", ErrNoProjectRoot
			}
			return nearest, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// isWorkspaceManifest reports whether a manifest declares [workspace].
func isWorkspaceManifest(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "[workspace]" || strings.HasPrefix(line, "[workspace.") {
			return true
		}
	}
	return false
}
