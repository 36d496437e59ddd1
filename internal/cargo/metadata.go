package cargo

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/cargotest/internal/errors"
)

// ManifestFileName is the name of a package manifest.
const ManifestFileName = "Cargo.toml"

// Metadata is the subset of `cargo metadata --format-version 1` we consume.
type Metadata struct {
	Packages      []*Package `json:"packages"`
	WorkspaceRoot string     `json:"workspace_root"`
}

// Package is one workspace member.
type Package struct {
	Name         string   `json:"name"`
	ManifestPath string   `json:"manifest_path"`
	Targets      []Target `json:"targets"`
}

// Target is a raw target descriptor as reported by cargo.
type Target struct {
	Name    string   `json:"name"`
	Kind    []string `json:"kind"`
	SrcPath string   `json:"src_path"`
}

// PrimaryKind returns the first kind, which is what cargo filters on.
func (t Target) PrimaryKind() string {
	if len(t.Kind) == 0 {
		return ""
	}
	return t.Kind[0]
}

// Dir returns the package root directory derived from the manifest path.
func (p *Package) Dir() string {
	if strings.HasSuffix(p.ManifestPath, ManifestFileName) {
		return filepath.Dir(p.ManifestPath)
	}
	return p.ManifestPath
}

// ParseMetadata decodes cargo metadata JSON.
func ParseMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, errors.Parse("unable to parse cargo metadata output", err)
	}
	return &md, nil
}
