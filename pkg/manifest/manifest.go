// Package manifest loads a project's Nitro.yml, per spec §6.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nitrolang/nitro/pkg/types"
)

// Binary describes one executable or library section of the manifest.
type Binary struct {
	Sources string `yaml:"sources"`
}

// Dependency names one external package this project's `use` paths reach,
// resolved through the registry cache (and, on a miss, the registry itself)
// before codegen, per SPEC_FULL.md §5.1/§5.2.
type Dependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Manifest is the decoded form of Nitro.yml.
type Manifest struct {
	Package struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"package"`
	Executable   *Binary      `yaml:"executable,omitempty"`
	Library      *Binary      `yaml:"library,omitempty"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// Load reads and validates Nitro.yml under dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "Nitro.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if _, err := types.NewPackageName(m.Package.Name); err != nil {
		return fmt.Errorf("package.name: %w", err)
	}
	if _, err := ParseVersion(m.Package.Version); err != nil {
		return fmt.Errorf("package.version: %w", err)
	}
	if m.Executable == nil && m.Library == nil {
		return fmt.Errorf("at least one of executable/library is required")
	}
	if m.Executable != nil && m.Executable.Sources == "" {
		return fmt.Errorf("executable.sources is required")
	}
	if m.Library != nil && m.Library.Sources == "" {
		return fmt.Errorf("library.sources is required")
	}
	for _, dep := range m.Dependencies {
		if _, err := types.NewPackageName(dep.Name); err != nil {
			return fmt.Errorf("dependencies: %q: %w", dep.Name, err)
		}
		if _, err := ParseVersion(dep.Version); err != nil {
			return fmt.Errorf("dependencies: %s: %w", dep.Name, err)
		}
	}
	return nil
}

// Meta returns the manifest's package identity as a types.PackageMeta.
func (m *Manifest) Meta() (types.PackageMeta, error) {
	name, err := types.NewPackageName(m.Package.Name)
	if err != nil {
		return types.PackageMeta{}, err
	}
	ver, err := ParseVersion(m.Package.Version)
	if err != nil {
		return types.PackageMeta{}, err
	}
	return types.PackageMeta{Name: name, Version: ver}, nil
}

// ParseVersion parses an "M.m.p" string into a types.PackageVersion.
func ParseVersion(s string) (types.PackageVersion, error) {
	var major, minor, patch uint16
	n, err := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &patch)
	if err != nil || n != 3 {
		return types.PackageVersion{}, fmt.Errorf("version %q must be of the form M.m.p", s)
	}
	return types.PackageVersion{Major: major, Minor: minor, Patch: patch}, nil
}
