// Package refdata serves the embedded table of official Blender
// releases the resolver targets.
package refdata

import (
	_ "embed"
	"strings"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var rawTable []byte

type tableDTO struct {
	Releases []releaseDTO `yaml:"releases"`
}

type releaseDTO struct {
	Version       string            `yaml:"version"`
	PythonVersion string            `yaml:"python_version"`
	PyTag         string            `yaml:"py_tag"`
	MinGlibc      string            `yaml:"min_glibc"`
	MinMacOS      string            `yaml:"min_macos"`
	Platforms     []string          `yaml:"platforms"`
	Vendored      map[string]string `yaml:"vendored"`
}

// Table implements ports.ReferenceData from the embedded YAML table.
type Table struct {
	releases []domain.BlenderVersion
}

// New parses the embedded release table.
func New() (*Table, error) {
	var dto tableDTO
	if err := yaml.Unmarshal(rawTable, &dto); err != nil {
		return nil, zerr.Wrap(err, "failed to parse embedded release table")
	}

	releases := make([]domain.BlenderVersion, 0, len(dto.Releases))
	for _, r := range dto.Releases {
		release, err := r.toDomain()
		if err != nil {
			return nil, zerr.With(err, "release", r.Version)
		}
		releases = append(releases, release)
	}
	return &Table{releases: releases}, nil
}

func (r releaseDTO) toDomain() (domain.BlenderVersion, error) {
	minGlibc, err := domain.ParseOSVersion(r.MinGlibc)
	if err != nil {
		return domain.BlenderVersion{}, zerr.Wrap(err, "invalid min glibc version")
	}
	minMacOS, err := domain.ParseOSVersion(r.MinMacOS)
	if err != nil {
		return domain.BlenderVersion{}, zerr.Wrap(err, "invalid min macos version")
	}

	platforms := make([]domain.PlatformTag, 0, len(r.Platforms))
	for _, raw := range r.Platforms {
		tag, err := domain.ParsePlatformTag(raw)
		if err != nil {
			return domain.BlenderVersion{}, err
		}
		platforms = append(platforms, tag)
	}

	vendored := make(map[string]domain.ReferencePin, len(r.Vendored))
	for name, version := range r.Vendored {
		normalized := domain.NormalizeDistName(name)
		vendored[normalized] = domain.ReferencePin{
			Name:    normalized,
			Version: version,
		}
	}

	return domain.BlenderVersion{
		Version:       r.Version,
		PythonVersion: r.PythonVersion,
		PyTag:         r.PyTag,
		MinGlibc:      minGlibc,
		MinMacOS:      minMacOS,
		Platforms:     platforms,
		Vendored:      vendored,
	}, nil
}

// Releases returns every known release, oldest first.
func (t *Table) Releases() []domain.BlenderVersion {
	return t.releases
}

// Release resolves a version request to the newest known release that
// matches it. "4.2" matches any 4.2.x; "4.2.8" only itself.
func (t *Table) Release(version string) (domain.BlenderVersion, error) {
	for i := len(t.releases) - 1; i >= 0; i-- {
		release := t.releases[i]
		if release.Version == version || strings.HasPrefix(release.Version, version+".") {
			return release, nil
		}
	}
	return domain.BlenderVersion{}, zerr.With(zerr.New("unknown blender version"), "version", version)
}
