package ports

import "go.trai.ch/bext/internal/core/domain"

// ProjectLoader loads the extension project declaration from a
// pyproject.toml tree or a single script with inline metadata.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ProjectLoader interface {
	// Load reads the project rooted at path (a directory or a .py
	// file) and returns the parsed project.
	Load(path string) (*domain.Project, error)
}

// ReferenceData exposes the embedded per-Blender-version table of
// bundled packages and runtime constraints.
type ReferenceData interface {
	// Releases returns every known Blender release, oldest first.
	Releases() []domain.BlenderVersion

	// Release resolves a version request like "4.2" or "4.2.1" to the
	// newest matching known release.
	Release(version string) (domain.BlenderVersion, error)
}
