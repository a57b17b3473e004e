package archive

import (
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/zerr"
)

// manifestFilename is fixed by the Blender extension format.
const manifestFilename = "blender_manifest.toml"

// blenderManifest mirrors the 1.0.0 blender_manifest.toml schema.
type blenderManifest struct {
	SchemaVersion     string   `toml:"schema_version"`
	Type              string   `toml:"type"`
	ID                string   `toml:"id"`
	Name              string   `toml:"name"`
	Tagline           string   `toml:"tagline"`
	Version           string   `toml:"version"`
	BlenderVersionMin string   `toml:"blender_version_min"`
	Maintainer        string   `toml:"maintainer,omitempty"`
	Website           string   `toml:"website,omitempty"`
	License           []string `toml:"license,omitempty"`
	Platforms         []string `toml:"platforms"`
	Permissions       []string `toml:"permissions,omitempty"`
	Tags              []string `toml:"tags,omitempty"`
	Wheels            []string `toml:"wheels,omitempty"`
}

// renderManifest produces the blender_manifest.toml body for one
// per-platform build.
func renderManifest(project *domain.Project, resolution domain.Resolution) ([]byte, error) {
	wheels := make([]string, 0, len(resolution.Packages))
	for _, pkg := range resolution.Packages {
		wheels = append(wheels, "./wheels/"+pkg.Wheel.Filename)
	}

	manifest := blenderManifest{
		SchemaVersion:     "1.0.0",
		Type:              "add-on",
		ID:                project.ID,
		Name:              project.Name,
		Tagline:           project.Tagline,
		Version:           project.Version,
		BlenderVersionMin: minBlenderVersion(resolution.Blender.Version),
		Maintainer:        project.Maintainer,
		Website:           project.Website,
		License:           spdxLicenses(project.License),
		Platforms:         []string{resolution.Platform.Key()},
		Permissions:       project.Permissions,
		Tags:              project.Tags,
		Wheels:            wheels,
	}

	data, err := toml.Marshal(manifest)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to render blender manifest")
	}
	return data, nil
}

// minBlenderVersion maps a concrete release like "4.2.8" to the series
// floor "4.2.0" the manifest declares compatibility from.
func minBlenderVersion(release string) string {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return release
	}
	return parts[0] + "." + parts[1] + ".0"
}

// spdxLicenses prefixes raw license expressions the way the manifest
// schema expects.
func spdxLicenses(licenses []string) []string {
	out := make([]string, 0, len(licenses))
	for _, l := range licenses {
		if !strings.HasPrefix(l, "SPDX:") {
			l = "SPDX:" + l
		}
		out = append(out, l)
	}
	return out
}
