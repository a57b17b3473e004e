// Package config loads extension projects from pyproject.toml trees
// and single-file scripts with inline metadata.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/zerr"
)

// Loader implements ports.ProjectLoader.
type Loader struct{}

// NewLoader creates a project loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the project at path. A directory loads its
// pyproject.toml; a .py file loads its inline script metadata.
func (l *Loader) Load(path string) (*domain.Project, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to stat project path")
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".py" {
			return nil, zerr.With(zerr.New("project must be a directory or a .py script"), "path", path)
		}
		return loadScript(path)
	}
	return loadDir(path)
}

func loadDir(dir string) (*domain.Project, error) {
	path := filepath.Join(dir, "pyproject.toml")
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read pyproject.toml")
	}

	var pp pyproject
	if err := toml.Unmarshal(data, &pp); err != nil {
		return nil, zerr.Wrap(err, "failed to parse pyproject.toml")
	}

	project, err := buildProject(pp.Project, pp.Tool.Bext, pp.Project.Dependencies, pp.DependencyGroups["dev"])
	if err != nil {
		return nil, err
	}
	project.Source = domain.DirSource{Root: dir, Pkg: pp.Tool.Bext.Pkg}
	return project, nil
}

func loadScript(path string) (*domain.Project, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read extension script")
	}

	block, err := extractScriptBlock(string(data))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	var meta scriptMeta
	if err := toml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, zerr.Wrap(err, "failed to parse inline script metadata")
	}

	project, err := buildProject(meta.Project, meta.Tool.Bext, meta.Dependencies, nil)
	if err != nil {
		return nil, err
	}
	project.Source = domain.ScriptSource{Path: path}
	return project, nil
}

// extractScriptBlock pulls the TOML body out of a PEP 723
// "# /// script" comment block.
func extractScriptBlock(src string) (string, error) {
	var (
		body    strings.Builder
		inBlock bool
	)
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		switch {
		case !inBlock && trimmed == "# /// script":
			inBlock = true
		case inBlock && trimmed == "# ///":
			return body.String(), nil
		case inBlock:
			content, ok := strings.CutPrefix(trimmed, "# ")
			if !ok {
				if trimmed != "#" {
					return "", zerr.New("malformed line inside script metadata block")
				}
				content = ""
			}
			body.WriteString(content)
			body.WriteByte('\n')
		}
	}
	if inBlock {
		return "", zerr.New("unterminated script metadata block")
	}
	return "", zerr.New("no script metadata block found")
}

func buildProject(proj projectTable, bext bextTable, deps, devDeps []string) (*domain.Project, error) {
	if proj.Name == "" {
		return nil, zerr.New("project.name is required")
	}
	if proj.Version == "" {
		return nil, zerr.New("project.version is required")
	}
	if len(bext.BlenderVersions) == 0 {
		return nil, zerr.New("tool.bext.blender_versions is required")
	}

	parsedDeps, err := parseRequirements(deps)
	if err != nil {
		return nil, err
	}
	parsedDevDeps, err := parseRequirements(devDeps)
	if err != nil {
		return nil, err
	}

	platforms := make([]domain.PlatformTag, 0, len(bext.SupportedPlatforms))
	for _, raw := range bext.SupportedPlatforms {
		tag, err := domain.ParsePlatformTag(raw)
		if err != nil {
			return nil, zerr.Wrap(err, "invalid supported platform")
		}
		platforms = append(platforms, tag)
	}

	name := bext.PrettyName
	if name == "" {
		name = proj.Name
	}

	project := &domain.Project{
		ID:          extensionID(proj.Name),
		Name:        name,
		Version:     proj.Version,
		Tagline:     strings.TrimSuffix(proj.Description, "."),
		Maintainer:  maintainer(proj),
		License:     licenses(proj.License),
		Website:     website(proj.URLs),
		Permissions: bext.Permissions,
		Tags:        bext.BLTags,

		Deps:    parsedDeps,
		DevDeps: parsedDevDeps,

		BlenderVersions: bext.BlenderVersions,
		Platforms:       platforms,
	}

	if bext.MinGlibcVersion != "" {
		v, err := domain.ParseOSVersion(bext.MinGlibcVersion)
		if err != nil {
			return nil, zerr.Wrap(err, "invalid min_glibc_version")
		}
		project.MinGlibc = &v
	}
	if bext.MinMacOSVersion != "" {
		v, err := domain.ParseOSVersion(bext.MinMacOSVersion)
		if err != nil {
			return nil, zerr.Wrap(err, "invalid min_macos_version")
		}
		project.MinMacOS = &v
	}

	return project, nil
}

func parseRequirements(raw []string) ([]domain.DependencySpec, error) {
	specs := make([]domain.DependencySpec, 0, len(raw))
	for _, r := range raw {
		spec, err := domain.ParseRequirement(r)
		if err != nil {
			return nil, zerr.Wrap(err, "invalid project dependency")
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// extensionID derives the Blender extension ID from the project name.
// Extension IDs must be valid Python identifiers.
func extensionID(name string) string {
	return strings.ReplaceAll(domain.NormalizeDistName(name), "-", "_")
}

func maintainer(proj projectTable) string {
	people := proj.Maintainers
	if len(people) == 0 {
		people = proj.Authors
	}
	if len(people) == 0 {
		return ""
	}
	p := people[0]
	if p.Email == "" {
		return p.Name
	}
	return p.Name + " <" + p.Email + ">"
}

func licenses(v any) []string {
	if text := licenseText(v); text != "" {
		return []string{text}
	}
	return nil
}

func website(urls map[string]string) string {
	for _, key := range []string{"Homepage", "homepage", "Repository", "repository"} {
		if url := urls[key]; url != "" {
			return url
		}
	}
	return ""
}
