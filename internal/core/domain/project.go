package domain

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// ReleaseProfile selects how an extension build is flavored.
type ReleaseProfile string

const (
	// ProfileRelease is the default distributable build.
	ProfileRelease ReleaseProfile = "release"
	// ProfileDev additionally vendors the project's dev dependencies.
	ProfileDev ReleaseProfile = "dev"
)

// ParseReleaseProfile validates a profile name from config or CLI.
func ParseReleaseProfile(s string) (ReleaseProfile, error) {
	switch ReleaseProfile(s) {
	case ProfileRelease, ProfileDev:
		return ReleaseProfile(s), nil
	}
	return "", zerr.With(zerr.New("unknown release profile"), "profile", s)
}

// Project is the fully loaded extension project: manifest metadata,
// declared dependencies, and the requested target matrix. Built once
// per invocation by the config loader.
type Project struct {
	ID         string
	Name       string
	Version    string
	Tagline    string
	Maintainer string
	License    []string
	Website    string

	Permissions []string
	Tags        []string

	Deps    []DependencySpec
	DevDeps []DependencySpec

	// BlenderVersions holds the requested Blender releases ("4.2",
	// "4.5.1"); resolved against the reference table at startup.
	BlenderVersions []string
	Platforms       []PlatformTag

	// MinGlibc/MinMacOS override the per-release default OS minimums.
	MinGlibc *OSVersion
	MinMacOS *OSVersion

	Source Source
}

// DepsFor returns the dependency specs active under the profile.
func (p *Project) DepsFor(profile ReleaseProfile) []DependencySpec {
	if profile != ProfileDev {
		return p.Deps
	}
	deps := make([]DependencySpec, 0, len(p.Deps)+len(p.DevDeps))
	deps = append(deps, p.Deps...)
	deps = append(deps, p.DevDeps...)
	return deps
}

// SourceKind discriminates project source variants.
type SourceKind string

const (
	// SourceDir is a directory-based project with a pyproject.toml.
	SourceDir SourceKind = "path"
	// SourceScript is a single-file extension with inline metadata.
	SourceScript SourceKind = "script"
)

// ProjectFiles is the located set of files to pack, relative to Root.
type ProjectFiles struct {
	Root  string
	Files []string // sorted, slash-separated relative paths
}

// Source locates the files of a project variant. Resolved once at
// startup; implementations are immutable values.
type Source interface {
	Kind() SourceKind
	Locate() (ProjectFiles, error)
}

// DirSource is a project rooted at a directory tree.
type DirSource struct {
	Root string
	// Pkg restricts packing to one package subdirectory when set.
	Pkg string
}

// Kind returns SourceDir.
func (s DirSource) Kind() SourceKind { return SourceDir }

// Locate walks the source tree and returns every packable file,
// skipping caches, hidden entries and previously built artifacts.
func (s DirSource) Locate() (ProjectFiles, error) {
	root := s.Root
	if s.Pkg != "" {
		root = filepath.Join(root, s.Pkg)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "__pycache__" || name == "dist") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".pyc") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return ProjectFiles{}, zerr.With(zerr.Wrap(err, "failed to walk project source"), "root", root)
	}
	sort.Strings(files)
	return ProjectFiles{Root: root, Files: files}, nil
}

// ScriptSource is a single-file extension script carrying PEP 723
// inline metadata.
type ScriptSource struct {
	Path string
}

// Kind returns SourceScript.
func (s ScriptSource) Kind() SourceKind { return SourceScript }

// Locate returns the script as the sole file, renamed to __init__.py
// by the assembler at pack time.
func (s ScriptSource) Locate() (ProjectFiles, error) {
	return ProjectFiles{
		Root:  filepath.Dir(s.Path),
		Files: []string{filepath.Base(s.Path)},
	}, nil
}
