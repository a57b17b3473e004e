package config

// pyproject mirrors the subset of pyproject.toml the loader consumes.
type pyproject struct {
	Project          projectTable        `toml:"project"`
	DependencyGroups map[string][]string `toml:"dependency-groups"`
	Tool             toolTable           `toml:"tool"`
}

// scriptMeta mirrors a PEP 723 inline metadata block. Dependencies
// live at the top level there instead of under [project].
type scriptMeta struct {
	RequiresPython string       `toml:"requires-python"`
	Dependencies   []string     `toml:"dependencies"`
	Project        projectTable `toml:"project"`
	Tool           toolTable    `toml:"tool"`
}

type projectTable struct {
	Name         string            `toml:"name"`
	Version      string            `toml:"version"`
	Description  string            `toml:"description"`
	Dependencies []string          `toml:"dependencies"`
	Authors      []person          `toml:"authors"`
	Maintainers  []person          `toml:"maintainers"`
	// License accepts both spellings pyproject allows: a bare SPDX
	// string or an inline table with a text key.
	License any               `toml:"license"`
	URLs    map[string]string `toml:"urls"`
}

type person struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// licenseText coerces the two license spellings to one string.
func licenseText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if text, ok := val["text"].(string); ok {
			return text
		}
	}
	return ""
}

type toolTable struct {
	Bext bextTable `toml:"bext"`
}

// bextTable is the [tool.bext] section.
type bextTable struct {
	PrettyName         string   `toml:"pretty_name"`
	BlenderVersions    []string `toml:"blender_versions"`
	SupportedPlatforms []string `toml:"supported_platforms"`
	Permissions        []string `toml:"permissions"`
	BLTags             []string `toml:"bl_tags"`
	Copyright          []string `toml:"copyright"`
	MinGlibcVersion    string   `toml:"min_glibc_version"`
	MinMacOSVersion    string   `toml:"min_macos_version"`
	Pkg                string   `toml:"pkg"`
}
