package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/config"
	"go.trai.ch/bext/internal/core/domain"
)

const sampleScript = `# /// script
# requires-python = "==3.11"
# dependencies = [
#     "numpy>=1.24",
# ]
#
# [project]
# name = "minimal_script"
# version = "0.1.0"
# description = "A one-file extension"
# authors = [{ name = "John Doe", email = "jdoe@example.com" }]
# license = { text = "AGPL-3.0-or-later" }
#
# [tool.bext]
# pretty_name = "Minimal Script"
# blender_versions = ["4.2"]
# supported_platforms = ["linux-x64", "windows-x64"]
# ///

import bpy
`

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minimal_script.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadScript(t *testing.T) {
	path := writeScript(t, sampleScript)

	project, err := config.NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal_script", project.ID)
	assert.Equal(t, "Minimal Script", project.Name)
	assert.Equal(t, "0.1.0", project.Version)

	require.Len(t, project.Deps, 1)
	assert.Equal(t, "numpy", project.Deps[0].Name)
	assert.Equal(t, ">=1.24", project.Deps[0].Constraint)

	src, ok := project.Source.(domain.ScriptSource)
	require.True(t, ok)
	assert.Equal(t, path, src.Path)

	files, err := src.Locate()
	require.NoError(t, err)
	assert.Equal(t, []string{"minimal_script.py"}, files.Files)
}

func TestLoader_LoadScriptWithoutBlock(t *testing.T) {
	path := writeScript(t, "import bpy\n")

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
}

func TestLoader_LoadScriptUnterminatedBlock(t *testing.T) {
	path := writeScript(t, "# /// script\n# dependencies = []\nimport bpy\n")

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
}

func TestLoader_LoadRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
}
