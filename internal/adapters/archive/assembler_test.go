package archive_test

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/archive"
	"go.trai.ch/bext/internal/adapters/cas"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/bext/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) ports.Logger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func newStore(t *testing.T) ports.BuildInfoStore {
	t.Helper()
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "builds.json"))
	require.NoError(t, err)
	return store
}

func writeSourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "my_ext"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my_ext", "__init__.py"), []byte("import bpy\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my_ext", "ops.py"), []byte("pass\n"), 0o644))
	return dir
}

func testRequest(t *testing.T, sourceDir, outDir string) ports.AssemblyRequest {
	t.Helper()

	wheelPath := filepath.Join(t.TempDir(), "numpy-1.26.4-cp311-cp311-manylinux_2_28_x86_64.whl")
	require.NoError(t, os.WriteFile(wheelPath, []byte("wheel payload"), 0o644))

	platform, err := domain.ParsePlatformTag("linux-x64")
	require.NoError(t, err)

	wheel := domain.WheelDescriptor{
		Filename: "numpy-1.26.4-cp311-cp311-manylinux_2_28_x86_64.whl",
		Hash:     "sha256:0000000000000000000000000000000000000000000000000000000000000001",
		Size:     13,
	}

	return ports.AssemblyRequest{
		Project: &domain.Project{
			ID:          "my_ext",
			Name:        "My Extension",
			Version:     "0.1.0",
			Tagline:     "Does things",
			Maintainer:  "Jane Doe <jane@example.com>",
			License:     []string{"AGPL-3.0-or-later"},
			Permissions: []string{"files"},
			Source:      domain.DirSource{Root: sourceDir, Pkg: "my_ext"},
		},
		Resolution: domain.Resolution{
			Blender:  domain.BlenderVersion{Version: "4.2.8"},
			Platform: platform,
			Packages: []domain.ResolvedDependency{
				{Name: "numpy", Version: "1.26.4", Wheel: wheel},
			},
		},
		Profile:    domain.ProfileRelease,
		WheelPaths: map[string]string{wheel.Hash: wheelPath},
		OutputDir:  outDir,
	}
}

func readZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %q not found in %s", name, path)
	return ""
}

func zipEntryNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestAssembler_Assemble(t *testing.T) {
	sourceDir := writeSourceTree(t)
	outDir := t.TempDir()
	req := testRequest(t, sourceDir, outDir)

	asm := archive.NewAssembler(newStore(t), quietLogger(t))
	path, cached, err := asm.Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, filepath.Join(outDir, "my_ext-0.1.0-linux-x64.zip"), path)

	assert.ElementsMatch(t, []string{
		"blender_manifest.toml",
		"__init__.py",
		"ops.py",
		"wheels/numpy-1.26.4-cp311-cp311-manylinux_2_28_x86_64.whl",
	}, zipEntryNames(t, path))

	manifest := readZipEntry(t, path, "blender_manifest.toml")
	assert.Contains(t, manifest, `id = 'my_ext'`)
	assert.Contains(t, manifest, `schema_version = '1.0.0'`)
	assert.Contains(t, manifest, `blender_version_min = '4.2.0'`)
	assert.Contains(t, manifest, `'SPDX:AGPL-3.0-or-later'`)
	assert.Contains(t, manifest, `'./wheels/numpy-1.26.4-cp311-cp311-manylinux_2_28_x86_64.whl'`)
	assert.Contains(t, manifest, `'linux-x64'`)

	payload := readZipEntry(t, path, "wheels/numpy-1.26.4-cp311-cp311-manylinux_2_28_x86_64.whl")
	assert.Equal(t, "wheel payload", payload)
}

func TestAssembler_SkipsUnchangedBuild(t *testing.T) {
	sourceDir := writeSourceTree(t)
	outDir := t.TempDir()
	req := testRequest(t, sourceDir, outDir)

	store := newStore(t)
	asm := archive.NewAssembler(store, quietLogger(t))

	_, cached, err := asm.Assemble(context.Background(), req)
	require.NoError(t, err)
	require.False(t, cached)

	_, cached, err = asm.Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, cached)

	// Touching a source file invalidates the recorded build.
	err = os.WriteFile(filepath.Join(sourceDir, "my_ext", "ops.py"), []byte("changed\n"), 0o644)
	require.NoError(t, err)

	_, cached, err = asm.Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestAssembler_ScriptSourceBecomesInit(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "tool.py")
	require.NoError(t, os.WriteFile(scriptPath, []byte("import bpy\n"), 0o644))

	outDir := t.TempDir()
	req := testRequest(t, t.TempDir(), outDir)
	req.Project.Source = domain.ScriptSource{Path: scriptPath}

	asm := archive.NewAssembler(newStore(t), quietLogger(t))
	path, _, err := asm.Assemble(context.Background(), req)
	require.NoError(t, err)

	names := zipEntryNames(t, path)
	assert.Contains(t, names, "__init__.py")
	for _, name := range names {
		assert.False(t, strings.HasSuffix(name, "tool.py"), "script must be renamed")
	}
}

func TestAssembler_MissingWheelFails(t *testing.T) {
	sourceDir := writeSourceTree(t)
	req := testRequest(t, sourceDir, t.TempDir())
	req.WheelPaths = map[string]string{}

	asm := archive.NewAssembler(newStore(t), quietLogger(t))
	_, _, err := asm.Assemble(context.Background(), req)
	require.Error(t, err)
}

func TestAssembler_DevProfileSuffix(t *testing.T) {
	sourceDir := writeSourceTree(t)
	outDir := t.TempDir()
	req := testRequest(t, sourceDir, outDir)
	req.Profile = domain.ProfileDev

	asm := archive.NewAssembler(newStore(t), quietLogger(t))
	path, _, err := asm.Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "my_ext-0.1.0-linux-x64-dev.zip"), path)
}
