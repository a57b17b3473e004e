// Package archive packs per-platform Blender extension archives.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/zerr"
)

// Assembler implements ports.Assembler: it writes the manifest, packs
// source files and vendored wheels into a zip, and records the build
// so unchanged inputs skip the repack.
type Assembler struct {
	store ports.BuildInfoStore
	log   ports.Logger
}

// NewAssembler creates an assembler backed by the given build info store.
func NewAssembler(store ports.BuildInfoStore, log ports.Logger) *Assembler {
	return &Assembler{store: store, log: log}
}

// Assemble builds one per-platform archive and returns its path.
// Reports cached = true when the previous build is still valid.
func (a *Assembler) Assemble(ctx context.Context, req ports.AssemblyRequest) (string, bool, error) {
	files, err := req.Project.Source.Locate()
	if err != nil {
		return "", false, err
	}

	sourceHash, err := hashSourceTree(files)
	if err != nil {
		return "", false, err
	}

	outPath := filepath.Join(req.OutputDir, archiveName(req.Project, req.Resolution.Platform, req.Profile))
	buildID := domain.BuildID(req.Project.ID, req.Resolution.Blender.Version, req.Resolution.Platform, req.Profile)

	if prev, err := a.store.Get(buildID); err == nil && prev != nil {
		if prev.SourceHash == sourceHash && prev.ArchivePath == outPath && fileExists(outPath) {
			a.log.Info("archive up to date", "path", outPath)
			return outPath, true, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := a.pack(outPath, files, req); err != nil {
		return "", false, err
	}

	putErr := a.store.Put(domain.BuildInfo{
		BuildID:     buildID,
		SourceHash:  sourceHash,
		ArchivePath: outPath,
		Timestamp:   time.Now(),
	})
	if putErr != nil {
		// A failed record only costs one redundant repack next run.
		a.log.Warn("failed to record build info", "error", putErr)
	}

	return outPath, false, nil
}

func (a *Assembler) pack(outPath string, files domain.ProjectFiles, req ports.AssemblyRequest) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".bext-*.zip")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp archive")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	zw := zip.NewWriter(tmp)

	manifest, err := renderManifest(req.Project, req.Resolution)
	if err != nil {
		return err
	}
	if err := writeEntry(zw, manifestFilename, manifest); err != nil {
		return err
	}

	for _, rel := range files.Files {
		src := filepath.Join(files.Root, filepath.FromSlash(rel))
		dest := rel
		if req.Project.Source.Kind() == domain.SourceScript {
			dest = "__init__.py"
		}
		if err := copyEntry(zw, dest, src); err != nil {
			return err
		}
	}

	for _, pkg := range req.Resolution.Packages {
		src, ok := req.WheelPaths[pkg.Wheel.Hash]
		if !ok {
			missingErr := zerr.With(zerr.New("wheel missing from cache"), "package", pkg.Name)
			return zerr.With(missingErr, "wheel", pkg.Wheel.Filename)
		}
		if err := copyEntry(zw, "wheels/"+pkg.Wheel.Filename, src); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return zerr.Wrap(err, "failed to finalize archive")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush archive")
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return zerr.Wrap(err, "failed to move archive into place")
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create archive entry"), "entry", name)
	}
	if _, err := w.Write(data); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write archive entry"), "entry", name)
	}
	return nil
}

func copyEntry(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open archive input"), "path", src)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	w, err := zw.Create(name)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create archive entry"), "entry", name)
	}
	if _, err := io.Copy(w, f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to copy archive entry"), "entry", name)
	}
	return nil
}

// archiveName derives the per-platform zip filename. Dev builds are
// suffixed so they never overwrite a release artifact.
func archiveName(project *domain.Project, platform domain.PlatformTag, profile domain.ReleaseProfile) string {
	name := fmt.Sprintf("%s-%s-%s", project.ID, project.Version, platform.Key())
	if profile == domain.ProfileDev {
		name += "-dev"
	}
	return name + ".zip"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
