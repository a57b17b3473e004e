package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/zerr"
)

// hashSourceTree computes a single xxhash over the located project
// files. The file list is already sorted, so the digest is
// deterministic and changes when any file's path or content changes.
func hashSourceTree(files domain.ProjectFiles) (string, error) {
	hasher := xxhash.New()

	for _, rel := range files.Files {
		_, _ = hasher.WriteString(rel)
		_, _ = hasher.Write([]byte{0})

		sum, err := hashFile(filepath.Join(files.Root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		if err := binary.Write(hasher, binary.LittleEndian, sum); err != nil {
			return "", zerr.Wrap(err, "failed to write hash to digest")
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashFile computes the xxhash of a file's content.
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open source file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return hasher.Sum64(), nil
}
