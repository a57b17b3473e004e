package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// WheelCache stores downloaded wheels addressed by their content hash.
// A wheel lives at <root>/<sha256 hex>/<filename>; the hash directory
// only appears once the file inside it has been verified, so a path
// that exists is always complete.
type WheelCache struct {
	root  string
	group singleflight.Group
}

// NewWheelCache creates a wheel cache rooted at the given directory.
func NewWheelCache(root string) (*WheelCache, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, zerr.Wrap(err, "failed to create wheel cache directory")
	}
	return &WheelCache{root: root}, nil
}

// Path returns the local path the wheel lives at once cached.
func (c *WheelCache) Path(wheel domain.WheelDescriptor) string {
	return filepath.Join(c.root, hashHex(wheel.Hash), wheel.Filename)
}

// Contains reports whether the wheel is already cached.
func (c *WheelCache) Contains(wheel domain.WheelDescriptor) bool {
	info, err := os.Stat(c.Path(wheel))
	return err == nil && info.Mode().IsRegular()
}

// Materialize ensures the wheel exists in the cache. Concurrent calls
// for the same hash coalesce: one invokes fill, the rest wait and
// share its result. The bytes are hashed while writing and the file
// becomes visible only after the hash matched the descriptor.
func (c *WheelCache) Materialize(ctx context.Context, wheel domain.WheelDescriptor, fill func(io.Writer) error) (string, error) {
	path, err, _ := c.group.Do(wheel.Hash, func() (any, error) {
		dest := c.Path(wheel)
		if info, statErr := os.Stat(dest); statErr == nil && info.Mode().IsRegular() {
			return dest, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return dest, c.write(dest, wheel, fill)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

func (c *WheelCache) write(dest string, wheel domain.WheelDescriptor, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(c.root, ".wheel-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file in wheel cache")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hasher := sha256.New()
	if err := fill(io.MultiWriter(tmp, hasher)); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush wheel to cache")
	}

	got := hex.EncodeToString(hasher.Sum(nil))
	if want := hashHex(wheel.Hash); got != want {
		mismatchErr := zerr.Wrap(domain.ErrIntegrity, "wheel hash mismatch")
		mismatchErr = zerr.With(mismatchErr, "wheel", wheel.Filename)
		mismatchErr = zerr.With(mismatchErr, "expected", want)
		return zerr.With(mismatchErr, "actual", got)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create wheel cache entry directory")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return zerr.Wrap(err, "failed to commit wheel to cache")
	}
	return nil
}

// hashHex strips the "sha256:" prefix from a descriptor hash.
func hashHex(hash string) string {
	return strings.TrimPrefix(hash, "sha256:")
}
