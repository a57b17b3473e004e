package cas

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	NodeID      graft.ID = "adapter.build_info_store"
	WheelNodeID graft.ID = "adapter.wheel_cache"
)

// cacheRoot returns the shared cache directory, honoring BEXT_CACHE_DIR.
func cacheRoot() (string, error) {
	if dir := os.Getenv("BEXT_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to determine user cache directory")
	}
	return filepath.Join(base, "bext"), nil
}

func init() {
	graft.Register(graft.Node[ports.BuildInfoStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.BuildInfoStore, error) {
			root, err := cacheRoot()
			if err != nil {
				return nil, err
			}
			return NewStore(filepath.Join(root, "builds.json"))
		},
	})

	graft.Register(graft.Node[ports.WheelStore]{
		ID:        WheelNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.WheelStore, error) {
			root, err := cacheRoot()
			if err != nil {
				return nil, err
			}
			return NewWheelCache(filepath.Join(root, "wheels"))
		},
	})
}
