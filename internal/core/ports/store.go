package ports

import (
	"context"
	"io"

	"go.trai.ch/bext/internal/core/domain"
)

// WheelFetcher retrieves one wheel's bytes from its source URL.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type WheelFetcher interface {
	// Fetch streams the wheel into w. Transient failures are reported
	// as domain.ErrDownload so callers can apply the retry budget.
	Fetch(ctx context.Context, wheel domain.WheelDescriptor, w io.Writer) error
}

// WheelStore is the shared on-disk wheel cache, keyed by content hash.
// Concurrent writers for the same key coalesce: the first writer wins
// and the others wait and reuse its result.
type WheelStore interface {
	// Path returns the local path a cached wheel would live at.
	Path(wheel domain.WheelDescriptor) string

	// Contains reports whether the wheel is already cached.
	Contains(wheel domain.WheelDescriptor) bool

	// Materialize ensures the wheel exists in the cache, invoking fill
	// to produce its bytes when absent. The written artifact is hash
	// verified before it becomes visible; a mismatch surfaces as
	// domain.ErrIntegrity and leaves no partial file behind.
	Materialize(ctx context.Context, wheel domain.WheelDescriptor, fill func(io.Writer) error) (string, error)
}

// BuildInfoStore records completed builds so unchanged ones are skipped.
type BuildInfoStore interface {
	// Get retrieves the build info for a build ID. Returns nil, nil
	// when not found.
	Get(buildID string) (*domain.BuildInfo, error)

	// Put stores the build info.
	Put(info domain.BuildInfo) error
}
