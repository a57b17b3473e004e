// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/bext/internal/core/domain"
)

// PackageIndex is the pluggable package-index capability the resolver
// queries. Any standards-compliant index can back it.
//
//go:generate mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks
type PackageIndex interface {
	// Versions returns every published version of a package, in no
	// particular order.
	Versions(ctx context.Context, name string) ([]string, error)

	// Wheels returns the wheel artifacts published for one concrete
	// package version. Wheels with unrecognized tags are omitted.
	Wheels(ctx context.Context, name, version string) ([]domain.WheelDescriptor, error)

	// Requirements returns the declared dependencies of one concrete
	// package version, markers intact.
	Requirements(ctx context.Context, name, version string) ([]domain.DependencySpec, error)
}
