package ports

import (
	"context"

	"go.trai.ch/bext/internal/core/domain"
)

// AssemblyRequest carries everything the assembler needs to pack one
// per-platform extension archive.
type AssemblyRequest struct {
	Project    *domain.Project
	Resolution domain.Resolution
	Profile    domain.ReleaseProfile

	// WheelPaths maps each selected wheel's content hash to its cached
	// local file.
	WheelPaths map[string]string

	// OutputDir receives the finished archive.
	OutputDir string
}

// Assembler consumes final per-platform wheel sets and builds the
// manifest plus the packed archive.
//
//go:generate mockgen -source=assembler.go -destination=mocks/mock_assembler.go -package=mocks
type Assembler interface {
	// Assemble writes the archive and returns its path. Unchanged
	// builds may be skipped and report cached = true.
	Assemble(ctx context.Context, req AssemblyRequest) (path string, cached bool, err error)
}
