package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/adapters/archive"
	"go.trai.ch/bext/internal/adapters/config"
	"go.trai.ch/bext/internal/adapters/logger"
	"go.trai.ch/bext/internal/adapters/refdata"
	"go.trai.ch/bext/internal/adapters/telemetry"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/bext/internal/engine/fetch"
	"go.trai.ch/bext/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components the CLI
// layer is allowed to touch.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			refdata.NodeID,
			resolver.NodeID,
			fetch.NodeID,
			archive.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ProjectLoader](ctx)
			if err != nil {
				return nil, err
			}
			ref, err := graft.Dep[ports.ReferenceData](ctx)
			if err != nil {
				return nil, err
			}
			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[*fetch.Orchestrator](ctx)
			if err != nil {
				return nil, err
			}
			assembler, err := graft.Dep[ports.Assembler](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, ref, res, fetcher, assembler, tracer, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: application, Logger: log}, nil
		},
	})
}
