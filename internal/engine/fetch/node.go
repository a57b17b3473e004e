package fetch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/adapters/cas"
	"go.trai.ch/bext/internal/adapters/logger"
	"go.trai.ch/bext/internal/adapters/pypi"
	"go.trai.ch/bext/internal/adapters/telemetry"
	"go.trai.ch/bext/internal/core/ports"
)

// NodeID is the unique identifier for the fetch orchestrator Graft node.
const NodeID graft.ID = "engine.fetch"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			pypi.FetcherNodeID,
			cas.WheelNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			fetcher, err := graft.Dep[ports.WheelFetcher](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.WheelStore](ctx)
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
			return New(fetcher, store, tracer, log), nil
		},
	})
}
