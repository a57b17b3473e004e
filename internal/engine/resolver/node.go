package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/adapters/logger"
	"go.trai.ch/bext/internal/adapters/pypi"
	"go.trai.ch/bext/internal/adapters/refdata"
	"go.trai.ch/bext/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			pypi.IndexNodeID,
			refdata.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			index, err := graft.Dep[ports.PackageIndex](ctx)
			if err != nil {
				return nil, err
			}
			ref, err := graft.Dep[ports.ReferenceData](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(index, ref, log), nil
		},
	})
}
