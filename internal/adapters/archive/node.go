package archive

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/adapters/cas"
	"go.trai.ch/bext/internal/adapters/logger"
	"go.trai.ch/bext/internal/core/ports"
)

const NodeID graft.ID = "adapter.assembler"

func init() {
	graft.Register(graft.Node[ports.Assembler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cas.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Assembler, error) {
			store, err := graft.Dep[ports.BuildInfoStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewAssembler(store, log), nil
		},
	})
}
