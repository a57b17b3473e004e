package refdata

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/core/ports"
)

const NodeID graft.ID = "adapter.refdata"

func init() {
	graft.Register(graft.Node[ports.ReferenceData]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ReferenceData, error) {
			return New()
		},
	})
}
