package pypi

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/bext/internal/adapters/logger"
	"go.trai.ch/bext/internal/core/ports"
)

const (
	IndexNodeID   graft.ID = "adapter.pypi.index"
	FetcherNodeID graft.ID = "adapter.pypi.fetcher"
)

func init() {
	graft.Register(graft.Node[ports.PackageIndex]{
		ID:        IndexNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.PackageIndex, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewMemoIndex(NewClient(os.Getenv("BEXT_INDEX_URL"), log)), nil
		},
	})

	graft.Register(graft.Node[ports.WheelFetcher]{
		ID:        FetcherNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.WheelFetcher, error) {
			return NewFetcher(), nil
		},
	})
}
