package migration

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wdlcache/internal/adapters/logger"
	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/core/ports"
)

// NodeID is the unique identifier for the migration engine Graft node.
const NodeID graft.ID = "adapter.migration"

func init() {
	graft.Register(graft.Node[*Engine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{store.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Engine, error) {
			s, err := graft.Dep[ports.PersistentStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewEngine(s, log), nil
		},
	})
}
