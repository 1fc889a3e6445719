package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wdlcache/internal/adapters/config"
	"go.trai.ch/wdlcache/internal/adapters/logger"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
)

// NodeID is the unique identifier for the persistent store Graft node.
const NodeID graft.ID = "adapter.store"

func init() {
	graft.Register(graft.Node[ports.PersistentStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.PersistentStore, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			s := New(cfg, log)
			s.Initialize(ctx)
			return s, nil
		},
	})
}
