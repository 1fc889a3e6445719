package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wdlcache/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wdlcache/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wdlcache/internal/adapters/memcache"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wdlcache/internal/adapters/store"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wdlcache/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wdlcache/internal/adapters/wdl"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			wdl.NodeID,
			store.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			config.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			parser, err := graft.Dep[ports.Parser](ctx)
			if err != nil {
				return nil, err
			}

			persistent, err := graft.Dep[ports.PersistentStore](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			return New(parser, persistent, log, tracer, Options{
				MaxDepth: cfg.Resolver.MaxDepth,
				Memory:   memcache.FromConfig(cfg.Memory),
			}), nil
		},
	})
}
