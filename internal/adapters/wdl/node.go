package wdl

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wdlcache/internal/core/ports"
)

// NodeID is the unique identifier for the WDL scanner Graft node.
const NodeID graft.ID = "adapter.wdl"

func init() {
	graft.Register(graft.Node[ports.Parser]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Parser, error) {
			return New(), nil
		},
	})
}
