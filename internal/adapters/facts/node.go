package facts

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/brewplan/internal/core/ports"
)

// NodeID is the unique identifier for the facts provider Graft node.
const NodeID graft.ID = "adapter.facts"

func init() {
	graft.Register(graft.Node[ports.FactsProvider]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FactsProvider, error) {
			return NewProvider(), nil
		},
	})
}
