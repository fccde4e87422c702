package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/brewplan/internal/adapters/fs"
	"go.trai.ch/brewplan/internal/adapters/logger"
	"go.trai.ch/brewplan/internal/core/ports"
)

const NodeID graft.ID = "adapter.executor"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, fs.VerifierNodeID},
		Run: func(ctx context.Context) (ports.Executor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log, verifier), nil
		},
	})
}
