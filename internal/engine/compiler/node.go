package compiler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/brewplan/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/brewplan/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/brewplan/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/brewplan/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/brewplan/internal/core/ports"
)

// NodeID is the unique identifier for the compiler Graft node.
const NodeID graft.ID = "engine.compiler"

func init() {
	graft.Register(graft.Node[*Compiler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			telemetry.NodeID,
			cas.NodeID,
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Compiler, error) {
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.PlanStore](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(tel, store, hasher, log), nil
		},
	})
}
