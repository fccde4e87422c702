package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/brewplan/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/adapters/facts"     //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/adapters/render"    //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/brewplan/internal/engine/compiler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.ResolverNodeID,
			facts.NodeID,
			compiler.NodeID,
			shell.NodeID,
			render.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.DescriptorLoader](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.DescriptorResolver](ctx)
	if err != nil {
		return nil, err
	}

	provider, err := graft.Dep[ports.FactsProvider](ctx)
	if err != nil {
		return nil, err
	}

	comp, err := graft.Dep[*compiler.Compiler](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := graft.Dep[ports.Renderer](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, resolver, provider, comp, executor, renderer, tel, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, tel), nil
}
