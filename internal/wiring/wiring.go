// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/brewplan/internal/adapters/cas"
	_ "go.trai.ch/brewplan/internal/adapters/config"
	_ "go.trai.ch/brewplan/internal/adapters/facts"
	_ "go.trai.ch/brewplan/internal/adapters/fs"
	_ "go.trai.ch/brewplan/internal/adapters/logger"
	_ "go.trai.ch/brewplan/internal/adapters/render"
	_ "go.trai.ch/brewplan/internal/adapters/shell"
	_ "go.trai.ch/brewplan/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/brewplan/internal/app"
	_ "go.trai.ch/brewplan/internal/engine/compiler"
)
