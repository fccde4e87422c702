// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/brewplan/internal/core/domain"
)

// Executor runs a compiled plan.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the plan's steps in order inside workDir.
	// Input artifacts are looked up by name under artifactDir.
	// It stops at the first failing step.
	Execute(ctx context.Context, plan *domain.BuildPlan, workDir, artifactDir string) error
}
