package ports

import "go.trai.ch/brewplan/internal/core/domain"

// PlanStore defines the interface for caching compiled plans by input key.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type PlanStore interface {
	// Get retrieves the plan stored under key in the cache directory root.
	// Returns nil, nil if not found.
	Get(root, key string) (*domain.BuildPlan, error)

	// Put stores the plan under key in the cache directory root.
	Put(root, key string, plan *domain.BuildPlan) error
}
