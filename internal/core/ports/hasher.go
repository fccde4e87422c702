package ports

import "go.trai.ch/brewplan/internal/core/domain"

// Hasher defines the interface for computing plan cache keys.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputePlanKey hashes the descriptor file contents together with the resolution parameters.
	ComputePlanKey(descriptorPath string, params domain.ResolutionParams) (string, error)
}
