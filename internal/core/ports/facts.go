package ports

import (
	"context"

	"go.trai.ch/brewplan/internal/core/domain"
)

// FactsProvider supplies the read-only host snapshot.
//
//go:generate go run go.uber.org/mock/mockgen -source=facts.go -destination=mocks/mock_facts.go -package=mocks
type FactsProvider interface {
	// Snapshot captures the host facts once. Callers must reuse the result for a whole resolution.
	// envNames adds environment variables to capture on top of the provider's defaults.
	Snapshot(ctx context.Context, envNames ...string) (domain.PlatformFacts, error)
}
