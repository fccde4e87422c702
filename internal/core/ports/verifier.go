package ports

import "go.trai.ch/brewplan/internal/core/domain"

// Verifier defines the interface for checking downloaded artifacts.
//
//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	// VerifyArtifact checks that the file at path matches the digest.
	VerifyArtifact(path string, digest domain.Digest) error
}
