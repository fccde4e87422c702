package ports

import "go.trai.ch/brewplan/internal/core/domain"

// DescriptorLoader defines the interface for loading package descriptors.
//
//go:generate go run go.uber.org/mock/mockgen -source=descriptor_loader.go -destination=mocks/mock_descriptor_loader.go -package=mocks
type DescriptorLoader interface {
	// Load reads and validates the descriptor at path.
	// It returns load-time advisories such as deprecated checksum algorithms.
	Load(path string) (*domain.PackageDescriptor, []string, error)
}
