package ports

// DescriptorResolver expands command line arguments into descriptor files.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type DescriptorResolver interface {
	// ResolveDescriptors expands files, directories and glob patterns into descriptor paths.
	ResolveDescriptors(args []string) ([]string, error)
}
