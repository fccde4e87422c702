package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DescriptorResolver = (*Resolver)(nil)

// DescriptorPatterns are the file names recognised as descriptors when walking a directory.
var DescriptorPatterns = []string{"*.yaml", "*.yml", "*.hcl"}

// Resolver implements ports.DescriptorResolver using filepath.Glob and a Walker.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveDescriptors expands the arguments into descriptor file paths.
// Files are kept as given, directories are walked for descriptor files, and
// anything else is treated as a glob pattern. The result keeps the order of
// the arguments, with each directory or glob expanded in sorted order and
// duplicates dropped.
func (r *Resolver) ResolveDescriptors(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, domain.ErrNoDescriptors
	}

	seen := make(map[string]bool)
	var result []string
	add := func(paths []string) {
		slices.Sort(paths)
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			var found []string
			for path, walkErr := range r.walker.WalkFiles(arg, DescriptorPatterns) {
				if walkErr != nil {
					return nil, zerr.With(zerr.Wrap(walkErr, domain.ErrDescriptorReadFailed.Error()), "path", arg)
				}
				found = append(found, path)
			}
			add(found)
		case err == nil:
			add([]string{filepath.Clean(arg)})
		default:
			matches, globErr := filepath.Glob(arg)
			if globErr != nil {
				return nil, zerr.With(zerr.Wrap(globErr, "failed to glob path"), "path", arg)
			}
			if len(matches) == 0 {
				return nil, zerr.With(domain.ErrDescriptorNotFound, "path", arg)
			}
			add(matches)
		}
	}

	if len(result) == 0 {
		return nil, zerr.With(domain.ErrNoDescriptors, "paths", args)
	}
	return result, nil
}
