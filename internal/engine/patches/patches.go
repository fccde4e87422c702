// Package patches filters source patches by the package version being built.
package patches

import (
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/zerr"
)

// Select returns the patches that apply to version, in declaration order.
// Head builds keep only unconditional patches.
func Select(specs []domain.PatchSpec, version string) ([]domain.PatchSpec, error) {
	var out []domain.PatchSpec
	for _, p := range specs {
		if p.Applies.IsZero() {
			out = append(out, p)
			continue
		}
		if version == domain.HeadVersion {
			continue
		}
		ok, err := p.Applies.Allows(version)
		if err != nil {
			return nil, zerr.With(err, "patch", p.URL)
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}
