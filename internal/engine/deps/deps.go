// Package deps classifies a descriptor's conditional dependencies.
package deps

import (
	"fmt"
	"slices"

	"go.trai.ch/brewplan/internal/core/domain"
)

// Resolution is the outcome of classifying every dependency declaration.
type Resolution struct {
	// Included holds required and optional-enabled dependencies in declaration order, one entry per name.
	Included []domain.DependencyDecision
	// Omitted holds optional-disabled and platform-excluded declarations for diagnostics.
	Omitted []domain.DependencyDecision
}

// Names returns the included dependency names.
func (r Resolution) Names() []string {
	names := make([]string, len(r.Included))
	for i, d := range r.Included {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the included decision for name.
func (r Resolution) Lookup(name string) (domain.DependencyDecision, bool) {
	for _, d := range r.Included {
		if d.Name == name {
			return d, true
		}
	}
	return domain.DependencyDecision{}, false
}

// Resolve classifies every spec, checking the platform condition, then the
// option gate, then the general condition.
func Resolve(
	resolved domain.ResolvedOptionSet,
	facts domain.PlatformFacts,
	specs []domain.DependencySpec,
	inventory domain.Inventory,
) (Resolution, error) {
	var res Resolution
	index := make(map[string]int, len(specs))

	for _, spec := range specs {
		decision, err := classify(resolved, facts, spec)
		if err != nil {
			return Resolution{}, err
		}

		if !decision.Included() {
			res.Omitted = append(res.Omitted, decision)
			continue
		}

		if i, seen := index[spec.Name]; seen {
			for _, tag := range decision.Tags {
				if !slices.Contains(res.Included[i].Tags, tag) {
					res.Included[i].Tags = append(res.Included[i].Tags, tag)
				}
			}
			continue
		}

		decision.Prefix = inventory[spec.Name]
		index[spec.Name] = len(res.Included)
		res.Included = append(res.Included, decision)
	}

	return res, nil
}

func classify(resolved domain.ResolvedOptionSet, facts domain.PlatformFacts, spec domain.DependencySpec) (domain.DependencyDecision, error) {
	decision := domain.DependencyDecision{
		Name:        spec.Name,
		Tags:        slices.Clone(spec.Tags),
		Kind:        spec.EffectiveKind(),
		Requirement: spec.Requirement,
	}
	subject := "dependency " + spec.Name

	platformOK, err := spec.Platform.Eval(resolved, facts)
	if err != nil {
		return decision, domain.WithSubject(err, subject)
	}
	if !platformOK {
		decision.Class = domain.ClassExcludedByPlatform
		decision.Reason = "not used on this platform"
		return decision, nil
	}

	if spec.Option != "" && !resolved.Enabled(spec.Option) {
		decision.Class = domain.ClassOptionalDisabled
		decision.Reason = fmt.Sprintf("option %q is not enabled", spec.Option)
		return decision, nil
	}

	whenOK, err := spec.When.Eval(resolved, facts)
	if err != nil {
		return decision, domain.WithSubject(err, subject)
	}
	if !whenOK {
		decision.Class = domain.ClassOptionalDisabled
		decision.Reason = "condition not met"
		return decision, nil
	}

	if spec.Option != "" {
		decision.Class = domain.ClassOptionalEnabled
		decision.Reason = fmt.Sprintf("option %q is enabled", spec.Option)
		return decision, nil
	}
	decision.Class = domain.ClassRequired
	return decision, nil
}
