// Package options resolves user selections against a descriptor's declared options.
package options

import (
	"fmt"

	"go.trai.ch/brewplan/internal/core/domain"
)

// AliasTable maps deprecated option names to their replacements.
type AliasTable map[string]string

// Aliases merges per-option aliases and the descriptor's deprecation list into one table.
// Per-option aliases are applied first, so an explicit deprecation entry for the same name wins.
func Aliases(desc *domain.PackageDescriptor) AliasTable {
	table := make(AliasTable)
	for _, o := range desc.Options {
		for _, alias := range o.Aliases {
			table[alias] = o.Name
		}
	}
	for _, d := range desc.Deprecations {
		table[d.From] = d.To
	}
	return table
}

// Rewrite returns the replacement for a deprecated name, or name itself.
func (t AliasTable) Rewrite(name string) (string, bool) {
	if to, ok := t[name]; ok {
		return to, true
	}
	return name, false
}

type explicitValue struct {
	value string
	as    string
	raw   string
}

// Resolve merges defaults and user selections into the effective option set.
// The alias table is applied once before any validation; each rewrite is reported
// as an advisory. Selections are processed in order and the first error wins.
func Resolve(desc *domain.PackageDescriptor, selections []domain.Selection) (domain.ResolvedOptionSet, []string, error) {
	aliases := Aliases(desc)
	explicit := make(map[string]explicitValue, len(selections))
	var advisories []string

	for _, sel := range selections {
		name, rewritten := aliases.Rewrite(sel.Name)
		if rewritten {
			advisories = append(advisories,
				fmt.Sprintf("option %q is deprecated; use %q instead", displayName(sel), name))
		}

		spec, ok := desc.Option(name)
		if !ok {
			return domain.ResolvedOptionSet{}, advisories, &domain.UnknownOptionError{
				Option: name,
				Known:  desc.OptionNames(),
			}
		}

		value, ok := spec.Canonicalize(sel.Value)
		if !ok {
			return domain.ResolvedOptionSet{}, advisories, &domain.InvalidChoiceError{
				Option:  name,
				Value:   sel.Value,
				Choices: spec.AllowedValues(),
			}
		}

		if prev, seen := explicit[name]; seen {
			if prev.value != value {
				return domain.ResolvedOptionSet{}, advisories, &domain.OptionConflictError{
					Options: []string{prev.as, sel.Name},
					Values:  []string{prev.value, value},
					Hint:    fmt.Sprintf("%q and %q both select option %q; pass it once", prev.raw, displayName(sel), name),
				}
			}
			continue
		}
		explicit[name] = explicitValue{value: value, as: sel.Name, raw: displayName(sel)}
	}

	entries := make([]domain.ResolvedOption, 0, len(desc.Options))
	for _, o := range desc.Options {
		if ev, ok := explicit[o.Name]; ok {
			entries = append(entries, domain.ResolvedOption{Name: o.Name, Value: ev.value, Explicit: true})
			continue
		}
		entries = append(entries, domain.ResolvedOption{Name: o.Name, Value: o.DefaultValue()})
	}

	return domain.NewResolvedOptionSet(entries), advisories, nil
}

func displayName(sel domain.Selection) string {
	if sel.Raw != "" {
		return sel.Raw
	}
	return sel.Name
}
