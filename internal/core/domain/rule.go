package domain

import "strings"

// ConflictRule forbids a combination of option values from holding together.
type ConflictRule struct {
	Matches []OptionMatch
	Hint    string
}

// FailsWithRule marks a compiler the package is known not to build with.
type FailsWithRule struct {
	Compiler string
	// Build fails the rule for vendor builds up to and including this number. Zero means every build.
	Build int
	// Version restricts the rule to compiler versions with this dotted prefix, such as "4.2".
	Version string
	Cause   string
}

// Matches reports whether the rule applies to the given compiler.
// An unknown build number is treated as matching.
func (r FailsWithRule) Matches(c Compiler) bool {
	if c.Name != r.Compiler {
		return false
	}
	if r.Build > 0 && c.Build > r.Build {
		return false
	}
	if r.Version != "" && c.Version != r.Version && !strings.HasPrefix(c.Version, r.Version+".") {
		return false
	}
	return true
}

// ToolchainRequirement is one acceptable compiler for a NeedsRule.
type ToolchainRequirement struct {
	Compiler   string
	MinBuild   int
	MinVersion string
}

// MissingFact names the compiler fact the requirement needs but the compiler
// does not report, or returns "" when nothing is missing. A requirement for a
// different compiler never misses a fact.
func (t ToolchainRequirement) MissingFact(c Compiler) string {
	if c.Name != t.Compiler {
		return ""
	}
	switch {
	case t.MinBuild > 0 && c.Build == 0:
		return "compiler_build"
	case t.MinVersion != "" && c.Version == "":
		return "compiler_version"
	default:
		return ""
	}
}

// Satisfied reports whether the compiler meets the requirement. A compiler
// missing a fact the requirement checks does not satisfy it.
func (t ToolchainRequirement) Satisfied(c Compiler) (bool, error) {
	if c.Name != t.Compiler {
		return false, nil
	}
	if t.MinBuild > 0 && c.Build < t.MinBuild {
		return false, nil
	}
	if t.MinVersion != "" {
		if c.Version == "" {
			return false, nil
		}
		cmp, err := CompareVersions(c.Version, t.MinVersion)
		if err != nil {
			return false, err
		}
		if cmp < 0 {
			return false, nil
		}
	}
	return true, nil
}

// NeedsRule requires a compiler feature whenever its condition holds.
type NeedsRule struct {
	Feature string
	When    *Condition
	Accept  []ToolchainRequirement
	Cause   string
}

// CompatibilityRule is exactly one of a conflict, a known-bad compiler, or a feature requirement.
type CompatibilityRule struct {
	Conflict  *ConflictRule
	FailsWith *FailsWithRule
	Needs     *NeedsRule
}

// OptionRefs returns the option names the rule references.
func (r CompatibilityRule) OptionRefs() []string {
	switch {
	case r.Conflict != nil:
		refs := make([]string, 0, len(r.Conflict.Matches))
		for _, m := range r.Conflict.Matches {
			refs = append(refs, m.Option)
		}
		return refs
	case r.Needs != nil:
		return r.Needs.When.OptionRefs()
	default:
		return nil
	}
}
