package domain

import "slices"

// OptionMatch holds when the named option resolved to Value.
type OptionMatch struct {
	Option string
	Value  string
}

// Condition is a declarative predicate over a resolved option set and platform facts.
// Every clause that is present must hold. A nil condition always holds.
type Condition struct {
	Options     []OptionMatch
	OS          []string
	NotOS       []string
	Arch        []string
	NotArch     []string
	WordSize    int
	Compiler    []string
	NotCompiler []string
	Env         []string
	NotEnv      []string
	// MacOSBelow and MacOSAtLeast compare the host macOS version against a
	// dotted version or a codename such as "mavericks". Both are false on other hosts.
	MacOSBelow   string
	MacOSAtLeast string
	Any          []Condition
	Not          *Condition
}

// Eval evaluates the condition. Clauses are checked in a fixed order and the
// first false clause ends evaluation, so errors for unknown facts are reported
// deterministically.
func (c *Condition) Eval(resolved ResolvedOptionSet, facts PlatformFacts) (bool, error) {
	if c == nil {
		return true, nil
	}

	for _, m := range c.Options {
		v, _ := resolved.Value(m.Option)
		if v != m.Value {
			return false, nil
		}
	}

	if len(c.OS) > 0 || len(c.NotOS) > 0 {
		if facts.OSFamily == "" {
			return false, &UnresolvedDependencyPredicateError{Fact: "os"}
		}
		if !memberOf(c.OS, c.NotOS, facts.OSFamily) {
			return false, nil
		}
	}

	if len(c.Arch) > 0 || len(c.NotArch) > 0 {
		if facts.Arch == "" {
			return false, &UnresolvedDependencyPredicateError{Fact: "arch"}
		}
		if !memberOf(c.Arch, c.NotArch, facts.Arch) {
			return false, nil
		}
	}

	if c.WordSize != 0 {
		if facts.WordSize == 0 {
			return false, &UnresolvedDependencyPredicateError{Fact: "word_size"}
		}
		if facts.WordSize != c.WordSize {
			return false, nil
		}
	}

	if len(c.Compiler) > 0 || len(c.NotCompiler) > 0 {
		if !facts.Compiler.Known() {
			return false, &UnresolvedDependencyPredicateError{Fact: "compiler"}
		}
		if !memberOf(c.Compiler, c.NotCompiler, facts.Compiler.Name) {
			return false, nil
		}
	}

	for _, name := range c.Env {
		if !facts.EnvSet(name) {
			return false, nil
		}
	}
	for _, name := range c.NotEnv {
		if facts.EnvSet(name) {
			return false, nil
		}
	}

	if c.MacOSBelow != "" || c.MacOSAtLeast != "" {
		ok, err := c.evalMacOS(facts)
		if err != nil || !ok {
			return false, err
		}
	}

	if len(c.Any) > 0 {
		matched := false
		for i := range c.Any {
			ok, err := c.Any[i].Eval(resolved, facts)
			if err != nil {
				return false, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	if c.Not != nil {
		ok, err := c.Not.Eval(resolved, facts)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}

	return true, nil
}

func (c *Condition) evalMacOS(facts PlatformFacts) (bool, error) {
	if facts.OSFamily == "" {
		return false, &UnresolvedDependencyPredicateError{Fact: "os"}
	}
	if facts.OSFamily != OSMacOS {
		return false, nil
	}
	if facts.OSVersion == "" {
		return false, &UnresolvedDependencyPredicateError{Fact: "os_version"}
	}
	host := normalizeMacOSVersion(facts.OSVersion)
	if c.MacOSBelow != "" {
		cmp, err := CompareVersions(host, normalizeMacOSVersion(c.MacOSBelow))
		if err != nil {
			return false, err
		}
		if cmp >= 0 {
			return false, nil
		}
	}
	if c.MacOSAtLeast != "" {
		cmp, err := CompareVersions(host, normalizeMacOSVersion(c.MacOSAtLeast))
		if err != nil {
			return false, err
		}
		if cmp < 0 {
			return false, nil
		}
	}
	return true, nil
}

// FactsOnly reports whether the condition can be evaluated without a resolved option set.
func (c *Condition) FactsOnly() bool {
	return len(c.OptionRefs()) == 0
}

// OptionRefs returns the option names the condition references, in first-seen order.
func (c *Condition) OptionRefs() []string {
	if c == nil {
		return nil
	}
	var refs []string
	add := func(name string) {
		if !slices.Contains(refs, name) {
			refs = append(refs, name)
		}
	}
	for _, m := range c.Options {
		add(m.Option)
	}
	for i := range c.Any {
		for _, name := range c.Any[i].OptionRefs() {
			add(name)
		}
	}
	for _, name := range c.Not.OptionRefs() {
		add(name)
	}
	return refs
}

// EnvRefs returns the environment variable names the condition references.
func (c *Condition) EnvRefs() []string {
	if c == nil {
		return nil
	}
	refs := slices.Concat(c.Env, c.NotEnv)
	for i := range c.Any {
		refs = append(refs, c.Any[i].EnvRefs()...)
	}
	refs = append(refs, c.Not.EnvRefs()...)
	return refs
}

func memberOf(allow, deny []string, v string) bool {
	if len(allow) > 0 && !slices.Contains(allow, v) {
		return false
	}
	return !slices.Contains(deny, v)
}
