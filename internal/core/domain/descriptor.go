package domain

import (
	"slices"
	"strconv"
)

// DefaultBottleRoot is the download root used when a bottle table declares none.
const DefaultBottleRoot = "https://homebrew.bintray.com/bottles"

// SourceSpec locates a source archive or repository.
type SourceSpec struct {
	URL     string
	Mirrors []string
	Digest  Digest
	// Branch is set for version-control head sources.
	Branch string
}

// PatchSpec is one source patch.
type PatchSpec struct {
	URL    string
	Digest Digest
	// Level is the strip level passed to patch(1).
	Level int
	// Applies restricts the patch to matching package versions. The zero value applies to every version.
	Applies VersionConstraint
	Comment string
}

// BottleEntry maps one OS tag to its prebuilt artifact digest.
type BottleEntry struct {
	Tag    string
	Digest Digest
}

// BottleSpec is the table of prebuilt artifacts.
type BottleSpec struct {
	Cellar  string
	RootURL string
	Rebuild int
	Digests []BottleEntry
}

// Lookup returns the entry whose tag matches exactly.
func (b *BottleSpec) Lookup(tag string) (BottleEntry, bool) {
	if b == nil || tag == "" {
		return BottleEntry{}, false
	}
	for _, e := range b.Digests {
		if e.Tag == tag {
			return e, true
		}
	}
	return BottleEntry{}, false
}

// Root returns the download root, falling back to DefaultBottleRoot.
func (b *BottleSpec) Root() string {
	if b == nil || b.RootURL == "" {
		return DefaultBottleRoot
	}
	return b.RootURL
}

// LineSpec is one conditional line of a generated file.
type LineSpec struct {
	Text string
	When *Condition
}

// FileSpec describes a file written during environment preparation or testing.
type FileSpec struct {
	Path   string
	Append bool
	Lines  []LineSpec
}

// EnvVarSpec sets one environment variable for subsequent steps.
type EnvVarSpec struct {
	Name  string
	Value string
	When  *Condition
}

// EnvironmentSpec describes environment preparation before configuring.
type EnvironmentSpec struct {
	Files []FileSpec
	Vars  []EnvVarSpec
}

// JobCap caps parallelism when Env is set.
type JobCap struct {
	Env  string
	Jobs int
}

// ParallelismSpec holds the explicit job caps. The first matching cap wins.
type ParallelismSpec struct {
	Caps []JobCap
}

// JoinItem is one conditional element of a joined argument.
type JoinItem struct {
	Value string
	When  *Condition
}

// JoinRule renders Prefix followed by the active items joined by Sep.
type JoinRule struct {
	Prefix string
	Sep    string
	Items  []JoinItem
	// Always renders the argument even when no item is active.
	Always bool
}

// FlagRule contributes argument fragments to a step. A rule applies only when
// When holds, and then contributes exactly one of: option-mapped fragments
// (Option with Enabled/Disabled or Choices), a joined list, or Args.
type FlagRule struct {
	When     *Condition
	Option   string
	Enabled  []string
	Disabled []string
	Choices  map[string][]string
	Join     *JoinRule
	Args     []string
}

// StepSpec is a declared configure, build or install command.
type StepSpec struct {
	Name       string
	Phase      Phase
	Executable string
	Args       []string
	WorkDir    string
	When       *Condition
	Flags      []FlagRule
}

// CaveatSpec is an advisory shown when its condition holds.
type CaveatSpec struct {
	Text string
	When *Condition
}

// TestCommand is one smoke test command.
type TestCommand struct {
	Executable string
	Args       []string
	WorkDir    string
	Expect     *Expectation
}

// TestSpec is the post-install smoke test.
type TestSpec struct {
	Files     []FileSpec
	Commands  []TestCommand
	Resources []string
}

// ResourceSpec is an auxiliary download, used by tests.
type ResourceSpec struct {
	Name   string
	URL    string
	Digest Digest
}

// PackageDescriptor is the declarative description of one package.
// It is immutable once loaded.
type PackageDescriptor struct {
	Name         string
	Desc         string
	Homepage     string
	Version      string
	Revision     int
	Stable       SourceSpec
	Head         *SourceSpec
	Patches      []PatchSpec
	Bottle       *BottleSpec
	Options      []OptionSpec
	Deprecations []Deprecation
	Dependencies []DependencySpec
	Rules        []CompatibilityRule
	Environment  EnvironmentSpec
	Parallelism  ParallelismSpec
	Configure    *StepSpec
	Build        []StepSpec
	Caveats      []CaveatSpec
	Test         *TestSpec
	Resources    []ResourceSpec
}

// Option returns the declared option with the given name.
func (d *PackageDescriptor) Option(name string) (OptionSpec, bool) {
	for _, o := range d.Options {
		if o.Name == name {
			return o, true
		}
	}
	return OptionSpec{}, false
}

// OptionNames returns the declared option names in declaration order.
func (d *PackageDescriptor) OptionNames() []string {
	names := make([]string, len(d.Options))
	for i, o := range d.Options {
		names[i] = o.Name
	}
	return names
}

// Resource returns the declared resource with the given name.
func (d *PackageDescriptor) Resource(name string) (ResourceSpec, bool) {
	for _, r := range d.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return ResourceSpec{}, false
}

// FullVersion returns the version with the revision suffix used in bottle names.
func (d *PackageDescriptor) FullVersion() string {
	if d.Revision > 0 {
		return d.Version + "_" + strconv.Itoa(d.Revision)
	}
	return d.Version
}

// EnvRefs returns the environment variable names any condition or job cap of
// the descriptor references, sorted and without duplicates.
func (d *PackageDescriptor) EnvRefs() []string {
	var refs []string
	add := func(c *Condition) {
		refs = append(refs, c.EnvRefs()...)
	}

	for _, dep := range d.Dependencies {
		add(dep.When)
		add(dep.Platform)
	}
	for _, r := range d.Rules {
		if r.Needs != nil {
			add(r.Needs.When)
		}
	}
	for _, f := range d.Environment.Files {
		for _, l := range f.Lines {
			add(l.When)
		}
	}
	for _, v := range d.Environment.Vars {
		add(v.When)
	}
	for _, c := range d.Parallelism.Caps {
		refs = append(refs, c.Env)
	}
	steps := slices.Clone(d.Build)
	if d.Configure != nil {
		steps = append(steps, *d.Configure)
	}
	for _, s := range steps {
		add(s.When)
		for _, f := range s.Flags {
			add(f.When)
			if f.Join != nil {
				for _, item := range f.Join.Items {
					add(item.When)
				}
			}
		}
	}
	for _, c := range d.Caveats {
		add(c.When)
	}
	if d.Test != nil {
		for _, f := range d.Test.Files {
			for _, l := range f.Lines {
				add(l.When)
			}
		}
	}

	slices.Sort(refs)
	return slices.Compact(refs)
}

// AffectsBuild reports whether any flag rule or step condition references the option.
// Options that nothing references only document the package.
func (d *PackageDescriptor) AffectsBuild(name string) bool {
	steps := slices.Clone(d.Build)
	if d.Configure != nil {
		steps = append(steps, *d.Configure)
	}
	for _, s := range steps {
		if slices.Contains(s.When.OptionRefs(), name) {
			return true
		}
		for _, f := range s.Flags {
			if f.Option == name || slices.Contains(f.When.OptionRefs(), name) {
				return true
			}
			if f.Join == nil {
				continue
			}
			for _, item := range f.Join.Items {
				if slices.Contains(item.When.OptionRefs(), name) {
					return true
				}
			}
		}
	}
	for _, v := range d.Environment.Vars {
		if slices.Contains(v.When.OptionRefs(), name) {
			return true
		}
	}
	for _, f := range d.Environment.Files {
		for _, l := range f.Lines {
			if slices.Contains(l.When.OptionRefs(), name) {
				return true
			}
		}
	}
	return false
}
