package config

import "gopkg.in/yaml.v3"

// hclFile is the top level of an .hcl descriptor: a single package block.
type hclFile struct {
	Package PackageDTO `hcl:"package,block"`
}

// PackageDTO represents a package descriptor file.
// In YAML the package is the document itself; in HCL it is the body of a
// labelled package block.
type PackageDTO struct {
	Name         string           `yaml:"name" hcl:"name,label"`
	Desc         string           `yaml:"desc" hcl:"desc,optional"`
	Homepage     string           `yaml:"homepage" hcl:"homepage,optional"`
	Version      string           `yaml:"version" hcl:"version,optional"`
	Revision     int              `yaml:"revision" hcl:"revision,optional"`
	Stable       *SourceDTO       `yaml:"stable" hcl:"stable,block"`
	Head         *SourceDTO       `yaml:"head" hcl:"head,block"`
	Patches      []PatchDTO       `yaml:"patches" hcl:"patch,block"`
	Bottle       *BottleDTO       `yaml:"bottle" hcl:"bottle,block"`
	Options      []OptionDTO      `yaml:"options" hcl:"option,block"`
	Deprecations []DeprecationDTO `yaml:"deprecated_options" hcl:"deprecated_option,block"`
	Dependencies []DependencyDTO  `yaml:"depends_on" hcl:"depends_on,block"`
	Conflicts    []ConflictDTO    `yaml:"conflicts" hcl:"conflict,block"`
	FailsWith    []FailsWithDTO   `yaml:"fails_with" hcl:"fails_with,block"`
	Needs        []NeedsDTO       `yaml:"needs" hcl:"needs,block"`
	Environment  *EnvironmentDTO  `yaml:"environment" hcl:"environment,block"`
	JobCaps      []JobCapDTO      `yaml:"job_caps" hcl:"job_cap,block"`
	Configure    *StepDTO         `yaml:"configure" hcl:"configure,block"`
	Build        []StepDTO        `yaml:"build" hcl:"step,block"`
	Caveats      []CaveatDTO      `yaml:"caveats" hcl:"caveat,block"`
	Test         *TestDTO         `yaml:"test" hcl:"test,block"`
	Resources    []ResourceDTO    `yaml:"resources" hcl:"resource,block"`
}

// SourceDTO locates a source archive or repository.
type SourceDTO struct {
	URL     string   `yaml:"url" hcl:"url"`
	Mirrors []string `yaml:"mirrors" hcl:"mirrors,optional"`
	SHA256  string   `yaml:"sha256" hcl:"sha256,optional"`
	SHA1    string   `yaml:"sha1" hcl:"sha1,optional"`
	Branch  string   `yaml:"branch" hcl:"branch,optional"`
}

// PatchDTO is one source patch.
type PatchDTO struct {
	URL     string `yaml:"url" hcl:"url"`
	SHA256  string `yaml:"sha256" hcl:"sha256,optional"`
	SHA1    string `yaml:"sha1" hcl:"sha1,optional"`
	Level   *int   `yaml:"level" hcl:"level,optional"`
	Applies string `yaml:"applies" hcl:"applies,optional"`
	Comment string `yaml:"comment" hcl:"comment,optional"`
}

// BottleDTO is the table of prebuilt artifacts.
type BottleDTO struct {
	Cellar  string            `yaml:"cellar" hcl:"cellar,optional"`
	RootURL string            `yaml:"root_url" hcl:"root_url,optional"`
	Rebuild int               `yaml:"rebuild" hcl:"rebuild,optional"`
	Digests []BottleDigestDTO `yaml:"digests" hcl:"digest,block"`
}

// BottleDigestDTO maps one OS tag to a bottle checksum.
type BottleDigestDTO struct {
	Tag    string `yaml:"tag" hcl:"tag,label"`
	SHA256 string `yaml:"sha256" hcl:"sha256,optional"`
	SHA1   string `yaml:"sha1" hcl:"sha1,optional"`
}

// OptionDTO declares a build option. Kind defaults to bool, or enum when choices are given.
type OptionDTO struct {
	Name        string   `yaml:"name" hcl:"name,label"`
	Kind        string   `yaml:"kind" hcl:"kind,optional"`
	Description string   `yaml:"description" hcl:"description,optional"`
	Default     string   `yaml:"default" hcl:"default,optional"`
	Choices     []string `yaml:"choices" hcl:"choices,optional"`
	Aliases     []string `yaml:"aliases" hcl:"aliases,optional"`
}

// DeprecationDTO renames a retired option. Either side may carry a with-/without- prefix.
type DeprecationDTO struct {
	From string `yaml:"from" hcl:"from"`
	To   string `yaml:"to" hcl:"to"`
}

// DependencyDTO declares one dependency.
type DependencyDTO struct {
	Name        string        `yaml:"name" hcl:"name,label"`
	Tags        []string      `yaml:"tags" hcl:"tags,optional"`
	Kind        string        `yaml:"kind" hcl:"kind,optional"`
	Option      string        `yaml:"option" hcl:"option,optional"`
	Requirement bool          `yaml:"requirement" hcl:"requirement,optional"`
	When        *ConditionDTO `yaml:"when" hcl:"when,block"`
	Platform    *ConditionDTO `yaml:"platform" hcl:"platform,block"`
}

// ConditionDTO is a declarative predicate. Options entries use the selection
// syntax: "mpi", "without-single" or "layout=tagged".
type ConditionDTO struct {
	Options      []string       `yaml:"options" hcl:"options,optional"`
	OS           []string       `yaml:"os" hcl:"os,optional"`
	NotOS        []string       `yaml:"not_os" hcl:"not_os,optional"`
	Arch         []string       `yaml:"arch" hcl:"arch,optional"`
	NotArch      []string       `yaml:"not_arch" hcl:"not_arch,optional"`
	WordSize     int            `yaml:"word_size" hcl:"word_size,optional"`
	Compiler     []string       `yaml:"compiler" hcl:"compiler,optional"`
	NotCompiler  []string       `yaml:"not_compiler" hcl:"not_compiler,optional"`
	Env          []string       `yaml:"env" hcl:"env,optional"`
	NotEnv       []string       `yaml:"not_env" hcl:"not_env,optional"`
	MacOSBelow   string         `yaml:"macos_below" hcl:"macos_below,optional"`
	MacOSAtLeast string         `yaml:"macos_at_least" hcl:"macos_at_least,optional"`
	Any          []ConditionDTO `yaml:"any" hcl:"any,block"`
	Not          *ConditionDTO  `yaml:"not" hcl:"not,block"`
}

// ConflictDTO forbids option values from holding together.
type ConflictDTO struct {
	Options []string `yaml:"options" hcl:"options"`
	Hint    string   `yaml:"hint" hcl:"hint,optional"`
}

// FailsWithDTO marks a compiler the package does not build with.
type FailsWithDTO struct {
	Compiler string `yaml:"compiler" hcl:"compiler,label"`
	Build    int    `yaml:"build" hcl:"build,optional"`
	Version  string `yaml:"version" hcl:"version,optional"`
	Cause    string `yaml:"cause" hcl:"cause,optional"`
}

// NeedsDTO requires a compiler feature whenever its condition holds.
type NeedsDTO struct {
	Feature string         `yaml:"feature" hcl:"feature,label"`
	Cause   string         `yaml:"cause" hcl:"cause,optional"`
	When    *ConditionDTO  `yaml:"when" hcl:"when,block"`
	Accept  []ToolchainDTO `yaml:"accept" hcl:"accept,block"`
}

// ToolchainDTO is one acceptable compiler for a needs rule.
type ToolchainDTO struct {
	Compiler   string `yaml:"compiler" hcl:"compiler,label"`
	MinBuild   int    `yaml:"min_build" hcl:"min_build,optional"`
	MinVersion string `yaml:"min_version" hcl:"min_version,optional"`
}

// EnvironmentDTO describes environment preparation before configuring.
type EnvironmentDTO struct {
	Files []FileDTO   `yaml:"files" hcl:"file,block"`
	Vars  []EnvVarDTO `yaml:"vars" hcl:"env,block"`
}

// FileDTO is a generated file.
type FileDTO struct {
	Path   string    `yaml:"path" hcl:"path,label"`
	Append bool      `yaml:"append" hcl:"append,optional"`
	Lines  []LineDTO `yaml:"lines" hcl:"line,block"`
}

// LineDTO is one conditional line of a generated file.
type LineDTO struct {
	Text string        `yaml:"text" hcl:"text"`
	When *ConditionDTO `yaml:"when" hcl:"when,block"`
}

// UnmarshalYAML accepts a plain string as an unconditional line.
func (l *LineDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.Text = node.Value
		return nil
	}
	type plain LineDTO
	return node.Decode((*plain)(l))
}

// EnvVarDTO sets one environment variable.
type EnvVarDTO struct {
	Name  string        `yaml:"name" hcl:"name,label"`
	Value string        `yaml:"value" hcl:"value"`
	When  *ConditionDTO `yaml:"when" hcl:"when,block"`
}

// JobCapDTO caps build parallelism while an environment variable is set.
type JobCapDTO struct {
	Env  string `yaml:"env" hcl:"env,label"`
	Jobs int    `yaml:"jobs" hcl:"jobs"`
}

// StepDTO is a configure, build or install command.
type StepDTO struct {
	Name    string        `yaml:"name" hcl:"name,label"`
	Phase   string        `yaml:"phase" hcl:"phase,optional"`
	Exec    string        `yaml:"exec" hcl:"exec"`
	Args    []string      `yaml:"args" hcl:"args,optional"`
	WorkDir string        `yaml:"workdir" hcl:"workdir,optional"`
	When    *ConditionDTO `yaml:"when" hcl:"when,block"`
	Flags   []FlagDTO     `yaml:"flags" hcl:"flag,block"`
}

// FlagDTO contributes arguments to a step. Exactly one of the option mapping,
// join or args forms is used.
type FlagDTO struct {
	When     *ConditionDTO       `yaml:"when" hcl:"when,block"`
	Option   string              `yaml:"option" hcl:"option,optional"`
	Enabled  []string            `yaml:"enabled" hcl:"enabled,optional"`
	Disabled []string            `yaml:"disabled" hcl:"disabled,optional"`
	Choices  map[string][]string `yaml:"choices" hcl:"choices,optional"`
	Join     *JoinDTO            `yaml:"join" hcl:"join,block"`
	Args     []string            `yaml:"args" hcl:"args,optional"`
}

// JoinDTO renders a prefix followed by the active items joined by a separator.
type JoinDTO struct {
	Prefix string        `yaml:"prefix" hcl:"prefix,optional"`
	Sep    string        `yaml:"sep" hcl:"sep,optional"`
	Always bool          `yaml:"always" hcl:"always,optional"`
	Items  []JoinItemDTO `yaml:"items" hcl:"item,block"`
}

// JoinItemDTO is one conditional element of a joined argument.
type JoinItemDTO struct {
	Value string        `yaml:"value" hcl:"value,label"`
	When  *ConditionDTO `yaml:"when" hcl:"when,block"`
}

// UnmarshalYAML accepts a plain string as an unconditional item.
func (i *JoinItemDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		i.Value = node.Value
		return nil
	}
	type plain JoinItemDTO
	return node.Decode((*plain)(i))
}

// CaveatDTO is an advisory shown when its condition holds.
type CaveatDTO struct {
	Text string        `yaml:"text" hcl:"text"`
	When *ConditionDTO `yaml:"when" hcl:"when,block"`
}

// UnmarshalYAML accepts a plain string as an unconditional caveat.
func (c *CaveatDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Text = node.Value
		return nil
	}
	type plain CaveatDTO
	return node.Decode((*plain)(c))
}

// TestDTO is the post-install smoke test.
type TestDTO struct {
	Files     []FileDTO        `yaml:"files" hcl:"file,block"`
	Commands  []TestCommandDTO `yaml:"commands" hcl:"command,block"`
	Resources []string         `yaml:"resources" hcl:"resources,optional"`
}

// TestCommandDTO is one smoke test command.
type TestCommandDTO struct {
	Exec    string     `yaml:"exec" hcl:"exec"`
	Args    []string   `yaml:"args" hcl:"args,optional"`
	WorkDir string     `yaml:"workdir" hcl:"workdir,optional"`
	Expect  *ExpectDTO `yaml:"expect" hcl:"expect,block"`
}

// ExpectDTO is compared against the output of a test command.
type ExpectDTO struct {
	Stdout   string `yaml:"stdout" hcl:"stdout,optional"`
	ExitCode int    `yaml:"exit_code" hcl:"exit_code,optional"`
}

// ResourceDTO is an auxiliary download used by tests.
type ResourceDTO struct {
	Name   string `yaml:"name" hcl:"name,label"`
	URL    string `yaml:"url" hcl:"url"`
	SHA256 string `yaml:"sha256" hcl:"sha256,optional"`
	SHA1   string `yaml:"sha1" hcl:"sha1,optional"`
}
