package config

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/zerr"
)

const defaultPatchLevel = 1

var stepPhases = []domain.Phase{domain.PhaseConfigure, domain.PhaseBuild, domain.PhaseInstall}

// builder converts a decoded file into a domain descriptor, collecting load advisories.
type builder struct {
	options    map[string]domain.OptionSpec
	aliases    map[string]string
	advisories []string
}

func newBuilder() *builder {
	return &builder{
		options: make(map[string]domain.OptionSpec),
		aliases: make(map[string]string),
	}
}

func (b *builder) descriptor(dto *PackageDTO) (*domain.PackageDescriptor, error) {
	if dto.Name == "" {
		return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "name")
	}
	if dto.Stable == nil || dto.Stable.URL == "" {
		return nil, domain.ErrMissingSource
	}
	if dto.Version == "" {
		return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "version")
	}
	if err := domain.ValidateVersion(dto.Version); err != nil {
		return nil, zerr.With(err, "field", "version")
	}
	if dto.Revision < 0 {
		return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "revision")
	}

	desc := &domain.PackageDescriptor{
		Name:     dto.Name,
		Desc:     dto.Desc,
		Homepage: dto.Homepage,
		Version:  dto.Version,
		Revision: dto.Revision,
	}

	var err error
	if desc.Stable, err = b.source("stable", dto.Stable); err != nil {
		return nil, err
	}
	if dto.Head != nil {
		head, err := b.source("head", dto.Head)
		if err != nil {
			return nil, err
		}
		desc.Head = &head
	}

	// Options come first: every later condition is canonicalized against them.
	if desc.Options, err = b.declareOptions(dto.Options); err != nil {
		return nil, err
	}
	for _, d := range dto.Deprecations {
		dep := domain.Deprecation{From: optionName(d.From), To: optionName(d.To)}
		if dep.From == "" || dep.To == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "deprecated_options")
		}
		desc.Deprecations = append(desc.Deprecations, dep)
		b.aliases[dep.From] = dep.To
	}

	if desc.Patches, err = b.patches(dto.Patches); err != nil {
		return nil, err
	}
	if desc.Bottle, err = b.bottle(dto.Bottle); err != nil {
		return nil, err
	}
	if desc.Dependencies, err = b.dependencies(dto.Dependencies); err != nil {
		return nil, err
	}
	if desc.Rules, err = b.rules(dto); err != nil {
		return nil, err
	}
	if dto.Environment != nil {
		if desc.Environment, err = b.environment(dto.Environment); err != nil {
			return nil, err
		}
	}
	for _, c := range dto.JobCaps {
		if c.Env == "" || c.Jobs < 1 {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "job_cap", c.Env)
		}
		desc.Parallelism.Caps = append(desc.Parallelism.Caps, domain.JobCap{Env: c.Env, Jobs: c.Jobs})
	}

	if dto.Configure != nil {
		step, err := b.step(*dto.Configure)
		if err != nil {
			return nil, err
		}
		desc.Configure = &step
	}
	for _, s := range dto.Build {
		step, err := b.step(s)
		if err != nil {
			return nil, err
		}
		desc.Build = append(desc.Build, step)
	}

	for _, c := range dto.Caveats {
		when, err := b.condition(c.When)
		if err != nil {
			return nil, zerr.With(err, "caveat", c.Text)
		}
		desc.Caveats = append(desc.Caveats, domain.CaveatSpec{Text: c.Text, When: when})
	}

	for _, r := range dto.Resources {
		digest, err := b.digest("resource "+r.Name, r.SHA256, r.SHA1)
		if err != nil {
			return nil, err
		}
		desc.Resources = append(desc.Resources, domain.ResourceSpec{Name: r.Name, URL: r.URL, Digest: digest})
	}
	if dto.Test != nil {
		if desc.Test, err = b.test(dto.Test); err != nil {
			return nil, err
		}
	}

	return desc, nil
}

func (b *builder) source(kind string, dto *SourceDTO) (domain.SourceSpec, error) {
	if dto.URL == "" {
		return domain.SourceSpec{}, zerr.With(domain.ErrInvalidDescriptor, "field", kind+".url")
	}
	digest, err := b.digest(kind+" source", dto.SHA256, dto.SHA1)
	if err != nil {
		return domain.SourceSpec{}, err
	}
	return domain.SourceSpec{
		URL:     dto.URL,
		Mirrors: slices.Clone(dto.Mirrors),
		Digest:  digest,
		Branch:  dto.Branch,
	}, nil
}

// digest validates a checksum pair. sha1 is accepted with an advisory.
func (b *builder) digest(subject, sha256, sha1 string) (domain.Digest, error) {
	switch {
	case sha256 != "" && sha1 != "":
		return domain.Digest{}, zerr.With(domain.ErrInvalidDigest, "subject", subject)
	case sha256 != "":
		return domain.NewDigest(domain.DigestSHA256, strings.ToLower(sha256))
	case sha1 != "":
		d, err := domain.NewDigest(domain.DigestSHA1, strings.ToLower(sha1))
		if err != nil {
			return domain.Digest{}, err
		}
		b.advisories = append(b.advisories, subject+": sha1 checksums are deprecated")
		return d, nil
	default:
		return domain.Digest{}, nil
	}
}

func (b *builder) declareOptions(dtos []OptionDTO) ([]domain.OptionSpec, error) {
	var specs []domain.OptionSpec
	for _, dto := range dtos {
		spec := domain.OptionSpec{
			Name:        dto.Name,
			Kind:        domain.OptionKind(dto.Kind),
			Description: dto.Description,
			Choices:     slices.Clone(dto.Choices),
		}
		for _, alias := range dto.Aliases {
			spec.Aliases = append(spec.Aliases, optionName(alias))
		}
		if spec.Name == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "options.name")
		}
		if spec.Kind == "" {
			spec.Kind = domain.OptionBool
			if len(spec.Choices) > 0 {
				spec.Kind = domain.OptionEnum
			}
		}

		switch spec.Kind {
		case domain.OptionBool:
			if dto.Default != "" {
				v, ok := spec.Canonicalize(dto.Default)
				if !ok {
					return nil, zerr.With(zerr.With(domain.ErrInvalidOptionDefault, "option", spec.Name), "default", dto.Default)
				}
				spec.Default = v
			}
		case domain.OptionEnum:
			if len(spec.Choices) == 0 {
				return nil, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "option", spec.Name), "field", "choices")
			}
			if !slices.Contains(spec.Choices, dto.Default) {
				return nil, zerr.With(zerr.With(domain.ErrInvalidOptionDefault, "option", spec.Name), "default", dto.Default)
			}
			spec.Default = dto.Default
		default:
			return nil, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "option", spec.Name), "kind", dto.Kind)
		}

		if _, dup := b.options[spec.Name]; dup {
			return nil, zerr.With(domain.ErrDuplicateOption, "option", spec.Name)
		}
		b.options[spec.Name] = spec
		for _, alias := range spec.Aliases {
			b.aliases[alias] = spec.Name
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// optionName strips the selection prefixes from a declared option reference.
func optionName(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "--")
	if rest, ok := strings.CutPrefix(s, "without-"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, "with-"); ok {
		return rest
	}
	return s
}

// declared resolves an alias to its option and returns the option.
func (b *builder) declared(name string) (domain.OptionSpec, error) {
	if target, ok := b.aliases[name]; ok {
		name = target
	}
	spec, ok := b.options[name]
	if !ok {
		return domain.OptionSpec{}, zerr.With(domain.ErrUnknownOptionReference, "option", name)
	}
	return spec, nil
}

// matches parses option references in selection syntax into canonical matches.
func (b *builder) matches(refs []string) ([]domain.OptionMatch, error) {
	out := make([]domain.OptionMatch, 0, len(refs))
	for _, ref := range refs {
		sel, err := domain.ParseSelection(ref)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidDescriptor.Error()), "option", ref)
		}
		spec, err := b.declared(sel.Name)
		if err != nil {
			return nil, err
		}
		value, ok := spec.Canonicalize(sel.Value)
		if !ok {
			return nil, &domain.InvalidChoiceError{Option: spec.Name, Value: sel.Value, Choices: spec.AllowedValues()}
		}
		out = append(out, domain.OptionMatch{Option: spec.Name, Value: value})
	}
	return out, nil
}

func (b *builder) condition(dto *ConditionDTO) (*domain.Condition, error) {
	if dto == nil {
		return nil, nil
	}
	matches, err := b.matches(dto.Options)
	if err != nil {
		return nil, err
	}
	if dto.WordSize != 0 && dto.WordSize != 32 && dto.WordSize != 64 {
		return nil, zerr.With(domain.ErrInvalidDescriptor, "word_size", dto.WordSize)
	}

	c := &domain.Condition{
		OS:           slices.Clone(dto.OS),
		NotOS:        slices.Clone(dto.NotOS),
		Arch:         slices.Clone(dto.Arch),
		NotArch:      slices.Clone(dto.NotArch),
		WordSize:     dto.WordSize,
		Compiler:     slices.Clone(dto.Compiler),
		NotCompiler:  slices.Clone(dto.NotCompiler),
		Env:          slices.Clone(dto.Env),
		NotEnv:       slices.Clone(dto.NotEnv),
		MacOSBelow:   dto.MacOSBelow,
		MacOSAtLeast: dto.MacOSAtLeast,
	}
	if len(matches) > 0 {
		c.Options = matches
	}
	for i := range dto.Any {
		alt, err := b.condition(&dto.Any[i])
		if err != nil {
			return nil, err
		}
		c.Any = append(c.Any, *alt)
	}
	if c.Not, err = b.condition(dto.Not); err != nil {
		return nil, err
	}
	return c, nil
}

func (b *builder) patches(dtos []PatchDTO) ([]domain.PatchSpec, error) {
	var out []domain.PatchSpec
	for _, dto := range dtos {
		if dto.URL == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "patches.url")
		}
		digest, err := b.digest("patch "+dto.URL, dto.SHA256, dto.SHA1)
		if err != nil {
			return nil, err
		}
		applies, err := domain.ParseVersionConstraint(dto.Applies)
		if err != nil {
			return nil, err
		}
		level := defaultPatchLevel
		if dto.Level != nil {
			level = *dto.Level
		}
		if level < 0 {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "patch_level", level)
		}
		out = append(out, domain.PatchSpec{
			URL:     dto.URL,
			Digest:  digest,
			Level:   level,
			Applies: applies,
			Comment: dto.Comment,
		})
	}
	return out, nil
}

func (b *builder) bottle(dto *BottleDTO) (*domain.BottleSpec, error) {
	if dto == nil {
		return nil, nil
	}
	if dto.Rebuild < 0 {
		return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "bottle.rebuild")
	}
	spec := &domain.BottleSpec{
		Cellar:  dto.Cellar,
		RootURL: strings.TrimSuffix(dto.RootURL, "/"),
		Rebuild: dto.Rebuild,
	}
	for _, d := range dto.Digests {
		if d.Tag == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "bottle.digests.tag")
		}
		digest, err := b.digest("bottle "+d.Tag, d.SHA256, d.SHA1)
		if err != nil {
			return nil, err
		}
		if digest.IsZero() {
			return nil, zerr.With(domain.ErrInvalidDigest, "bottle", d.Tag)
		}
		spec.Digests = append(spec.Digests, domain.BottleEntry{Tag: d.Tag, Digest: digest})
	}
	return spec, nil
}

func (b *builder) dependencies(dtos []DependencyDTO) ([]domain.DependencySpec, error) {
	var out []domain.DependencySpec
	for _, dto := range dtos {
		if dto.Name == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "depends_on.name")
		}
		spec := domain.DependencySpec{
			Name:        dto.Name,
			Tags:        slices.Clone(dto.Tags),
			Option:      optionName(dto.Option),
			Requirement: dto.Requirement,
		}
		switch kind := domain.DependencyKind(dto.Kind); kind {
		case "", domain.DependencyRuntime:
		case domain.DependencyBuild, domain.DependencyTest:
			spec.Kind = kind
		default:
			return nil, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "dependency", dto.Name), "kind", dto.Kind)
		}
		if spec.Option != "" {
			opt, err := b.declared(spec.Option)
			if err != nil {
				return nil, zerr.With(err, "dependency", dto.Name)
			}
			spec.Option = opt.Name
		}

		var err error
		if spec.When, err = b.condition(dto.When); err != nil {
			return nil, zerr.With(err, "dependency", dto.Name)
		}
		if spec.Platform, err = b.condition(dto.Platform); err != nil {
			return nil, zerr.With(err, "dependency", dto.Name)
		}
		if !spec.Platform.FactsOnly() {
			return nil, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "dependency", dto.Name), "field", "platform")
		}
		out = append(out, spec)
	}
	return out, nil
}

// rules converts conflicts, known-bad compilers and feature requirements, in that order.
func (b *builder) rules(dto *PackageDTO) ([]domain.CompatibilityRule, error) {
	var out []domain.CompatibilityRule
	for _, c := range dto.Conflicts {
		matches, err := b.matches(c.Options)
		if err != nil {
			return nil, err
		}
		if len(matches) < 2 {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "conflict", strings.Join(c.Options, ", "))
		}
		out = append(out, domain.CompatibilityRule{Conflict: &domain.ConflictRule{Matches: matches, Hint: c.Hint}})
	}

	for _, f := range dto.FailsWith {
		if f.Compiler == "" || f.Build < 0 {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "fails_with", f.Compiler)
		}
		if f.Version != "" {
			if err := domain.ValidateVersion(f.Version); err != nil {
				return nil, zerr.With(err, "fails_with", f.Compiler)
			}
		}
		out = append(out, domain.CompatibilityRule{FailsWith: &domain.FailsWithRule{
			Compiler: f.Compiler,
			Build:    f.Build,
			Version:  f.Version,
			Cause:    f.Cause,
		}})
	}

	for _, n := range dto.Needs {
		if len(n.Accept) == 0 {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "needs", n.Feature)
		}
		when, err := b.condition(n.When)
		if err != nil {
			return nil, zerr.With(err, "needs", n.Feature)
		}
		rule := &domain.NeedsRule{Feature: n.Feature, When: when, Cause: n.Cause}
		for _, a := range n.Accept {
			if a.MinVersion != "" {
				if err := domain.ValidateVersion(a.MinVersion); err != nil {
					return nil, zerr.With(err, "needs", n.Feature)
				}
			}
			rule.Accept = append(rule.Accept, domain.ToolchainRequirement{
				Compiler:   a.Compiler,
				MinBuild:   a.MinBuild,
				MinVersion: a.MinVersion,
			})
		}
		out = append(out, domain.CompatibilityRule{Needs: rule})
	}
	return out, nil
}

func (b *builder) files(dtos []FileDTO) ([]domain.FileSpec, error) {
	var out []domain.FileSpec
	for _, dto := range dtos {
		if dto.Path == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "field", "files.path")
		}
		spec := domain.FileSpec{Path: dto.Path, Append: dto.Append}
		for _, line := range dto.Lines {
			when, err := b.condition(line.When)
			if err != nil {
				return nil, zerr.With(err, "file", dto.Path)
			}
			spec.Lines = append(spec.Lines, domain.LineSpec{Text: line.Text, When: when})
		}
		out = append(out, spec)
	}
	return out, nil
}

func (b *builder) environment(dto *EnvironmentDTO) (domain.EnvironmentSpec, error) {
	files, err := b.files(dto.Files)
	if err != nil {
		return domain.EnvironmentSpec{}, err
	}
	env := domain.EnvironmentSpec{Files: files}
	for _, v := range dto.Vars {
		if v.Name == "" || strings.Contains(v.Name, "=") {
			return domain.EnvironmentSpec{}, zerr.With(domain.ErrInvalidDescriptor, "env", v.Name)
		}
		when, err := b.condition(v.When)
		if err != nil {
			return domain.EnvironmentSpec{}, zerr.With(err, "env", v.Name)
		}
		env.Vars = append(env.Vars, domain.EnvVarSpec{Name: v.Name, Value: v.Value, When: when})
	}
	return env, nil
}

// step converts a declared command. An empty phase is left for the synthesizer to default.
func (b *builder) step(dto StepDTO) (domain.StepSpec, error) {
	if dto.Exec == "" {
		return domain.StepSpec{}, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "step", dto.Name), "field", "exec")
	}
	phase := domain.Phase(dto.Phase)
	if phase != "" {
		if !slices.Contains(stepPhases, phase) {
			return domain.StepSpec{}, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "step", dto.Name), "phase", dto.Phase)
		}
	}

	when, err := b.condition(dto.When)
	if err != nil {
		return domain.StepSpec{}, zerr.With(err, "step", dto.Name)
	}
	spec := domain.StepSpec{
		Name:       dto.Name,
		Phase:      phase,
		Executable: dto.Exec,
		Args:       slices.Clone(dto.Args),
		WorkDir:    dto.WorkDir,
		When:       when,
	}

	for _, f := range dto.Flags {
		rule, err := b.flag(f)
		if err != nil {
			return domain.StepSpec{}, zerr.With(err, "step", dto.Name)
		}
		spec.Flags = append(spec.Flags, rule)
	}
	return spec, nil
}

func (b *builder) flag(dto FlagDTO) (domain.FlagRule, error) {
	when, err := b.condition(dto.When)
	if err != nil {
		return domain.FlagRule{}, err
	}
	rule := domain.FlagRule{When: when}

	forms := 0
	if dto.Option != "" {
		forms++
	}
	if dto.Join != nil {
		forms++
	}
	if len(dto.Args) > 0 {
		forms++
	}
	if forms != 1 {
		return domain.FlagRule{}, zerr.With(domain.ErrInvalidDescriptor, "field", "flags")
	}

	switch {
	case dto.Option != "":
		spec, err := b.declared(optionName(dto.Option))
		if err != nil {
			return domain.FlagRule{}, err
		}
		rule.Option = spec.Name
		if spec.Kind == domain.OptionEnum {
			if len(dto.Choices) == 0 {
				return domain.FlagRule{}, zerr.With(zerr.With(domain.ErrInvalidDescriptor, "option", spec.Name), "field", "choices")
			}
			rule.Choices = make(map[string][]string, len(dto.Choices))
			for _, choice := range slices.Sorted(maps.Keys(dto.Choices)) {
				if !slices.Contains(spec.Choices, choice) {
					return domain.FlagRule{}, &domain.InvalidChoiceError{Option: spec.Name, Value: choice, Choices: spec.Choices}
				}
				rule.Choices[choice] = slices.Clone(dto.Choices[choice])
			}
		} else {
			rule.Enabled = slices.Clone(dto.Enabled)
			rule.Disabled = slices.Clone(dto.Disabled)
		}
	case dto.Join != nil:
		join := &domain.JoinRule{Prefix: dto.Join.Prefix, Sep: dto.Join.Sep, Always: dto.Join.Always}
		for _, item := range dto.Join.Items {
			itemWhen, err := b.condition(item.When)
			if err != nil {
				return domain.FlagRule{}, err
			}
			join.Items = append(join.Items, domain.JoinItem{Value: item.Value, When: itemWhen})
		}
		rule.Join = join
	default:
		rule.Args = slices.Clone(dto.Args)
	}
	return rule, nil
}

func (b *builder) test(dto *TestDTO) (*domain.TestSpec, error) {
	files, err := b.files(dto.Files)
	if err != nil {
		return nil, err
	}
	spec := &domain.TestSpec{Files: files, Resources: slices.Clone(dto.Resources)}
	for i, c := range dto.Commands {
		if c.Exec == "" {
			return nil, zerr.With(domain.ErrInvalidDescriptor, "test_command", strconv.Itoa(i))
		}
		cmd := domain.TestCommand{Executable: c.Exec, Args: slices.Clone(c.Args), WorkDir: c.WorkDir}
		if c.Expect != nil {
			cmd.Expect = &domain.Expectation{Stdout: c.Expect.Stdout, ExitCode: c.Expect.ExitCode}
		}
		spec.Commands = append(spec.Commands, cmd)
	}
	return spec, nil
}
