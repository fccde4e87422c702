// Package synth renders resolved options, dependencies and patches into an ordered build plan.
package synth

import (
	"os"
	"path"
	"strconv"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/engine/bottle"
	"go.trai.ch/brewplan/internal/engine/deps"
)

const defaultPrefix = "/usr/local"

// Input is everything the synthesizer consumes. It is read, never mutated.
type Input struct {
	Descriptor   *domain.PackageDescriptor
	Resolved     domain.ResolvedOptionSet
	Facts        domain.PlatformFacts
	Dependencies deps.Resolution
	Patches      []domain.PatchSpec
	Head         bool
	Advisories   []string
}

// Synthesize emits the build plan in fixed phase order: patches, environment
// preparation, configure, build and install, caveats, then the smoke test.
func Synthesize(in Input) (domain.BuildPlan, error) {
	s := newSynthesizer(in)

	plan := s.basePlan()
	plan.Dependencies = in.Dependencies.Included
	plan.Diagnostics = in.Dependencies.Omitted

	stages := []func() ([]domain.CommandStep, error){
		s.patchSteps,
		s.prepareSteps,
		s.configureSteps,
		s.buildSteps,
		s.caveatSteps,
		s.testSteps,
	}
	for _, stage := range stages {
		steps, err := stage()
		if err != nil {
			return domain.BuildPlan{}, err
		}
		plan.Steps = append(plan.Steps, steps...)
	}

	if err := plan.Seal(); err != nil {
		return domain.BuildPlan{}, err
	}
	return plan, nil
}

// Pour emits the plan for a matched prebuilt artifact: a single pour step and no build phase.
func Pour(in Input, ref domain.BottleRef) (domain.BuildPlan, error) {
	s := newSynthesizer(in)
	file := bottle.FileName(ref)

	plan := s.basePlan()
	plan.Bottle = &ref
	plan.Steps = []domain.CommandStep{{
		Phase: domain.PhaseBottle,
		Kind:  domain.StepPour,
		Name:  "pour",
		Inputs: []domain.Artifact{{
			Name:   file,
			URL:    ref.URL,
			Digest: ref.Digest,
		}},
		Message: "pour " + file,
	}}

	if err := plan.Seal(); err != nil {
		return domain.BuildPlan{}, err
	}
	return plan, nil
}

type synthesizer struct {
	in   Input
	desc *domain.PackageDescriptor
	vars map[string]string
}

func newSynthesizer(in Input) *synthesizer {
	desc := in.Descriptor
	version := desc.Version
	dirVersion := desc.FullVersion()
	if in.Head {
		version = domain.HeadVersion
		dirVersion = domain.HeadVersion
	}

	root := in.Facts.Prefix
	if root == "" {
		root = defaultPrefix
	}
	cellar := in.Facts.Cellar
	if cellar == "" {
		cellar = root + "/Cellar"
	}
	prefix := cellar + "/" + desc.Name + "/" + dirVersion

	cc, cxx := in.Facts.Compiler.CC, in.Facts.Compiler.CXX
	if cc == "" {
		cc = "cc"
	}
	if cxx == "" {
		cxx = "c++"
	}

	return &synthesizer{
		in:   in,
		desc: desc,
		vars: map[string]string{
			"prefix":          prefix,
			"lib":             prefix + "/lib",
			"bin":             prefix + "/bin",
			"include":         prefix + "/include",
			"share":           prefix + "/share",
			"etc":             root + "/etc",
			"elisp":           prefix + "/share/emacs/site-lisp/" + desc.Name,
			"opt_prefix":      root + "/opt/" + desc.Name,
			"homebrew_prefix": root,
			"version":         version,
			"name":            desc.Name,
			"jobs":            strconv.Itoa(Jobs(in.Facts, desc.Parallelism)),
			"cc":              cc,
			"cxx":             cxx,
		},
	}
}

// Jobs returns the parallelism for build steps. The first job cap whose
// environment variable is set always wins over the host's job slots.
func Jobs(facts domain.PlatformFacts, spec domain.ParallelismSpec) int {
	for _, c := range spec.Caps {
		if facts.EnvSet(c.Env) {
			return c.Jobs
		}
	}
	if facts.JobSlots > 0 {
		return facts.JobSlots
	}
	return 1
}

func (s *synthesizer) basePlan() domain.BuildPlan {
	src := s.desc.Stable
	if s.in.Head && s.desc.Head != nil {
		src = *s.desc.Head
	}

	version := s.desc.FullVersion()
	if s.in.Head {
		version = domain.HeadVersion
	}

	return domain.BuildPlan{
		Package: s.desc.Name,
		Version: version,
		Head:    s.in.Head,
		Source: domain.Artifact{
			Name:    s.desc.Name,
			URL:     src.URL,
			Mirrors: src.Mirrors,
			Digest:  src.Digest,
			Branch:  src.Branch,
		},
		Options:    s.in.Resolved.Entries(),
		Advisories: s.in.Advisories,
	}
}

func (s *synthesizer) eval(c *domain.Condition) (bool, error) {
	return c.Eval(s.in.Resolved, s.in.Facts)
}

func (s *synthesizer) lookup(name string) (string, bool) {
	if dep, ok := strings.CutPrefix(name, domain.DepPlaceholderPrefix); ok {
		d, included := s.in.Dependencies.Lookup(dep)
		if !included {
			return "", false
		}
		if d.Prefix != "" {
			return d.Prefix, true
		}
		return s.vars["homebrew_prefix"] + "/opt/" + dep, true
	}
	v, ok := s.vars[name]
	return v, ok
}

// expand substitutes ${name} placeholders. The first unknown name is reported.
func (s *synthesizer) expand(value, where string) (string, error) {
	var err error
	out := os.Expand(value, func(name string) string {
		v, ok := s.lookup(name)
		if !ok && err == nil {
			err = &domain.UnknownPlaceholderError{Placeholder: name, Context: where}
		}
		return v
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// expandArgs expands every argument; a standalone ${std_cmake_args} becomes the standard CMake arguments.
func (s *synthesizer) expandArgs(args []string, where string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "${"+domain.StdCMakeArgs+"}" {
			out = append(out, s.stdCMakeArgs()...)
			continue
		}
		v, err := s.expand(arg, where)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *synthesizer) stdCMakeArgs() []string {
	return []string{
		"-DCMAKE_C_FLAGS_RELEASE=-DNDEBUG",
		"-DCMAKE_CXX_FLAGS_RELEASE=-DNDEBUG",
		"-DCMAKE_INSTALL_PREFIX=" + s.vars["prefix"],
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_FIND_FRAMEWORK=LAST",
		"-DCMAKE_VERBOSE_MAKEFILE=ON",
		"-Wno-dev",
	}
}

func (s *synthesizer) patchSteps() ([]domain.CommandStep, error) {
	steps := make([]domain.CommandStep, 0, len(s.in.Patches))
	for _, p := range s.in.Patches {
		level := p.Level
		if level <= 0 {
			level = 1
		}
		steps = append(steps, domain.CommandStep{
			Phase:      domain.PhasePatch,
			Kind:       domain.StepExec,
			Name:       path.Base(p.URL),
			Executable: "patch",
			Args:       []string{"-p" + strconv.Itoa(level)},
			Inputs:     []domain.Artifact{{Name: path.Base(p.URL), URL: p.URL, Digest: p.Digest}},
		})
	}
	return steps, nil
}

func (s *synthesizer) prepareSteps() ([]domain.CommandStep, error) {
	var steps []domain.CommandStep
	for _, f := range s.desc.Environment.Files {
		step, ok, err := s.writeFile(f, domain.PhasePrepare, "")
		if err != nil {
			return nil, err
		}
		if ok {
			steps = append(steps, step)
		}
	}

	var env []string
	for _, v := range s.desc.Environment.Vars {
		ok, err := s.eval(v.When)
		if err != nil {
			return nil, domain.WithSubject(err, "environment variable "+v.Name)
		}
		if !ok {
			continue
		}
		value, err := s.expand(v.Value, "environment variable "+v.Name)
		if err != nil {
			return nil, err
		}
		env = append(env, v.Name+"="+value)
	}
	if len(env) > 0 {
		steps = append(steps, domain.CommandStep{
			Phase: domain.PhasePrepare,
			Kind:  domain.StepSetenv,
			Name:  "environment",
			Env:   env,
		})
	}
	return steps, nil
}

// writeFile renders the active lines of f. A file without active lines is skipped.
func (s *synthesizer) writeFile(f domain.FileSpec, phase domain.Phase, workDir string) (domain.CommandStep, bool, error) {
	where := "file " + f.Path
	var b strings.Builder
	for _, line := range f.Lines {
		ok, err := s.eval(line.When)
		if err != nil {
			return domain.CommandStep{}, false, domain.WithSubject(err, where)
		}
		if !ok {
			continue
		}
		text, err := s.expand(line.Text, where)
		if err != nil {
			return domain.CommandStep{}, false, err
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return domain.CommandStep{}, false, nil
	}
	return domain.CommandStep{
		Phase:   phase,
		Kind:    domain.StepWriteFile,
		Name:    f.Path,
		WorkDir: workDir,
		File:    &domain.FileContent{Path: f.Path, Content: b.String(), Append: f.Append},
	}, true, nil
}

func (s *synthesizer) configureSteps() ([]domain.CommandStep, error) {
	if s.desc.Configure == nil {
		return nil, nil
	}
	step, ok, err := s.command(*s.desc.Configure, domain.PhaseConfigure)
	if err != nil || !ok {
		return nil, err
	}
	return []domain.CommandStep{step}, nil
}

func (s *synthesizer) buildSteps() ([]domain.CommandStep, error) {
	steps := make([]domain.CommandStep, 0, len(s.desc.Build))
	for _, spec := range s.desc.Build {
		step, ok, err := s.command(spec, domain.PhaseBuild)
		if err != nil {
			return nil, err
		}
		if ok {
			steps = append(steps, step)
		}
	}
	return steps, nil
}

// command renders a declared step: static arguments first, then one fragment
// per applicable flag rule in declaration order.
func (s *synthesizer) command(spec domain.StepSpec, defaultPhase domain.Phase) (domain.CommandStep, bool, error) {
	where := "step " + spec.Name
	if spec.Name == "" {
		where = "step " + spec.Executable
	}

	ok, err := s.eval(spec.When)
	if err != nil {
		return domain.CommandStep{}, false, domain.WithSubject(err, where)
	}
	if !ok {
		return domain.CommandStep{}, false, nil
	}

	executable, err := s.expand(spec.Executable, where)
	if err != nil {
		return domain.CommandStep{}, false, err
	}
	args, err := s.expandArgs(spec.Args, where)
	if err != nil {
		return domain.CommandStep{}, false, err
	}
	for _, rule := range spec.Flags {
		fragments, err := s.flag(rule, where)
		if err != nil {
			return domain.CommandStep{}, false, err
		}
		expanded, err := s.expandArgs(fragments, where)
		if err != nil {
			return domain.CommandStep{}, false, err
		}
		args = append(args, expanded...)
	}
	workDir, err := s.expand(spec.WorkDir, where)
	if err != nil {
		return domain.CommandStep{}, false, err
	}

	phase := spec.Phase
	if phase == "" {
		phase = defaultPhase
	}
	return domain.CommandStep{
		Phase:      phase,
		Kind:       domain.StepExec,
		Name:       spec.Name,
		Executable: executable,
		Args:       args,
		WorkDir:    workDir,
	}, true, nil
}

func (s *synthesizer) flag(rule domain.FlagRule, where string) ([]string, error) {
	ok, err := s.eval(rule.When)
	if err != nil {
		return nil, domain.WithSubject(err, where)
	}
	if !ok {
		return nil, nil
	}

	switch {
	case rule.Option != "":
		value, _ := s.in.Resolved.Value(rule.Option)
		opt, _ := s.desc.Option(rule.Option)
		if opt.Kind == domain.OptionEnum {
			return rule.Choices[value], nil
		}
		if value == "true" {
			return rule.Enabled, nil
		}
		return rule.Disabled, nil
	case rule.Join != nil:
		var items []string
		for _, item := range rule.Join.Items {
			ok, err := s.eval(item.When)
			if err != nil {
				return nil, domain.WithSubject(err, where)
			}
			if ok {
				items = append(items, item.Value)
			}
		}
		if len(items) == 0 && !rule.Join.Always {
			return nil, nil
		}
		return []string{rule.Join.Prefix + strings.Join(items, rule.Join.Sep)}, nil
	default:
		return rule.Args, nil
	}
}

func (s *synthesizer) caveatSteps() ([]domain.CommandStep, error) {
	var steps []domain.CommandStep
	for i, c := range s.desc.Caveats {
		ok, err := s.eval(c.When)
		if err != nil {
			return nil, domain.WithSubject(err, "caveat "+strconv.Itoa(i+1))
		}
		if !ok {
			continue
		}
		text, err := s.expand(c.Text, "caveat "+strconv.Itoa(i+1))
		if err != nil {
			return nil, err
		}
		steps = append(steps, domain.CommandStep{
			Phase:   domain.PhaseCaveat,
			Kind:    domain.StepAdvisory,
			Message: text,
		})
	}
	return steps, nil
}

const testDir = "test"

// testSteps emits the smoke test. The last command is the terminal step and always carries an expectation.
func (s *synthesizer) testSteps() ([]domain.CommandStep, error) {
	t := s.desc.Test
	if t == nil || len(t.Commands) == 0 {
		return nil, nil
	}

	var steps []domain.CommandStep
	for _, f := range t.Files {
		step, ok, err := s.writeFile(f, domain.PhaseTest, testDir)
		if err != nil {
			return nil, err
		}
		if ok {
			steps = append(steps, step)
		}
	}

	for i, cmd := range t.Commands {
		where := "test command " + strconv.Itoa(i+1)
		executable, err := s.expand(cmd.Executable, where)
		if err != nil {
			return nil, err
		}
		args, err := s.expandArgs(cmd.Args, where)
		if err != nil {
			return nil, err
		}
		workDir := testDir
		if cmd.WorkDir != "" {
			if workDir, err = s.expand(cmd.WorkDir, where); err != nil {
				return nil, err
			}
		}
		step := domain.CommandStep{
			Phase:      domain.PhaseTest,
			Kind:       domain.StepExec,
			Executable: executable,
			Args:       args,
			WorkDir:    workDir,
		}
		if cmd.Expect != nil {
			expect := *cmd.Expect
			if expect.Stdout, err = s.expand(expect.Stdout, where); err != nil {
				return nil, err
			}
			step.Expect = &expect
		}
		if i == 0 {
			step.Inputs = s.resourceInputs(t.Resources)
		}
		if i == len(t.Commands)-1 && step.Expect == nil {
			step.Expect = &domain.Expectation{ExitCode: 0}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s *synthesizer) resourceInputs(names []string) []domain.Artifact {
	var inputs []domain.Artifact
	for _, name := range names {
		r, ok := s.desc.Resource(name)
		if !ok {
			continue
		}
		inputs = append(inputs, domain.Artifact{Name: r.Name, URL: r.URL, Digest: r.Digest})
	}
	return inputs
}
