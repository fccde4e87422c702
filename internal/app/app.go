// Package app implements the application layer for brewplan.
package app

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/brewplan/internal/engine/compiler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader    ports.DescriptorLoader
	resolver  ports.DescriptorResolver
	facts     ports.FactsProvider
	compiler  *compiler.Compiler
	executor  ports.Executor
	renderer  ports.Renderer
	telemetry ports.Telemetry
	logger    ports.Logger
	out       io.Writer
}

// New creates a new App instance writing its output to stdout.
func New(
	loader ports.DescriptorLoader,
	resolver ports.DescriptorResolver,
	facts ports.FactsProvider,
	comp *compiler.Compiler,
	executor ports.Executor,
	renderer ports.Renderer,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *App {
	return &App{
		loader:    loader,
		resolver:  resolver,
		facts:     facts,
		compiler:  comp,
		executor:  executor,
		renderer:  renderer,
		telemetry: telemetry,
		logger:    logger,
		out:       os.Stdout,
	}
}

// WithOutput redirects rendered plans and option listings to w.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

type verboser interface {
	SetVerbose(verbose bool)
}

// SetVerbose enables debug logging when the logger supports it.
func (a *App) SetVerbose(verbose bool) {
	if l, ok := a.logger.(verboser); ok {
		l.SetVerbose(verbose)
	}
}

// ResolveOptions configures how descriptors are resolved into plans.
type ResolveOptions struct {
	// With and Without name bool options to enable or disable.
	With    []string
	Without []string
	// Options are raw selections such as "layout=tagged" or "with-icu4c".
	// "HEAD" selects the head source.
	Options []string
	// Deps are "name=prefix" entries describing installed dependencies.
	Deps            []string
	Head            bool
	BuildFromSource bool
	// OSTag and Compiler override the captured host facts.
	OSTag    string
	Compiler string
	// CacheDir is the plan cache directory. NoCache disables the cache.
	CacheDir string
	NoCache  bool
}

// PlanOptions configures the plan command.
type PlanOptions struct {
	ResolveOptions
	Format string
}

// ApplyOptions configures the apply command.
type ApplyOptions struct {
	ResolveOptions
	// WorkDir is the directory steps run in. It defaults to the current directory.
	WorkDir string
	// ArtifactDir holds the downloaded inputs named by the plan's steps.
	ArtifactDir string
}

// Plan resolves every descriptor matched by args and renders the plans in argument order.
func (a *App) Plan(ctx context.Context, args []string, opts PlanOptions) error {
	format, err := domain.ParseOutputFormat(opts.Format)
	if err != nil {
		return err
	}

	paths, err := a.resolver.ResolveDescriptors(args)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve descriptors")
	}

	reqs := make([]compiler.Request, 0, len(paths))
	for _, path := range paths {
		req, err := a.request(ctx, path, opts.ResolveOptions)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	plans, err := a.compiler.CompileAll(ctx, reqs, runtime.NumCPU())
	if err != nil {
		return err
	}
	for _, plan := range plans {
		a.warnAdvisories(plan)
	}

	return a.renderer.RenderPlans(a.out, format, plans)
}

// Apply resolves the single descriptor at path and executes its plan.
func (a *App) Apply(ctx context.Context, path string, opts ApplyOptions) error {
	req, err := a.request(ctx, path, opts.ResolveOptions)
	if err != nil {
		return err
	}

	plan, err := a.compiler.Compile(ctx, req)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "resolution failed"), "package", req.Descriptor.Name)
	}
	a.warnAdvisories(plan)

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return zerr.Wrap(err, "failed to get working directory")
		}
	}
	artifactDir := opts.ArtifactDir
	if artifactDir == "" {
		artifactDir = workDir
	}

	vctx, vertex := a.telemetry.Record(ctx, plan.Package+": apply")
	err = a.executor.Execute(vctx, plan, workDir, artifactDir)
	vertex.Complete(err)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "apply failed"), "package", plan.Package)
	}

	a.logger.Info("applied " + plan.Package + " " + plan.Version)
	return nil
}

// Options lists the options the descriptor at path declares.
func (a *App) Options(_ context.Context, path, format string) error {
	f, err := domain.ParseOutputFormat(format)
	if err != nil {
		return err
	}

	desc, advisories, err := a.loader.Load(path)
	if err != nil {
		return zerr.Wrap(err, "failed to load descriptor")
	}
	for _, advisory := range advisories {
		a.logger.Warn(advisory)
	}

	return a.renderer.RenderOptions(a.out, f, desc)
}

// request loads the descriptor at path and captures one facts snapshot for it.
func (a *App) request(ctx context.Context, path string, opts ResolveOptions) (compiler.Request, error) {
	desc, advisories, err := a.loader.Load(path)
	if err != nil {
		return compiler.Request{}, zerr.With(zerr.Wrap(err, "failed to load descriptor"), "path", path)
	}

	selections, head, err := Selections(opts)
	if err != nil {
		return compiler.Request{}, err
	}

	inventory, err := domain.ParseInventory(opts.Deps)
	if err != nil {
		return compiler.Request{}, err
	}

	facts, err := a.facts.Snapshot(ctx, desc.EnvRefs()...)
	if err != nil {
		return compiler.Request{}, zerr.Wrap(err, "failed to capture platform facts")
	}
	facts, err = facts.Override(domain.FactOverrides{OSTag: opts.OSTag, Compiler: opts.Compiler})
	if err != nil {
		return compiler.Request{}, err
	}

	req := compiler.Request{
		Path:       path,
		Descriptor: desc,
		Params: domain.ResolutionParams{
			Selections:      selections,
			Facts:           facts,
			Inventory:       inventory,
			Head:            head || opts.Head,
			BuildFromSource: opts.BuildFromSource,
		},
		Advisories: advisories,
	}
	if !opts.NoCache {
		req.CacheDir = opts.CacheDir
	}
	return req, nil
}

// Selections converts the option flags into selections in the order
// --with, --without, then --option. A "HEAD" or "head" entry among the raw
// options selects the head source and is not an option.
func Selections(opts ResolveOptions) ([]domain.Selection, bool, error) {
	raw := make([]string, 0, len(opts.With)+len(opts.Without)+len(opts.Options))
	for _, name := range opts.With {
		raw = append(raw, "with-"+strings.TrimPrefix(name, "--"))
	}
	for _, name := range opts.Without {
		raw = append(raw, "without-"+strings.TrimPrefix(name, "--"))
	}
	raw = append(raw, opts.Options...)

	var (
		selections []domain.Selection
		head       bool
	)
	for _, r := range raw {
		if s := strings.TrimPrefix(strings.TrimSpace(r), "--"); s == domain.HeadVersion || s == "head" {
			head = true
			continue
		}
		sel, err := domain.ParseSelection(r)
		if err != nil {
			return nil, false, err
		}
		selections = append(selections, sel)
	}
	return selections, head, nil
}

func (a *App) warnAdvisories(plan *domain.BuildPlan) {
	for _, advisory := range plan.Advisories {
		a.logger.Warn(plan.Package + ": " + advisory)
	}
}
