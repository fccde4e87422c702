// Package compiler runs the resolution pipeline that turns a descriptor into a build plan.
package compiler

import (
	"context"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/brewplan/internal/engine/bottle"
	"go.trai.ch/brewplan/internal/engine/constraints"
	"go.trai.ch/brewplan/internal/engine/deps"
	"go.trai.ch/brewplan/internal/engine/options"
	"go.trai.ch/brewplan/internal/engine/patches"
	"go.trai.ch/brewplan/internal/engine/synth"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// bottleAdvisory is reported when a prebuilt artifact satisfies a request that selected options explicitly.
const bottleAdvisory = "options had no effect; using prebuilt artifact"

// Request is one resolution: a loaded descriptor and the parameters to resolve it with.
type Request struct {
	// Path is the descriptor file the plan is keyed on.
	Path       string
	// CacheDir is the plan cache directory. Requests without a path or cache directory are never cached.
	CacheDir   string
	Descriptor *domain.PackageDescriptor
	Params     domain.ResolutionParams
	// Advisories are carried into the plan ahead of the pipeline's own, such as load-time notices.
	Advisories []string
}

// Compiler resolves requests, recording each stage and caching plans by input key.
type Compiler struct {
	telemetry ports.Telemetry
	store     ports.PlanStore
	hasher    ports.Hasher
	logger    ports.Logger
}

// New creates a Compiler. A nil store or hasher disables caching.
func New(telemetry ports.Telemetry, store ports.PlanStore, hasher ports.Hasher, logger ports.Logger) *Compiler {
	return &Compiler{
		telemetry: telemetry,
		store:     store,
		hasher:    hasher,
		logger:    logger,
	}
}

// Compile resolves desc without telemetry or caching.
func Compile(ctx context.Context, desc *domain.PackageDescriptor, params domain.ResolutionParams) (*domain.BuildPlan, error) {
	return (&Compiler{}).Compile(ctx, Request{Descriptor: desc, Params: params})
}

// Compile resolves one request. It never returns a partial plan: any failure yields a nil plan.
func (c *Compiler) Compile(ctx context.Context, req Request) (*domain.BuildPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := c.cacheKey(req)
	if plan := c.cached(ctx, req, key); plan != nil {
		return plan, nil
	}

	plan, err := c.run(ctx, req)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := c.store.Put(req.CacheDir, key, plan); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to cache plan"), "package", plan.Package)
		}
	}
	return plan, nil
}

// CompileAll resolves independent requests concurrently, at most parallelism at a time.
// Plans are returned in request order. The first failure cancels the remaining resolutions.
func (c *Compiler) CompileAll(ctx context.Context, reqs []Request, parallelism int) ([]*domain.BuildPlan, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrNoDescriptors
	}
	if parallelism < 1 {
		parallelism = 1
	}

	plans := make([]*domain.BuildPlan, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, req := range reqs {
		g.Go(func() error {
			plan, err := c.Compile(gctx, req)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "resolution failed"), "package", requestName(req))
			}
			plans[i] = plan
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func requestName(req Request) string {
	if req.Descriptor != nil && req.Descriptor.Name != "" {
		return req.Descriptor.Name
	}
	return req.Path
}

func (c *Compiler) cacheKey(req Request) string {
	if c.store == nil || c.hasher == nil || req.Path == "" || req.CacheDir == "" {
		return ""
	}
	key, err := c.hasher.ComputePlanKey(req.Path, req.Params)
	if err != nil {
		c.warn("plan cache disabled for " + req.Path + ": " + err.Error())
		return ""
	}
	return key
}

// cached returns the stored plan for key if it is present and its fingerprint still matches its contents.
func (c *Compiler) cached(ctx context.Context, req Request, key string) *domain.BuildPlan {
	if key == "" {
		return nil
	}
	plan, err := c.store.Get(req.CacheDir, key)
	if err != nil {
		c.warn("ignoring cached plan: " + err.Error())
		return nil
	}
	if plan == nil {
		return nil
	}

	check := *plan
	if err := check.Seal(); err != nil || check.Fingerprint != plan.Fingerprint {
		c.warn("ignoring cached plan with stale fingerprint for " + requestName(req))
		return nil
	}

	if c.telemetry != nil {
		_, vertex := c.telemetry.Record(ctx, requestName(req)+": plan")
		vertex.Cached()
		vertex.Complete(nil)
	}
	return plan
}

func (c *Compiler) warn(msg string) {
	if c.logger != nil {
		c.logger.Warn(msg)
	}
}

// run executes the stages in order: options, constraints, then either the
// bottle short-circuit or dependencies, patches and synthesis.
func (c *Compiler) run(ctx context.Context, req Request) (*domain.BuildPlan, error) {
	desc := req.Descriptor
	if desc == nil {
		return nil, zerr.With(domain.ErrInvalidDescriptor, "path", req.Path)
	}
	params := req.Params
	if params.Head && desc.Head == nil {
		return nil, zerr.With(domain.ErrHeadUnavailable, "package", desc.Name)
	}

	p := &pipeline{telemetry: c.telemetry, pkg: desc.Name}
	in := synth.Input{
		Descriptor: desc,
		Facts:      params.Facts,
		Head:       params.Head,
		Advisories: append([]string(nil), req.Advisories...),
	}

	err := p.stage(ctx, domain.StageOptions, func() error {
		resolved, advisories, err := options.Resolve(desc, params.Selections)
		in.Resolved = resolved
		in.Advisories = append(in.Advisories, advisories...)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, domain.StageConstraints, func() error {
		return constraints.Validate(in.Resolved, params.Facts, desc.Rules)
	})
	if err != nil {
		return nil, err
	}

	var (
		ref    domain.BottleRef
		poured bool
	)
	if !params.Head && !params.BuildFromSource {
		err = p.stage(ctx, domain.StageBottle, func() error {
			ref, poured = bottle.Select(desc, params.Facts)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if poured {
		if explicit := in.Resolved.Explicit(); len(explicit) > 0 {
			in.Advisories = append(in.Advisories, bottleAdvisory+": "+strings.Join(explicit, ", "))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		plan, err := synth.Pour(in, ref)
		if err != nil {
			return nil, err
		}
		return &plan, nil
	}

	err = p.stage(ctx, domain.StageDeps, func() error {
		res, err := deps.Resolve(in.Resolved, params.Facts, desc.Dependencies, params.Inventory)
		in.Dependencies = res
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, domain.StagePatches, func() error {
		version := desc.Version
		if params.Head {
			version = domain.HeadVersion
		}
		selected, err := patches.Select(desc.Patches, version)
		in.Patches = selected
		return err
	})
	if err != nil {
		return nil, err
	}

	var plan domain.BuildPlan
	err = p.stage(ctx, domain.StageSynthesize, func() error {
		var err error
		plan, err = synth.Synthesize(in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

type pipeline struct {
	telemetry ports.Telemetry
	pkg       string
	previous  string
}

// stage runs fn as one recorded vertex. Cancellation is checked before the stage starts.
func (p *pipeline) stage(ctx context.Context, stage domain.Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.telemetry == nil {
		return fn()
	}

	var opts []ports.VertexOption
	if p.previous != "" {
		opts = append(opts, ports.WithInputs(p.previous))
	}
	name := stage.VertexName(p.pkg)
	_, vertex := p.telemetry.Record(ctx, name, opts...)
	p.previous = name

	err := fn()
	if err != nil {
		vertex.Log(domain.LogLevelError, err.Error())
	}
	vertex.Complete(err)
	return err
}
