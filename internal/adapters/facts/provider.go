// Package facts provides the host platform snapshot.
package facts

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
)

// Environment variables read by the provider.
const (
	EnvHomebrewCC      = "HOMEBREW_CC"
	EnvCC              = "CC"
	EnvCXX             = "CXX"
	EnvCompilerVersion = "BREWPLAN_COMPILER_VERSION"
	EnvCompilerBuild   = "BREWPLAN_COMPILER_BUILD"
	EnvMakeJobs        = "HOMEBREW_MAKE_JOBS"
	EnvPrefix          = "HOMEBREW_PREFIX"
	EnvCellar          = "HOMEBREW_CELLAR"
)

// DefaultEnvNames are always captured in the snapshot when set.
var DefaultEnvNames = []string{"CI", "CIRCLECI", EnvMakeJobs}

var _ ports.FactsProvider = (*Provider)(nil)

// Provider implements ports.FactsProvider for the running host.
type Provider struct {
	goos      string
	goarch    string
	getenv    func(string) string
	osVersion func() (string, error)
	numCPU    func() int
}

// Option configures a Provider.
type Option func(*Provider)

// WithPlatform replaces the runtime GOOS and GOARCH.
func WithPlatform(goos, goarch string) Option {
	return func(p *Provider) {
		p.goos = goos
		p.goarch = goarch
	}
}

// WithGetenv replaces os.Getenv.
func WithGetenv(getenv func(string) string) Option {
	return func(p *Provider) {
		p.getenv = getenv
	}
}

// WithOSVersion replaces the host OS version lookup.
func WithOSVersion(fn func() (string, error)) Option {
	return func(p *Provider) {
		p.osVersion = fn
	}
}

// WithNumCPU replaces runtime.NumCPU.
func WithNumCPU(fn func() int) Option {
	return func(p *Provider) {
		p.numCPU = fn
	}
}

// NewProvider creates a new Provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		goos:      runtime.GOOS,
		goarch:    runtime.GOARCH,
		getenv:    os.Getenv,
		osVersion: hostOSVersion,
		numCPU:    runtime.NumCPU,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot captures the host facts. The returned value shares nothing with the provider.
func (p *Provider) Snapshot(ctx context.Context, envNames ...string) (domain.PlatformFacts, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlatformFacts{}, err
	}

	version, err := p.osVersion()
	if err != nil {
		return domain.PlatformFacts{}, zerr.With(zerr.Wrap(err, domain.ErrFactsUnavailable.Error()), "os", p.goos)
	}

	arch := archName(p.goarch)
	f := domain.PlatformFacts{
		OSFamily:  osFamily(p.goos),
		OSVersion: version,
		Arch:      arch,
		WordSize:  domain.WordSizeOf(arch),
		JobSlots:  p.jobSlots(),
		Env:       p.env(envNames),
	}
	f.OSVersionTag = domain.BottleTag(f.OSFamily, f.OSVersion, f.Arch)

	f.Compiler, err = p.compiler(f.OSFamily)
	if err != nil {
		return domain.PlatformFacts{}, err
	}

	f.Prefix = p.getenv(EnvPrefix)
	if f.Prefix == "" {
		f.Prefix = domain.DefaultPrefix(f.OSFamily, f.Arch)
	}
	f.Cellar = p.getenv(EnvCellar)
	if f.Cellar == "" && f.Prefix != "" {
		f.Cellar = filepath.Join(f.Prefix, "Cellar")
	}
	return f, nil
}

func (p *Provider) env(extra []string) map[string]string {
	names := slices.Concat(DefaultEnvNames, extra)
	env := make(map[string]string, len(names))
	for _, name := range names {
		if v := p.getenv(name); v != "" {
			env[name] = v
		}
	}
	return env
}

func (p *Provider) jobSlots() int {
	if v := p.getenv(EnvMakeJobs); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return max(p.numCPU(), 1)
}

// compiler identifies the toolchain from HOMEBREW_CC, then CC. The version and
// build number are never read from the compiler binary; they come from
// BREWPLAN_COMPILER_VERSION and BREWPLAN_COMPILER_BUILD or stay unknown.
func (p *Provider) compiler(family string) (domain.Compiler, error) {
	c := domain.Compiler{
		CC:  p.getenv(EnvCC),
		CXX: p.getenv(EnvCXX),
	}

	switch {
	case p.getenv(EnvHomebrewCC) != "":
		c.Name, c.Version = compilerIdentity(p.getenv(EnvHomebrewCC))
	case c.CC != "":
		c.Name, c.Version = compilerIdentity(filepath.Base(c.CC))
	}
	if c.Name == "" || c.Name == "cc" {
		c.Name = defaultCompiler(family)
	}
	if c.CC == "" {
		c.CC, c.CXX = domain.DefaultDrivers(c.Name, c.Version)
	}

	if v := p.getenv(EnvCompilerVersion); v != "" {
		c.Version = v
	}
	if v := p.getenv(EnvCompilerBuild); v != "" {
		build, err := strconv.Atoi(v)
		if err != nil || build < 0 {
			return domain.Compiler{}, zerr.With(zerr.With(domain.ErrInvalidFactOverride, "env", EnvCompilerBuild), "value", v)
		}
		c.Build = build
	}
	return c, nil
}

// compilerIdentity maps a driver or HOMEBREW_CC value such as "gcc-4.9",
// "llvm_clang" or "clang++" to a compiler name and version.
func compilerIdentity(s string) (name, version string) {
	s = strings.ReplaceAll(s, "++", "")
	base, suffix, _ := strings.Cut(s, "-")
	switch {
	case strings.HasPrefix(s, "llvm-g"):
		return domain.CompilerLLVM, ""
	case base == "llvm_clang", base == "clang":
		return domain.CompilerClang, suffix
	case base == "gcc", base == "g":
		return domain.CompilerGCC, suffix
	case base == "cc" || base == "c":
		return "cc", ""
	default:
		return "", ""
	}
}

func defaultCompiler(family string) string {
	switch family {
	case domain.OSMacOS:
		return domain.CompilerClang
	case domain.OSLinux:
		return domain.CompilerGCC
	default:
		return ""
	}
}

func osFamily(goos string) string {
	switch goos {
	case "darwin":
		return domain.OSMacOS
	case "linux":
		return domain.OSLinux
	default:
		return goos
	}
}

func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i386"
	default:
		return goarch
	}
}
