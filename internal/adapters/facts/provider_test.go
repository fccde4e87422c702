package facts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/adapters/facts"
	"go.trai.ch/brewplan/internal/core/domain"
)

func envOf(vars map[string]string) func(string) string {
	return func(name string) string {
		return vars[name]
	}
}

func provider(goos, goarch, version string, env map[string]string) *facts.Provider {
	return facts.NewProvider(
		facts.WithPlatform(goos, goarch),
		facts.WithGetenv(envOf(env)),
		facts.WithOSVersion(func() (string, error) { return version, nil }),
		facts.WithNumCPU(func() int { return 8 }),
	)
}

func TestProvider_Snapshot_MacOS(t *testing.T) {
	p := provider("darwin", "amd64", "10.11.6", map[string]string{})

	got, err := p.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OSMacOS, got.OSFamily)
	assert.Equal(t, "10.11.6", got.OSVersion)
	assert.Equal(t, "el_capitan", got.OSVersionTag)
	assert.Equal(t, "x86_64", got.Arch)
	assert.Equal(t, 64, got.WordSize)
	assert.Equal(t, 8, got.JobSlots)
	assert.Equal(t, domain.Compiler{Name: domain.CompilerClang, CC: "clang", CXX: "clang++"}, got.Compiler)
	assert.Equal(t, "/usr/local", got.Prefix)
	assert.Equal(t, "/usr/local/Cellar", got.Cellar)
	assert.Empty(t, got.Env)
}

func TestProvider_Snapshot_AppleSilicon(t *testing.T) {
	got, err := provider("darwin", "arm64", "14.2.1", nil).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "arm64_sonoma", got.OSVersionTag)
	assert.Equal(t, "/opt/homebrew", got.Prefix)
}

func TestProvider_Snapshot_Linux(t *testing.T) {
	got, err := provider("linux", "amd64", "6.1.0", nil).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OSLinux, got.OSFamily)
	assert.Equal(t, "x86_64_linux", got.OSVersionTag)
	assert.Equal(t, domain.CompilerGCC, got.Compiler.Name)
	assert.Equal(t, "/home/linuxbrew/.linuxbrew/Cellar", got.Cellar)
}

func TestProvider_Snapshot_Env(t *testing.T) {
	env := map[string]string{
		"CIRCLECI":           "true",
		"HOMEBREW_MAKE_JOBS": "3",
		"MY_FLAG":            "1",
		"UNRELATED":          "x",
	}

	got, err := provider("darwin", "amd64", "10.12.6", env).Snapshot(context.Background(), "MY_FLAG", "UNSET")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"CIRCLECI": "true", "HOMEBREW_MAKE_JOBS": "3", "MY_FLAG": "1"}, got.Env)
	assert.Equal(t, 3, got.JobSlots)
	assert.True(t, got.EnvSet("CIRCLECI"))
	assert.False(t, got.EnvSet("UNRELATED"))
}

func TestProvider_Snapshot_Compiler(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want domain.Compiler
	}{
		{
			name: "homebrew cc with version",
			env:  map[string]string{"HOMEBREW_CC": "gcc-4.9"},
			want: domain.Compiler{Name: domain.CompilerGCC, Version: "4.9", CC: "gcc-4.9", CXX: "g++-4.9"},
		},
		{
			name: "llvm-gcc driver",
			env:  map[string]string{"CC": "/usr/bin/llvm-gcc-4.2", "CXX": "/usr/bin/llvm-g++-4.2"},
			want: domain.Compiler{Name: domain.CompilerLLVM, CC: "/usr/bin/llvm-gcc-4.2", CXX: "/usr/bin/llvm-g++-4.2"},
		},
		{
			name: "generic cc falls back to platform default",
			env:  map[string]string{"CC": "cc"},
			want: domain.Compiler{Name: domain.CompilerClang, CC: "cc"},
		},
		{
			name: "version and build overrides",
			env: map[string]string{
				"HOMEBREW_CC":               "clang",
				"BREWPLAN_COMPILER_VERSION": "3.1",
				"BREWPLAN_COMPILER_BUILD":   "318",
			},
			want: domain.Compiler{Name: domain.CompilerClang, Version: "3.1", Build: 318, CC: "clang", CXX: "clang++"},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"CC": "/opt/intel/bin/icc"},
			want: domain.Compiler{Name: domain.CompilerClang, CC: "/opt/intel/bin/icc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider("darwin", "amd64", "10.11.6", tt.env).Snapshot(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Compiler)
		})
	}
}

func TestProvider_Snapshot_InvalidBuild(t *testing.T) {
	p := provider("darwin", "amd64", "10.11.6", map[string]string{"BREWPLAN_COMPILER_BUILD": "latest"})

	_, err := p.Snapshot(context.Background())
	require.ErrorContains(t, err, domain.ErrInvalidFactOverride.Error())
}

func TestProvider_Snapshot_OSVersionFailure(t *testing.T) {
	p := facts.NewProvider(
		facts.WithPlatform("darwin", "amd64"),
		facts.WithOSVersion(func() (string, error) { return "", errors.New("sysctl failed") }),
	)

	_, err := p.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFactsUnavailable.Error())
}

func TestProvider_Snapshot_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider("linux", "amd64", "6.1.0", nil).Snapshot(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Snapshot_Host(t *testing.T) {
	got, err := facts.NewProvider().Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got.Arch)
	assert.Positive(t, got.JobSlots)
}
