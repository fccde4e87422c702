package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/adapters/fs"
	"go.trai.ch/brewplan/internal/core/domain"
)

func TestHasher_ComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boost.yaml")
	writeFile(t, path, "hello world")

	hasher := fs.NewHasher()
	hash1, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.NotZero(t, hash1)

	hash2, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	_, err = hasher.ComputeFileHash(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to open file")
}

func baseParams() domain.ResolutionParams {
	return domain.ResolutionParams{
		Selections: []domain.Selection{{Name: "mpi", Value: "true", Raw: "with-mpi"}},
		Facts: domain.PlatformFacts{
			OSFamily:     domain.OSMacOS,
			OSVersion:    "10.11.6",
			OSVersionTag: "el_capitan",
			Arch:         "x86_64",
			WordSize:     64,
			Compiler:     domain.Compiler{Name: domain.CompilerClang, Build: 703},
			JobSlots:     8,
			Env:          map[string]string{"CI": "1"},
		},
		Inventory: domain.Inventory{"icu4c": "/usr/local/opt/icu4c"},
	}
}

func TestHasher_ComputePlanKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boost.yaml")
	writeFile(t, path, "name: boost\nversion: 1.61.0\n")

	hasher := fs.NewHasher()
	base, err := hasher.ComputePlanKey(path, baseParams())
	require.NoError(t, err)
	assert.Len(t, base, 16)

	again, err := hasher.ComputePlanKey(path, baseParams())
	require.NoError(t, err)
	assert.Equal(t, base, again, "expected deterministic key")

	tests := []struct {
		name   string
		mutate func(p *domain.ResolutionParams)
	}{
		{"selection value", func(p *domain.ResolutionParams) { p.Selections[0].Value = "false" }},
		{"extra selection", func(p *domain.ResolutionParams) {
			p.Selections = append(p.Selections, domain.Selection{Name: "cxx11", Value: "true", Raw: "cxx11"})
		}},
		{"os tag", func(p *domain.ResolutionParams) { p.Facts.OSVersionTag = "sierra" }},
		{"compiler build", func(p *domain.ResolutionParams) { p.Facts.Compiler.Build = 800 }},
		{"job slots", func(p *domain.ResolutionParams) { p.Facts.JobSlots = 2 }},
		{"env", func(p *domain.ResolutionParams) { p.Facts.Env["CIRCLECI"] = "true" }},
		{"inventory", func(p *domain.ResolutionParams) { p.Inventory["icu4c"] = "/opt/icu" }},
		{"head", func(p *domain.ResolutionParams) { p.Head = true }},
		{"build from source", func(p *domain.ResolutionParams) { p.BuildFromSource = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			key, err := hasher.ComputePlanKey(path, p)
			require.NoError(t, err)
			assert.NotEqual(t, base, key)
		})
	}

	t.Run("descriptor contents", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "boost.yaml")
		writeFile(t, other, "name: boost\nversion: 1.62.0\n")
		key, err := hasher.ComputePlanKey(other, baseParams())
		require.NoError(t, err)
		assert.NotEqual(t, base, key)
	})

	t.Run("map order is irrelevant", func(t *testing.T) {
		p := baseParams()
		p.Facts.Env = map[string]string{"B": "2", "A": "1"}
		k1, err := hasher.ComputePlanKey(path, p)
		require.NoError(t, err)
		p.Facts.Env = map[string]string{"A": "1", "B": "2"}
		k2, err := hasher.ComputePlanKey(path, p)
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
	})

	t.Run("missing descriptor", func(t *testing.T) {
		_, err := hasher.ComputePlanKey(filepath.Join(t.TempDir(), "gone.yaml"), baseParams())
		assert.ErrorContains(t, err, "failed to open file")
	})
}
