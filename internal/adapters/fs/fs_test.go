package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/adapters/fs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWalker_WalkFiles(t *testing.T) {
	// tmp/
	//   .git/config.yaml
	//   .brewplan/cache/plans/x.yaml
	//   Formula/boost.yaml
	//   Formula/sysdig.hcl
	//   Formula/README.md
	//   libsoxr.yml
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".git", "config.yaml"), "git")
	writeFile(t, filepath.Join(tmpDir, ".brewplan", "cache", "plans", "x.yaml"), "cache")
	writeFile(t, filepath.Join(tmpDir, "Formula", "boost.yaml"), "name: boost")
	writeFile(t, filepath.Join(tmpDir, "Formula", "sysdig.hcl"), `name = "sysdig"`)
	writeFile(t, filepath.Join(tmpDir, "Formula", "README.md"), "# Formulae")
	writeFile(t, filepath.Join(tmpDir, "libsoxr.yml"), "name: libsoxr")

	files := make(map[string]bool)
	for path, err := range fs.NewWalker().WalkFiles(tmpDir, fs.DescriptorPatterns) {
		require.NoError(t, err)
		rel, err := filepath.Rel(tmpDir, path)
		require.NoError(t, err)
		files[filepath.ToSlash(rel)] = true
	}

	assert.Equal(t, map[string]bool{
		"Formula/boost.yaml": true,
		"Formula/sysdig.hcl": true,
		"libsoxr.yml":        true,
	}, files)
}

func TestWalker_WalkFiles_NoPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.txt"), "a")
	writeFile(t, filepath.Join(tmpDir, "b", "c.md"), "c")

	var count int
	for _, err := range fs.NewWalker().WalkFiles(tmpDir, nil) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestWalker_WalkFiles_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "gone")

		var errs []error
		for path, err := range fs.NewWalker().WalkFiles(root, fs.DescriptorPatterns) {
			assert.Equal(t, root, path)
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorContains(t, errs[0], "failed to walk directory")
	})

	t.Run("unreadable subdirectory", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("directory permissions do not apply to root")
		}
		tmpDir := t.TempDir()
		locked := filepath.Join(tmpDir, "locked")
		writeFile(t, filepath.Join(locked, "hidden.yaml"), "x")
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o750) })

		var walkErr error
		for _, err := range fs.NewWalker().WalkFiles(tmpDir, fs.DescriptorPatterns) {
			if err != nil {
				walkErr = err
			}
		}
		assert.ErrorContains(t, walkErr, "failed to walk directory")
	})
}

func TestWalker_WalkFiles_StopsEarly(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		writeFile(t, filepath.Join(tmpDir, name), "x")
	}

	var count int
	for range fs.NewWalker().WalkFiles(tmpDir, fs.DescriptorPatterns) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
