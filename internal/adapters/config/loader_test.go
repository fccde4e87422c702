package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/adapters/config"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports/mocks"
	"go.trai.ch/brewplan/internal/engine/enginetest"
	"go.uber.org/mock/gomock"
)

const header = `
name: demo
version: 1.0.0
stable:
  url: https://example.com/demo-1.0.0.tar.gz
  sha256: a547bd06c2fd9a71ba1d169d9cf0339da7ebf4753849a8f7d6fdb8feee99b640
`

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	return config.NewLoader(mockLogger), mockLogger
}

func writeDescriptor(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load_BoostYAML(t *testing.T) {
	loader, _ := newLoader(t)

	desc, advisories, err := loader.Load(filepath.Join("testdata", "boost.yaml"))
	require.NoError(t, err)
	assert.Empty(t, advisories)
	assert.Equal(t, enginetest.Boost(), desc)
}

func TestLoader_Load_LibsoxrHCL(t *testing.T) {
	loader, _ := newLoader(t)

	desc, advisories, err := loader.Load(filepath.Join("testdata", "libsoxr.hcl"))
	require.NoError(t, err)
	assert.Empty(t, advisories)
	assert.Equal(t, enginetest.Libsoxr(), desc)
}

func TestLoader_Load_SysdigHCL(t *testing.T) {
	loader, _ := newLoader(t)

	desc, advisories, err := loader.Load(filepath.Join("testdata", "sysdig.hcl"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"stable source: sha1 checksums are deprecated",
		"bottle yosemite: sha1 checksums are deprecated",
		"bottle mavericks: sha1 checksums are deprecated",
		"bottle mountain_lion: sha1 checksums are deprecated",
		"resource sample_file: sha1 checksums are deprecated",
	}, advisories)

	assert.Equal(t, domain.DigestSHA1, desc.Stable.Digest.Algorithm)
	require.NotNil(t, desc.Head)
	assert.Equal(t, "master", desc.Head.Branch)
	assert.Equal(t, domain.DependencyBuild, desc.Dependencies[0].Kind)

	require.Len(t, desc.Environment.Vars, 1)
	assert.Equal(t, "mavericks", desc.Environment.Vars[0].When.MacOSBelow)

	require.NotNil(t, desc.Configure)
	assert.Equal(t, []string{"..", "-DSYSDIG_VERSION=${version}", "${std_cmake_args}"}, desc.Configure.Args)
	assert.Equal(t, "build", desc.Configure.WorkDir)

	require.NotNil(t, desc.Test)
	assert.Equal(t, []string{"sample_file"}, desc.Test.Resources)
	require.Len(t, desc.Test.Commands, 2)
	assert.Nil(t, desc.Test.Commands[0].Expect)
	require.NotNil(t, desc.Test.Commands[1].Expect)
	assert.Contains(t, desc.Test.Commands[1].Expect.Stdout, "name=sample.scap")
}

func TestLoader_Load_ApelYML(t *testing.T) {
	loader, _ := newLoader(t)

	desc, advisories, err := loader.Load(filepath.Join("testdata", "apel.yml"))
	require.NoError(t, err)
	assert.Empty(t, advisories)

	assert.Equal(t, "10.8", desc.Version)
	assert.Equal(t, "any_skip_relocation", desc.Bottle.Cellar)
	assert.Len(t, desc.Bottle.Digests, 4)
	require.Len(t, desc.Test.Files, 1)
	assert.Equal(t, `(add-to-list 'load-path "${elisp}/emu")`, desc.Test.Files[0].Lines[0].Text)
	assert.Equal(t, &domain.Expectation{Stdout: "0"}, desc.Test.Commands[0].Expect)
}

func TestLoader_Load_WarnsOnNameMismatch(t *testing.T) {
	loader, mockLogger := newLoader(t)
	path := writeDescriptor(t, "other.yaml", header)

	mockLogger.EXPECT().Warn(`descriptor other.yaml declares package "demo"`).Times(1)

	desc, _, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", desc.Name)
}

func TestLoader_Load_Options(t *testing.T) {
	loader, _ := newLoader(t)
	path := writeDescriptor(t, "demo.yaml", header+`
options:
  - name: icu4c
    aliases: [--with-icu]
  - name: layout
    choices: [tagged, system]
    default: tagged
  - name: static
    default: "1"
deprecated_options:
  - from: with-unicode
    to: --with-icu4c
depends_on:
  - name: icu4c
    option: icu
conflicts:
  - options: [without-static, layout=system]
`)

	desc, _, err := loader.Load(path)
	require.NoError(t, err)

	require.Len(t, desc.Options, 3)
	assert.Equal(t, []string{"icu"}, desc.Options[0].Aliases)
	assert.Equal(t, domain.OptionEnum, desc.Options[1].Kind)
	assert.Equal(t, domain.OptionBool, desc.Options[2].Kind)
	assert.Equal(t, "true", desc.Options[2].Default)
	assert.Equal(t, []domain.Deprecation{{From: "unicode", To: "icu4c"}}, desc.Deprecations)

	// Aliases are resolved when the descriptor is loaded.
	assert.Equal(t, "icu4c", desc.Dependencies[0].Option)
	assert.Equal(t, []domain.OptionMatch{
		{Option: "static", Value: "false"},
		{Option: "layout", Value: "system"},
	}, desc.Rules[0].Conflict.Matches)
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader, _ := newLoader(t)
	path := writeDescriptor(t, "demo.yaml", header+`
patches:
  - url: https://example.com/fix.patch
    sha256: 1ef54ca1dcd12d809e2a01b558113fcd734d992402d2ec78c387298ef29cc887
bottle:
  root_url: https://example.com/bottles/
  digests:
    - tag: sierra
      sha256: 0C06F4558C5F98E5615CB9A33B66AB912E702AD50A2E1051AE80171B0BDA9AA3
caveats:
  - Restart your shell.
`)

	desc, _, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, desc.Patches[0].Level)
	assert.True(t, desc.Patches[0].Applies.IsZero())
	assert.Equal(t, "https://example.com/bottles", desc.Bottle.Root())
	assert.Equal(t, "0c06f4558c5f98e5615cb9a33b66ab912e702ad50a2e1051ae80171b0bda9aa3", desc.Bottle.Digests[0].Digest.Hex)
	assert.Equal(t, []domain.CaveatSpec{{Text: "Restart your shell."}}, desc.Caveats)
}

func TestLoader_Load_DatedVersions(t *testing.T) {
	for _, version := range []string{"1.08", "2016.01.30", "1.2.3a", "9.1p1"} {
		t.Run(version, func(t *testing.T) {
			loader, _ := newLoader(t)
			path := writeDescriptor(t, "demo.yaml", "name: demo\nversion: "+version+
				"\nstable: {url: https://example.com/demo.tar.gz}\n"+
				"patches: [{url: https://example.com/fix.patch, applies: \"< 2016.01.30\"}]\n")

			desc, _, err := loader.Load(path)
			require.NoError(t, err)
			assert.Equal(t, version, desc.Version)
			assert.Equal(t, "< 2016.01.30", desc.Patches[0].Applies.String())
		})
	}
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unsupported extension",
			file:    "demo.toml",
			content: header,
			wantErr: domain.ErrUnsupportedDescriptorFormat,
		},
		{
			name:    "unknown field",
			file:    "demo.yaml",
			content: header + "sources: []\n",
			wantMsg: domain.ErrDescriptorParseFailed.Error(),
		},
		{
			name:    "invalid hcl",
			file:    "demo.hcl",
			content: `package "demo" {`,
			wantMsg: domain.ErrDescriptorParseFailed.Error(),
		},
		{
			name:    "uncomparable version",
			file:    "demo.yaml",
			content: "name: demo\nversion: 1.x.3\nstable: {url: https://example.com/demo.tar.gz}\n",
			wantMsg: domain.ErrInvalidVersion.Error(),
		},
		{
			name:    "uncomparable toolchain version",
			file:    "demo.yaml",
			content: header + "needs: [{feature: cxx11, accept: [{compiler: gcc, min_version: gcc-4.8}]}]\n",
			wantMsg: domain.ErrInvalidVersion.Error(),
		},
		{
			name:    "missing source",
			file:    "demo.yaml",
			content: "name: demo\nversion: 1.0.0\n",
			wantErr: domain.ErrMissingSource,
		},
		{
			name: "both checksums",
			file: "demo.yaml",
			content: `
name: demo
version: 1.0.0
stable:
  url: https://example.com/demo.tar.gz
  sha256: a547bd06c2fd9a71ba1d169d9cf0339da7ebf4753849a8f7d6fdb8feee99b640
  sha1: 6bb8bbcc74b144678e18446e71a519e2d2dfd28a
`,
			wantErr: domain.ErrInvalidDigest,
		},
		{
			name: "malformed checksum",
			file: "demo.yaml",
			content: `
name: demo
version: 1.0.0
stable:
  url: https://example.com/demo.tar.gz
  sha256: abc
`,
			wantMsg: domain.ErrInvalidDigest.Error(),
		},
		{
			name:    "duplicate option",
			file:    "demo.yaml",
			content: header + "options: [{name: mpi}, {name: mpi}]\n",
			wantErr: domain.ErrDuplicateOption,
		},
		{
			name:    "alias shadows option",
			file:    "demo.yaml",
			content: header + "options: [{name: mpi}, {name: icu4c, aliases: [mpi]}]\n",
			wantErr: domain.ErrDuplicateOption,
		},
		{
			name:    "enum default outside choices",
			file:    "demo.yaml",
			content: header + "options: [{name: layout, choices: [tagged], default: system}]\n",
			wantErr: domain.ErrInvalidOptionDefault,
		},
		{
			name:    "bool default not boolean",
			file:    "demo.yaml",
			content: header + "options: [{name: mpi, default: maybe}]\n",
			wantErr: domain.ErrInvalidOptionDefault,
		},
		{
			name:    "deprecation target undeclared",
			file:    "demo.yaml",
			content: header + "deprecated_options: [{from: with-icu, to: icu4c}]\n",
			wantErr: domain.ErrUnknownOptionReference,
		},
		{
			name:    "condition references undeclared option",
			file:    "demo.yaml",
			content: header + "depends_on: [{name: icu4c, when: {options: [cxx11]}}]\n",
			wantErr: domain.ErrUnknownOptionReference,
		},
		{
			name:    "dependency gated by enum",
			file:    "demo.yaml",
			content: header + "options: [{name: layout, choices: [tagged], default: tagged}]\ndepends_on: [{name: icu4c, option: layout}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "platform condition references option",
			file:    "demo.yaml",
			content: header + "options: [{name: mpi}]\ndepends_on: [{name: open-mpi, platform: {options: [mpi]}}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "unknown dependency kind",
			file:    "demo.yaml",
			content: header + "depends_on: [{name: cmake, kind: optional}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "conflict needs two options",
			file:    "demo.yaml",
			content: header + "options: [{name: mpi}]\nconflicts: [{options: [mpi]}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "needs without accepted toolchain",
			file:    "demo.yaml",
			content: header + "needs: [{feature: cxx11}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name: "duplicate bottle tag",
			file: "demo.yaml",
			content: header + `
bottle:
  digests:
    - {tag: sierra, sha256: 0c06f4558c5f98e5615cb9a33b66ab912e702ad50a2e1051ae80171b0bda9aa3}
    - {tag: sierra, sha256: 508bfe58b3ba391690be77da7a47a34f2cf0b489cc2590c69c746d7919fa12c1}
`,
			wantErr: domain.ErrDuplicateBottleTag,
		},
		{
			name:    "bottle without checksum",
			file:    "demo.yaml",
			content: header + "bottle: {digests: [{tag: sierra}]}\n",
			wantErr: domain.ErrInvalidDigest,
		},
		{
			name:    "invalid patch constraint",
			file:    "demo.yaml",
			content: header + "patches: [{url: https://example.com/fix.patch, applies: \"~> 1.0\"}]\n",
			wantMsg: domain.ErrInvalidVersionConstraint.Error(),
		},
		{
			name:    "unknown step phase",
			file:    "demo.yaml",
			content: header + "build: [{exec: make, phase: bottle}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "flag with two forms",
			file:    "demo.yaml",
			content: header + "options: [{name: mpi}]\nbuild: [{exec: make, flags: [{option: mpi, args: [-j1]}]}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "undeclared test resource",
			file:    "demo.yaml",
			content: header + "test: {resources: [sample], commands: [{exec: \"true\"}]}\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "zero job cap",
			file:    "demo.yaml",
			content: header + "job_caps: [{env: CIRCLECI, jobs: 0}]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newLoader(t)
			path := writeDescriptor(t, tt.file, tt.content)

			desc, _, err := loader.Load(path)
			require.Error(t, err)
			assert.Nil(t, desc)
			if tt.wantErr != nil {
				assert.ErrorContains(t, err, tt.wantErr.Error())
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestLoader_Load_InvalidChoiceInFlag(t *testing.T) {
	loader, _ := newLoader(t)
	path := writeDescriptor(t, "demo.yaml", header+`
options:
  - name: layout
    choices: [tagged, system]
    default: tagged
build:
  - exec: ./b2
    flags:
      - option: layout
        choices:
          versioned: [--layout=versioned]
`)

	_, _, err := loader.Load(path)
	var choiceErr *domain.InvalidChoiceError
	require.True(t, errors.As(err, &choiceErr))
	assert.Equal(t, "layout", choiceErr.Option)
	assert.Equal(t, "versioned", choiceErr.Value)
}

func TestLoader_Load_UnknownPlaceholder(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		placeholder string
		context     string
	}{
		{
			name:        "static name",
			content:     header + "build: [{name: make, exec: make, args: [\"PREFIX=${prefx}\"]}]\n",
			placeholder: "prefx",
			context:     "step make",
		},
		{
			name:        "undeclared dependency",
			content:     header + "caveats: [\"Linked against ${dep.icu4c}\"]\n",
			placeholder: "dep.icu4c",
			context:     "caveat 1",
		},
		{
			name:        "shell status",
			content:     header + "test: {commands: [{exec: sh, args: [-c, \"exit $?\"]}]}\n",
			placeholder: "?",
			context:     "test command 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newLoader(t)
			path := writeDescriptor(t, "demo.yaml", tt.content)

			_, _, err := loader.Load(path)
			var placeholderErr *domain.UnknownPlaceholderError
			require.True(t, errors.As(err, &placeholderErr), "got %v", err)
			assert.Equal(t, tt.placeholder, placeholderErr.Placeholder)
			assert.Equal(t, tt.context, placeholderErr.Context)
		})
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader, _ := newLoader(t)

	_, _, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDescriptorReadFailed.Error())
}
