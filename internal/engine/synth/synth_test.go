package synth_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/engine/bottle"
	"go.trai.ch/brewplan/internal/engine/deps"
	"go.trai.ch/brewplan/internal/engine/enginetest"
	"go.trai.ch/brewplan/internal/engine/options"
	"go.trai.ch/brewplan/internal/engine/patches"
	"go.trai.ch/brewplan/internal/engine/synth"
)

func input(t *testing.T, desc *domain.PackageDescriptor, facts domain.PlatformFacts, selections map[string]string, inv domain.Inventory) synth.Input {
	t.Helper()
	resolved, advisories, err := options.Resolve(desc, domain.SelectionsFromMap(selections))
	require.NoError(t, err)
	res, err := deps.Resolve(resolved, facts, desc.Dependencies, inv)
	require.NoError(t, err)
	selected, err := patches.Select(desc.Patches, desc.Version)
	require.NoError(t, err)
	return synth.Input{
		Descriptor:   desc,
		Resolved:     resolved,
		Facts:        facts,
		Dependencies: res,
		Patches:      selected,
		Advisories:   advisories,
	}
}

func stepNamed(t *testing.T, plan domain.BuildPlan, name string) domain.CommandStep {
	t.Helper()
	for _, s := range plan.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no step named %q", name)
	return domain.CommandStep{}
}

func TestSynthesize_BoostMPIWithoutSingle(t *testing.T) {
	plan, err := synth.Synthesize(input(t, enginetest.Boost(), enginetest.ElCapitan(),
		map[string]string{"mpi": "true", "single": "false"}, nil))
	require.NoError(t, err)

	phases := make([]domain.Phase, len(plan.Steps))
	for i, s := range plan.Steps {
		phases[i] = s.Phase
	}
	assert.Equal(t, []domain.Phase{
		domain.PhasePatch,
		domain.PhasePrepare,
		domain.PhaseConfigure,
		domain.PhaseBuild,
		domain.PhaseInstall,
		domain.PhaseTest,
		domain.PhaseTest,
		domain.PhaseTest,
	}, phases)

	patch := plan.Steps[0]
	assert.Equal(t, "patch", patch.Executable)
	assert.Equal(t, []string{"-p2"}, patch.Args)
	require.Len(t, patch.Inputs, 1)
	assert.Equal(t, "1ef54ca1dcd12d809e2a01b558113fcd734d992402d2ec78c387298ef29cc887", patch.Inputs[0].Digest.Hex)

	jam := stepNamed(t, plan, "user-config.jam")
	require.NotNil(t, jam.File)
	assert.Equal(t, "using darwin : : /usr/bin/clang++ ;\nusing mpi ;\n", jam.File.Content)
	assert.True(t, jam.File.Append)

	prefix := "/usr/local/Cellar/boost/1.61.0_1"
	assert.Equal(t, []string{
		"--prefix=" + prefix,
		"--libdir=" + prefix + "/lib",
		"--without-icu",
		"--without-libraries=python",
	}, stepNamed(t, plan, "bootstrap").Args)

	assert.Equal(t, []string{
		"--prefix=" + prefix,
		"--libdir=" + prefix + "/lib",
		"-d2",
		"-j8",
		"--layout=tagged",
		"--user-config=user-config.jam",
		"install",
		"threading=multi",
		"link=shared,static",
	}, stepNamed(t, plan, "b2").Args)

	require.Len(t, plan.Dependencies, 1)
	assert.Equal(t, "mpi", plan.Dependencies[0].Name)
	assert.NotEmpty(t, plan.Fingerprint)
	assert.Nil(t, plan.Bottle)
}

func TestSynthesize_BoostLinuxDefaults(t *testing.T) {
	plan, err := synth.Synthesize(input(t, enginetest.Boost(), enginetest.Linux(), nil, domain.Inventory{"bzip2": "/home/linuxbrew/.linuxbrew/opt/bzip2"}))
	require.NoError(t, err)

	assert.Equal(t, "using gcc : : g++ ;\n", stepNamed(t, plan, "user-config.jam").File.Content)
	assert.Contains(t, stepNamed(t, plan, "bootstrap").Args, "--without-libraries=python,log,mpi")

	b2 := stepNamed(t, plan, "b2").Args
	assert.Contains(t, b2, "-j4")
	assert.Contains(t, b2, "threading=multi,single")
	assert.Contains(t, b2, "include=/home/linuxbrew/.linuxbrew/include")
	assert.Equal(t, "linkflags=-L/home/linuxbrew/.linuxbrew/lib", b2[len(b2)-1])

	caveats := plan.StepsIn(domain.PhaseCaveat)
	require.Len(t, caveats, 1)
	assert.Equal(t, domain.StepAdvisory, caveats[0].Kind)
	assert.Contains(t, caveats[0].Message, "Boost.Log")

	require.Len(t, plan.Dependencies, 1)
	assert.Equal(t, "/home/linuxbrew/.linuxbrew/opt/bzip2", plan.Dependencies[0].Prefix)
}

func TestSynthesize_UniversalAndCXX11(t *testing.T) {
	inv := domain.Inventory{"icu4c": "/opt/icu"}
	plan, err := synth.Synthesize(input(t, enginetest.Boost(), enginetest.ElCapitan(),
		map[string]string{"universal": "true", "cxx11": "true", "icu4c": "true"}, inv))
	require.NoError(t, err)

	bootstrap := stepNamed(t, plan, "bootstrap").Args
	assert.Contains(t, bootstrap, "--with-icu=/opt/icu")
	assert.Contains(t, bootstrap, "--without-libraries=python,context,coroutine,mpi")

	b2 := stepNamed(t, plan, "b2").Args
	assert.Equal(t, []string{
		"threading=multi,single",
		"link=shared,static",
		"address-model=32_64",
		"architecture=x86",
		"pch=off",
		"cxxflags=-std=c++11",
		"cxxflags=-stdlib=libc++",
		"linkflags=-stdlib=libc++",
	}, b2[7:])

	env := plan.StepsIn(domain.PhasePrepare)
	require.Len(t, env, 2)
	assert.Equal(t, domain.StepSetenv, env[1].Kind)
	assert.Equal(t, []string{"CFLAGS=-arch i386 -arch x86_64"}, env[1].Env)

	caveats := plan.StepsIn(domain.PhaseCaveat)
	require.Len(t, caveats, 1)
	assert.Contains(t, caveats[0].Message, "Boost.Context")
}

func TestSynthesize_JobCapOverride(t *testing.T) {
	facts := enginetest.ElCapitan()
	facts.Env = map[string]string{"CIRCLECI": "true"}
	facts.JobSlots = 32

	plan, err := synth.Synthesize(input(t, enginetest.Boost(), facts, nil, nil))
	require.NoError(t, err)
	assert.Contains(t, stepNamed(t, plan, "b2").Args, "-j6")
}

func TestJobs(t *testing.T) {
	caps := domain.ParallelismSpec{Caps: []domain.JobCap{{Env: "CIRCLECI", Jobs: 6}, {Env: "CI", Jobs: 2}}}

	tests := []struct {
		name  string
		facts domain.PlatformFacts
		want  int
	}{
		{"slots", domain.PlatformFacts{JobSlots: 12}, 12},
		{"first cap wins", domain.PlatformFacts{JobSlots: 12, Env: map[string]string{"CI": "1", "CIRCLECI": "1"}}, 6},
		{"cap wins even when higher", domain.PlatformFacts{JobSlots: 1, Env: map[string]string{"CI": "1"}}, 2},
		{"unknown slots", domain.PlatformFacts{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, synth.Jobs(tt.facts, caps))
		})
	}
}

func TestSynthesize_TestPhase(t *testing.T) {
	plan, err := synth.Synthesize(input(t, enginetest.Boost(), enginetest.ElCapitan(), nil, nil))
	require.NoError(t, err)

	tests := plan.StepsIn(domain.PhaseTest)
	require.Len(t, tests, 3)
	assert.Equal(t, domain.StepWriteFile, tests[0].Kind)
	assert.Equal(t, "test", tests[0].WorkDir)
	assert.Equal(t, "/usr/bin/clang++", tests[1].Executable)
	assert.Contains(t, tests[1].Args, "-L/usr/local/Cellar/boost/1.61.0_1/lib")

	terminal := plan.Steps[len(plan.Steps)-1]
	assert.Equal(t, tests[2], terminal)
	require.NotNil(t, terminal.Expect)
	assert.Equal(t, 0, terminal.Expect.ExitCode)
}

func TestSynthesize_TestResources(t *testing.T) {
	sample, err := domain.NewDigest(domain.DigestSHA1, "0aa3c30b954f9fb0d7320d900d3a103ade6b1cec")
	require.NoError(t, err)

	desc := &domain.PackageDescriptor{
		Name:      "sysdig",
		Version:   "0.1.91",
		Stable:    domain.SourceSpec{URL: "https://github.com/draios/sysdig/archive/0.1.91.tar.gz"},
		Resources: []domain.ResourceSpec{{Name: "sample_file", URL: "https://example.com/sample.scap", Digest: sample}},
		Configure: &domain.StepSpec{
			Name: "cmake", Executable: "cmake", WorkDir: "build",
			Args: []string{"..", "-DSYSDIG_VERSION=${version}", "${std_cmake_args}"},
		},
		Test: &domain.TestSpec{
			Resources: []string{"sample_file", "missing"},
			Commands: []domain.TestCommand{
				{Executable: "${bin}/sysdig", Args: []string{"-cl"}, Expect: &domain.Expectation{ExitCode: 0}},
				{Executable: "${bin}/sysdig", Args: []string{"-r", "sample.scap"}, Expect: &domain.Expectation{Stdout: "1 open fd=5"}},
			},
		},
	}

	plan, err := synth.Synthesize(input(t, desc, enginetest.ElCapitan(), nil, nil))
	require.NoError(t, err)

	cmake := stepNamed(t, plan, "cmake")
	assert.Equal(t, "build", cmake.WorkDir)
	assert.Equal(t, "-DSYSDIG_VERSION=0.1.91", cmake.Args[1])
	assert.Contains(t, cmake.Args, "-DCMAKE_INSTALL_PREFIX=/usr/local/Cellar/sysdig/0.1.91")
	assert.Contains(t, cmake.Args, "-DCMAKE_BUILD_TYPE=Release")

	tests := plan.StepsIn(domain.PhaseTest)
	require.Len(t, tests, 2)
	require.Len(t, tests[0].Inputs, 1)
	assert.Equal(t, "sample_file", tests[0].Inputs[0].Name)
	assert.Equal(t, "1 open fd=5", tests[1].Expect.Stdout)
}

func TestSynthesize_UnknownPlaceholder(t *testing.T) {
	desc := enginetest.Libsoxr()
	desc.Build = append(desc.Build, domain.StepSpec{Name: "zlib", Executable: "make", Args: []string{"ZLIB=${dep.zlib}"}})

	_, err := synth.Synthesize(input(t, desc, enginetest.ElCapitan(), nil, nil))
	var unknown *domain.UnknownPlaceholderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "dep.zlib", unknown.Placeholder)
	assert.Equal(t, "step zlib", unknown.Context)
}

func TestSynthesize_Determinism(t *testing.T) {
	selections := map[string]string{"mpi": "true", "single": "false", "cxx11": "true"}

	first, err := synth.Synthesize(input(t, enginetest.Boost(), enginetest.Linux(), selections, nil))
	require.NoError(t, err)
	second, err := synth.Synthesize(input(t, enginetest.Boost(), enginetest.Linux(), selections, nil))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestSynthesize_Head(t *testing.T) {
	in := input(t, enginetest.Boost(), enginetest.ElCapitan(), nil, nil)
	in.Head = true
	in.Patches = nil

	plan, err := synth.Synthesize(in)
	require.NoError(t, err)
	assert.Equal(t, domain.HeadVersion, plan.Version)
	assert.True(t, plan.Head)
	assert.Equal(t, "https://github.com/boostorg/boost.git", plan.Source.URL)
	assert.Contains(t, stepNamed(t, plan, "bootstrap").Args, "--prefix=/usr/local/Cellar/boost/HEAD")
}

func TestPour(t *testing.T) {
	desc := enginetest.Boost()
	ref, ok := bottle.Select(desc, enginetest.ElCapitan())
	require.True(t, ok)

	in := input(t, desc, enginetest.ElCapitan(), map[string]string{"cxx11": "true"}, nil)
	in.Advisories = append(in.Advisories, "options had no effect; using prebuilt artifact: cxx11")

	plan, err := synth.Pour(in, ref)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)

	pour := plan.Steps[0]
	assert.Equal(t, domain.StepPour, pour.Kind)
	assert.Equal(t, domain.PhaseBottle, pour.Phase)
	require.Len(t, pour.Inputs, 1)
	assert.Equal(t, ref.Digest, pour.Inputs[0].Digest)
	assert.Equal(t, "boost-1.61.0_1.el_capitan.bottle.tar.gz", pour.Inputs[0].Name)
	assert.True(t, plan.Poured())
	assert.Empty(t, plan.StepsIn(domain.PhaseBuild))
	assert.Contains(t, plan.Advisories, "options had no effect; using prebuilt artifact: cxx11")
}
