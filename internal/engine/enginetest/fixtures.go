// Package enginetest provides descriptors and host snapshots shared by engine tests.
package enginetest

import "go.trai.ch/brewplan/internal/core/domain"

func mustDigest(alg domain.DigestAlgorithm, hex string) domain.Digest {
	d, err := domain.NewDigest(alg, hex)
	if err != nil {
		panic(err)
	}
	return d
}

func mustConstraint(s string) domain.VersionConstraint {
	c, err := domain.ParseVersionConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func opt(name, value string) []domain.OptionMatch {
	return []domain.OptionMatch{{Option: name, Value: value}}
}

// ElCapitan is a macOS 10.11 host with Apple clang.
func ElCapitan() domain.PlatformFacts {
	return domain.PlatformFacts{
		OSFamily:     domain.OSMacOS,
		OSVersion:    "10.11.6",
		OSVersionTag: "el_capitan",
		Arch:         "x86_64",
		WordSize:     64,
		Compiler: domain.Compiler{
			Name: domain.CompilerClang, Version: "7.3.0", Build: 703,
			CC: "/usr/bin/clang", CXX: "/usr/bin/clang++",
		},
		JobSlots: 8,
		Env:      map[string]string{},
		Prefix:   "/usr/local",
		Cellar:   "/usr/local/Cellar",
	}
}

// Sierra is a macOS 10.12 host, which has no entry in the Boost bottle table.
func Sierra() domain.PlatformFacts {
	f := ElCapitan()
	f.OSVersion = "10.12.6"
	f.OSVersionTag = "sierra"
	return f
}

// Linux is an x86_64 Linux host with gcc.
func Linux() domain.PlatformFacts {
	return domain.PlatformFacts{
		OSFamily:     domain.OSLinux,
		OSVersion:    "4.4.0",
		OSVersionTag: "x86_64_linux",
		Arch:         "x86_64",
		WordSize:     64,
		Compiler: domain.Compiler{
			Name: domain.CompilerGCC, Version: "5.4.0",
			CC: "gcc", CXX: "g++",
		},
		JobSlots: 4,
		Env:      map[string]string{},
		Prefix:   "/home/linuxbrew/.linuxbrew",
		Cellar:   "/home/linuxbrew/.linuxbrew/Cellar",
	}
}

// Boost returns a descriptor modeled on the Boost 1.61.0 recipe.
func Boost() *domain.PackageDescriptor {
	cxx11 := opt("cxx11", "true")
	noCxx11 := opt("cxx11", "false")
	contextUnsupported := &domain.Condition{Any: []domain.Condition{
		{Arch: []string{"ppc"}},
		{WordSize: 32},
		{Options: opt("universal", "true")},
	}}

	return &domain.PackageDescriptor{
		Name:     "boost",
		Desc:     "Collection of portable C++ source libraries",
		Homepage: "https://www.boost.org/",
		Version:  "1.61.0",
		Revision: 1,
		Stable: domain.SourceSpec{
			URL:    "https://downloads.sourceforge.net/project/boost/boost/1.61.0/boost_1_61_0.tar.bz2",
			Digest: mustDigest(domain.DigestSHA256, "a547bd06c2fd9a71ba1d169d9cf0339da7ebf4753849a8f7d6fdb8feee99b640"),
		},
		Head: &domain.SourceSpec{URL: "https://github.com/boostorg/boost.git"},
		Patches: []domain.PatchSpec{{
			URL:     "https://github.com/boostorg/optional/commit/844ca6a0.patch",
			Digest:  mustDigest(domain.DigestSHA256, "1ef54ca1dcd12d809e2a01b558113fcd734d992402d2ec78c387298ef29cc887"),
			Level:   2,
			Applies: mustConstraint("< 1.62.0"),
			Comment: "Fix build issues when optional_fwd.hpp is used before including boost/config.hpp",
		}},
		Bottle: &domain.BottleSpec{
			Cellar: "any",
			Digests: []domain.BottleEntry{
				{Tag: "el_capitan", Digest: mustDigest(domain.DigestSHA256, "0c06f4558c5f98e5615cb9a33b66ab912e702ad50a2e1051ae80171b0bda9aa3")},
				{Tag: "yosemite", Digest: mustDigest(domain.DigestSHA256, "508bfe58b3ba391690be77da7a47a34f2cf0b489cc2590c69c746d7919fa12c1")},
				{Tag: "mavericks", Digest: mustDigest(domain.DigestSHA256, "92db134e4a77c4cc0566261b09b96886b30f6c1bf81d65b120dffd6937e99f58")},
				{Tag: "x86_64_linux", Digest: mustDigest(domain.DigestSHA256, "d59b379fc3a39f0e72ff7222c40bc3177f91b2210d96254a68db5886adf5144d")},
			},
		},
		Options: []domain.OptionSpec{
			{Name: "universal", Kind: domain.OptionBool, Description: "Build a universal binary"},
			{Name: "icu4c", Kind: domain.OptionBool, Description: "Build regexp engine with icu support", Aliases: []string{"icu"}},
			{Name: "single", Kind: domain.OptionBool, Default: "true", Description: "Build single-threading variant"},
			{Name: "static", Kind: domain.OptionBool, Default: "true", Description: "Build static library variant"},
			{Name: "mpi", Kind: domain.OptionBool, Description: "Build with MPI support"},
			{Name: "cxx11", Kind: domain.OptionBool, Description: "Build using C++11 mode"},
		},
		Dependencies: []domain.DependencySpec{
			{Name: "icu4c", Tags: []string{"c++11"}, Option: "icu4c", When: &domain.Condition{Options: cxx11}},
			{Name: "open-mpi", Tags: []string{"c++11"}, Option: "mpi", When: &domain.Condition{Options: cxx11}},
			{Name: "icu4c", Option: "icu4c", When: &domain.Condition{Options: noCxx11}},
			{Name: "mpi", Tags: []string{"cc", "cxx"}, Option: "mpi", When: &domain.Condition{Options: noCxx11}, Requirement: true},
			{Name: "bzip2", Platform: &domain.Condition{NotOS: []string{domain.OSMacOS}}},
		},
		Rules: []domain.CompatibilityRule{
			{Conflict: &domain.ConflictRule{
				Matches: []domain.OptionMatch{{Option: "mpi", Value: "true"}, {Option: "single", Value: "true"}},
				Hint:    `building MPI support for both single and multi-threaded flavors is not supported; use "with-mpi" together with "without-single"`,
			}},
			{FailsWith: &domain.FailsWithRule{
				Compiler: domain.CompilerLLVM,
				Build:    2335,
				Cause:    "Dropped arguments to functions when linking with boost",
			}},
			{Needs: &domain.NeedsRule{
				Feature: "cxx11",
				When:    &domain.Condition{Options: cxx11},
				Accept: []domain.ToolchainRequirement{
					{Compiler: domain.CompilerClang, MinBuild: 425},
					{Compiler: domain.CompilerGCC, MinVersion: "4.8"},
				},
			}},
		},
		Environment: domain.EnvironmentSpec{
			Files: []domain.FileSpec{{
				Path:   "user-config.jam",
				Append: true,
				Lines: []domain.LineSpec{
					{Text: "using darwin : : ${cxx} ;", When: &domain.Condition{OS: []string{domain.OSMacOS}}},
					{Text: "using gcc : : ${cxx} ;", When: &domain.Condition{NotOS: []string{domain.OSMacOS}}},
					{Text: "using mpi ;", When: &domain.Condition{Options: opt("mpi", "true")}},
				},
			}},
			Vars: []domain.EnvVarSpec{
				{Name: "CFLAGS", Value: "-arch i386 -arch x86_64", When: &domain.Condition{Options: opt("universal", "true")}},
			},
		},
		Parallelism: domain.ParallelismSpec{Caps: []domain.JobCap{{Env: "CIRCLECI", Jobs: 6}}},
		Configure: &domain.StepSpec{
			Name:       "bootstrap",
			Executable: "./bootstrap.sh",
			Args:       []string{"--prefix=${prefix}", "--libdir=${lib}"},
			Flags: []domain.FlagRule{
				{Option: "icu4c", Enabled: []string{"--with-icu=${dep.icu4c}"}, Disabled: []string{"--without-icu"}},
				{Join: &domain.JoinRule{
					Prefix: "--without-libraries=",
					Sep:    ",",
					Items: []domain.JoinItem{
						{Value: "python"},
						{Value: "context", When: contextUnsupported},
						{Value: "coroutine", When: contextUnsupported},
						{Value: "log", When: &domain.Condition{Compiler: []string{domain.CompilerGCC, domain.CompilerLLVM}}},
						{Value: "mpi", When: &domain.Condition{Options: opt("mpi", "false")}},
					},
				}},
			},
		},
		Build: []domain.StepSpec{
			{Name: "headers", Executable: "./b2", Args: []string{"headers"}},
			{
				Name:       "b2",
				Phase:      domain.PhaseInstall,
				Executable: "./b2",
				Args: []string{
					"--prefix=${prefix}", "--libdir=${lib}", "-d2", "-j${jobs}",
					"--layout=tagged", "--user-config=user-config.jam", "install",
				},
				Flags: []domain.FlagRule{
					{Option: "single", Enabled: []string{"threading=multi,single"}, Disabled: []string{"threading=multi"}},
					{Option: "static", Enabled: []string{"link=shared,static"}, Disabled: []string{"link=shared"}},
					{Option: "universal", Enabled: []string{"address-model=32_64", "architecture=x86", "pch=off"}},
					{Option: "cxx11", Enabled: []string{"cxxflags=-std=c++11"}},
					{
						When: &domain.Condition{Options: cxx11, Compiler: []string{domain.CompilerClang}},
						Args: []string{"cxxflags=-stdlib=libc++", "linkflags=-stdlib=libc++"},
					},
					{
						When: &domain.Condition{NotOS: []string{domain.OSMacOS}},
						Args: []string{"include=${homebrew_prefix}/include", "linkflags=-L${homebrew_prefix}/lib"},
					},
				},
			},
		},
		Caveats: []domain.CaveatSpec{
			{
				Text: "Building of Boost.Log is disabled because it requires newer GCC or Clang.",
				When: &domain.Condition{Compiler: []string{domain.CompilerGCC, domain.CompilerLLVM}},
			},
			{
				Text: "Building of Boost.Context and Boost.Coroutine is disabled as they are only supported on x86_64.",
				When: contextUnsupported,
			},
		},
		Test: &domain.TestSpec{
			Files: []domain.FileSpec{{
				Path:  "test.cpp",
				Lines: []domain.LineSpec{{Text: "#include <boost/algorithm/string.hpp>"}, {Text: "int main() { return 0; }"}},
			}},
			Commands: []domain.TestCommand{
				{Executable: "${cxx}", Args: []string{"test.cpp", "-std=c++1y", "-L${lib}", "-lboost_system", "-o", "test"}},
				{Executable: "./test", Expect: &domain.Expectation{ExitCode: 0}},
			},
		},
	}
}

// Libsoxr returns a descriptor modeled on the libsoxr 0.1.2 recipe.
func Libsoxr() *domain.PackageDescriptor {
	return &domain.PackageDescriptor{
		Name:     "libsoxr",
		Desc:     "High quality, one-dimensional sample-rate conversion library",
		Homepage: "https://sourceforge.net/projects/soxr/",
		Version:  "0.1.2",
		Stable: domain.SourceSpec{
			URL:     "https://downloads.sourceforge.net/project/soxr/soxr-0.1.2-Source.tar.xz",
			Mirrors: []string{"https://mirrorservice.org/sites/ftp.debian.org/debian/pool/main/libs/libsoxr/libsoxr_0.1.2.orig.tar.xz"},
			Digest:  mustDigest(domain.DigestSHA256, "54e6f434f1c491388cd92f0e3c47f1ade082cc24327bdc43762f7d1eefe0c275"),
		},
		Bottle: &domain.BottleSpec{
			Cellar: "any",
			Digests: []domain.BottleEntry{
				{Tag: "el_capitan", Digest: mustDigest(domain.DigestSHA256, "077ef8de96bc1d6e91c102a1ef37a8abdfc5a5c58e630ddf4c71d588f4928514")},
				{Tag: "x86_64_linux", Digest: mustDigest(domain.DigestSHA256, "55fd913abd961958bd99944771851f1f1bcabbf2c58751fa1a6e718144c9b1a6")},
			},
		},
		Dependencies: []domain.DependencySpec{{Name: "cmake", Kind: domain.DependencyBuild}},
		Configure:    &domain.StepSpec{Name: "cmake", Executable: "cmake", Args: []string{".", "${std_cmake_args}"}},
		Build:        []domain.StepSpec{{Name: "install", Phase: domain.PhaseInstall, Executable: "make", Args: []string{"install"}}},
	}
}
