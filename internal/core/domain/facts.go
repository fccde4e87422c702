package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

const (
	// OSMacOS is the OS family reported for Darwin hosts.
	OSMacOS = "macos"
	// OSLinux is the OS family reported for Linux hosts.
	OSLinux = "linux"
)

const (
	// CompilerClang identifies Apple or LLVM clang.
	CompilerClang = "clang"
	// CompilerGCC identifies GNU gcc (including Apple gcc-4.2).
	CompilerGCC = "gcc"
	// CompilerLLVM identifies the legacy llvm-gcc front end.
	CompilerLLVM = "llvm"
)

// Compiler describes the active C/C++ toolchain.
type Compiler struct {
	// Name is the compiler identity (clang, gcc, llvm). Empty means unknown.
	Name string `json:"name,omitempty"`
	// Version is the dotted compiler version (e.g. "4.9", "7.3.0").
	Version string `json:"version,omitempty"`
	// Build is the vendor build number (Apple clang/llvm-gcc), zero when unknown.
	Build int `json:"build,omitempty"`
	// CC and CXX are the driver executables.
	CC  string `json:"cc,omitempty"`
	CXX string `json:"cxx,omitempty"`
}

// Known reports whether the compiler identity was detected.
func (c Compiler) Known() bool {
	return c.Name != ""
}

// PlatformFacts is a read-only snapshot of the host taken once per resolution.
// Every engine component receives it by value.
type PlatformFacts struct {
	OSFamily     string            `json:"os_family,omitempty"`
	OSVersion    string            `json:"os_version,omitempty"`
	OSVersionTag string            `json:"os_version_tag,omitempty"`
	Arch         string            `json:"arch,omitempty"`
	WordSize     int               `json:"word_size,omitempty"`
	Compiler     Compiler          `json:"compiler"`
	JobSlots     int               `json:"job_slots,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	Prefix       string            `json:"prefix,omitempty"`
	Cellar       string            `json:"cellar,omitempty"`
}

// EnvSet reports whether the named environment variable was set and non-empty when the snapshot was taken.
func (f PlatformFacts) EnvSet(name string) bool {
	return f.Env[name] != ""
}

// EnvNames returns the captured environment variable names in sorted order.
func (f PlatformFacts) EnvNames() []string {
	return slices.Sorted(maps.Keys(f.Env))
}

// Clone returns a deep copy, so a caller mutating its own facts cannot tear a snapshot in use.
func (f PlatformFacts) Clone() PlatformFacts {
	out := f
	out.Env = maps.Clone(f.Env)
	return out
}

// Is32Bit reports whether the host word size is 32 bits.
func (f PlatformFacts) Is32Bit() bool {
	return f.WordSize == 32
}

// FactOverrides replace detected facts for one invocation.
type FactOverrides struct {
	// OSTag is a bottle tag such as "el_capitan", "arm64_sonoma" or "x86_64_linux".
	OSTag string
	// Compiler is "name[-version][+build]", e.g. "clang-7.3.0+703", "gcc-4.9" or "llvm+2335".
	Compiler string
}

// Override returns a copy of f with the overrides applied.
func (f PlatformFacts) Override(o FactOverrides) (PlatformFacts, error) {
	out := f.Clone()
	if o.OSTag != "" {
		if err := out.overrideOSTag(o.OSTag); err != nil {
			return PlatformFacts{}, err
		}
	}
	if o.Compiler != "" {
		c, err := ParseCompiler(o.Compiler)
		if err != nil {
			return PlatformFacts{}, err
		}
		// Detected drivers belong to the detected compiler.
		if c.Name == out.Compiler.Name && (c.Version == "" || c.Version == out.Compiler.Version) {
			c.CC, c.CXX = out.Compiler.CC, out.Compiler.CXX
		} else {
			c.CC, c.CXX = DefaultDrivers(c.Name, c.Version)
		}
		out.Compiler = c
	}
	return out, nil
}

func (f *PlatformFacts) overrideOSTag(tag string) error {
	family, arch, version := OSLinux, "", ""
	if a, ok := strings.CutSuffix(tag, "_linux"); ok && a != "" {
		arch = a
		if f.OSFamily == OSLinux {
			version = f.OSVersion
		}
	} else {
		codename := tag
		arch = f.Arch
		if rest, ok := strings.CutPrefix(tag, "arm64_"); ok {
			codename, arch = rest, "arm64"
		}
		v, ok := MacOSVersionForCodename(codename)
		if !ok {
			return zerr.With(ErrInvalidFactOverride, "os_tag", tag)
		}
		family, version = OSMacOS, v
	}

	// A prefix at the old platform's default follows the new platform.
	if next := DefaultPrefix(family, arch); next != f.Prefix && (f.Prefix == "" || f.Prefix == DefaultPrefix(f.OSFamily, f.Arch)) {
		f.Prefix = next
		f.Cellar = ""
		if next != "" {
			f.Cellar = next + "/Cellar"
		}
	}
	if arch != f.Arch || family == OSLinux {
		f.WordSize = WordSizeOf(arch)
	}
	f.OSFamily = family
	f.Arch = arch
	f.OSVersion = version
	f.OSVersionTag = tag
	return nil
}

// DefaultPrefix is the install prefix used on family and arch when none is configured.
func DefaultPrefix(family, arch string) string {
	switch {
	case family == OSMacOS && arch == "arm64":
		return "/opt/homebrew"
	case family == OSMacOS:
		return "/usr/local"
	case family == OSLinux:
		return "/home/linuxbrew/.linuxbrew"
	default:
		return ""
	}
}

// DefaultDrivers returns the C and C++ driver executables for a compiler.
// A gcc version selects the versioned drivers, such as gcc-4.9 or gcc-7.
func DefaultDrivers(name, version string) (cc, cxx string) {
	switch name {
	case CompilerClang:
		return "clang", "clang++"
	case CompilerGCC:
		if suffix := gccSuffix(version); suffix != "" {
			return "gcc-" + suffix, "g++-" + suffix
		}
		return "gcc", "g++"
	case CompilerLLVM:
		return "llvm-gcc", "llvm-g++"
	default:
		return "", ""
	}
}

// gccSuffix keeps major.minor before gcc 5 and the major version from then on.
func gccSuffix(version string) string {
	if version == "" {
		return ""
	}
	parts := strings.Split(version, ".")
	major, err := strconv.Atoi(parts[0])
	switch {
	case err != nil:
		return version
	case major >= 5 || len(parts) == 1:
		return parts[0]
	default:
		return parts[0] + "." + parts[1]
	}
}

// ParseCompiler parses the "name[-version][+build]" form.
func ParseCompiler(s string) (Compiler, error) {
	rest, buildStr, hasBuild := strings.Cut(s, "+")
	name, version, _ := strings.Cut(rest, "-")

	switch name {
	case CompilerClang, CompilerGCC, CompilerLLVM:
	default:
		return Compiler{}, zerr.With(ErrInvalidFactOverride, "compiler", s)
	}

	c := Compiler{Name: name, Version: version}
	if hasBuild {
		build, err := strconv.Atoi(buildStr)
		if err != nil || build < 0 {
			return Compiler{}, zerr.With(ErrInvalidFactOverride, "compiler", s)
		}
		c.Build = build
	}
	return c, nil
}

// WordSizeOf returns the word size of a CPU architecture name, or 0 when unknown.
func WordSizeOf(arch string) int {
	switch arch {
	case "x86_64", "amd64", "arm64", "aarch64", "ppc64", "ppc64le", "riscv64", "s390x":
		return 64
	case "i386", "386", "ppc", "arm", "armv7":
		return 32
	default:
		return 0
	}
}
