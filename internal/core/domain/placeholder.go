package domain

import (
	"os"
	"slices"
	"strings"
)

// StdCMakeArgs is a placeholder that must stand alone as an argument; it expands to several arguments.
const StdCMakeArgs = "std_cmake_args"

// DepPlaceholderPrefix introduces a reference to an included dependency's prefix, e.g. ${dep.icu4c}.
const DepPlaceholderPrefix = "dep."

var placeholderNames = []string{
	"prefix", "lib", "bin", "include", "share", "etc", "elisp",
	"opt_prefix", "homebrew_prefix", "version", "name", "jobs", "cc", "cxx",
	StdCMakeArgs,
}

// PlaceholderNames returns the static placeholder names in sorted order.
func PlaceholderNames() []string {
	return slices.Sorted(slices.Values(placeholderNames))
}

// KnownPlaceholder reports whether name can be expanded, ignoring whether a
// referenced dependency ends up included.
func KnownPlaceholder(name string) bool {
	if dep, ok := strings.CutPrefix(name, DepPlaceholderPrefix); ok {
		return dep != ""
	}
	return slices.Contains(placeholderNames, name)
}

// PlaceholderRefs returns the placeholder names referenced by s, in order of appearance.
func PlaceholderRefs(s string) []string {
	var refs []string
	os.Expand(s, func(name string) string {
		refs = append(refs, name)
		return ""
	})
	return refs
}
