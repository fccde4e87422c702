package domain

import "strings"

// macOSReleases maps bottle codenames to their marketing versions, oldest first.
var macOSReleases = []struct {
	codename string
	version  string
}{
	{"leopard", "10.5"},
	{"snow_leopard", "10.6"},
	{"lion", "10.7"},
	{"mountain_lion", "10.8"},
	{"mavericks", "10.9"},
	{"yosemite", "10.10"},
	{"el_capitan", "10.11"},
	{"sierra", "10.12"},
	{"high_sierra", "10.13"},
	{"mojave", "10.14"},
	{"catalina", "10.15"},
	{"big_sur", "11"},
	{"monterey", "12"},
	{"ventura", "13"},
	{"sonoma", "14"},
	{"sequoia", "15"},
	{"tahoe", "26"},
}

// MacOSVersionForCodename returns the version for a codename such as "mavericks".
func MacOSVersionForCodename(codename string) (string, bool) {
	for _, r := range macOSReleases {
		if r.codename == codename {
			return r.version, true
		}
	}
	return "", false
}

// MacOSCodename returns the bottle codename for a product version such as "10.11.6" or "14.2".
func MacOSCodename(version string) (string, bool) {
	parts := strings.Split(version, ".")
	if len(parts) == 0 || parts[0] == "" {
		return "", false
	}
	key := parts[0]
	if key == "10" {
		if len(parts) < 2 {
			return "", false
		}
		key = "10." + parts[1]
	}
	for _, r := range macOSReleases {
		if r.version == key {
			return r.codename, true
		}
	}
	return "", false
}

// BottleTag derives the bottle tag used to key prebuilt artifacts for a host.
// Linux hosts use "<arch>_linux"; macOS hosts use the release codename, prefixed
// with "arm64_" on Apple silicon.
func BottleTag(osFamily, osVersion, arch string) string {
	switch osFamily {
	case OSLinux:
		if arch == "" {
			return ""
		}
		return arch + "_linux"
	case OSMacOS:
		codename, ok := MacOSCodename(osVersion)
		if !ok {
			return ""
		}
		if arch == "arm64" {
			return "arm64_" + codename
		}
		return codename
	default:
		return ""
	}
}

// normalizeMacOSVersion accepts either a codename or a dotted version.
func normalizeMacOSVersion(v string) string {
	if version, ok := MacOSVersionForCodename(v); ok {
		return version
	}
	return v
}
