package domain

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// HeadVersion is the version string used for builds from the head source.
const HeadVersion = "HEAD"

// CompareVersions compares two dotted package versions, returning -1, 0 or +1.
// Components compare numerically, so "1.08" equals "1.8" and "2016.01.30"
// equals "2016.1.30". A component may carry a letter suffix such as "3a" or
// "1p1": alpha, beta, pre and rc suffixes sort before the bare number and any
// other suffix sorts after it. A trailing "-prerelease" is ordered with
// semantic-version rules and sorts before the same version without one.
func CompareVersions(a, b string) (int, error) {
	pa, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	pb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	for i := 0; i < max(len(pa.parts), len(pb.parts)); i++ {
		var x, y versionPart
		if i < len(pa.parts) {
			x = pa.parts[i]
		}
		if i < len(pb.parts) {
			y = pb.parts[i]
		}
		if c := x.compare(y); c != 0 {
			return c, nil
		}
	}
	return semver.Compare(pa.pre, pb.pre), nil
}

// ValidateVersion reports whether v can take part in version comparisons.
func ValidateVersion(v string) error {
	_, err := parseVersion(v)
	return err
}

type parsedVersion struct {
	parts []versionPart
	// pre is "v0.0.0" with the prerelease attached, so semver orders it.
	pre string
}

type versionPart struct {
	num       int
	suffix    string
	suffixNum int
}

var preReleaseSuffixes = []string{"alpha", "beta", "pre", "rc"}

// rank places bare numbers between prerelease suffixes and other suffixes.
func (p versionPart) rank() int {
	switch {
	case p.suffix == "":
		return 1
	case slices.Contains(preReleaseSuffixes, p.suffix):
		return 0
	default:
		return 2
	}
}

func (p versionPart) compare(o versionPart) int {
	if c := cmp.Compare(p.num, o.num); c != 0 {
		return c
	}
	if c := cmp.Compare(p.rank(), o.rank()); c != 0 {
		return c
	}
	if c := strings.Compare(p.suffix, o.suffix); c != 0 {
		return c
	}
	return cmp.Compare(p.suffixNum, o.suffixNum)
}

func parseVersion(v string) (parsedVersion, error) {
	invalid := zerr.With(ErrInvalidVersion, "version", v)

	core, pre, hasPre := strings.Cut(strings.TrimPrefix(strings.TrimSpace(v), "v"), "-")
	if core == "" {
		return parsedVersion{}, invalid
	}
	parsed := parsedVersion{pre: "v0.0.0"}
	if hasPre {
		parsed.pre += "-" + pre
		if !semver.IsValid(parsed.pre) {
			return parsedVersion{}, invalid
		}
	}
	for _, field := range strings.Split(core, ".") {
		part, ok := parseVersionPart(strings.ToLower(field))
		if !ok {
			return parsedVersion{}, invalid
		}
		parsed.parts = append(parsed.parts, part)
	}
	return parsed, nil
}

// parseVersionPart splits "12", "3a" or "1rc2" into number, letters and trailing number.
func parseVersionPart(field string) (versionPart, bool) {
	digits := leadingDigits(field)
	if digits == "" {
		return versionPart{}, false
	}
	num, err := strconv.Atoi(digits)
	if err != nil {
		return versionPart{}, false
	}
	part := versionPart{num: num}
	rest := field[len(digits):]

	tail := strings.TrimLeftFunc(rest, func(r rune) bool { return r >= 'a' && r <= 'z' })
	part.suffix = rest[:len(rest)-len(tail)]
	if tail == "" {
		return part, true
	}
	if part.suffix == "" || leadingDigits(tail) != tail {
		return versionPart{}, false
	}
	if part.suffixNum, err = strconv.Atoi(tail); err != nil {
		return versionPart{}, false
	}
	return part, true
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

type versionClause struct {
	op      string
	version string
}

// VersionConstraint is a conjunction of comparison clauses such as "< 1.62.0" or ">= 1.2, < 2".
// The zero value allows every version.
type VersionConstraint struct {
	raw     string
	clauses []versionClause
}

var constraintOps = []string{"<=", ">=", "!=", "==", "<", ">", "="}

// ParseVersionConstraint parses a comma-separated list of comparison clauses.
func ParseVersionConstraint(s string) (VersionConstraint, error) {
	c := VersionConstraint{raw: strings.TrimSpace(s)}
	if c.raw == "" {
		return c, nil
	}
	for _, part := range strings.Split(c.raw, ",") {
		part = strings.TrimSpace(part)
		op := ""
		for _, candidate := range constraintOps {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return VersionConstraint{}, zerr.With(ErrInvalidVersionConstraint, "constraint", s)
		}
		version := strings.TrimSpace(strings.TrimPrefix(part, op))
		if _, err := parseVersion(version); err != nil {
			return VersionConstraint{}, zerr.With(ErrInvalidVersionConstraint, "constraint", s)
		}
		if op == "==" {
			op = "="
		}
		c.clauses = append(c.clauses, versionClause{op: op, version: version})
	}
	return c, nil
}

// IsZero reports whether the constraint has no clauses.
func (c VersionConstraint) IsZero() bool {
	return len(c.clauses) == 0
}

// String returns the constraint as written.
func (c VersionConstraint) String() string {
	return c.raw
}

// Allows reports whether the version satisfies every clause.
func (c VersionConstraint) Allows(version string) (bool, error) {
	for _, clause := range c.clauses {
		order, err := CompareVersions(version, clause.version)
		if err != nil {
			return false, err
		}
		var ok bool
		switch clause.op {
		case "<":
			ok = order < 0
		case "<=":
			ok = order <= 0
		case ">":
			ok = order > 0
		case ">=":
			ok = order >= 0
		case "=":
			ok = order == 0
		case "!=":
			ok = order != 0
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
