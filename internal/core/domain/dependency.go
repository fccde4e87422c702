package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// DependencyKind states when a dependency is needed.
type DependencyKind string

const (
	// DependencyRuntime is needed by the installed package.
	DependencyRuntime DependencyKind = "runtime"
	// DependencyBuild is needed only while building.
	DependencyBuild DependencyKind = "build"
	// DependencyTest is needed only by the smoke test.
	DependencyTest DependencyKind = "test"
)

// DependencyClass is the outcome of classifying one dependency declaration.
type DependencyClass string

const (
	ClassRequired           DependencyClass = "required"
	ClassOptionalEnabled    DependencyClass = "optional-enabled"
	ClassOptionalDisabled   DependencyClass = "optional-disabled"
	ClassExcludedByPlatform DependencyClass = "excluded-by-platform"
)

// DependencySpec declares one conditional dependency.
type DependencySpec struct {
	Name string
	// Tags are capability tags required of the dependency, such as "c++11".
	Tags []string
	Kind DependencyKind
	// Option gates the dependency behind a bool option.
	Option string
	// When is evaluated after the option gate; false makes the dependency optional-disabled.
	When *Condition
	// Platform is a facts-only condition; false excludes the dependency entirely.
	Platform *Condition
	// Requirement marks a capability requirement rather than a named package.
	Requirement bool
}

// EffectiveKind returns Kind, defaulting to runtime.
func (d DependencySpec) EffectiveKind() DependencyKind {
	if d.Kind == "" {
		return DependencyRuntime
	}
	return d.Kind
}

// DependencyDecision records how one dependency was classified.
type DependencyDecision struct {
	Name        string          `json:"name"`
	Tags        []string        `json:"tags,omitempty"`
	Kind        DependencyKind  `json:"kind"`
	Class       DependencyClass `json:"class"`
	Requirement bool            `json:"requirement,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	// Prefix is the install prefix of the dependency when it is present in the inventory.
	Prefix string `json:"prefix,omitempty"`
}

// Included reports whether the dependency is part of the build.
func (d DependencyDecision) Included() bool {
	return d.Class == ClassRequired || d.Class == ClassOptionalEnabled
}

// Inventory maps installed dependency names to their opt prefixes.
type Inventory map[string]string

// ParseInventory parses "name=prefix" entries.
func ParseInventory(entries []string) (Inventory, error) {
	inv := make(Inventory, len(entries))
	for _, entry := range entries {
		name, prefix, ok := strings.Cut(entry, "=")
		if !ok || name == "" || prefix == "" {
			return nil, zerr.With(ErrInvalidInventory, "entry", entry)
		}
		inv[name] = prefix
	}
	return inv, nil
}
