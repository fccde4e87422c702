package domain

import (
	"errors"
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrDescriptorReadFailed is returned when a descriptor file cannot be read.
	ErrDescriptorReadFailed = zerr.New("failed to read descriptor")

	// ErrDescriptorParseFailed is returned when a descriptor file cannot be decoded.
	ErrDescriptorParseFailed = zerr.New("failed to parse descriptor")

	// ErrUnsupportedDescriptorFormat is returned for descriptor files with an unknown extension.
	ErrUnsupportedDescriptorFormat = zerr.New("unsupported descriptor format")

	// ErrInvalidDescriptor is returned when a descriptor is structurally invalid.
	ErrInvalidDescriptor = zerr.New("invalid descriptor")

	// ErrMissingSource is returned when a descriptor declares neither a stable nor a head source.
	ErrMissingSource = zerr.New("descriptor declares no source")

	// ErrDuplicateOption is returned when an option name or alias is declared twice.
	ErrDuplicateOption = zerr.New("duplicate option")

	// ErrInvalidOptionDefault is returned when an option default is not one of its accepted values.
	ErrInvalidOptionDefault = zerr.New("invalid option default")

	// ErrUnknownOptionReference is returned when a descriptor references an option it does not declare.
	ErrUnknownOptionReference = zerr.New("reference to undeclared option")

	// ErrDuplicateBottleTag is returned when a bottle table lists a tag twice.
	ErrDuplicateBottleTag = zerr.New("duplicate bottle tag")

	// ErrInvalidDigest is returned when a checksum is malformed or uses an unknown algorithm.
	ErrInvalidDigest = zerr.New("invalid digest")

	// ErrInvalidVersion is returned when a version string cannot be compared.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrInvalidVersionConstraint is returned when a patch applicability constraint cannot be parsed.
	ErrInvalidVersionConstraint = zerr.New("invalid version constraint")

	// ErrHeadUnavailable is returned when a head build is requested for a descriptor without a head source.
	ErrHeadUnavailable = zerr.New("descriptor has no head source")

	// ErrDescriptorNotFound is returned when a descriptor argument matches no file.
	ErrDescriptorNotFound = zerr.New("descriptor not found")

	// ErrNoDescriptors is returned when a command is invoked without descriptor paths.
	ErrNoDescriptors = zerr.New("no descriptors specified")

	// ErrInvalidSelection is returned when a raw option selection cannot be parsed.
	ErrInvalidSelection = zerr.New("invalid option selection")

	// ErrInvalidInventory is returned when an installed dependency entry is malformed.
	ErrInvalidInventory = zerr.New("invalid installed dependency entry")

	// ErrPlanStoreReadFailed is returned when a cached plan cannot be read.
	ErrPlanStoreReadFailed = zerr.New("failed to read cached plan")

	// ErrPlanStoreWriteFailed is returned when a plan cannot be written to the cache.
	ErrPlanStoreWriteFailed = zerr.New("failed to write cached plan")

	// ErrPlanStoreUnmarshalFailed is returned when a cached plan cannot be decoded.
	ErrPlanStoreUnmarshalFailed = zerr.New("failed to unmarshal cached plan")

	// ErrInvalidPlanKey is returned when a plan cache key cannot be used as a file name.
	ErrInvalidPlanKey = zerr.New("invalid plan key")

	// ErrFactsUnavailable is returned when the host facts snapshot cannot be taken.
	ErrFactsUnavailable = zerr.New("failed to collect platform facts")

	// ErrInvalidFactOverride is returned when an --os-tag or --compiler override cannot be parsed.
	ErrInvalidFactOverride = zerr.New("invalid fact override")

	// ErrArtifactNotFound is returned when an input artifact is not present in the artifact directory.
	ErrArtifactNotFound = zerr.New("artifact not found")

	// ErrDigestMismatch is returned when an artifact does not match its declared digest.
	ErrDigestMismatch = zerr.New("artifact digest mismatch")

	// ErrStepFailed is returned when a command step exits unsuccessfully.
	ErrStepFailed = zerr.New("command step failed")

	// ErrExpectationFailed is returned when the smoke test output differs from its expectation.
	ErrExpectationFailed = zerr.New("test expectation not met")

	// ErrUnsupportedOutputFormat is returned for an unknown --format value.
	ErrUnsupportedOutputFormat = zerr.New("unsupported output format")

	// ErrUnknownStepKind is returned when an executor receives a step it cannot run.
	ErrUnknownStepKind = zerr.New("unknown step kind")
)

// UnknownOptionError reports a selection naming an option the descriptor does not declare.
type UnknownOptionError struct {
	Option string
	Known  []string
}

func (e *UnknownOptionError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown option %q", e.Option)
	}
	return fmt.Sprintf("unknown option %q (declared: %s)", e.Option, strings.Join(e.Known, ", "))
}

// InvalidChoiceError reports a value outside an option's declared choices.
type InvalidChoiceError struct {
	Option  string
	Value   string
	Choices []string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid value %q for option %q (choices: %s)",
		e.Value, e.Option, strings.Join(e.Choices, ", "))
}

// OptionConflictError reports option values that may not hold together.
type OptionConflictError struct {
	Options []string
	Values  []string
	Hint    string
}

func (e *OptionConflictError) Error() string {
	pairs := make([]string, len(e.Options))
	for i, name := range e.Options {
		pairs[i] = name + "=" + e.Values[i]
	}
	msg := "conflicting options: " + strings.Join(pairs, ", ")
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// UnsupportedToolchainError reports a compiler the build is known to fail with or that lacks a required feature.
type UnsupportedToolchainError struct {
	Compiler string
	Version  string
	Build    int
	Feature  string
	Cause    string
}

func (e *UnsupportedToolchainError) Error() string {
	var b strings.Builder
	b.WriteString("unsupported toolchain ")
	b.WriteString(e.Compiler)
	if e.Version != "" {
		b.WriteString(" " + e.Version)
	}
	if e.Build > 0 {
		fmt.Fprintf(&b, " (build %d)", e.Build)
	}
	if e.Feature != "" {
		b.WriteString(": missing " + e.Feature + " support")
	}
	if e.Cause != "" {
		b.WriteString(": " + e.Cause)
	}
	return b.String()
}

// UnresolvedDependencyPredicateError reports a predicate that references a fact the provider could not supply.
type UnresolvedDependencyPredicateError struct {
	Fact    string
	Subject string
}

func (e *UnresolvedDependencyPredicateError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("predicate references unknown platform fact %q", e.Fact)
	}
	return fmt.Sprintf("predicate for %s references unknown platform fact %q", e.Subject, e.Fact)
}

// UnknownPlaceholderError reports a ${...} reference that cannot be expanded.
type UnknownPlaceholderError struct {
	Placeholder string
	Context     string
}

func (e *UnknownPlaceholderError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("unknown placeholder ${%s}", e.Placeholder)
	}
	return fmt.Sprintf("unknown placeholder ${%s} in %s", e.Placeholder, e.Context)
}

// WithSubject returns a copy of err naming the declaration whose predicate failed.
// Errors of other types are returned unchanged.
func WithSubject(err error, subject string) error {
	var unresolved *UnresolvedDependencyPredicateError
	if errors.As(err, &unresolved) {
		return &UnresolvedDependencyPredicateError{Fact: unresolved.Fact, Subject: subject}
	}
	return err
}
