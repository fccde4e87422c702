package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// OptionKind distinguishes boolean switches from enumerated choices.
type OptionKind string

const (
	// OptionBool is an on/off switch.
	OptionBool OptionKind = "bool"
	// OptionEnum selects one of a fixed set of choices.
	OptionEnum OptionKind = "enum"
)

const (
	valueTrue  = "true"
	valueFalse = "false"
)

// OptionSpec declares a user-selectable build option.
type OptionSpec struct {
	Name        string
	Kind        OptionKind
	Description string
	// Default is the canonical default value; empty means "false" for bool options.
	Default string
	Choices []string
	// Aliases are deprecated names rewritten to Name before validation.
	Aliases []string
}

// DefaultValue returns the canonical value used when the option is not selected.
func (o OptionSpec) DefaultValue() string {
	if o.Kind == OptionBool && o.Default == "" {
		return valueFalse
	}
	return o.Default
}

// AllowedValues returns the values the option accepts in canonical form.
func (o OptionSpec) AllowedValues() []string {
	if o.Kind == OptionBool {
		return []string{valueTrue, valueFalse}
	}
	return o.Choices
}

// Canonicalize returns the canonical spelling of v for this option, or false if v is not accepted.
func (o OptionSpec) Canonicalize(v string) (string, bool) {
	if o.Kind == OptionBool {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	}
	if slices.Contains(o.Choices, v) {
		return v, true
	}
	return "", false
}

// Deprecation rewrites a retired option name to its replacement.
type Deprecation struct {
	From string
	To   string
}

// Selection is one user request for an option value.
type Selection struct {
	Name  string
	Value string
	// Raw is the selection as the user typed it, kept for advisories.
	Raw string
}

// ParseSelection parses a raw selection string.
// Accepted forms: "with-X", "without-X", "X=value" and a bare "X" (meaning X=true);
// a leading "--" is ignored.
func ParseSelection(raw string) (Selection, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "--")
	if s == "" {
		return Selection{}, zerr.With(ErrInvalidSelection, "selection", raw)
	}

	if name, value, ok := strings.Cut(s, "="); ok {
		if name == "" {
			return Selection{}, zerr.With(ErrInvalidSelection, "selection", raw)
		}
		return Selection{Name: name, Value: value, Raw: raw}, nil
	}

	switch {
	case strings.HasPrefix(s, "without-") && len(s) > len("without-"):
		return Selection{Name: strings.TrimPrefix(s, "without-"), Value: valueFalse, Raw: raw}, nil
	case strings.HasPrefix(s, "with-") && len(s) > len("with-"):
		return Selection{Name: strings.TrimPrefix(s, "with-"), Value: valueTrue, Raw: raw}, nil
	default:
		return Selection{Name: s, Value: valueTrue, Raw: raw}, nil
	}
}

// SelectionsFromMap converts a name->value map into selections ordered by name.
func SelectionsFromMap(m map[string]string) []Selection {
	out := make([]Selection, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		out = append(out, Selection{Name: name, Value: m[name], Raw: name + "=" + m[name]})
	}
	return out
}

// ResolvedOption is one entry of a ResolvedOptionSet.
type ResolvedOption struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Explicit bool   `json:"explicit,omitempty"`
}

// ResolvedOptionSet maps every declared option to its effective value.
// Entries keep descriptor declaration order. The zero value is an empty set.
type ResolvedOptionSet struct {
	entries []ResolvedOption
	index   map[string]int
}

// NewResolvedOptionSet builds a set from entries in declaration order.
func NewResolvedOptionSet(entries []ResolvedOption) ResolvedOptionSet {
	set := ResolvedOptionSet{
		entries: slices.Clone(entries),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range set.entries {
		set.index[e.Name] = i
	}
	return set
}

// Value returns the canonical value of the named option.
func (s ResolvedOptionSet) Value(name string) (string, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.entries[i].Value, true
}

// Enabled reports whether a bool option resolved to true.
func (s ResolvedOptionSet) Enabled(name string) bool {
	v, _ := s.Value(name)
	return v == valueTrue
}

// Has reports whether the set contains the option.
func (s ResolvedOptionSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of options.
func (s ResolvedOptionSet) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in declaration order.
func (s ResolvedOptionSet) Entries() []ResolvedOption {
	return slices.Clone(s.entries)
}

// Explicit returns the names the user selected explicitly, in declaration order.
func (s ResolvedOptionSet) Explicit() []string {
	var names []string
	for _, e := range s.entries {
		if e.Explicit {
			names = append(names, e.Name)
		}
	}
	return names
}

// Equal reports whether both sets hold the same values in the same order.
func (s ResolvedOptionSet) Equal(other ResolvedOptionSet) bool {
	return slices.Equal(s.entries, other.entries)
}
