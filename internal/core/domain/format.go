package domain

import "go.trai.ch/zerr"

// OutputFormat selects how plans and option listings are printed.
type OutputFormat string

const (
	// FormatText is the human-readable listing.
	FormatText OutputFormat = "text"
	// FormatJSON is the canonical JSON encoding.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat parses a --format value. An empty value means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", zerr.With(ErrUnsupportedOutputFormat, "format", s)
	}
}
