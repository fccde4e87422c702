package render

import (
	"os"

	"golang.org/x/term"
)

// Styled reports whether output to f should be styled: f must be a terminal
// and the CI variable must not be set to "true" or "1".
func Styled(f *os.File, getenv func(string) string) bool {
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	ci := getenv("CI")
	return ci != "true" && ci != "1"
}
