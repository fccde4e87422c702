//go:build linux

package facts

import (
	"strings"

	"golang.org/x/sys/unix"
)

// hostOSVersion returns the kernel release reported by uname, without its local suffix.
func hostOSVersion() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	release := unix.ByteSliceToString(uts.Release[:])
	release, _, _ = strings.Cut(release, "-")
	return release, nil
}
