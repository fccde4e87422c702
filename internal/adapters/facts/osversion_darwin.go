//go:build darwin

package facts

import "golang.org/x/sys/unix"

// hostOSVersion returns the macOS product version, e.g. "14.2.1".
func hostOSVersion() (string, error) {
	return unix.Sysctl("kern.osproductversion")
}
