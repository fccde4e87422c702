//go:build !darwin && !linux

package facts

func hostOSVersion() (string, error) {
	return "", nil
}
