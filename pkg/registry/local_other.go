//go:build !windows
// +build !windows

package registry

// LocalMachine returns ErrUnsupported off Windows. Use a MemoryHive loaded
// from a fixture instead.
func LocalMachine() (Hive, error) {
	return nil, ErrUnsupported
}
