//go:build !windows
// +build !windows

package utils

// PatchWindowsArgs leaves os.Args unchanged off Windows.
func PatchWindowsArgs() {}
