//go:build !windows
// +build !windows

package logging

func enableColors() {}
