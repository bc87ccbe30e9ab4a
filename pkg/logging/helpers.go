// pkg/logging/helpers.go - helpers for the install and uninstall log lines

package logging

import "time"

// LogUninstallStart logs the start of an application uninstallation
func LogUninstallStart(name, version, key string) {
	Info("Starting uninstallation", "name", name, "version", version, "key", key)
}

// LogUninstallComplete logs successful completion of uninstallation
func LogUninstallComplete(name, version string, duration time.Duration) {
	Info("Uninstallation complete", "name", name, "version", version, "duration", duration.Round(time.Millisecond))
}

// LogUninstallFailed logs failed uninstallation
func LogUninstallFailed(name, version string, err error) {
	Error("Uninstallation failed", "name", name, "version", version, "error", err)
}

// LogInstallerRun logs an installer invocation
func LogInstallerRun(path string, args []string) {
	Info("Running installer", "path", path, "args", args)
}

// LogBlockingProcesses logs processes found running from an install location
func LogBlockingProcesses(name string, processes []string) {
	Warn("Application has running processes", "name", name, "processes", processes)
}
