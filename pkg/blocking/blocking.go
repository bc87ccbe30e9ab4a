// pkg/blocking/blocking.go - finds processes that would block an uninstall

package blocking

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/windowsadmins/winapps/pkg/logging"
)

// RunningFrom returns the executable paths of running processes located
// under dir. An empty dir matches nothing.
func RunningFrom(ctx context.Context, dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}

	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var running []string
	seen := make(map[string]bool)
	for _, proc := range processes {
		exe, err := proc.ExeWithContext(ctx)
		if err != nil || exe == "" {
			continue
		}
		if underDir(exe, dir) && !seen[strings.ToLower(exe)] {
			seen[strings.ToLower(exe)] = true
			running = append(running, exe)
		}
	}
	if len(running) > 0 {
		logging.Debug("Found processes running from directory", "dir", dir, "processes", running)
	}
	return running, nil
}

// underDir reports whether path lies inside dir. Both are compared
// case-insensitively with either separator style.
func underDir(path, dir string) bool {
	normalize := func(p string) string {
		p = strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
		return strings.TrimRight(p, "/")
	}
	p, d := normalize(path), normalize(dir)
	if d == "" || p == d {
		return false
	}
	return strings.HasPrefix(p, d+"/")
}
