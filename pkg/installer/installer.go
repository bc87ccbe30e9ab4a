// pkg/installer/installer.go - runs uninstall, modify and installer commands.

package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/windowsadmins/winapps/pkg/config"
	"github.com/windowsadmins/winapps/pkg/logging"
)

// ErrTimeout is returned when a command outlives the runner's timeout.
var ErrTimeout = errors.New("command timed out")

// Runner starts a program and waits for it to exit. Success or failure is
// decided by the exit status; the returned string is the program's stdout.
type Runner interface {
	Run(ctx context.Context, path string, args []string) (string, error)
}

// ExecRunner runs programs with os/exec, hiding their console window.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewRunner returns an ExecRunner using the configured installer timeout.
func NewRunner(cfg *config.Configuration) *ExecRunner {
	return &ExecRunner{Timeout: cfg.InstallerTimeout()}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, path string, args []string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logging.Debug("Running command", "command", path, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, path, args...)
	hideConsoleWindow(cmd)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logging.Error("Command timed out", "command", path, "timeout", r.Timeout)
			return out.String(), fmt.Errorf("%s: %w after %s", path, ErrTimeout, r.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.String(), fmt.Errorf("command failed with exit code %d: %w | stderr: %s",
				exitErr.ExitCode(), err, strings.TrimSpace(stderr.String()))
		}
		return out.String(), fmt.Errorf("command execution failed: %w", err)
	}
	return out.String(), nil
}

// RunCommandLine splits a stored command line such as an UninstallString,
// appends extra arguments and runs it.
func RunCommandLine(ctx context.Context, r Runner, cmdline string, extra ...string) error {
	path, args, err := SplitCommandLine(cmdline, IsExecutable)
	if err != nil {
		return err
	}
	args = append(args, extra...)
	output, err := r.Run(ctx, path, args)
	if output != "" {
		logging.Debug("Command output", "command", path, "output", strings.TrimSpace(output))
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}
