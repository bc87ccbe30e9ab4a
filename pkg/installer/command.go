package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/windowsadmins/winapps/pkg/logging"
)

var (
	// ErrNotFound is returned when an installer file does not exist.
	ErrNotFound = errors.New("installer not found")
	// ErrUnsupportedFormat is returned for installers that are not .exe files.
	ErrUnsupportedFormat = errors.New("unsupported installer format")
)

// Action selects what an installer command does.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUninstall Action = "uninstall"
)

// Command is an invocation of an .exe installer that accepts the
// /install, /uninstall, /quiet and /log switches.
type Command struct {
	Path    string
	Action  Action
	Quiet   bool
	LogPath string
}

// Option configures a Command.
type Option func(*Command)

// WithAction sets the action. The default is ActionInstall.
func WithAction(a Action) Option {
	return func(c *Command) { c.Action = a }
}

// WithQuiet adds /quiet when quiet is true.
func WithQuiet(quiet bool) Option {
	return func(c *Command) { c.Quiet = quiet }
}

// WithLog adds /log <path> when path is not empty.
func WithLog(path string) Option {
	return func(c *Command) { c.LogPath = path }
}

// NewCommand builds an installer command for the .exe at path.
func NewCommand(path string, opts ...Option) (*Command, error) {
	if !strings.EqualFold(fileExt(path), ".exe") {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat installer %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}

	c := &Command{Path: path, Action: ActionInstall}
	for _, opt := range opts {
		opt(c)
	}
	if c.Action != ActionInstall && c.Action != ActionUninstall {
		return nil, fmt.Errorf("unsupported action: %s", c.Action)
	}
	return c, nil
}

// fileExt is filepath.Ext for both separator styles, since installer paths
// are Windows paths regardless of the host.
func fileExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '\\' && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// Args returns the installer arguments in order: action, /quiet, /log.
func (c *Command) Args() []string {
	args := []string{"/" + string(c.Action)}
	if c.Quiet {
		args = append(args, "/quiet")
	}
	if c.LogPath != "" {
		args = append(args, "/log", c.LogPath)
	}
	return args
}

// String renders the command for display.
func (c *Command) String() string {
	return fmt.Sprintf("%q %s", c.Path, strings.Join(c.Args(), " "))
}

// Run executes the command with r.
func (c *Command) Run(ctx context.Context, r Runner) error {
	args := c.Args()
	logging.LogInstallerRun(c.Path, args)
	output, err := r.Run(ctx, c.Path, args)
	if output != "" {
		logging.Debug("Installer output", "path", c.Path, "output", strings.TrimSpace(output))
	}
	if err != nil {
		logging.Error("Installer failed", "path", c.Path, "action", c.Action, "error", err)
		return fmt.Errorf("%s %s: %w", c.Action, c.Path, err)
	}
	logging.Info("Installer finished", "path", c.Path, "action", c.Action)
	return nil
}

// Install runs the installer at path with /install.
func Install(ctx context.Context, r Runner, path string, quiet bool) error {
	c, err := NewCommand(path, WithAction(ActionInstall), WithQuiet(quiet))
	if err != nil {
		return err
	}
	return c.Run(ctx, r)
}

// Uninstall runs the installer at path with /uninstall.
func Uninstall(ctx context.Context, r Runner, path string, quiet bool) error {
	c, err := NewCommand(path, WithAction(ActionUninstall), WithQuiet(quiet))
	if err != nil {
		return err
	}
	return c.Run(ctx, r)
}
