// cmd/winapps/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/windowsadmins/winapps/pkg/apps"
	"github.com/windowsadmins/winapps/pkg/config"
	"github.com/windowsadmins/winapps/pkg/installer"
	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/registry"
	"github.com/windowsadmins/winapps/pkg/utils"
	"github.com/windowsadmins/winapps/pkg/version"
)

var errFixtureReadOnly = errors.New("registry fixtures are read-only")

// cli holds the global flags and the state loaded from them before a
// subcommand runs.
type cli struct {
	configPath  string
	fixturePath string
	verbosity   int

	cfg     *config.Configuration
	hive    registry.Hive
	runner  installer.Runner
	console *logging.Logger
}

func main() {
	utils.PatchWindowsArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(&cli{}).ExecuteContext(ctx)
	logging.CloseLogger()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   version.AppName(),
		Short: "List, search and uninstall installed Windows applications",
		Long: `winapps reads the installed-programs list from the Uninstall keys under
HKEY_LOCAL_MACHINE, skipping system components, Windows updates and
orphaned Windows Installer entries.`,
		Version:       version.Version().Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.console = logging.New(c.verbosity > 0)
			c.console.SetOutput(cmd.ErrOrStderr())
			return c.load()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("%s version {{.Version}}\n", version.AppName()))

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", config.ConfigPath, "Path to the configuration file.")
	flags.StringVar(&c.fixturePath, "fixture", "", "Read applications from a YAML registry fixture instead of HKLM.")
	flags.CountVarP(&c.verbosity, "verbose", "v", "Increase verbosity (-v for debug logging).")

	root.AddCommand(
		newListCmd(c),
		newSearchCmd(c),
		newUninstallCmd(c),
		newModifyCmd(c),
		newInstallCmd(c),
		newHotfixesCmd(),
		newSnapshotCmd(c),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration, falling back to policy settings in the
// live registry, and starts logging.
func (c *cli) load() error {
	policy, err := registry.LocalMachine()
	if errors.Is(err, registry.ErrUnsupported) {
		policy = nil
	} else if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(c.configPath, policy)
	if err != nil {
		return err
	}
	if c.verbosity > 0 {
		cfg.LogLevel = "DEBUG"
	}
	if c.fixturePath != "" {
		cfg.FixturePath = c.fixturePath
	}
	c.cfg = cfg

	if err := logging.ReInit(cfg); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	logging.Debug("Configuration loaded", "path", c.configPath, "fixture", cfg.FixturePath)
	return nil
}

// openHive returns the hive applications are read from: the fixture when
// one is configured, HKLM otherwise.
func (c *cli) openHive() (registry.Hive, error) {
	if c.hive != nil {
		return c.hive, nil
	}
	if c.cfg.FixturePath != "" {
		h, err := registry.LoadFixture(c.cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		c.hive = h
		return h, nil
	}
	h, err := registry.LocalMachine()
	if err != nil {
		return nil, fmt.Errorf("open HKEY_LOCAL_MACHINE: %w (use --fixture)", err)
	}
	c.hive = h
	return h, nil
}

// requireLiveRegistry refuses commands that run programs when applications
// are read from a fixture.
func (c *cli) requireLiveRegistry(command string) error {
	if c.cfg.FixturePath != "" {
		return fmt.Errorf("%s is not available with --fixture %s: %w", command, c.cfg.FixturePath, errFixtureReadOnly)
	}
	return nil
}

func (c *cli) inventory() (*apps.Inventory, error) {
	h, err := c.openHive()
	if err != nil {
		return nil, err
	}
	return apps.New(h, apps.WithConfig(c.cfg), apps.WithRunner(c.commandRunner())), nil
}

func (c *cli) commandRunner() installer.Runner {
	if c.runner == nil {
		c.runner = installer.NewRunner(c.cfg)
	}
	return c.runner
}
