// cmd/winapps/commands.go - winapps subcommands.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/winapps/pkg/apps"
	"github.com/windowsadmins/winapps/pkg/hotfix"
	"github.com/windowsadmins/winapps/pkg/installer"
	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/registry"
	"github.com/windowsadmins/winapps/pkg/version"
)

// queryFlags are shared by the commands that select applications.
type queryFlags struct {
	fields            []string
	caseSensitive     bool
	glob              bool
	versionConstraint string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVar(&f.fields, "field", nil, "Match a field against a pattern, as field=pattern. Repeatable.")
	fs.BoolVar(&f.caseSensitive, "case-sensitive", false, "Match patterns case-sensitively.")
	fs.BoolVar(&f.glob, "glob", false, "Treat patterns as shell globs instead of regular expressions.")
	fs.StringVar(&f.versionConstraint, "version", "", `Only match versions satisfying a constraint, e.g. ">= 19, < 20".`)
}

func (f *queryFlags) query(args []string) (apps.Query, error) {
	q := apps.Query{
		CaseSensitive:     f.caseSensitive,
		Glob:              f.glob,
		VersionConstraint: f.versionConstraint,
	}
	if len(args) > 0 {
		q.Name = args[0]
	}
	fields, err := parseFieldFlags(f.fields)
	if err != nil {
		return q, err
	}
	q.Fields = fields
	return q, nil
}

// parseFieldFlags turns field=pattern pairs into a query field map.
func parseFieldFlags(pairs []string) (map[apps.Field]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[apps.Field]string, len(pairs))
	for _, pair := range pairs {
		name, pattern, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --field %q: expected field=pattern", pair)
		}
		f, err := apps.ParseField(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		fields[f] = pattern
	}
	return fields, nil
}

func newListCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			var found []apps.InstalledApplication
			for app, err := range inv.List() {
				if err != nil {
					return err
				}
				found = append(found, app)
			}
			return writeApplications(cmd.OutOrStdout(), output, found)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml.")
	return cmd
}

func newSearchCmd(c *cli) *cobra.Command {
	var (
		output string
		qf     queryFlags
	)
	cmd := &cobra.Command{
		Use:   "search [name-pattern]",
		Short: "Search installed applications by name and fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query(args)
			if err != nil {
				return err
			}
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			var found []apps.InstalledApplication
			for app, err := range inv.Search(q) {
				if err != nil {
					return err
				}
				found = append(found, app)
			}
			return writeApplications(cmd.OutOrStdout(), output, found)
		},
	}
	qf.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml.")
	return cmd
}

func newUninstallCmd(c *cli) *cobra.Command {
	var (
		qf     queryFlags
		extra  []string
		dryRun bool
		refuse bool
	)
	cmd := &cobra.Command{
		Use:   "uninstall [name-pattern]",
		Short: "Uninstall every application matching a pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query(args)
			if err != nil {
				return err
			}
			if q.Name == "" && len(q.Fields) == 0 {
				return errors.New("refusing to uninstall every application: give a name pattern or --field")
			}
			if refuse {
				c.cfg.RefuseWhenRunning = true
			}
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			if dryRun {
				for app, err := range inv.Search(q) {
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Would uninstall %s %s: %s\n", app.Name, app.Version, app.UninstallString)
				}
				return nil
			}
			if err := c.requireLiveRegistry("uninstall"); err != nil {
				return err
			}
			if err := inv.Uninstall(cmd.Context(), q, extra...); err != nil {
				c.console.Error("Uninstall failed: %v", err)
				return err
			}
			c.console.Success("No installed applications match any more")
			return nil
		},
	}
	qf.register(cmd.Flags())
	cmd.Flags().StringArrayVar(&extra, "arg", nil, "Extra argument for the uninstaller, e.g. /S. Repeatable.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print what would be uninstalled.")
	cmd.Flags().BoolVar(&refuse, "refuse-when-running", false, "Fail if processes are running from the install location.")
	return cmd
}

func newModifyCmd(c *cli) *cobra.Command {
	var extra []string
	cmd := &cobra.Command{
		Use:   "modify name-pattern",
		Short: "Run the modify command of the first matching application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLiveRegistry("modify"); err != nil {
				return err
			}
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			app, found, err := inv.First(apps.Query{Name: args[0]})
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no application matches %q", args[0])
			}
			return inv.Modify(cmd.Context(), app, extra...)
		},
	}
	cmd.Flags().StringArrayVar(&extra, "arg", nil, "Extra argument for the modify command. Repeatable.")
	return cmd
}

func newInstallCmd(c *cli) *cobra.Command {
	var (
		quiet     bool
		logPath   string
		uninstall bool
	)
	cmd := &cobra.Command{
		Use:   "install installer.exe",
		Short: "Run a Windows Installer or Burn style .exe installer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := installer.ActionInstall
			if uninstall {
				action = installer.ActionUninstall
			}
			ic, err := installer.NewCommand(args[0],
				installer.WithAction(action),
				installer.WithQuiet(quiet),
				installer.WithLog(logPath))
			if err != nil {
				return err
			}
			if err := ic.Run(cmd.Context(), c.commandRunner()); err != nil {
				c.console.Error("%v", err)
				return err
			}
			c.console.Success("Finished %s", ic)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Pass /quiet to the installer.")
	cmd.Flags().StringVar(&logPath, "log", "", "Pass /log <path> to the installer.")
	cmd.Flags().BoolVar(&uninstall, "uninstall", false, "Pass /uninstall instead of /install.")
	return cmd
}

func newHotfixesCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "hotfixes",
		Short: "List installed Windows updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixes, err := hotfix.List(cmd.Context())
			if err != nil {
				return err
			}
			hotfix.Sort(fixes)
			return writeHotfixes(cmd.OutOrStdout(), output, fixes)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml.")
	return cmd
}

func newSnapshotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot file",
		Short: "Write the uninstall keys as a YAML registry fixture",
		Long: `snapshot copies the Uninstall keys and the Windows Installer product list
into a YAML file that --fixture can read back. Use - for stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.openHive()
			if err != nil {
				return err
			}
			roots := append(append([]string{}, apps.UninstallRoots...), apps.ProductsKey)
			snap, err := registry.Snapshot(h, roots, 1)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(snap)
			if err != nil {
				return fmt.Errorf("serialize snapshot: %w", err)
			}
			if args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			logging.Info("Snapshot written", "path", args[0])
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print detailed version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			version.PrintFull(cmd.OutOrStdout())
		},
	}
}
