// pkg/apps/uninstall.go - uninstalls applications and waits for the registry.

package apps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/winapps/pkg/installer"
	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/registry"
	"github.com/windowsadmins/winapps/pkg/retry"
)

// Uninstall removes every application matching q, one at a time, until
// none match. After each uninstaller exits it waits for the entry to leave
// the registry and fails with ErrStillInstalled if it does not. Nothing
// matching is not an error.
func (inv *Inventory) Uninstall(ctx context.Context, q Query, args ...string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		app, found, err := inv.First(q)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if err := inv.UninstallApp(ctx, app, args...); err != nil {
			return err
		}
	}
}

// UninstallApp runs the uninstaller of one application and waits for its
// registry entry to disappear.
func (inv *Inventory) UninstallApp(ctx context.Context, app InstalledApplication, args ...string) error {
	if err := inv.checkRunning(ctx, app); err != nil {
		return err
	}

	logging.LogUninstallStart(app.Name, app.Version, app.Key)
	start := time.Now()
	if err := app.uninstall(ctx, inv.runner, args); err != nil {
		logging.LogUninstallFailed(app.Name, app.Version, err)
		return err
	}
	if err := inv.waitRemoved(ctx, app); err != nil {
		logging.LogUninstallFailed(app.Name, app.Version, err)
		return err
	}
	logging.LogUninstallComplete(app.Name, app.Version, time.Since(start))
	return nil
}

func (inv *Inventory) checkRunning(ctx context.Context, app InstalledApplication) error {
	if inv.running == nil || app.InstallLocation == "" {
		return nil
	}
	procs, err := inv.running(ctx, app.InstallLocation)
	if err != nil {
		logging.Warn("Could not check for running processes", "name", app.Name, "error", err)
		return nil
	}
	if len(procs) == 0 {
		return nil
	}
	logging.LogBlockingProcesses(app.Name, procs)
	if inv.cfg.RefuseWhenRunning {
		return fmt.Errorf("uninstall %s: %d processes running from %s", app.Name, len(procs), app.InstallLocation)
	}
	return nil
}

// waitRemoved polls until the key app was read from no longer builds into
// an application.
func (inv *Inventory) waitRemoved(ctx context.Context, app InstalledApplication) error {
	attempts := inv.cfg.UninstallPollAttempts
	if attempts < 1 {
		attempts = 1
	}
	poll := retry.RetryConfig{
		MaxRetries:      attempts,
		InitialInterval: inv.cfg.UninstallPollInterval(),
		Multiplier:      1,
	}
	err := retry.Until(ctx, poll, func() (bool, error) {
		_, err := inv.builder.Build(app.Key)
		if errors.Is(err, ErrNotApplication) || errors.Is(err, registry.ErrNotExist) {
			return true, nil
		}
		return false, err
	})
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%s (%s): %w", app.Name, app.Key, ErrStillInstalled)
	}
	return err
}

// UninstallInstaller runs the installer behind c with the uninstall action.
func (inv *Inventory) UninstallInstaller(ctx context.Context, c *installer.Command) error {
	u := *c
	u.Action = installer.ActionUninstall
	return u.Run(ctx, inv.runner)
}

// Uninstalled uninstalls the applications matching q, runs fn, and
// uninstalls them again afterwards. The second uninstall runs even when fn
// fails or panics; errors from fn and from it are joined.
func (inv *Inventory) Uninstalled(ctx context.Context, q Query, args []string, fn func() error) (err error) {
	if err := inv.Uninstall(ctx, q, args...); err != nil {
		return err
	}
	defer func() {
		if uerr := inv.Uninstall(ctx, q, args...); uerr != nil {
			err = errors.Join(err, uerr)
		}
	}()
	return fn()
}
