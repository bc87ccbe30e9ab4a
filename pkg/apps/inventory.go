// pkg/apps/inventory.go - lists, searches and removes installed applications.

package apps

import (
	"context"
	"errors"
	"iter"

	"github.com/windowsadmins/winapps/pkg/blocking"
	"github.com/windowsadmins/winapps/pkg/config"
	"github.com/windowsadmins/winapps/pkg/installer"
	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/registry"
)

// Inventory gives access to the applications registered in a hive.
type Inventory struct {
	walker  *Walker
	builder *Builder
	runner  installer.Runner
	cfg     *config.Configuration
	running func(ctx context.Context, dir string) ([]string, error)
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithRunner sets the runner used for uninstall and modify commands.
func WithRunner(r installer.Runner) Option {
	return func(inv *Inventory) { inv.runner = r }
}

// WithConfig sets the configuration. The default is config.GetDefaultConfig.
func WithConfig(cfg *config.Configuration) Option {
	return func(inv *Inventory) { inv.cfg = cfg }
}

// WithRunningCheck replaces the check for processes running from an
// application's install location before it is uninstalled.
func WithRunningCheck(fn func(ctx context.Context, dir string) ([]string, error)) Option {
	return func(inv *Inventory) { inv.running = fn }
}

// New returns an Inventory over h.
func New(h registry.Hive, opts ...Option) *Inventory {
	inv := &Inventory{
		walker:  NewWalker(h),
		builder: NewBuilder(h),
		running: blocking.RunningFrom,
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.cfg == nil {
		inv.cfg = config.GetDefaultConfig()
	}
	if inv.runner == nil {
		inv.runner = installer.NewRunner(inv.cfg)
	}
	return inv
}

// Config returns the configuration in use.
func (inv *Inventory) Config() *config.Configuration {
	return inv.cfg
}

// List yields every installed application. The registry is read lazily and
// afresh on every call. Keys that disappear while listing are skipped; any
// other error is yielded once and ends the listing.
func (inv *Inventory) List() iter.Seq2[InstalledApplication, error] {
	return func(yield func(InstalledApplication, error) bool) {
		for key, err := range inv.walker.Keys() {
			if err != nil {
				yield(InstalledApplication{}, err)
				return
			}
			app, err := inv.builder.Build(key)
			if errors.Is(err, ErrNotApplication) {
				continue
			}
			if errors.Is(err, registry.ErrNotExist) {
				logging.Debug("Uninstall key vanished while listing", "key", key)
				continue
			}
			if err != nil {
				yield(InstalledApplication{}, err)
				return
			}
			if !yield(app, nil) {
				return
			}
		}
	}
}

// Search yields the applications matching q. An invalid query is yielded as
// an error before anything is read.
func (inv *Inventory) Search(q Query) iter.Seq2[InstalledApplication, error] {
	return func(yield func(InstalledApplication, error) bool) {
		if inv.cfg.CaseSensitiveSearch {
			q.CaseSensitive = true
		}
		m, err := q.Compile()
		if err != nil {
			yield(InstalledApplication{}, err)
			return
		}
		for app, err := range inv.List() {
			if err != nil {
				yield(InstalledApplication{}, err)
				return
			}
			if m.Match(app) && !yield(app, nil) {
				return
			}
		}
	}
}

// First returns the first application matching q. found is false when
// nothing matches.
func (inv *Inventory) First(q Query) (InstalledApplication, bool, error) {
	for app, err := range inv.Search(q) {
		return app, err == nil, err
	}
	return InstalledApplication{}, false, nil
}

// Modify runs the ModifyPath command of app through the inventory's runner.
func (inv *Inventory) Modify(ctx context.Context, app InstalledApplication, args ...string) error {
	return app.modify(ctx, inv.runner, args)
}
