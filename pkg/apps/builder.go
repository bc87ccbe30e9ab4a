// pkg/apps/builder.go - folds an uninstall key's values into a record.

package apps

import (
	"fmt"
	"regexp"

	"github.com/windowsadmins/winapps/pkg/registry"
)

var kbPattern = regexp.MustCompile(`^KB[0-9]{6}`)

// updateReleaseTypes are the ReleaseType values that do not mark an entry
// as a component update.
var updateReleaseTypes = map[string]bool{
	"Hotfix":          true,
	"Security Update": true,
	"Update Rollup":   true,
}

// Builder turns uninstall keys into InstalledApplication records.
type Builder struct {
	hive   registry.Hive
	walker *Walker
}

// NewBuilder returns a Builder reading from h.
func NewBuilder(h registry.Hive) *Builder {
	return &Builder{hive: h, walker: NewWalker(h)}
}

// Build reads the key at keyPath. Values are applied in enumeration order
// and each one is checked before it is applied; the first disqualifying
// value ends the read with ErrNotApplication. A key without a display name
// is also ErrNotApplication.
func (b *Builder) Build(keyPath string) (InstalledApplication, error) {
	app := InstalledApplication{Key: keyPath}
	for v, err := range b.walker.Values(keyPath) {
		if err != nil {
			return InstalledApplication{}, err
		}
		skip, err := b.disqualifies(keyPath, v)
		if err != nil {
			return InstalledApplication{}, fmt.Errorf("check %s: %w", keyPath, err)
		}
		if skip {
			return InstalledApplication{}, fmt.Errorf("%s: %w (%s)", keyPath, ErrNotApplication, v.Name)
		}
		if decode, ok := decoders[v.Name]; ok {
			decode(&app, v)
		}
	}
	if app.Name == "" {
		return InstalledApplication{}, fmt.Errorf("%s: %w (no name)", keyPath, ErrNotApplication)
	}
	return app, nil
}

// disqualifies reports whether v marks the entry as something other than an
// application: a system component, an orphaned Windows Installer record, a
// component update, a child of another entry, or a KB update.
func (b *Builder) disqualifies(keyPath string, v registry.Value) (bool, error) {
	switch v.Name {
	case "SystemComponent":
		return v.Integer() > 0, nil
	case "WindowsInstaller":
		if v.Integer() <= 0 {
			return false, nil
		}
		product := registry.Join(ProductsKey, CompressGUID(registry.Base(keyPath)))
		exists, err := registry.KeyExists(b.hive, product)
		if err != nil {
			return false, err
		}
		return !exists, nil
	case "ReleaseType":
		return !updateReleaseTypes[v.String()], nil
	case "ParentKeyName":
		return true, nil
	case "DisplayName":
		return kbPattern.MatchString(v.String()), nil
	default:
		return false, nil
	}
}
