// pkg/apps/walker.go - enumerates application keys and their values.

package apps

import (
	"errors"
	"fmt"
	"iter"

	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/registry"
)

// UninstallRoots are the HKLM subtrees holding one key per installed
// program, for native and 32-bit programs.
var UninstallRoots = []string{
	`Software\Microsoft\Windows\CurrentVersion\Uninstall`,
	`Software\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// ProductsKey holds one subkey per product registered with Windows
// Installer, named by compressed GUID.
const ProductsKey = `Software\Classes\Installer\Products`

// Walker enumerates uninstall keys of a hive. It keeps no state between
// walks.
type Walker struct {
	hive  registry.Hive
	roots []string
}

// NewWalker returns a Walker over UninstallRoots of h.
func NewWalker(h registry.Hive) *Walker {
	return &Walker{hive: h, roots: UninstallRoots}
}

// Keys yields the path of every child key of every root, in enumeration
// order. A root that does not exist, or is deleted while it is walked, is
// skipped. Any other error is yielded once and ends the walk.
func (w *Walker) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, root := range w.roots {
			if !w.walkRoot(root, yield) {
				return
			}
		}
	}
}

func (w *Walker) walkRoot(root string, yield func(string, error) bool) bool {
	k, err := w.hive.OpenKey(root)
	if errors.Is(err, registry.ErrNotExist) {
		logging.Debug("Uninstall root not present", "key", root)
		return true
	}
	if err != nil {
		yield("", fmt.Errorf("open uninstall root: %w", err))
		return false
	}
	defer k.Close()

	for i := 0; ; i++ {
		name, err := k.SubKeyName(i)
		if errors.Is(err, registry.ErrNoMoreItems) {
			return true
		}
		if errors.Is(err, registry.ErrNotExist) {
			logging.Debug("Uninstall root removed while walking", "key", root)
			return true
		}
		if err != nil {
			yield("", fmt.Errorf("enumerate %s: %w", root, err))
			return false
		}
		if !yield(registry.Join(root, name), nil) {
			return false
		}
	}
}

// Values yields the values of the key at keyPath in enumeration order. The
// key is closed when the sequence ends, including when the consumer stops
// early.
func (w *Walker) Values(keyPath string) iter.Seq2[registry.Value, error] {
	return func(yield func(registry.Value, error) bool) {
		k, err := w.hive.OpenKey(keyPath)
		if err != nil {
			yield(registry.Value{}, err)
			return
		}
		defer k.Close()

		for i := 0; ; i++ {
			v, err := k.Value(i)
			if errors.Is(err, registry.ErrNoMoreItems) {
				return
			}
			if err != nil {
				yield(registry.Value{}, fmt.Errorf("enumerate values of %s: %w", keyPath, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
