//go:build !windows
// +build !windows

package hotfix

import "context"

// List returns ErrUnsupported off Windows.
func List(context.Context) ([]Hotfix, error) {
	return nil, ErrUnsupported
}
