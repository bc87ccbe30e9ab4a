// pkg/apps/application.go - the installed application record.

package apps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/windowsadmins/winapps/pkg/installer"
)

// ErrNotApplication is returned by Builder.Build for uninstall entries that
// are not user-facing applications.
var ErrNotApplication = errors.New("not an application")

// ErrStillInstalled is returned when an application is still registered
// after its uninstaller finished.
var ErrStillInstalled = errors.New("application still installed after uninstall")

// DefaultRunner runs Modify and Uninstall on InstalledApplication values.
var DefaultRunner installer.Runner = &installer.ExecRunner{Timeout: 15 * time.Minute}

// InstalledApplication is one entry of the installed-programs list. Absent
// optional fields are zero.
type InstalledApplication struct {
	Name            string     `json:"name" yaml:"name"`
	Version         string     `json:"version,omitempty" yaml:"version,omitempty"`
	InstallDate     civil.Date `json:"install_date,omitzero" yaml:"install_date,omitempty"`
	InstallLocation string     `json:"install_location,omitempty" yaml:"install_location,omitempty"`
	InstallSource   string     `json:"install_source,omitempty" yaml:"install_source,omitempty"`
	ModifyPath      string     `json:"modify_path,omitempty" yaml:"modify_path,omitempty"`
	Publisher       string     `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	UninstallString string     `json:"uninstall_string,omitempty" yaml:"uninstall_string,omitempty"`

	// Key is the registry key the record was read from, relative to HKLM.
	Key string `json:"key" yaml:"key"`
}

// Field names a searchable field of InstalledApplication.
type Field string

const (
	FieldName            Field = "name"
	FieldVersion         Field = "version"
	FieldInstallDate     Field = "install_date"
	FieldInstallLocation Field = "install_location"
	FieldInstallSource   Field = "install_source"
	FieldModifyPath      Field = "modify_path"
	FieldPublisher       Field = "publisher"
	FieldUninstallString Field = "uninstall_string"
)

// Fields lists every searchable field in display order.
var Fields = []Field{
	FieldName,
	FieldVersion,
	FieldInstallDate,
	FieldInstallLocation,
	FieldInstallSource,
	FieldModifyPath,
	FieldPublisher,
	FieldUninstallString,
}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// FieldValue returns the string form of a field, as used by Search. Absent
// fields are "" and dates render as YYYY-MM-DD.
func (a InstalledApplication) FieldValue(f Field) string {
	switch f {
	case FieldName:
		return a.Name
	case FieldVersion:
		return a.Version
	case FieldInstallDate:
		if a.InstallDate.IsZero() {
			return ""
		}
		return a.InstallDate.String()
	case FieldInstallLocation:
		return a.InstallLocation
	case FieldInstallSource:
		return a.InstallSource
	case FieldModifyPath:
		return a.ModifyPath
	case FieldPublisher:
		return a.Publisher
	case FieldUninstallString:
		return a.UninstallString
	default:
		return ""
	}
}

// Modify runs the application's ModifyPath command with extra args appended.
func (a InstalledApplication) Modify(ctx context.Context, args ...string) error {
	return a.modify(ctx, DefaultRunner, args)
}

// Uninstall runs the application's UninstallString command with extra args
// appended. It does not wait for the registry entry to disappear; use
// Inventory.Uninstall for that.
func (a InstalledApplication) Uninstall(ctx context.Context, args ...string) error {
	return a.uninstall(ctx, DefaultRunner, args)
}

func (a InstalledApplication) modify(ctx context.Context, r installer.Runner, args []string) error {
	if a.ModifyPath == "" {
		return fmt.Errorf("modify %s: %w", a.Name, installer.ErrNoCommand)
	}
	if err := installer.RunCommandLine(ctx, r, a.ModifyPath, args...); err != nil {
		return fmt.Errorf("modify %s: %w", a.Name, err)
	}
	return nil
}

func (a InstalledApplication) uninstall(ctx context.Context, r installer.Runner, args []string) error {
	if a.UninstallString == "" {
		return fmt.Errorf("uninstall %s: %w", a.Name, installer.ErrNoCommand)
	}
	if err := installer.RunCommandLine(ctx, r, a.UninstallString, args...); err != nil {
		return fmt.Errorf("uninstall %s: %w", a.Name, err)
	}
	return nil
}
