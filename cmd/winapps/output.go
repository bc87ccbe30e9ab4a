// cmd/winapps/output.go - text, JSON and YAML rendering of command results.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/winapps/pkg/apps"
	"github.com/windowsadmins/winapps/pkg/hotfix"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func writeApplications(w io.Writer, format string, list []apps.InstalledApplication) error {
	if list == nil {
		list = []apps.InstalledApplication{}
	}
	if format != outputText {
		return writeStructured(w, format, list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No applications found.")
		return err
	}

	data := pterm.TableData{{"Name", "Version", "Publisher", "Installed", "Location"}}
	for _, app := range list {
		data = append(data, []string{
			app.Name,
			app.Version,
			app.Publisher,
			app.FieldValue(apps.FieldInstallDate),
			app.InstallLocation,
		})
	}
	return renderTable(w, data)
}

func writeHotfixes(w io.Writer, format string, list []hotfix.Hotfix) error {
	if list == nil {
		list = []hotfix.Hotfix{}
	}
	if format != outputText {
		return writeStructured(w, format, list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No hotfixes found.")
		return err
	}

	data := pterm.TableData{{"HotFixID", "Installed", "Description"}}
	for _, h := range list {
		installed := ""
		if !h.InstalledOn.IsZero() {
			installed = h.InstalledOn.String()
		}
		data = append(data, []string{h.HotFixID, installed, h.Description})
	}
	return renderTable(w, data)
}

func renderTable(w io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed(true).
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q: use text, json or yaml", format)
	}
}
