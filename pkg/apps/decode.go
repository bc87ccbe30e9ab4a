package apps

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/windowsadmins/winapps/pkg/registry"
)

// valueNotSet is what some installers store instead of leaving a value out.
const valueNotSet = "(value not set)"

// decoder copies one registry value into its field of the record.
type decoder func(app *InstalledApplication, v registry.Value)

// decoders maps value names to the field they fill. Names not listed here
// are ignored.
var decoders = map[string]decoder{
	"DisplayName": func(app *InstalledApplication, v registry.Value) {
		app.Name = stringValue(v)
	},
	"DisplayVersion": func(app *InstalledApplication, v registry.Value) {
		app.Version = stringValue(v)
	},
	"InstallDate": func(app *InstalledApplication, v registry.Value) {
		app.InstallDate = parseInstallDate(stringValue(v))
	},
	"InstallLocation": func(app *InstalledApplication, v registry.Value) {
		app.InstallLocation = cleanPath(stringValue(v))
	},
	"InstallSource": func(app *InstalledApplication, v registry.Value) {
		app.InstallSource = cleanPath(stringValue(v))
	},
	"ModifyPath": func(app *InstalledApplication, v registry.Value) {
		app.ModifyPath = stringValue(v)
	},
	"Publisher": func(app *InstalledApplication, v registry.Value) {
		app.Publisher = stringValue(v)
	},
	"UninstallString": func(app *InstalledApplication, v registry.Value) {
		app.UninstallString = stringValue(v)
	},
}

func stringValue(v registry.Value) string {
	s := v.String()
	if s == valueNotSet {
		return ""
	}
	return s
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// parseInstallDate accepts a 10-digit Unix timestamp (taken as a local
// date), YYYYMMDD, or M/D/YYYY with optional zero padding. Anything else,
// including impossible dates, is the zero date.
func parseInstallDate(s string) civil.Date {
	switch {
	case len(s) == 10 && isDigits(s):
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return civil.Date{}
		}
		return civil.DateOf(time.Unix(secs, 0).Local())
	case len(s) == 8 && isDigits(s):
		t, err := time.Parse("20060102", s)
		if err != nil {
			return civil.Date{}
		}
		return civil.DateOf(t)
	case strings.Contains(s, "/"):
		parts := strings.Split(s, "/")
		for i, p := range parts {
			if len(p) < 2 {
				parts[i] = strings.Repeat("0", 2-len(p)) + p
			}
		}
		t, err := time.Parse("01022006", strings.Join(parts, ""))
		if err != nil {
			return civil.Date{}
		}
		return civil.DateOf(t)
	default:
		return civil.Date{}
	}
}

// cleanPath normalizes a Windows path from the registry: separators become
// backslashes, and duplicate separators, trailing separators and "."
// elements go away. ".." elements, drive-relative paths such as "C:" and
// UNC prefixes are kept as written.
func cleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "/", `\`)
	if p == "" {
		return ""
	}

	var prefix string
	switch {
	case strings.HasPrefix(p, `\\`):
		prefix, p = `\\`, p[2:]
	case len(p) >= 2 && p[1] == ':':
		prefix, p = p[:2], p[2:]
	}
	if strings.HasPrefix(p, `\`) && prefix != `\\` {
		prefix += `\`
	}

	var parts []string
	for _, elem := range strings.Split(p, `\`) {
		if elem != "" && elem != "." {
			parts = append(parts, elem)
		}
	}
	cleaned := prefix + strings.Join(parts, `\`)
	if cleaned == "" {
		return "."
	}
	return cleaned
}
