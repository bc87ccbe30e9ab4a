// pkg/hotfix/hotfix.go - installed Windows updates.
//
// Updates registered under the uninstall keys as KBnnnnnn entries are hidden
// from application listings; this package lists them from WMI instead.

package hotfix

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrUnsupported is returned by List on hosts without WMI.
var ErrUnsupported = errors.New("hotfix listing requires Windows")

// Hotfix is one installed update.
type Hotfix struct {
	HotFixID    string     `json:"hotfix_id" yaml:"hotfix_id"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Caption     string     `json:"caption,omitempty" yaml:"caption,omitempty"`
	InstalledOn civil.Date `json:"installed_on,omitzero" yaml:"installed_on,omitempty"`
}

// ParseInstalledOn parses the M/D/YYYY dates WMI reports. Some systems
// report a hex FILETIME instead; anything unparsable is the zero date.
func ParseInstalledOn(s string) civil.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}
	}
	if t, err := time.Parse("1/2/2006", s); err == nil {
		return civil.DateOf(t)
	}
	if ft, err := strconv.ParseUint(s, 16, 64); err == nil && ft > 0 {
		// 100ns intervals since 1601-01-01
		const epochDelta = 116444736000000000
		if ft > epochDelta {
			return civil.DateOf(time.Unix(0, int64(ft-epochDelta)*100).UTC())
		}
	}
	return civil.Date{}
}

// Sort orders hotfixes by ID.
func Sort(hotfixes []Hotfix) {
	sort.Slice(hotfixes, func(i, j int) bool {
		return hotfixes[i].HotFixID < hotfixes[j].HotFixID
	})
}

// Find returns the hotfix with the given ID, compared case-insensitively.
func Find(hotfixes []Hotfix, id string) (Hotfix, bool) {
	for _, h := range hotfixes {
		if strings.EqualFold(h.HotFixID, id) {
			return h, true
		}
	}
	return Hotfix{}, false
}
