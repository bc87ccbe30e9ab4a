package apps

import (
	"regexp"
	"strings"
)

var guidPattern = regexp.MustCompile(`^\{(\w{8})-(\w{4})-(\w{4})-(\w\w)(\w\w)-(\w\w)(\w\w)(\w\w)(\w\w)(\w\w)(\w\w)\}$`)

// CompressGUID converts a braced product GUID to the compressed form used
// under Software\Classes\Installer\Products: each of the eleven groups of
// the GUID is reversed and the results are concatenated. Strings that are
// not braced GUIDs compress to "".
func CompressGUID(guid string) string {
	m := guidPattern.FindStringSubmatch(guid)
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, group := range m[1:] {
		for i := len(group) - 1; i >= 0; i-- {
			b.WriteByte(group[i])
		}
	}
	return b.String()
}
