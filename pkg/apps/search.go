// pkg/apps/search.go - filters applications by per-field patterns.

package apps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-version"
)

// Query selects applications. Every non-empty pattern must match its field
// for an application to be selected; an empty Query selects everything.
type Query struct {
	// Name is a pattern for FieldName. A FieldName entry in Fields takes
	// precedence.
	Name string
	// Fields maps fields to patterns.
	Fields map[Field]string
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
	// Glob makes patterns shell-style globs matched against the whole field
	// instead of regular expressions matched anywhere in it.
	Glob bool
	// VersionConstraint, if set, also requires Version to satisfy a
	// constraint such as ">= 19.0, < 23".
	VersionConstraint string
}

type fieldMatcher struct {
	field Field
	match func(string) bool
}

// Matcher is a compiled Query.
type Matcher struct {
	fields     []fieldMatcher
	constraint version.Constraints
}

// Compile validates the query and compiles its patterns.
func (q Query) Compile() (*Matcher, error) {
	patterns := make(map[Field]string)
	if q.Name != "" {
		patterns[FieldName] = q.Name
	}
	for f, p := range q.Fields {
		if _, err := ParseField(string(f)); err != nil {
			return nil, err
		}
		if p != "" {
			patterns[f] = p
		}
	}

	m := &Matcher{}
	for _, f := range Fields {
		p, ok := patterns[f]
		if !ok {
			continue
		}
		match, err := q.compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f, err)
		}
		m.fields = append(m.fields, fieldMatcher{field: f, match: match})
	}

	if q.VersionConstraint != "" {
		c, err := version.NewConstraint(q.VersionConstraint)
		if err != nil {
			return nil, fmt.Errorf("version constraint: %w", err)
		}
		m.constraint = c
	}
	return m, nil
}

func (q Query) compilePattern(p string) (func(string) bool, error) {
	if q.Glob {
		if !q.CaseSensitive {
			p = strings.ToLower(p)
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		if q.CaseSensitive {
			return g.Match, nil
		}
		return func(s string) bool { return g.Match(strings.ToLower(s)) }, nil
	}

	if !q.CaseSensitive {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

// Match reports whether app satisfies every pattern of the query.
func (m *Matcher) Match(app InstalledApplication) bool {
	for _, fm := range m.fields {
		if !fm.match(app.FieldValue(fm.field)) {
			return false
		}
	}
	if m.constraint != nil {
		v, err := version.NewVersion(app.Version)
		if err != nil || !m.constraint.Check(v) {
			return false
		}
	}
	return true
}
