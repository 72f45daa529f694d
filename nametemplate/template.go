// Package nametemplate implements the Name Transformer (spec.md §4.G):
// evaluating `{name ...}` substitution templates and enforcing the
// per-kind no-collision rule used by the Transform module.
package nametemplate

import (
	"fmt"
	"regexp"
	"strings"
)

var substitutionRe = regexp.MustCompile(`\{name(?:\s+(.*?))?\}`)

// Template is a parsed name template: literal runs interleaved with
// optional regexes, mirroring the `{name}` / `{name <regex>}` forms of
// spec.md §4.G.
type Template struct {
	raw   string
	parts []part
}

type part struct {
	literal string
	re      *regexp.Regexp // nil for a plain literal run
}

// Parse compiles a name template. `{name}` matches the whole original
// name; `{name <regex>}` compiles <regex> as the user wrote it (no
// implicit anchoring beyond what the regex itself specifies).
func Parse(tmpl string) (*Template, error) {
	t := &Template{raw: tmpl}
	last := 0
	for _, m := range substitutionRe.FindAllSubmatchIndex([]byte(tmpl), -1) {
		start, end := m[0], m[1]
		if start > last {
			t.parts = append(t.parts, part{literal: tmpl[last:start]})
		}
		var re *regexp.Regexp
		if m[2] >= 0 {
			pattern := tmpl[m[2]:m[3]]
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("name template %q: invalid regex %q: %w", tmpl, pattern, err)
			}
			re = compiled
		}
		t.parts = append(t.parts, part{re: re})
		last = end
	}
	if last < len(tmpl) {
		t.parts = append(t.parts, part{literal: tmpl[last:]})
	}
	return t, nil
}

// Expand evaluates the template against the original name. A `{name}`
// substitution is the verbatim original name; a `{name <regex>}`
// substitution concatenates every capturing group's match, or expands to
// empty if the regex does not match (spec.md §4.G).
func (t *Template) Expand(name string) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.re == nil && p.literal != "" {
			b.WriteString(p.literal)
			continue
		}
		if p.re == nil {
			// bare {name}
			b.WriteString(name)
			continue
		}
		m := p.re.FindStringSubmatch(name)
		if m == nil || len(m) < 2 {
			continue
		}
		for _, g := range m[1:] {
			b.WriteString(g)
		}
	}
	return b.String()
}

func (t *Template) String() string { return t.raw }
