package scanner

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Matcher tests file names against a set of glob masks.
// `*` matches any run of characters, `?` exactly one, everything else is
// literal. Matching is case-insensitive and anchored to the whole name.
type Matcher struct {
	patterns []string
	res      []*regexp.Regexp
}

// CompileMasks builds a Matcher from newline-delimited masks.
// Blank lines and lines starting with '#' are ignored.
func CompileMasks(text string) *Matcher {
	m := &Matcher{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
		m.res = append(m.res, globToRegexp(line))
	}
	logrus.Debugf("Loaded %d masks", len(m.patterns))
	return m
}

// CompileMaskList is CompileMasks for already split masks.
func CompileMaskList(masks []string) *Matcher {
	return CompileMasks(strings.Join(masks, "\n"))
}

// Matches reports whether name matches at least one mask.
// An empty Matcher matches nothing.
func (m *Matcher) Matches(name string) bool {
	for _, re := range m.res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled masks.
func (m *Matcher) Len() int { return len(m.res) }

// Patterns returns the masks in input order.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

func globToRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	// only quoted literals and wildcards above, cannot fail
	return regexp.MustCompile(b.String())
}
