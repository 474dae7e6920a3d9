package detect

import (
	"sort"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// Canonical maps a charset name or alias to its preferred MIME name, falling
// back to the IANA name and finally to the trimmed input when the name is
// not registered or has no implementation. Unknown stays Unknown.
func Canonical(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, Unknown) {
		return Unknown
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return name
	}
	if n, err := ianaindex.MIME.Name(enc); err == nil && n != "" {
		return n
	}
	if n, err := ianaindex.IANA.Name(enc); err == nil && n != "" {
		return n
	}
	return name
}

// Equal reports whether two charset names denote the same charset.
func Equal(a, b string) bool {
	return strings.EqualFold(Canonical(a), Canonical(b))
}

// identifiers the backends can report, before canonicalization
var knownRaw = []string{
	"UTF-8", "UTF-16", "UTF-32",
	"UTF-16BE", "UTF-16LE", "UTF-32BE", "UTF-32LE",
	"ISO-8859-1", "ISO-8859-2", "ISO-8859-5", "ISO-8859-6",
	"ISO-8859-7", "ISO-8859-8", "ISO-8859-8-I", "ISO-8859-9",
	"windows-1250", "windows-1251", "windows-1252", "windows-1253",
	"windows-1254", "windows-1255", "windows-1256",
	"KOI8-R", "Shift_JIS", "EUC-JP", "EUC-KR", "Big5", "GB-18030",
	"ISO-2022-JP", "ISO-2022-KR", "ISO-2022-CN",
	"IBM420_ltr", "IBM420_rtl", "IBM424_ltr", "IBM424_rtl",
}

// KnownCharsets returns the sorted, de-duplicated canonical identifiers the
// registered backends may report.
func KnownCharsets() []string {
	seen := make(map[string]struct{}, len(knownRaw))
	out := make([]string, 0, len(knownRaw))
	for _, n := range knownRaw {
		c := Canonical(n)
		key := strings.ToUpper(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToUpper(out[i]) < strings.ToUpper(out[j]) })
	return out
}

// IsKnown reports whether name canonicalizes to a known identifier.
func IsKnown(name string) bool {
	for _, k := range KnownCharsets() {
		if Equal(k, name) {
			return true
		}
	}
	return false
}
