package integrity

import "strings"

// Known naming-convention affixes, stripped at most once each during
// normalization. Suffixes are ordered longest first so "_basecolor" wins
// over "_d" when both could apply.
var (
	knownPrefixes = []string{"std_", "mat_"}
	knownSuffixes = []string{"_basecolor", "_diffuse", "_albedo", "_mat", "_d"}
)

// NormalizeKey reduces an asset name to a comparable key: lower-cased,
// known prefixes and suffixes stripped at most once each, whitespace and
// underscores removed. Pure; identical input always yields identical output.
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))

	for _, p := range knownPrefixes {
		if strings.HasPrefix(key, p) {
			key = key[len(p):]
			break
		}
	}
	for _, s := range knownSuffixes {
		if strings.HasSuffix(key, s) {
			key = key[:len(key)-len(s)]
			break
		}
	}

	return collapseName(key)
}

// collapseName lower-cases and removes whitespace and underscores without
// stripping affixes. Used for keyword and substring comparisons where the
// affixes still carry signal.
func collapseName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch r {
		case '_', ' ', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
