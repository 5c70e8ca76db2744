package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopWords are dropped before word-overlap scoring.
var stopWords = map[string]bool{
	"con": true, "de": true, "en": true, "por": true, "para": true, "del": true,
	"la": true, "el": true, "los": true, "las": true, "un": true, "una": true,
}

// StripAccents removes combining marks after NFD decomposition ("Tríceps" -> "Triceps").
func StripAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Fold lower-cases, strips accents and trims s for exact comparisons.
func Fold(s string) string {
	return strings.TrimSpace(strings.ToLower(StripAccents(s)))
}

// Words normalizes s into scoring tokens: lower-case, accent-free,
// split on anything that is not a letter or digit, stop words removed.
func Words(s string) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}
