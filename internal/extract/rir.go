package extract

import (
	"regexp"
	"strconv"
)

// rirPhrase maps a natural-language effort report to reps in reserve.
// A negative value means the count is captured by the first group.
type rirPhrase struct {
	re    *regexp.Regexp
	value float64
}

// Order matters: failure wording wins over "una más" inside "no podía ni una más".
var rirPhrases = []rirPhrase{
	{regexp.MustCompile(`\b(?:todas\s+)?(?:al|hasta\s+el|a)\s+fallo\b|\bfallo\s+muscular\b|\blo\s+di\s+todo\b|\bno\s+podia\s+(?:hacer\s+)?(?:ni\s+)?(?:una\s+)?mas\b|\bto\s+failure\b`), 0},
	{regexp.MustCompile(`\b(?:pude|podia|podria)\s+(?:haber\s+)?(?:hecho\s+)?(\d)\s+mas\b`), -1},
	{regexp.MustCompile(`\b(?:me\s+)?(?:quedaban|quedaron|sobraban)\s+(\d)\b`), -1},
	{regexp.MustCompile(`\b(\d)\s+more\b`), -1},
	{regexp.MustCompile(`\buna\s+mas\b|\bdeje\s+una\b|\bone\s+more\b`), 1},
	{regexp.MustCompile(`\bdos\s+mas\b|\bdeje\s+dos\b|\btwo\s+more\b`), 2},
	{regexp.MustCompile(`\btres\s+mas\b|\bdeje\s+tres\b|\bthree\s+more\b`), 3},
}

var rirWordRe = regexp.MustCompile(`\brir\b`)

// rirFromPhrase returns the RIR implied by the first matching phrase in s.
func rirFromPhrase(s string) (float64, bool) {
	for _, p := range rirPhrases {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if p.value >= 0 {
			return p.value, true
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return float64(n), true
	}
	return 0, false
}

func blankRIRPhrases(b []byte) {
	for _, p := range rirPhrases {
		for _, loc := range p.re.FindAllIndex(b, -1) {
			blank(b, loc[0], loc[1])
		}
	}
}

// HasRIREvidence reports whether msg mentions reps in reserve at all,
// either as "RIR n" or as an effort phrase.
func HasRIREvidence(msg string) bool {
	f := fold(msg)
	if rirWordRe.MatchString(f) {
		return true
	}
	_, ok := rirFromPhrase(f)
	return ok
}

// rirPhraseIndex is the byte offset of the first effort phrase in s, or -1.
func rirPhraseIndex(s string) int {
	best := -1
	for _, p := range rirPhrases {
		if loc := p.re.FindStringIndex(s); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
		}
	}
	if loc := rirWordRe.FindStringIndex(s); loc != nil && (best < 0 || loc[0] < best) {
		best = loc[0]
	}
	return best
}
