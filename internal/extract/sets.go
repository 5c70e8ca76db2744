package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/claude/repbot/internal/models"
)

var (
	ordinalRe = regexp.MustCompile(`\b(primer[oa]?|1er[oa]?|1r[oa]|1[oa]|first|1st|` +
		`segund[oa]|2d[oa]|2[oa]|second|2nd|` +
		`tercer[oa]?|3er[oa]?|3r[oa]|3[oa]|third|3rd|` +
		`cuart[oa]|4t[oa]|4[oa]|fourth|4th|` +
		`quint[oa]|5t[oa]|5[oa]|fifth|5th|` +
		`sext[oa]|6t[oa]|6[oa]|sixth|6th|` +
		`ultim[oa]|last)\b`)
	// set 2, serie 3
	setNumberRe = regexp.MustCompile(`\b(?:set|serie)\s*#?\s*(\d)\b`)
	// "1 set 10 reps, 2 set 8 reps": only ordinal next to other markers
	numberSetRe = regexp.MustCompile(`\b(\d)\s*(?:set|serie)\b`)
	restRe      = regexp.MustCompile(`\b(?:los\s+otros|las\s+otras|los\s+demas|las\s+demas|el\s+resto|the\s+rest|the\s+others)\b`)
	sentenceRe  = regexp.MustCompile(`\.\s+|\n`)
	digitTailRe = regexp.MustCompile(`\d\s*$`)
)

var ordinalPrefixes = []struct {
	prefix string
	set    int
}{
	{"prim", 1}, {"1", 1}, {"first", 1},
	{"seg", 2}, {"2", 2}, {"second", 2},
	{"ter", 3}, {"3", 3}, {"third", 3},
	{"cuar", 4}, {"4", 4}, {"fourth", 4},
	{"quin", 5}, {"5", 5}, {"fifth", 5},
	{"sext", 6}, {"6", 6}, {"sixth", 6},
}

// lastSet marks "la última", resolved once the set count is known.
const lastSet = -1

type marker struct {
	start, end int
	set        int
	rest       bool
}

func ordinalSet(word string) int {
	if strings.HasPrefix(word, "ultim") || word == "last" {
		return lastSet
	}
	for _, p := range ordinalPrefixes {
		if strings.HasPrefix(word, p.prefix) {
			return p.set
		}
	}
	return 0
}

// findMarkers locates per-set markers in s, sorted by position.
func findMarkers(s string) []marker {
	var ms []marker
	for _, loc := range ordinalRe.FindAllStringIndex(s, -1) {
		// "1 segundo" is a duration, not the second set
		if digitTailRe.MatchString(s[:loc[0]]) {
			continue
		}
		if set := ordinalSet(s[loc[0]:loc[1]]); set != 0 {
			ms = append(ms, marker{start: loc[0], end: loc[1], set: set})
		}
	}
	ordinals := len(ms)
	for _, loc := range setNumberRe.FindAllStringSubmatchIndex(s, -1) {
		if digitTailRe.MatchString(s[:loc[0]]) || followsOrdinal(s, ms[:ordinals], loc[0]) {
			continue
		}
		n, _ := strconv.Atoi(s[loc[2]:loc[3]])
		if n > 0 {
			ms = append(ms, marker{start: loc[0], end: loc[1], set: n})
		}
	}
	numbered := numberSetRe.FindAllStringSubmatchIndex(s, -1)
	if len(numbered) >= 2 || (len(numbered) > 0 && len(ms) > 0) {
		for _, loc := range numbered {
			n, _ := strconv.Atoi(s[loc[2]:loc[3]])
			if n > 0 {
				ms = append(ms, marker{start: loc[0], end: loc[1], set: n})
			}
		}
	}
	for _, loc := range restRe.FindAllStringIndex(s, -1) {
		ms = append(ms, marker{start: loc[0], end: loc[1], rest: true})
	}

	sort.Slice(ms, func(i, j int) bool { return ms[i].start < ms[j].start })
	out := ms[:0]
	for _, m := range ms {
		// "primer set 2" style overlaps keep the first marker
		if len(out) > 0 && m.start < out[len(out)-1].end {
			continue
		}
		out = append(out, m)
	}
	return out
}

// followsOrdinal reports whether only spaces separate pos from an ordinal
// marker, as in "primera serie 8 reps".
func followsOrdinal(s string, ordinals []marker, pos int) bool {
	for _, m := range ordinals {
		if m.end <= pos && strings.TrimSpace(s[m.end:pos]) == "" {
			return true
		}
	}
	return false
}

// segment is the text a marker governs: up to the next marker or the end
// of its sentence, whichever comes first.
type segment struct {
	marker
	segEnd int
}

func segments(s string, ms []marker) []segment {
	bounds := sentenceRe.FindAllStringIndex(s, -1)
	out := make([]segment, 0, len(ms))
	for i, m := range ms {
		end := len(s)
		if i+1 < len(ms) {
			end = ms[i+1].start
		}
		for _, b := range bounds {
			if b[0] >= m.end && b[0] < end {
				end = b[0]
				break
			}
		}
		out = append(out, segment{marker: m, segEnd: end})
	}
	return out
}

// perSetValues collects values addressed to individual sets.
type perSetValues struct {
	bySet  map[models.Field]map[int]float64
	rest   map[models.Field]float64
	maxSet int
}

func (p *perSetValues) assign(f models.Field, targets []marker, x float64) {
	for _, t := range targets {
		if t.rest {
			p.rest[f] = x
			continue
		}
		if p.bySet[f] == nil {
			p.bySet[f] = map[int]float64{}
		}
		p.bySet[f][t.set] = x
		if t.set > p.maxSet {
			p.maxSet = t.set
		}
	}
}

// collectPerSet parses each segment and assigns its values to the sets it
// names. A marker whose segment says nothing is grouped with the next one,
// so "2do y 3er set rir 0" reaches both sets. Bare numbers in a segment go
// to bareField.
func collectPerSet(s string, segs []segment, knownSets int, bareField models.Field) *perSetValues {
	p := &perSetValues{bySet: map[models.Field]map[int]float64{}, rest: map[models.Field]float64{}}
	var group []marker
	for _, sg := range segs {
		m := sg.marker
		if m.set == lastSet {
			if knownSets == 0 {
				continue
			}
			m.set = knownSets
		}
		c := parseChunk(s[sg.end:sg.segEnd])
		if len(c.vals) == 0 && len(c.bare) == 0 {
			if !m.rest {
				group = append(group, m)
			}
			continue
		}
		targets := append(group, m)
		group = nil
		for f, v := range c.vals {
			if x, ok := v.ValueForSet(0); ok {
				p.assign(f, targets, x)
			}
		}
		if _, ok := c.vals[bareField]; !ok && bareField != "" && len(c.bare) > 0 {
			p.assign(bareField, targets, c.bare[0])
		}
	}
	return p
}

// list builds the per-set list for f over n sets. Unnamed sets take the
// "rest" value, then the fallback value, then carry the nearest known value.
func (p *perSetValues) list(f models.Field, n int, fallback models.SetValue) []float64 {
	vals := make([]float64, n)
	known := make([]bool, n)
	for i := 0; i < n; i++ {
		if x, ok := p.bySet[f][i+1]; ok {
			vals[i], known[i] = x, true
		} else if x, ok := p.rest[f]; ok {
			vals[i], known[i] = x, true
		} else if x, ok := fallback.ValueForSet(i); ok {
			vals[i], known[i] = x, true
		}
	}
	first := -1
	for i := range vals {
		if known[i] {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}
	for i := 0; i < first; i++ {
		vals[i] = vals[first]
	}
	for i := first + 1; i < n; i++ {
		if !known[i] {
			vals[i] = vals[i-1]
		}
	}
	return vals
}
