package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/repbot/internal/models"
)

const (
	num      = `\d+(?:\.\d+)?`
	numList  = num + `(?:\s*[,/]\s*` + num + `)*`
	wNum     = `\d+(?:[.,]\d+)?`
	wNumList = wNum + `(?:\s*/\s*` + wNum + `)*`
	rirList  = `\d(?:\s*[,/]\s*\d\b)*`
)

// Unit patterns run on lower-cased, accent-free text.
var (
	// 3 series de 10
	seriesOfRe = regexp.MustCompile(`(\d+)\s*(?:series|sets)\s+de\s+(\d+)\b`)
	// 4x10, 80kg x 8
	timesRe = regexp.MustCompile(`(` + wNum + `)\s*(kg|kgs|kilos?|lbs?|libras?)?\s*[x×]\s*(\d+)\b`)

	weightRe    = regexp.MustCompile(`(` + wNumList + `)\s*(kg|kgs|kilos?|kilogramos?|lbs?|libras?|pounds?)\b`)
	rirAfterRe  = regexp.MustCompile(`\brir\s*(?:de\s*|:\s*|=\s*)?(` + rirList + `)`)
	rirBeforeRe = regexp.MustCompile(`\b(` + rirList + `)\s*(?:de\s+)?rir\b`)
	repsRe      = regexp.MustCompile(`(` + numList + `)\s*(reps?|repeticion(?:es)?|veces)\b`)
	setsRe      = regexp.MustCompile(`(\d+)\s*(series|sets|serie|set)\b`)
	distanceRe  = regexp.MustCompile(`(` + numList + `)\s*(km|kms|kilometros?|metros|metro|mts|millas?|miles)\b`)
	durationRe  = regexp.MustCompile(`(` + numList + `)\s*(segundos?|segs?|s|minutos?|mins?|m|horas?|hrs?|h)\b`)
	caloriesRe  = regexp.MustCompile(`(` + numList + `)\s*(kcal|cal|calorias)\b`)
	bareRe      = regexp.MustCompile(num)

	unitPrefixRe = regexp.MustCompile(`^\s*(kg|kilo|lb|libra|pound|seg|s\b|min|m\b|hora|h\b|km|metro|milla)`)
)

// maxSetsInTimes is the largest left operand of "A x B" read as a set count;
// anything bigger is a weight.
const maxSetsInTimes = 20

// chunk is what one stretch of text says, before per-set assignment.
type chunk struct {
	vals map[models.Field]models.SetValue
	sets int
	bare []float64
}

// scanner consumes matches from a mutable copy of the text so a number is
// never read twice.
type scanner struct {
	buf []byte
}

func (s *scanner) take(re *regexp.Regexp) []string {
	loc := re.FindSubmatchIndex(s.buf)
	if loc == nil {
		return nil
	}
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = string(s.buf[loc[2*i]:loc[2*i+1]])
		}
	}
	blank(s.buf, loc[0], loc[1])
	return out
}

func blank(b []byte, start, end int) {
	for i := start; i < end && i < len(b); i++ {
		b[i] = ' '
	}
}

// parseChunk reads every unit-bound quantity in text.
func parseChunk(text string) chunk {
	c := chunk{vals: map[models.Field]models.SetValue{}}
	s := &scanner{buf: []byte(text)}

	if m := seriesOfRe.FindStringSubmatchIndex(string(s.buf)); m != nil {
		sets, _ := strconv.Atoi(text[m[2]:m[3]])
		c.sets = sets
		if unitPrefixRe.MatchString(text[m[1]:]) {
			blank(s.buf, m[0], m[4])
		} else {
			reps, _ := strconv.ParseFloat(text[m[4]:m[5]], 64)
			c.vals[models.FieldReps] = models.Uniform(reps)
			blank(s.buf, m[0], m[1])
		}
	}

	if m := s.take(timesRe); m != nil {
		b, _ := strconv.Atoi(m[3])
		if m[2] != "" {
			c.vals[models.FieldWeight] = scaleWeight(m[2], parseNumbers(m[1], true))
			if _, ok := c.vals[models.FieldReps]; !ok {
				c.vals[models.FieldReps] = models.Uniform(float64(b))
			}
		} else if a := parseNumbers(m[1], true); len(a) > 0 && a[0] > maxSetsInTimes {
			c.vals[models.FieldWeight] = models.Uniform(a[0])
			if _, ok := c.vals[models.FieldReps]; !ok {
				c.vals[models.FieldReps] = models.Uniform(float64(b))
			}
		} else {
			if c.sets == 0 && len(a) > 0 {
				c.sets = int(a[0])
			}
			if _, ok := c.vals[models.FieldReps]; !ok {
				c.vals[models.FieldReps] = models.Uniform(float64(b))
			}
		}
	}

	if m := s.take(weightRe); m != nil {
		if _, ok := c.vals[models.FieldWeight]; !ok {
			c.vals[models.FieldWeight] = scaleWeight(m[2], parseNumbers(m[1], true))
		}
	}
	if m := s.take(rirAfterRe); m != nil {
		c.vals[models.FieldRIR] = toSetValue(parseNumbers(m[1], false))
	} else if m := s.take(rirBeforeRe); m != nil {
		c.vals[models.FieldRIR] = toSetValue(parseNumbers(m[1], false))
	}
	if m := s.take(repsRe); m != nil {
		if _, ok := c.vals[models.FieldReps]; !ok {
			c.vals[models.FieldReps] = toSetValue(parseNumbers(m[1], false))
		}
	}
	if m := s.take(setsRe); m != nil && c.sets == 0 {
		c.sets, _ = strconv.Atoi(m[1])
	}
	if m := s.take(distanceRe); m != nil {
		c.vals[models.FieldDistance] = scaleDistance(m[2], parseNumbers(m[1], false))
	}
	if m := s.take(durationRe); m != nil {
		c.vals[models.FieldDuration] = scaleDuration(m[2], parseNumbers(m[1], false))
	}
	if m := s.take(caloriesRe); m != nil {
		c.vals[models.FieldCalories] = toSetValue(parseNumbers(m[1], false))
	}

	if _, ok := c.vals[models.FieldRIR]; !ok {
		if rir, ok := rirFromPhrase(string(s.buf)); ok {
			c.vals[models.FieldRIR] = models.Uniform(rir)
		}
	}
	blankRIRPhrases(s.buf)

	for _, m := range bareRe.FindAllString(string(s.buf), -1) {
		if x, err := strconv.ParseFloat(m, 64); err == nil {
			c.bare = append(c.bare, x)
		}
	}
	return c
}

// parseNumbers splits "10, 8/6" into numbers. Weights accept a decimal
// comma and separate list items with "/" only.
func parseNumbers(s string, decimalComma bool) []float64 {
	sep := func(r rune) bool { return r == ',' || r == '/' }
	if decimalComma {
		sep = func(r rune) bool { return r == '/' }
	}
	var out []float64
	for _, part := range strings.FieldsFunc(s, sep) {
		part = strings.TrimSpace(part)
		if decimalComma {
			part = strings.ReplaceAll(part, ",", ".")
		}
		if x, err := strconv.ParseFloat(part, 64); err == nil {
			out = append(out, x)
		}
	}
	return out
}

func toSetValue(vs []float64) models.SetValue {
	switch len(vs) {
	case 0:
		return models.SetValue{}
	case 1:
		return models.Uniform(vs[0])
	}
	return models.PerSet(vs...)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func scaleAll(vs []float64, factor float64, places int) []float64 {
	out := make([]float64, len(vs))
	for i, x := range vs {
		out[i] = round(x*factor, places)
	}
	return out
}

func scaleWeight(unit string, vs []float64) models.SetValue {
	if strings.HasPrefix(unit, "lb") || strings.HasPrefix(unit, "libra") || strings.HasPrefix(unit, "pound") {
		return toSetValue(scaleAll(vs, 0.4536, 1))
	}
	return toSetValue(vs)
}

func scaleDistance(unit string, vs []float64) models.SetValue {
	switch {
	case strings.HasPrefix(unit, "metro"), unit == "mts":
		return toSetValue(scaleAll(vs, 0.001, 3))
	case strings.HasPrefix(unit, "milla"), unit == "miles":
		return toSetValue(scaleAll(vs, 1.609, 3))
	}
	return toSetValue(vs)
}

func scaleDuration(unit string, vs []float64) models.SetValue {
	switch {
	case strings.HasPrefix(unit, "min"), unit == "m":
		return toSetValue(scaleAll(vs, 60, 0))
	case strings.HasPrefix(unit, "hora"), strings.HasPrefix(unit, "hr"), unit == "h":
		return toSetValue(scaleAll(vs, 3600, 0))
	}
	return toSetValue(vs)
}
