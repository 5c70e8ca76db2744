package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/workout"
	"golang.org/x/text/unicode/norm"
)

var (
	clarifyRe = regexp.MustCompile(`\bque\s+es\s+(?:el\s+|eso\s+de\s+)?rir\b|\bque\s+significa\b|\bno\s+entiendo\b|\bwhat\s+is\s+rir\b|\bwhat'?s\s+rir\b|\bexplica`)
	digitRe   = regexp.MustCompile(`\d`)
	// 10, 8, 6 or 80/75/70
	bareListRe = regexp.MustCompile(`^\s*` + numList + `\s*$`)
	// "10 y 3", "10 3"
	bareSeqRe   = regexp.MustCompile(`^\s*` + num + `(?:\s*(?:y|,|\s)\s*` + num + `)*\s*$`)
	listSepRe   = regexp.MustCompile(`[,/]`)
	weightLeak  = regexp.MustCompile(`(?i)\s+\d+(?:[.,]\d+)?\s*(kg|kilo|kilos|lbs|lb|pounds?)\b`)
	trailingNum = regexp.MustCompile(`\s+\d+$`)
)

var connectors = map[string]bool{
	"con": true, "de": true, "a": true, "y": true, "en": true, "por": true,
	"para": true, "x": true, "hice": true, "hoy": true, "al": true, "el": true, "la": true,
}

// fold lower-cases and strips accents. The result has the same rune count
// as the NFC form of s.
func fold(s string) string {
	return strings.ToLower(catalog.StripAccents(norm.NFC.String(s)))
}

// Rules is the deterministic extractor. It has no state.
type Rules struct{}

// NewRules returns the rule extractor.
func NewRules() *Rules {
	return &Rules{}
}

// Extract reads a first message: exercise name, type guess and quantities.
func (r *Rules) Extract(_ context.Context, msg string, _ *Hint) (*models.Draft, error) {
	msg = strings.TrimSpace(msg)
	folded := fold(msg)
	d, _ := parse(folded, nil, models.FieldReps)
	d.ExerciseName = exerciseName(msg, folded)
	d.Type = guessType(d)
	return d, nil
}

// ExtractFollowUp reads a reply against pending. Bare numbers fill the next
// expected fields: reps, sets, RIR, then weight for strength exercises;
// seconds, minutes or kilometres for the timed and distance types.
func (r *Rules) ExtractFollowUp(_ context.Context, msg string, pending *models.Draft) (*FollowUp, error) {
	if pending == nil {
		pending = &models.Draft{}
	}
	folded := fold(strings.TrimSpace(msg))
	if clarifyRe.MatchString(folded) {
		return completeFollowUp(pending, &models.Draft{}, ClarifyRIR), nil
	}

	expected := ExpectedFields(pending)
	bareField := models.FieldReps
	if len(expected) > 0 {
		bareField = expected[0]
	}
	d, bare := parse(folded, pending, bareField)
	if len(bare) > 0 {
		fillBare(d, pending, folded, bare, expected)
	}
	return completeFollowUp(pending, d, ""), nil
}

// ClassifyIntent applies the rule tables in intent.go.
func (r *Rules) ClassifyIntent(_ context.Context, msg string, state string) (Classification, error) {
	return classify(fold(strings.TrimSpace(msg)), state), nil
}

// ExpectedFields lists the fields pending still lacks, in the order bare
// numbers fill them.
func ExpectedFields(pending *models.Draft) []models.Field {
	t := workout.EffectiveType(pending)
	var order []models.Field
	switch {
	case t.IsStrength():
		order = []models.Field{models.FieldReps, models.FieldSets, models.FieldRIR}
		if t == models.StrengthWeighted {
			order = append(order, models.FieldWeight)
		}
	default:
		order = workout.Required(t)
	}
	var out []models.Field
	for _, f := range order {
		if !pending.Value(f).Present() {
			out = append(out, f)
		}
	}
	return out
}

// parse reads quantities from folded text. Values addressed to individual
// sets become per-set lists; base supplies the set count and the values for
// sets the message does not name. It returns unassigned bare numbers.
func parse(folded string, base *models.Draft, bareField models.Field) (*models.Draft, []float64) {
	segs := segments(folded, findMarkers(folded))

	agg := []byte(folded)
	for _, sg := range segs {
		blank(agg, sg.start, sg.segEnd)
	}
	ac := parseChunk(string(agg))

	d := &models.Draft{}
	for f, v := range ac.vals {
		d.SetField(f, v)
	}
	d.Sets = ac.sets
	if len(segs) == 0 {
		return d, ac.bare
	}

	known := d.Sets
	if known == 0 && base != nil {
		known = base.Sets
	}
	p := collectPerSet(folded, segs, known, bareField)
	n := known
	if p.maxSet > n {
		n = p.maxSet
	}
	for f := range p.bySet {
		fallback := ac.vals[f]
		if !fallback.Present() && base != nil {
			fallback = base.Value(f)
		}
		if vals := p.list(f, n, fallback); vals != nil {
			d.SetField(f, models.PerSet(vals...))
		}
	}
	for f, x := range p.rest {
		if _, ok := p.bySet[f]; !ok && !d.Value(f).Present() {
			d.SetField(f, models.Uniform(x))
		}
	}
	if d.Sets == 0 && (base == nil || base.Sets == 0) && p.maxSet > 0 {
		d.Sets = n
	}
	return d, ac.bare
}

// fillBare assigns bare numbers in a reply. A comma or slash list fills one
// field per set; otherwise numbers fill the expected fields in order.
func fillBare(d, pending *models.Draft, folded string, bare []float64, expected []models.Field) {
	var open []models.Field
	for _, f := range expected {
		if !d.Value(f).Present() {
			open = append(open, f)
		}
	}
	if len(open) == 0 {
		return
	}
	t := workout.EffectiveType(pending)

	if len(bare) > 1 && bareListRe.MatchString(folded) && listSepRe.MatchString(folded) {
		f := open[0]
		if f == models.FieldSets {
			f = models.FieldReps
			if d.Value(f).Present() || pending.Value(f).Present() {
				return
			}
		}
		vals := make([]float64, len(bare))
		for i, x := range bare {
			vals[i] = scaleBare(t, f, x)
		}
		d.SetField(f, models.PerSet(vals...))
		if d.Sets == 0 && pending.Sets == 0 {
			d.Sets = len(vals)
		}
		return
	}
	if !bareSeqRe.MatchString(folded) && len(bare) > 1 {
		bare = bare[:1]
	}
	for i, x := range bare {
		if i >= len(open) {
			break
		}
		d.SetField(open[i], models.Uniform(scaleBare(t, open[i], x)))
	}
}

// scaleBare converts a unitless reply: minutes for cardio durations.
func scaleBare(t models.ExerciseType, f models.Field, x float64) float64 {
	if f == models.FieldDuration && (t == models.CardioTime || t == models.CardioBoth) {
		return x * 60
	}
	return x
}

// exerciseName is the verbatim text before the first quantity, with
// trailing connector words dropped.
func exerciseName(msg, folded string) string {
	cut := len(folded)
	if loc := digitRe.FindStringIndex(folded); loc != nil {
		cut = loc[0]
	}
	if ms := findMarkers(folded); len(ms) > 0 && ms[0].start < cut {
		cut = ms[0].start
	}
	if i := rirPhraseIndex(folded); i >= 0 && i < cut {
		cut = i
	}

	nfc := norm.NFC.String(msg)
	name := folded[:cut]
	if utf8.RuneCountInString(nfc) == utf8.RuneCountInString(folded) {
		name = string([]rune(nfc)[:utf8.RuneCountInString(folded[:cut])])
	}
	return CleanName(name)
}

// CleanName strips weights and trailing numbers that leaked into a name,
// then trailing connector words and punctuation.
func CleanName(name string) string {
	name = weightLeak.ReplaceAllString(name, "")
	name = trailingNum.ReplaceAllString(strings.TrimSpace(name), "")
	for {
		name = strings.TrimRight(name, " \t,.;:-")
		i := strings.LastIndexAny(name, " \t")
		last := name[i+1:]
		if !connectors[strings.ToLower(last)] {
			break
		}
		name = name[:max(i, 0)]
		if i < 0 {
			break
		}
	}
	return strings.TrimSpace(name)
}

// guessType infers a type from which quantities are present. Reps without
// a weight stay undecided; the type resolver settles them.
func guessType(d *models.Draft) models.ExerciseType {
	switch {
	case d.Weight.Present():
		return models.StrengthWeighted
	case d.Duration.Present() && d.Distance.Present():
		return models.CardioBoth
	case d.Distance.Present():
		return models.CardioDistance
	case d.Duration.Present() && d.Calories.Present():
		return models.CardioTime
	case d.Duration.Present():
		return models.IsometricTime
	}
	return ""
}
