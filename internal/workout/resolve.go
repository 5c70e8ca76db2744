// Package workout holds the pure rules applied to a workout draft: which
// measurement type it uses, whether it is complete and in range, how it is
// repaired, merged with follow-up answers, and expanded into per-set records.
package workout

import (
	"regexp"
	"strings"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/models"
)

// Lexical unit signals, matched against the lower-cased, accent-free message.
var (
	// 60 segundos, 2 min, 1 hora, 30m, 45s
	timeSignal = regexp.MustCompile(`\d+\s*(segundo|segundos|seg|segs|minuto|minutos|min|mins|hora|horas|hr|hrs|s|m|h)\b`)
	// 10 reps, 12 repeticiones
	repSignal = regexp.MustCompile(`\d+\s*(rep|reps|repeticion|repeticiones)\b`)
	// 5 km, 800 metros, 3 millas
	distanceSignal = regexp.MustCompile(`\d+\s*(km|kilometro|kilometros|metro|metros|m|millas)\b`)
)

// Signals records which unit classes a message mentions.
type Signals struct {
	Time     bool
	Reps     bool
	Distance bool
}

// DetectSignals scans msg for time, repetition and distance units.
func DetectSignals(msg string) Signals {
	m := strings.ToLower(catalog.StripAccents(msg))
	return Signals{
		Time:     timeSignal.MatchString(m),
		Reps:     repSignal.MatchString(m),
		Distance: distanceSignal.MatchString(m),
	}
}

// withDraft adds signals implied by fields the extractor already filled.
func (s Signals) withDraft(d *models.Draft) Signals {
	if d == nil {
		return s
	}
	if d.Duration.Present() {
		s.Time = true
	}
	if d.Reps.Present() || d.Sets > 0 {
		s.Reps = true
	}
	if d.Distance.Present() {
		s.Distance = true
	}
	return s
}

// Resolution is the outcome of type resolution.
type Resolution struct {
	Type      models.ExerciseType
	Ambiguous bool
}

// ResolveType decides the measurement type for d. A supplied weight forces
// strength_weighted; an exercise with one allowed type uses it; otherwise the
// unit signals in raw pick among the allowed types, and when they cannot
// the result is ambiguous with the exercise default as a placeholder.
func ResolveType(ex *models.Exercise, d *models.Draft, raw string) Resolution {
	if d != nil && (d.WeightSeen || d.Weight.Present()) {
		return Resolution{Type: models.StrengthWeighted}
	}
	if ex == nil {
		if d != nil && d.Type.IsValid() {
			return Resolution{Type: d.Type}
		}
		return Resolution{Type: models.StrengthWeighted}
	}
	if len(ex.AllowedTypes) == 1 {
		return Resolution{Type: ex.AllowedTypes[0]}
	}

	sig := DetectSignals(raw).withDraft(d)
	if len(ex.AllowedTypes) == 0 {
		return Resolution{Type: resolveOpen(ex, sig)}
	}

	switch {
	case sig.Time && sig.Reps:
		return Resolution{Type: ex.DefaultType}
	case sig.Time && sig.Distance && ex.Allows(models.CardioBoth):
		return Resolution{Type: models.CardioBoth}
	case sig.Time:
		if t, ok := firstAllowed(ex, func(t models.ExerciseType) bool {
			return t == models.IsometricTime || t == models.CardioTime
		}); ok {
			return Resolution{Type: t}
		}
	case sig.Reps:
		if t, ok := firstAllowed(ex, models.ExerciseType.IsStrength); ok {
			return Resolution{Type: t}
		}
	case sig.Distance:
		if t, ok := firstAllowed(ex, models.ExerciseType.HasDistance); ok {
			return Resolution{Type: t}
		}
	}
	return Resolution{Type: ex.DefaultType, Ambiguous: true}
}

// resolveOpen handles custom exercises that accept any type. They are never
// ambiguous: without signals the stored type is used.
func resolveOpen(ex *models.Exercise, sig Signals) models.ExerciseType {
	def := ex.DefaultType
	if !def.IsValid() {
		def = models.StrengthWeighted
	}
	switch {
	case sig.Time && sig.Reps:
		return def
	case sig.Time && sig.Distance:
		return models.CardioBoth
	case sig.Time:
		if def.IsTimed() {
			return def
		}
		if ex.MuscleGroup == "cardio" {
			return models.CardioTime
		}
		return models.IsometricTime
	case sig.Distance:
		return models.CardioDistance
	case sig.Reps:
		if def.IsStrength() {
			return def
		}
		return models.StrengthBodyweight
	}
	return def
}

func firstAllowed(ex *models.Exercise, pred func(models.ExerciseType) bool) (models.ExerciseType, bool) {
	for _, t := range ex.AllowedTypes {
		if pred(t) {
			return t, true
		}
	}
	return "", false
}
