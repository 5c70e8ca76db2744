package workout

import (
	"github.com/claude/repbot/internal/models"
)

// Range limits per field.
const (
	MaxWeightKg    = 500
	MinReps        = 1
	MaxReps        = 100
	MinSets        = 1
	MaxSets        = 20
	MinRIR         = 0
	MaxRIR         = 5
	MaxDurationSec = 86400
	MaxDistanceKm  = 1000
)

// Violation reasons.
const (
	ReasonOutOfRange    = "out_of_range"
	ReasonTooManyValues = "too_many_values"
	ReasonMustBeAbsent  = "must_be_absent"
)

// Violation is a present field that breaks a constraint.
type Violation struct {
	Field  models.Field
	Reason string
}

// Result is the outcome of Validate.
type Result struct {
	Missing    []models.Field
	Violations []Violation
}

// Valid reports whether nothing is missing and nothing is out of range.
func (r Result) Valid() bool {
	return len(r.Missing) == 0 && len(r.Violations) == 0
}

// MissingOnly reports whether the only problem is that exactly f is missing.
func (r Result) MissingOnly(f models.Field) bool {
	return len(r.Violations) == 0 && len(r.Missing) == 1 && r.Missing[0] == f
}

// IsMissing reports whether f is among the missing fields.
func (r Result) IsMissing(f models.Field) bool {
	for _, m := range r.Missing {
		if m == f {
			return true
		}
	}
	return false
}

// ViolatedFields lists the fields with violations, without duplicates.
func (r Result) ViolatedFields() []models.Field {
	seen := map[models.Field]bool{}
	var out []models.Field
	for _, v := range r.Violations {
		if !seen[v.Field] {
			seen[v.Field] = true
			out = append(out, v.Field)
		}
	}
	return out
}

// EffectiveType is d.Type, defaulting to strength_weighted.
func EffectiveType(d *models.Draft) models.ExerciseType {
	if d.Type.IsValid() {
		return d.Type
	}
	return models.StrengthWeighted
}

// Required lists the fields a type must have, in prompt order.
func Required(t models.ExerciseType) []models.Field {
	switch t {
	case models.StrengthWeighted:
		return []models.Field{models.FieldWeight, models.FieldReps, models.FieldSets, models.FieldRIR}
	case models.StrengthBodyweight:
		return []models.Field{models.FieldReps, models.FieldSets, models.FieldRIR}
	case models.IsometricTime, models.CardioTime:
		return []models.Field{models.FieldDuration}
	case models.CardioDistance:
		return []models.Field{models.FieldDistance}
	case models.CardioBoth:
		return []models.Field{models.FieldDuration, models.FieldDistance}
	}
	return nil
}

// Validate checks d against the required fields and ranges of its type.
// Per-set lists longer than the set count are violations here; only
// AttemptRecovery may truncate them.
func Validate(d *models.Draft) Result {
	var r Result
	t := EffectiveType(d)

	for _, f := range Required(t) {
		if !d.Value(f).Present() {
			r.Missing = append(r.Missing, f)
		}
	}

	check := func(f models.Field, bad func(float64) bool) {
		if d.Value(f).Any(bad) {
			r.Violations = append(r.Violations, Violation{Field: f, Reason: ReasonOutOfRange})
		}
	}

	if t.IsStrength() {
		if t == models.StrengthWeighted {
			check(models.FieldWeight, func(x float64) bool { return x <= 0 || x > MaxWeightKg })
		} else if d.Weight.Present() {
			r.Violations = append(r.Violations, Violation{Field: models.FieldWeight, Reason: ReasonMustBeAbsent})
		}
		check(models.FieldReps, func(x float64) bool { return x < MinReps || x > MaxReps })
		if d.Sets != 0 && (d.Sets < MinSets || d.Sets > MaxSets) {
			r.Violations = append(r.Violations, Violation{Field: models.FieldSets, Reason: ReasonOutOfRange})
		}
		check(models.FieldRIR, func(x float64) bool { return x < MinRIR || x > MaxRIR })

		if d.Sets > 0 {
			for _, f := range []models.Field{models.FieldWeight, models.FieldReps, models.FieldRIR} {
				if d.Value(f).Len() > d.Sets {
					r.Violations = append(r.Violations, Violation{Field: f, Reason: ReasonTooManyValues})
				}
			}
		}
	}
	if t.IsTimed() {
		check(models.FieldDuration, func(x float64) bool { return x <= 0 || x > MaxDurationSec })
	}
	if t.HasDistance() {
		check(models.FieldDistance, func(x float64) bool { return x <= 0 || x > MaxDistanceKm })
	}
	return r
}

// Repair describes one automatic fix.
type Repair struct {
	Field  models.Field
	Reason string
}

// AttemptRecovery applies the only two automatic repairs: RIR values are
// clamped into [0,5] and per-set lists longer than the set count are
// truncated. It returns a repaired copy and the repairs made.
func AttemptRecovery(d *models.Draft) (*models.Draft, []Repair) {
	out := d.Clone()
	var repairs []Repair

	if out.RIR.Any(func(x float64) bool { return x < MinRIR || x > MaxRIR }) {
		out.RIR = out.RIR.Map(func(x float64) float64 {
			switch {
			case x < MinRIR:
				return MinRIR
			case x > MaxRIR:
				return MaxRIR
			}
			return x
		})
		repairs = append(repairs, Repair{Field: models.FieldRIR, Reason: ReasonOutOfRange})
	}

	if out.Sets > 0 {
		for _, f := range []models.Field{models.FieldWeight, models.FieldReps, models.FieldRIR,
			models.FieldDuration, models.FieldDistance, models.FieldCalories} {
			v := out.Value(f)
			if v.Len() > out.Sets {
				out.SetField(f, v.Truncate(out.Sets))
				repairs = append(repairs, Repair{Field: f, Reason: ReasonTooManyValues})
			}
		}
	}
	return out, repairs
}
