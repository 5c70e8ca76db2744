package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExerciseType is the measurement scheme a workout entry is logged with.
type ExerciseType string

const (
	StrengthWeighted   ExerciseType = "strength_weighted"
	StrengthBodyweight ExerciseType = "strength_bodyweight"
	IsometricTime      ExerciseType = "isometric_time"
	CardioTime         ExerciseType = "cardio_time"
	CardioDistance     ExerciseType = "cardio_distance"
	CardioBoth         ExerciseType = "cardio_both"
)

// AllExerciseTypes lists every type in menu order.
var AllExerciseTypes = []ExerciseType{
	StrengthWeighted, StrengthBodyweight, IsometricTime, CardioTime, CardioDistance, CardioBoth,
}

// IsValid reports whether t is one of the known types.
func (t ExerciseType) IsValid() bool {
	for _, known := range AllExerciseTypes {
		if t == known {
			return true
		}
	}
	return false
}

var typeLabels = map[ExerciseType]string{
	StrengthWeighted:   "Con peso",
	StrengthBodyweight: "Con repeticiones (peso corporal)",
	IsometricTime:      "Por tiempo (isométrico)",
	CardioTime:         "Cardio por tiempo",
	CardioDistance:     "Cardio por distancia",
	CardioBoth:         "Cardio por tiempo y distancia",
}

// Label is the Spanish menu label of t.
func (t ExerciseType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsStrength reports whether t is counted in reps and sets.
func (t ExerciseType) IsStrength() bool {
	return t == StrengthWeighted || t == StrengthBodyweight
}

// IsTimed reports whether t is measured by duration.
func (t ExerciseType) IsTimed() bool {
	return t == IsometricTime || t == CardioTime || t == CardioBoth
}

// HasDistance reports whether t is measured by distance.
func (t ExerciseType) HasDistance() bool {
	return t == CardioDistance || t == CardioBoth
}

// Field names a measurement field of a draft.
type Field string

const (
	FieldWeight   Field = "weight"
	FieldReps     Field = "reps"
	FieldSets     Field = "sets"
	FieldRIR      Field = "rir"
	FieldDuration Field = "duration"
	FieldDistance Field = "distance"
	FieldCalories Field = "calories"
)

// SetValue is a numeric field that is either absent, one value applied to
// every set, or one value per set. The zero value is absent. Values are
// never mutated after construction, so copies may share storage.
type SetValue struct {
	vals   []float64
	perSet bool
}

// Uniform returns a value applied to every set.
func Uniform(v float64) SetValue {
	return SetValue{vals: []float64{v}}
}

// PerSet returns one value per set, in set order. An empty list is absent.
func PerSet(vs ...float64) SetValue {
	if len(vs) == 0 {
		return SetValue{}
	}
	return SetValue{vals: append([]float64(nil), vs...), perSet: true}
}

// Present reports whether any value was supplied.
func (v SetValue) Present() bool { return len(v.vals) > 0 }

// IsPerSet reports whether v holds one value per set.
func (v SetValue) IsPerSet() bool { return v.perSet && len(v.vals) > 0 }

// Len is the number of per-set entries; 0 for uniform or absent values.
func (v SetValue) Len() int {
	if !v.perSet {
		return 0
	}
	return len(v.vals)
}

// Values returns a copy of the stored values.
func (v SetValue) Values() []float64 {
	return append([]float64(nil), v.vals...)
}

// Scalar returns the uniform value.
func (v SetValue) Scalar() (float64, bool) {
	if v.perSet || len(v.vals) == 0 {
		return 0, false
	}
	return v.vals[0], true
}

// ValueForSet returns the value for zero-based set i. A uniform value
// applies to every set; a list shorter than i repeats its last element.
func (v SetValue) ValueForSet(i int) (float64, bool) {
	if len(v.vals) == 0 {
		return 0, false
	}
	if !v.perSet {
		return v.vals[0], true
	}
	if i < 0 {
		i = 0
	}
	if i >= len(v.vals) {
		i = len(v.vals) - 1
	}
	return v.vals[i], true
}

// Truncate keeps at most n per-set entries. Uniform values are unchanged.
func (v SetValue) Truncate(n int) SetValue {
	if !v.perSet || n <= 0 || len(v.vals) <= n {
		return v
	}
	return PerSet(v.vals[:n]...)
}

// Map applies f to every stored value.
func (v SetValue) Map(f func(float64) float64) SetValue {
	if len(v.vals) == 0 {
		return v
	}
	out := make([]float64, len(v.vals))
	for i, x := range v.vals {
		out[i] = f(x)
	}
	return SetValue{vals: out, perSet: v.perSet}
}

// Any reports whether pred holds for any stored value.
func (v SetValue) Any(pred func(float64) bool) bool {
	for _, x := range v.vals {
		if pred(x) {
			return true
		}
	}
	return false
}

// Equal reports whether v and o hold the same shape and values.
func (v SetValue) Equal(o SetValue) bool {
	if v.IsPerSet() != o.IsPerSet() || len(v.vals) != len(o.vals) {
		return false
	}
	for i := range v.vals {
		if v.vals[i] != o.vals[i] {
			return false
		}
	}
	return true
}

// String renders "80" for uniform values and "80/75/75" for lists.
func (v SetValue) String() string {
	if len(v.vals) == 0 {
		return ""
	}
	parts := make([]string, len(v.vals))
	for i, x := range v.vals {
		parts[i] = FormatNumber(x)
	}
	return strings.Join(parts, "/")
}

// MarshalJSON encodes null, a number, or an array of numbers.
func (v SetValue) MarshalJSON() ([]byte, error) {
	switch {
	case len(v.vals) == 0:
		return []byte("null"), nil
	case v.perSet:
		return json.Marshal(v.vals)
	default:
		return json.Marshal(v.vals[0])
	}
}

// UnmarshalJSON accepts null, a number, or an array of numbers.
func (v *SetValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = SetValue{}
		return nil
	}
	if data[0] == '[' {
		var vs []*float64
		if err := json.Unmarshal(data, &vs); err != nil {
			return fmt.Errorf("decoding per-set values: %w", err)
		}
		clean := make([]float64, 0, len(vs))
		for _, x := range vs {
			if x != nil {
				clean = append(clean, *x)
			}
		}
		*v = PerSet(clean...)
		return nil
	}
	var x float64
	if err := json.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	*v = Uniform(x)
	return nil
}

// FormatNumber prints whole numbers without a decimal part.
func FormatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
