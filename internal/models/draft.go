package models

// Draft is a workout entry being assembled across turns.
type Draft struct {
	ExerciseName string       `json:"exercise_name"`
	Exercise     *Exercise    `json:"exercise,omitempty"`
	Type         ExerciseType `json:"exercise_type,omitempty"`

	Weight   SetValue `json:"weight_kg"`
	Reps     SetValue `json:"reps"`
	Sets     int      `json:"sets,omitempty"`
	RIR      SetValue `json:"rir"`
	Duration SetValue `json:"duration_seconds"`
	Distance SetValue `json:"distance_km"`
	Calories SetValue `json:"calories"`

	Notes string `json:"notes,omitempty"`

	Ambiguous bool `json:"ambiguous,omitempty"`
	// WeightSeen records that the user supplied a weight at some point,
	// even if the draft was later converted to bodyweight.
	WeightSeen bool `json:"weight_seen,omitempty"`
}

// Clone returns a copy that can be modified independently.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// DisplayName is the catalog name when resolved, else the user's text.
func (d *Draft) DisplayName() string {
	if d.Exercise != nil && d.Exercise.Name != "" {
		return d.Exercise.Name
	}
	if d.ExerciseName != "" {
		return d.ExerciseName
	}
	return "Ejercicio"
}

// TotalSets is max(sets, longest per-set list, 1).
func (d *Draft) TotalSets() int {
	n := d.Sets
	for _, v := range []SetValue{d.Weight, d.Reps, d.RIR, d.Duration, d.Distance, d.Calories} {
		if v.Len() > n {
			n = v.Len()
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// HasData reports whether any measurement was supplied.
func (d *Draft) HasData() bool {
	return d.Weight.Present() || d.Reps.Present() || d.Sets > 0 || d.RIR.Present() ||
		d.Duration.Present() || d.Distance.Present() || d.Calories.Present()
}

// Value returns the SetValue stored for f. Sets is exposed as a uniform value.
func (d *Draft) Value(f Field) SetValue {
	switch f {
	case FieldWeight:
		return d.Weight
	case FieldReps:
		return d.Reps
	case FieldSets:
		if d.Sets > 0 {
			return Uniform(float64(d.Sets))
		}
		return SetValue{}
	case FieldRIR:
		return d.RIR
	case FieldDuration:
		return d.Duration
	case FieldDistance:
		return d.Distance
	case FieldCalories:
		return d.Calories
	}
	return SetValue{}
}

// SetField stores v under f. Sets takes the first value.
func (d *Draft) SetField(f Field, v SetValue) {
	switch f {
	case FieldWeight:
		d.Weight = v
		if v.Present() {
			d.WeightSeen = true
		}
	case FieldReps:
		d.Reps = v
	case FieldSets:
		if x, ok := v.ValueForSet(0); ok {
			d.Sets = int(x)
		} else {
			d.Sets = 0
		}
	case FieldRIR:
		d.RIR = v
	case FieldDuration:
		d.Duration = v
	case FieldDistance:
		d.Distance = v
	case FieldCalories:
		d.Calories = v
	}
}
