package models

// Exercise is a catalog entry, either built-in or a user's custom exercise.
type Exercise struct {
	ID           int64          `json:"id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Name         string         `json:"name"`
	MuscleGroup  string         `json:"muscle_group"`
	Equipment    string         `json:"equipment,omitempty"`
	Aliases      []string       `json:"aliases,omitempty"`
	ExerciseType ExerciseType   `json:"exercise_type"`
	DefaultType  ExerciseType   `json:"default_type"`
	AllowedTypes []ExerciseType `json:"allowed_types,omitempty"`
	Custom       bool           `json:"custom,omitempty"`
}

// Ambiguous reports whether the exercise may be logged in more than one way.
func (e *Exercise) Ambiguous() bool {
	return len(e.AllowedTypes) > 1
}

// Allows reports whether t is an allowed type. Custom exercises without
// an explicit list accept every type.
func (e *Exercise) Allows(t ExerciseType) bool {
	if len(e.AllowedTypes) == 0 {
		return e.Custom
	}
	for _, a := range e.AllowedTypes {
		if a == t {
			return true
		}
	}
	return false
}

// MuscleGroups are the groups a custom exercise can be filed under.
var MuscleGroups = []string{"pecho", "espalda", "piernas", "hombros", "biceps", "triceps", "core", "cardio", "otros"}
