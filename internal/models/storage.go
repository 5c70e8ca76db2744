package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRow is the persisted conversation state for one identity.
// Context is the encoded state payload; Version guards concurrent writes.
type SessionRow struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Context   []byte    `json:"context"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomExerciseRow maps to the custom_exercises table.
type CustomExerciseRow struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	MuscleGroup  string    `json:"muscle_group"`
	ExerciseType string    `json:"exercise_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Exercise converts the row into a catalog entry.
func (r CustomExerciseRow) Exercise() Exercise {
	t := ExerciseType(r.ExerciseType)
	if !t.IsValid() {
		t = StrengthWeighted
	}
	return Exercise{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		MuscleGroup:  r.MuscleGroup,
		ExerciseType: t,
		DefaultType:  t,
		Custom:       true,
	}
}

// WorkoutRecordRow is one persisted set. Fields that do not apply to the
// exercise type are nil.
type WorkoutRecordRow struct {
	ID               uuid.UUID `json:"id"`
	BatchID          uuid.UUID `json:"batch_id"`
	UserID           string    `json:"user_id"`
	ExerciseName     string    `json:"exercise_name"`
	CustomExerciseID *int64    `json:"custom_exercise_id,omitempty"`
	ExerciseType     string    `json:"exercise_type"`
	SetNumber        int       `json:"set_number"`
	WeightKg         *float64  `json:"weight_kg,omitempty"`
	Reps             *float64  `json:"reps,omitempty"`
	RIR              *float64  `json:"rir,omitempty"`
	DurationSeconds  *float64  `json:"duration_seconds,omitempty"`
	DistanceKm       *float64  `json:"distance_km,omitempty"`
	Calories         *float64  `json:"calories,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
