package workout

import (
	"time"

	"github.com/claude/repbot/internal/models"
	"github.com/google/uuid"
)

// Expand turns a completed draft into one record per set:
// N = max(sets, longest per-set list, 1). Each field resolves its value for
// set i with SetValue.ValueForSet. Notes go on the first record only.
func Expand(d *models.Draft, userID string, batchID uuid.UUID, now time.Time) []models.WorkoutRecordRow {
	t := EffectiveType(d)
	n := d.TotalSets()

	var customID *int64
	if d.Exercise != nil && d.Exercise.Custom && d.Exercise.ID != 0 {
		id := d.Exercise.ID
		customID = &id
	}

	rows := make([]models.WorkoutRecordRow, 0, n)
	for i := 0; i < n; i++ {
		row := models.WorkoutRecordRow{
			ID:               uuid.New(),
			BatchID:          batchID,
			UserID:           userID,
			ExerciseName:     d.DisplayName(),
			CustomExerciseID: customID,
			ExerciseType:     string(t),
			SetNumber:        i + 1,
			CreatedAt:        now,
		}
		switch {
		case t.IsStrength():
			if t == models.StrengthWeighted {
				row.WeightKg = valueAt(d.Weight, i)
			}
			row.Reps = valueAt(d.Reps, i)
			row.RIR = valueAt(d.RIR, i)
		default:
			if t.IsTimed() {
				row.DurationSeconds = valueAt(d.Duration, i)
			}
			if t.HasDistance() {
				row.DistanceKm = valueAt(d.Distance, i)
			}
			row.Calories = valueAt(d.Calories, i)
		}
		if i == 0 && d.Notes != "" {
			notes := d.Notes
			row.Notes = &notes
		}
		rows = append(rows, row)
	}
	return rows
}

func valueAt(v models.SetValue, i int) *float64 {
	x, ok := v.ValueForSet(i)
	if !ok {
		return nil
	}
	return &x
}
