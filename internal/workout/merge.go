package workout

import "github.com/claude/repbot/internal/models"

var mergeFields = []models.Field{
	models.FieldWeight, models.FieldReps, models.FieldSets, models.FieldRIR,
	models.FieldDuration, models.FieldDistance, models.FieldCalories,
}

// Merge overlays the fields present in extracted onto a copy of pending.
// Fields the follow-up did not mention keep their prior values.
func Merge(pending, extracted *models.Draft) *models.Draft {
	out := pending.Clone()
	if out == nil {
		out = &models.Draft{}
	}
	if extracted == nil {
		return out
	}
	for _, f := range mergeFields {
		if v := extracted.Value(f); v.Present() {
			out.SetField(f, v)
		}
	}
	if extracted.Notes != "" {
		out.Notes = extracted.Notes
	}
	if extracted.WeightSeen {
		out.WeightSeen = true
	}
	if out.ExerciseName == "" {
		out.ExerciseName = extracted.ExerciseName
	}
	return out
}
