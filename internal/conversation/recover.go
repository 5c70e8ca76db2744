package conversation

import (
	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/workout"
)

// recoverSession rebuilds a session whose stored context does not fit its
// state. A surviving draft resumes in the most specific waiting state its
// fields allow; otherwise the session is reset to IDLE with an apology.
// c may be nil when the context could not be decoded.
func recoverSession(c Context) outcome {
	d := pendingDraft(c)
	if d == nil || (d.ExerciseName == "" && d.Exercise == nil) {
		return outcome{state: Idle, ctx: Empty{}, reply: corruptResetText, kind: apperrors.CorruptState}
	}
	d = d.Clone()
	if d.Ambiguous && !d.Type.IsValid() {
		d.Type = fallbackType(d)
	}
	d.Ambiguous = false
	s := waitingState(d, workout.Validate(d))
	return outcome{state: s, ctx: Collecting{Draft: d}, reply: corruptResumeText(d, s), kind: apperrors.CorruptState}
}

// fallbackType is the exercise default, or strength_weighted.
func fallbackType(d *models.Draft) models.ExerciseType {
	if d.Exercise != nil && d.Exercise.DefaultType.IsValid() {
		return d.Exercise.DefaultType
	}
	return models.StrengthWeighted
}
