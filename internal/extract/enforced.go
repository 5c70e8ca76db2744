package extract

import (
	"context"
	"log/slog"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/models"
)

var measureFields = []models.Field{
	models.FieldWeight, models.FieldReps, models.FieldSets, models.FieldRIR,
	models.FieldDuration, models.FieldDistance, models.FieldCalories,
}

// Enforced runs a backend extractor and then applies the rule layer on top:
// fields the rules read from the message override the backend, the backend
// only fills what the rules left empty, and a backend RIR is dropped when the
// message carries no RIR evidence. Backend failures become CollaboratorFailure
// errors, or fall back to the rules when fallback is set.
type Enforced struct {
	backend  Extractor
	rules    *Rules
	fallback bool
	log      *slog.Logger
}

// NewEnforced wraps backend with the rule layer.
func NewEnforced(backend Extractor, fallback bool, log *slog.Logger) *Enforced {
	return &Enforced{backend: backend, rules: NewRules(), fallback: fallback, log: log}
}

// Extract implements Extractor.
func (e *Enforced) Extract(ctx context.Context, msg string, hint *Hint) (*models.Draft, error) {
	ruled, _ := e.rules.Extract(ctx, msg, hint)
	got, err := e.backend.Extract(ctx, msg, hint)
	if err != nil {
		if e.fallback {
			e.log.Warn("extractor backend failed, using rules", "error", err)
			return ruled, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CollaboratorFailure, "extraction failed")
	}

	out := enforce(got, ruled, msg)
	if ruled.ExerciseName != "" {
		out.ExerciseName = ruled.ExerciseName
	}
	if ruled.Type != "" && (ruled.Weight.Present() || !out.Type.IsValid()) {
		out.Type = ruled.Type
	}
	return out, nil
}

// ExtractFollowUp implements Extractor.
func (e *Enforced) ExtractFollowUp(ctx context.Context, msg string, pending *models.Draft) (*FollowUp, error) {
	if pending == nil {
		pending = &models.Draft{}
	}
	ruled, _ := e.rules.ExtractFollowUp(ctx, msg, pending)
	if ruled.Clarification != "" {
		return ruled, nil
	}
	got, err := e.backend.ExtractFollowUp(ctx, msg, pending)
	if err != nil {
		if e.fallback {
			e.log.Warn("extractor backend failed, using rules", "error", err)
			return ruled, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CollaboratorFailure, "follow-up extraction failed")
	}
	extracted := enforce(got.Extracted, ruled.Extracted, msg)
	return completeFollowUp(pending, extracted, got.Clarification), nil
}

// ClassifyIntent prefers a confident rule match and asks the backend only
// when the rules are unsure. A backend error keeps the rule result.
func (e *Enforced) ClassifyIntent(ctx context.Context, msg string, state string) (Classification, error) {
	ruled, _ := e.rules.ClassifyIntent(ctx, msg, state)
	if ruled.Confidence >= 0.8 {
		return ruled, nil
	}
	got, err := e.backend.ClassifyIntent(ctx, msg, state)
	if err != nil {
		e.log.Warn("intent backend failed", "error", err)
		return ruled, nil
	}
	if got.Confidence < ruled.Confidence {
		return ruled, nil
	}
	return got, nil
}

// enforce overlays the rule fields on the backend draft.
func enforce(backend, ruled *models.Draft, msg string) *models.Draft {
	out := backend.Clone()
	if out == nil {
		out = &models.Draft{}
	}
	if ruled == nil {
		ruled = &models.Draft{}
	}
	for _, f := range measureFields {
		if v := ruled.Value(f); v.Present() {
			out.SetField(f, v)
		}
	}
	if out.RIR.Present() && !ruled.RIR.Present() && !HasRIREvidence(msg) {
		out.RIR = models.SetValue{}
	}
	out.ExerciseName = CleanName(out.ExerciseName)
	if ruled.Notes != "" {
		out.Notes = ruled.Notes
	}
	return out
}
