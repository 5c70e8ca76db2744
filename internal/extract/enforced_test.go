package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBackend returns canned results.
type stubBackend struct {
	draft  *models.Draft
	follow *FollowUp
	intent Classification
	err    error
}

func (s *stubBackend) Extract(context.Context, string, *Hint) (*models.Draft, error) {
	return s.draft.Clone(), s.err
}

func (s *stubBackend) ExtractFollowUp(context.Context, string, *models.Draft) (*FollowUp, error) {
	return s.follow, s.err
}

func (s *stubBackend) ClassifyIntent(context.Context, string, string) (Classification, error) {
	return s.intent, s.err
}

// TestEnforcedRulesOverrideBackend checks the rule layer has the last word.
func TestEnforcedRulesOverrideBackend(t *testing.T) {
	backend := &stubBackend{draft: &models.Draft{
		ExerciseName: "Bench Press 80",
		Weight:       models.Uniform(85),
		RIR:          models.Uniform(2),
		Notes:        "fácil",
	}}
	e := NewEnforced(backend, false, discardLogger())
	d, err := e.Extract(context.Background(), "Press de banca 80kg 10 reps 3 series", nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.ExerciseName != "Press de banca" {
		t.Errorf("name = %q", d.ExerciseName)
	}
	wantValue(t, "weight", d.Weight, models.Uniform(80))
	wantValue(t, "reps", d.Reps, models.Uniform(10))
	if d.Sets != 3 {
		t.Errorf("sets = %d", d.Sets)
	}
	if d.RIR.Present() {
		t.Errorf("backend RIR without evidence kept: %s", d.RIR)
	}
	if d.Notes != "fácil" {
		t.Errorf("backend notes lost: %q", d.Notes)
	}
}

// TestEnforcedBackendFillsGaps keeps backend fields the rules cannot read.
func TestEnforcedBackendFillsGaps(t *testing.T) {
	backend := &stubBackend{draft: &models.Draft{ExerciseName: "Caminadora", Calories: models.Uniform(200)}}
	e := NewEnforced(backend, false, discardLogger())
	d, err := e.Extract(context.Background(), "Caminadora 30 min quemé doscientas", nil)
	if err != nil {
		t.Fatal(err)
	}
	wantValue(t, "duration", d.Duration, models.Uniform(1800))
	wantValue(t, "calories", d.Calories, models.Uniform(200))
}

// TestEnforcedBackendFailure maps errors to CollaboratorFailure unless
// falling back to the rules.
func TestEnforcedBackendFailure(t *testing.T) {
	backend := &stubBackend{err: errors.New("timeout")}

	_, err := NewEnforced(backend, false, discardLogger()).Extract(context.Background(), "Sentadilla 100kg", nil)
	if !apperrors.Is(err, apperrors.CollaboratorFailure) {
		t.Errorf("err = %v, want collaborator failure", err)
	}

	d, err := NewEnforced(backend, true, discardLogger()).Extract(context.Background(), "Sentadilla 100kg", nil)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	wantValue(t, "weight", d.Weight, models.Uniform(100))

	_, err = NewEnforced(backend, false, discardLogger()).ExtractFollowUp(context.Background(), "10", &models.Draft{})
	if !apperrors.Is(err, apperrors.CollaboratorFailure) {
		t.Errorf("follow-up err = %v", err)
	}
}

// TestEnforcedFollowUpClarificationSkipsBackend answers RIR questions locally.
func TestEnforcedFollowUpClarificationSkipsBackend(t *testing.T) {
	backend := &stubBackend{err: errors.New("should not be called")}
	f, err := NewEnforced(backend, false, discardLogger()).ExtractFollowUp(context.Background(), "qué es el rir", &models.Draft{})
	if err != nil {
		t.Fatal(err)
	}
	if f.Clarification != ClarifyRIR {
		t.Errorf("clarification = %q", f.Clarification)
	}
}

// TestEnforcedIntent prefers confident rules and survives backend errors.
func TestEnforcedIntent(t *testing.T) {
	backend := &stubBackend{intent: Classification{Intent: IntentHelp, Confidence: 0.95}}
	e := NewEnforced(backend, false, discardLogger())

	got, _ := e.ClassifyIntent(context.Background(), "cancelar", "IDLE")
	if got.Intent != IntentCancel {
		t.Errorf("rule intent overridden: %+v", got)
	}
	got, _ = e.ClassifyIntent(context.Background(), "cómo va esto", "IDLE")
	if got.Intent != IntentHelp {
		t.Errorf("backend intent ignored: %+v", got)
	}

	backend.err = errors.New("down")
	got, err := e.ClassifyIntent(context.Background(), "cómo va esto", "IDLE")
	if err != nil || got.Intent != IntentUnknown {
		t.Errorf("got %+v, %v", got, err)
	}
}

// TestNewBackends verifies backend names map to extractor types.
func TestNewBackends(t *testing.T) {
	tests := []struct {
		backend string
		check   func(Extractor) bool
		wantErr bool
	}{
		{"", func(e Extractor) bool { _, ok := e.(*Rules); return ok }, false},
		{"rules", func(e Extractor) bool { _, ok := e.(*Rules); return ok }, false},
		{"openai", func(e Extractor) bool { _, ok := e.(*Enforced); return ok }, false},
		{"claude", nil, true},
	}
	for _, tt := range tests {
		got, err := New(tt.backend, OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}, true, discardLogger())
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) err = %v, wantErr %v", tt.backend, err, tt.wantErr)
			continue
		}
		if err == nil && !tt.check(got) {
			t.Errorf("New(%q) = %T", tt.backend, got)
		}
	}
}
