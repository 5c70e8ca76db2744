package conversation

import (
	"testing"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/models"
)

// TestContextRoundTrip verifies every context variant survives encoding.
func TestContextRoundTrip(t *testing.T) {
	d := &models.Draft{ExerciseName: "Press de banca", Type: models.StrengthWeighted,
		Weight: models.PerSet(80, 75, 70), Reps: models.Uniform(10), Sets: 3}
	ex := &models.Exercise{Name: "Fondos en Banco", AllowedTypes: []models.ExerciseType{
		models.StrengthBodyweight, models.IsometricTime}}

	tests := []Context{
		Empty{},
		Collecting{Draft: d, Editing: models.FieldReps, ReturnTo: WaitingForComment},
		ResolvingType{Draft: d, Exercise: ex},
		CreatingExercise{Name: "Hip thrust", Draft: d},
		ConfirmingCancel{Resume: WaitingForRIR, Prior: Collecting{Draft: d}},
	}
	for _, c := range tests {
		b, err := Encode(c)
		if err != nil {
			t.Fatalf("Encode(%T): %v", c, err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(%T): %v", c, err)
		}
		if got.Kind() != c.Kind() {
			t.Errorf("kind = %s, want %s", got.Kind(), c.Kind())
		}
		if pd, want := pendingDraft(got), pendingDraft(c); want != nil {
			if pd == nil || !pd.Weight.Equal(want.Weight) || pd.Sets != want.Sets {
				t.Errorf("%T draft = %+v, want %+v", c, pd, want)
			}
		}
	}
}

// TestDecodeEmpty verifies an unset column decodes as the empty context.
func TestDecodeEmpty(t *testing.T) {
	c, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if _, ok := c.(Empty); !ok {
		t.Errorf("Decode(nil) = %T, want Empty", c)
	}
	if _, err := Decode([]byte(`{"kind":"mystery"}`)); err == nil {
		t.Error("Decode(unknown kind) = nil error, want error")
	}
}

// TestCheck verifies state and context consistency rules.
func TestCheck(t *testing.T) {
	d := &models.Draft{ExerciseName: "Dominadas"}
	amb := &models.Exercise{Name: "Plancha", AllowedTypes: []models.ExerciseType{
		models.IsometricTime, models.StrengthBodyweight}}

	tests := []struct {
		name  string
		state State
		ctx   Context
		ok    bool
	}{
		{"idle empty", Idle, Empty{}, true},
		{"collecting", WaitingForRIR, Collecting{Draft: d}, true},
		{"collecting without draft", WaitingForRIR, Collecting{}, false},
		{"bad return state", WaitingForWeight, Collecting{Draft: d, ReturnTo: Idle}, false},
		{"idle with draft", Idle, Collecting{Draft: d}, false},
		{"resolving", ResolvingExerciseType, ResolvingType{Draft: d, Exercise: amb}, true},
		{"resolving unambiguous", ResolvingExerciseType, ResolvingType{Draft: d, Exercise: &models.Exercise{Name: "x"}}, false},
		{"creating", CreatingExerciseGroup, CreatingExercise{Name: "Hip thrust", Draft: d}, true},
		{"creating without name", CreatingExerciseName, CreatingExercise{Draft: d}, false},
		{"cancel", ConfirmCancel, ConfirmingCancel{Resume: WaitingForRIR, Prior: Collecting{Draft: d}}, true},
		{"nested cancel", ConfirmCancel, ConfirmingCancel{Resume: ConfirmCancel, Prior: Collecting{Draft: d}}, false},
		{"cancel prior mismatch", ConfirmCancel, ConfirmingCancel{Resume: WaitingForRIR, Prior: Empty{}}, false},
		{"unknown state", State("LIMBO"), Empty{}, false},
		{"nil context", Idle, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.state, tt.ctx)
			if (err == nil) != tt.ok {
				t.Fatalf("Check = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && apperrors.KindOf(err) != apperrors.CorruptState {
				t.Errorf("kind = %s, want %s", apperrors.KindOf(err), apperrors.CorruptState)
			}
		})
	}
}

// TestRecoverSession verifies recovery picks the most specific waiting state.
func TestRecoverSession(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want State
	}{
		{"nothing to keep", nil, Idle},
		{"nameless draft", Collecting{Draft: &models.Draft{Sets: 3}}, Idle},
		{"weighted without data", Collecting{Draft: &models.Draft{ExerciseName: "Press militar",
			Type: models.StrengthWeighted}}, WaitingForWeight},
		{"missing rir", Collecting{Draft: &models.Draft{ExerciseName: "Dominadas",
			Type: models.StrengthBodyweight, Reps: models.Uniform(10), Sets: 3}}, WaitingForRIR},
		{"complete", Collecting{Draft: &models.Draft{ExerciseName: "Plancha",
			Type: models.IsometricTime, Duration: models.Uniform(60)}}, WaitingForComment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := recoverSession(tt.ctx)
			if out.state != tt.want {
				t.Errorf("state = %s, want %s", out.state, tt.want)
			}
			if out.kind != apperrors.CorruptState {
				t.Errorf("kind = %s, want %s", out.kind, apperrors.CorruptState)
			}
			if err := Check(out.state, out.ctx); err != nil {
				t.Errorf("recovered session fails Check: %v", err)
			}
		})
	}
}

// TestNormalize verifies phrase matching input is folded and trimmed.
func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Sí!! ", "si"},
		{"CANCELAR", "cancelar"},
		{"eso   es todo.", "eso es todo"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
