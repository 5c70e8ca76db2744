package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/repbot/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore keeps custom exercises in memory.
type memStore struct {
	rows   []models.CustomExerciseRow
	nextID int64
	err    error
}

func (m *memStore) ListCustomExercises(_ context.Context, userID string) ([]models.CustomExerciseRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.CustomExerciseRow
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) CreateCustomExercise(_ context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	row.ID = m.nextID
	m.rows = append(m.rows, row)
	return &row, nil
}

func (m *memStore) UpdateCustomExercise(_ context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	for i, r := range m.rows {
		if r.ID == row.ID && r.UserID == row.UserID {
			m.rows[i].Name, m.rows[i].MuscleGroup = row.Name, row.MuscleGroup
			out := m.rows[i]
			return &out, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memStore) DeleteCustomExercise(_ context.Context, userID string, id int64) error {
	for i, r := range m.rows {
		if r.ID == id && r.UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

// TestMatchBuiltins verifies exact, alias, accent-insensitive and fuzzy lookups.
func TestMatchBuiltins(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"press de banca", "Press de Banca"},
		{"BENCH PRESS", "Press de Banca"},
		{"extension de triceps", "Extensión de Tríceps"},
		{"press banca", "Press de Banca"},
		{"sentadillas", "Sentadilla"},
		{"plank", "Plancha"},
		{"curl con barra olimpica", "Curl con Barra"},
	}
	entries := Builtins()
	for _, tt := range tests {
		got, _, ok := Match(tt.query, entries)
		if !ok {
			t.Errorf("Match(%q) found nothing, want %q", tt.query, tt.want)
			continue
		}
		if got.Name != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.query, got.Name, tt.want)
		}
	}
}

// TestMatchRejectsWeakCandidates verifies the 0.5 threshold and stop-word-only queries.
func TestMatchRejectsWeakCandidates(t *testing.T) {
	entries := Builtins()
	for _, q := range []string{"pull-down agarre neutral", "de la con", "", "zancadas bulgaras"} {
		if got, _, ok := Match(q, entries); ok {
			t.Errorf("Match(%q) = %q, want no match", q, got.Name)
		}
	}
}

// TestMatchReflexive verifies every entry's own name resolves to itself with the top score.
func TestMatchReflexive(t *testing.T) {
	entries := Builtins()
	for _, e := range entries {
		got, score, ok := Match(e.Name, entries)
		if !ok || got.Name != e.Name {
			t.Errorf("Match(%q) = %v, want itself", e.Name, got)
			continue
		}
		if score != 1 {
			t.Errorf("Match(%q) score = %v, want 1", e.Name, score)
		}
	}
}

// TestMatchTieFirstWins verifies catalog order breaks ties.
func TestMatchTieFirstWins(t *testing.T) {
	entries := []models.Exercise{
		{Name: "Remo Alto"},
		{Name: "Remo Bajo"},
	}
	got, score, ok := Match("remo", entries)
	if !ok || got.Name != "Remo Alto" {
		t.Fatalf("Match = %v, want Remo Alto", got)
	}
	if score != 1 {
		t.Errorf("score = %v, want 1", score)
	}
}

// TestScore verifies partial-word credit and normalization by query length.
func TestScore(t *testing.T) {
	tests := []struct {
		q, target []string
		want      float64
	}{
		{[]string{"press", "banca"}, []string{"press", "banca"}, 1},
		{[]string{"press", "banca"}, []string{"press", "inclinado"}, 0.5},
		{[]string{"sentadillas"}, []string{"sentadilla"}, 0.5},
		{[]string{"remo"}, []string{"curl"}, 0},
		{nil, []string{"x"}, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.q, tt.target); got != tt.want {
			t.Errorf("Score(%v, %v) = %v, want %v", tt.q, tt.target, got, tt.want)
		}
	}
}

// TestResolveScopes verifies custom exercises are searched before built-ins
// and built-ins are skipped when not allowed.
func TestResolveScopes(t *testing.T) {
	store := &memStore{}
	c := New(store, discardLogger())
	ctx := context.Background()

	if _, err := c.CreateCustom(ctx, "+5491100000000", "Press banca inclinado", "pecho", models.StrengthWeighted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Resolve(ctx, "+5491100000000", "press banca inclinado", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Custom || got.Name != "Press banca inclinado" {
		t.Errorf("Resolve = %+v, want the custom exercise", got)
	}

	if _, err := c.Resolve(ctx, "+5491100000000", "dominadas", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve without built-ins err = %v, want ErrNotFound", err)
	}
	if _, err := c.Resolve(ctx, "other-user", "press banca inclinado", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's lookup err = %v, want ErrNotFound", err)
	}
}

// TestResolveStoreError verifies storage failures are returned, not swallowed.
func TestResolveStoreError(t *testing.T) {
	c := New(&memStore{err: errors.New("db down")}, discardLogger())
	if _, err := c.Resolve(context.Background(), "u", "press", true); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want storage error", err)
	}
}

// TestCreateCustomValidation verifies muscle groups and names are checked.
func TestCreateCustomValidation(t *testing.T) {
	c := New(&memStore{}, discardLogger())
	ctx := context.Background()

	if _, err := c.CreateCustom(ctx, "u", "Hip thrust", "glúteos", models.StrengthWeighted); !errors.Is(err, ErrInvalidMuscleGroup) {
		t.Errorf("err = %v, want ErrInvalidMuscleGroup", err)
	}
	if _, err := c.CreateCustom(ctx, "u", "  ", "piernas", models.StrengthWeighted); !errors.Is(err, ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
	ex, err := c.CreateCustom(ctx, "u", "Hip thrust", "PIERNAS", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.MuscleGroup != "piernas" || ex.ExerciseType != models.StrengthWeighted {
		t.Errorf("created = %+v, want piernas/strength_weighted", ex)
	}
}

// TestByMuscleGroup verifies groups follow the canonical order.
func TestByMuscleGroup(t *testing.T) {
	groups := ByMuscleGroup([]models.Exercise{
		{Name: "Crunch", MuscleGroup: "core"},
		{Name: "Caminadora", MuscleGroup: "cardio"},
		{Name: "Press", MuscleGroup: "pecho"},
		{Name: "Otro"},
	})
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	want := []string{"pecho", "core", "cardio", "otros"}
	if len(names) != len(want) {
		t.Fatalf("groups = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("groups[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
