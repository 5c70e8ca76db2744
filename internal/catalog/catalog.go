package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/claude/repbot/internal/models"
)

var (
	// ErrNotFound means no built-in or custom exercise matched.
	ErrNotFound = errors.New("exercise not found")
	// ErrInvalidMuscleGroup means the group is not one of models.MuscleGroups.
	ErrInvalidMuscleGroup = errors.New("invalid muscle group")
	// ErrEmptyName means a custom exercise was given no name.
	ErrEmptyName = errors.New("exercise name is required")
)

// Store persists per-user custom exercises.
type Store interface {
	ListCustomExercises(ctx context.Context, userID string) ([]models.CustomExerciseRow, error)
	CreateCustomExercise(ctx context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error)
	UpdateCustomExercise(ctx context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error)
	DeleteCustomExercise(ctx context.Context, userID string, id int64) error
}

// Catalog resolves free-text exercise names against the built-in catalog
// and a user's custom exercises.
type Catalog struct {
	builtins []models.Exercise
	store    Store
	log      *slog.Logger
}

// New creates a Catalog. A nil store serves built-ins only.
func New(store Store, log *slog.Logger) *Catalog {
	return &Catalog{builtins: Builtins(), store: store, log: log}
}

// Builtins returns the seed entries.
func (c *Catalog) Builtins() []models.Exercise {
	out := make([]models.Exercise, len(c.builtins))
	copy(out, c.builtins)
	return out
}

// ListCustom returns userID's custom exercises in creation order.
func (c *Catalog) ListCustom(ctx context.Context, userID string) ([]models.Exercise, error) {
	if c.store == nil {
		return nil, nil
	}
	rows, err := c.store.ListCustomExercises(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing custom exercises: %w", err)
	}
	out := make([]models.Exercise, len(rows))
	for i, r := range rows {
		out[i] = r.Exercise()
	}
	return out, nil
}

// Resolve finds the exercise name refers to. The user's custom exercises
// are searched first; built-ins only when allowBuiltins is set.
func (c *Catalog) Resolve(ctx context.Context, userID, name string, allowBuiltins bool) (*models.Exercise, error) {
	candidates, err := c.ListCustom(ctx, userID)
	if err != nil {
		return nil, err
	}
	if allowBuiltins {
		candidates = append(candidates, c.builtins...)
	}

	match, score, ok := Match(name, candidates)
	if !ok {
		c.log.Debug("exercise not resolved", "user", userID, "name", name, "best_score", score)
		return nil, ErrNotFound
	}
	found := *match
	c.log.Debug("exercise resolved", "user", userID, "name", name, "match", found.Name, "score", score)
	return &found, nil
}

// CreateCustom stores a new custom exercise for userID.
func (c *Catalog) CreateCustom(ctx context.Context, userID, name, muscleGroup string, t models.ExerciseType) (*models.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	group, ok := ParseMuscleGroup(muscleGroup)
	if !ok {
		return nil, ErrInvalidMuscleGroup
	}
	if !t.IsValid() {
		t = models.StrengthWeighted
	}
	if c.store == nil {
		return nil, fmt.Errorf("creating custom exercise: no store configured")
	}
	row, err := c.store.CreateCustomExercise(ctx, models.CustomExerciseRow{
		UserID:       userID,
		Name:         name,
		MuscleGroup:  group,
		ExerciseType: string(t),
	})
	if err != nil {
		return nil, fmt.Errorf("creating custom exercise: %w", err)
	}
	ex := row.Exercise()
	return &ex, nil
}

// UpdateCustom renames or regroups one of userID's custom exercises.
func (c *Catalog) UpdateCustom(ctx context.Context, userID string, id int64, name, muscleGroup string) (*models.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	group, ok := ParseMuscleGroup(muscleGroup)
	if !ok {
		return nil, ErrInvalidMuscleGroup
	}
	if c.store == nil {
		return nil, fmt.Errorf("updating custom exercise: no store configured")
	}
	row, err := c.store.UpdateCustomExercise(ctx, models.CustomExerciseRow{ID: id, UserID: userID, Name: name, MuscleGroup: group})
	if err != nil {
		return nil, fmt.Errorf("updating custom exercise: %w", err)
	}
	ex := row.Exercise()
	return &ex, nil
}

// DeleteCustom removes one of userID's custom exercises.
func (c *Catalog) DeleteCustom(ctx context.Context, userID string, id int64) error {
	if c.store == nil {
		return fmt.Errorf("deleting custom exercise: no store configured")
	}
	if err := c.store.DeleteCustomExercise(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting custom exercise: %w", err)
	}
	return nil
}

// ParseMuscleGroup accepts a muscle group token regardless of case and accents.
func ParseMuscleGroup(s string) (string, bool) {
	f := Fold(s)
	for _, g := range models.MuscleGroups {
		if f == g {
			return g, true
		}
	}
	return "", false
}

// Group is a muscle group with its exercises.
type Group struct {
	Name      string
	Exercises []models.Exercise
}

// ByMuscleGroup groups entries, keeping the models.MuscleGroups order and
// putting unknown groups last in alphabetical order.
func ByMuscleGroup(entries []models.Exercise) []Group {
	idx := map[string]int{}
	var groups []Group
	for _, e := range entries {
		g := e.MuscleGroup
		if g == "" {
			g = "otros"
		}
		i, ok := idx[g]
		if !ok {
			i = len(groups)
			idx[g] = i
			groups = append(groups, Group{Name: g})
		}
		groups[i].Exercises = append(groups[i].Exercises, e)
	}

	rank := func(name string) int {
		for i, g := range models.MuscleGroups {
			if g == name {
				return i
			}
		}
		return len(models.MuscleGroups)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		ra, rb := rank(groups[a].Name), rank(groups[b].Name)
		if ra != rb {
			return ra < rb
		}
		return groups[a].Name < groups[b].Name
	})
	return groups
}
