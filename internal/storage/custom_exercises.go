package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repbot/internal/models"
	"github.com/jackc/pgx/v5"
)

// ListCustomExercises returns userID's exercises in creation order.
func (db *DB) ListCustomExercises(ctx context.Context, userID string) ([]models.CustomExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, muscle_group, exercise_type, created_at
		 FROM custom_exercises WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying custom exercises: %w", err)
	}
	defer rows.Close()

	var result []models.CustomExerciseRow
	for rows.Next() {
		var r models.CustomExerciseRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.MuscleGroup, &r.ExerciseType, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning custom exercise: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// CreateCustomExercise inserts row and returns it with its ID.
func (db *DB) CreateCustomExercise(ctx context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO custom_exercises (user_id, name, muscle_group, exercise_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		row.UserID, row.Name, row.MuscleGroup, row.ExerciseType).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting custom exercise: %w", err)
	}
	return &row, nil
}

// UpdateCustomExercise changes the name and muscle group of one of the
// owner's exercises. The exercise type is kept.
func (db *DB) UpdateCustomExercise(ctx context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	err := db.Pool.QueryRow(ctx,
		`UPDATE custom_exercises SET name = $3, muscle_group = $4
		 WHERE id = $1 AND user_id = $2
		 RETURNING exercise_type, created_at`,
		row.ID, row.UserID, row.Name, row.MuscleGroup).Scan(&row.ExerciseType, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating custom exercise: %w", err)
	}
	return &row, nil
}

// DeleteCustomExercise removes one of the owner's exercises. Records that
// referenced it keep their exercise name.
func (db *DB) DeleteCustomExercise(ctx context.Context, userID string, id int64) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM custom_exercises WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting custom exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
