package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/repbot/internal/models"
	"github.com/jackc/pgx/v5"
)

const recordColumns = 15

// RecordFilter narrows QueryWorkoutRecords. Zero fields do not filter.
type RecordFilter struct {
	Start    time.Time
	End      time.Time
	Exercise string
	Limit    int
}

// EffectiveLimit is Limit, defaulting to 200 and capped at 1000.
func (f RecordFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return 200
	case f.Limit > 1000:
		return 1000
	}
	return f.Limit
}

// CommitTurn persists one turn: the expanded records and the new session
// state are written in a single transaction, so either both land or neither.
func (db *DB) CommitTurn(ctx context.Context, s *models.SessionRow, records []models.WorkoutRecordRow) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning turn: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertWorkoutRecords(ctx, tx, records); err != nil {
		return err
	}
	if err := putSession(ctx, tx, s); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}
	return nil
}

// InsertWorkoutRecords batch-inserts records in one transaction.
func (db *DB) InsertWorkoutRecords(ctx context.Context, records []models.WorkoutRecordRow) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := insertWorkoutRecords(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertWorkoutRecords(ctx context.Context, tx pgx.Tx, records []models.WorkoutRecordRow) error {
	if len(records) == 0 {
		return nil
	}

	query := `INSERT INTO workout_records (id, batch_id, user_id, exercise_name, custom_exercise_id,
		exercise_type, set_number, weight_kg, reps, rir, duration_seconds, distance_km,
		calories, notes, created_at) VALUES `
	args := make([]any, 0, len(records)*recordColumns)
	valueStrings := make([]string, 0, len(records))

	for i, r := range records {
		base := i * recordColumns
		ph := make([]string, recordColumns)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		args = append(args, r.ID, r.BatchID, r.UserID, r.ExerciseName, r.CustomExerciseID,
			r.ExerciseType, r.SetNumber, r.WeightKg, r.Reps, r.RIR, r.DurationSeconds,
			r.DistanceKm, r.Calories, r.Notes, r.CreatedAt)
	}

	query += strings.Join(valueStrings, ",")
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting workout records: %w", err)
	}
	return nil
}

// QueryWorkoutRecords returns userID's records, newest batch first and sets
// in order within a batch.
func (db *DB) QueryWorkoutRecords(ctx context.Context, userID string, f RecordFilter) ([]models.WorkoutRecordRow, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if !f.Start.IsZero() {
		args = append(args, f.Start)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.End.IsZero() {
		args = append(args, f.End)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if f.Exercise != "" {
		args = append(args, "%"+strings.TrimSpace(f.Exercise)+"%")
		where = append(where, fmt.Sprintf("exercise_name ILIKE $%d", len(args)))
	}
	limit := f.EffectiveLimit()

	query := fmt.Sprintf(`SELECT id, batch_id, user_id, exercise_name, custom_exercise_id,
		exercise_type, set_number, weight_kg, reps, rir, duration_seconds, distance_km,
		calories, notes, created_at
		FROM workout_records WHERE %s
		ORDER BY created_at DESC, batch_id, set_number
		LIMIT %d`, strings.Join(where, " AND "), limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout records: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutRecordRow
	for rows.Next() {
		var r models.WorkoutRecordRow
		if err := rows.Scan(&r.ID, &r.BatchID, &r.UserID, &r.ExerciseName, &r.CustomExerciseID,
			&r.ExerciseType, &r.SetNumber, &r.WeightKg, &r.Reps, &r.RIR, &r.DurationSeconds,
			&r.DistanceKm, &r.Calories, &r.Notes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
