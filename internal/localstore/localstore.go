// Package localstore is a single-file SQLite implementation of the
// conversation store, used by the local chat CLI.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	user_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	context    TEXT NOT NULL DEFAULT '{"kind":"empty"}',
	version    INTEGER NOT NULL DEFAULT 1,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS custom_exercises (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	muscle_group  TEXT NOT NULL,
	exercise_type TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_custom_exercises_user ON custom_exercises (user_id, id);
CREATE TABLE IF NOT EXISTS workout_records (
	id                 TEXT PRIMARY KEY,
	batch_id           TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	exercise_name      TEXT NOT NULL,
	custom_exercise_id INTEGER REFERENCES custom_exercises (id) ON DELETE SET NULL,
	exercise_type      TEXT NOT NULL,
	set_number         INTEGER NOT NULL,
	weight_kg          REAL,
	reps               REAL,
	rir                REAL,
	duration_seconds   REAL,
	distance_km        REAL,
	calories           REAL,
	notes              TEXT,
	created_at         TEXT NOT NULL,
	UNIQUE (batch_id, set_number)
);
CREATE INDEX IF NOT EXISTS idx_workout_records_user ON workout_records (user_id, created_at DESC);
`

// Store keeps sessions, custom exercises and workout records in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening local db: %w", err)
	}
	// One writer keeps version checks and transactions serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating local schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetSession loads the session for userID.
func (s *Store) GetSession(ctx context.Context, userID string) (*models.SessionRow, error) {
	var (
		row     models.SessionRow
		payload string
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, state, context, version, updated_at FROM sessions WHERE user_id = ?`,
		userID).Scan(&row.UserID, &row.Name, &row.State, &payload, &row.Version, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	row.Context = []byte(payload)
	row.UpdatedAt = parseTime(updated)
	return &row, nil
}

// CreateSession inserts a session at version 1.
func (s *Store) CreateSession(ctx context.Context, row *models.SessionRow) error {
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, name, state, context, version, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?) ON CONFLICT (user_id) DO NOTHING`,
		row.UserID, row.Name, row.State, contextText(row.Context), formatTime(now))
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrConflict
	}
	row.Version, row.UpdatedAt = 1, now
	return nil
}

// PutSession writes row if its version is current.
func (s *Store) PutSession(ctx context.Context, row *models.SessionRow) error {
	return s.putSession(ctx, s.db, row)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) putSession(ctx context.Context, q execer, row *models.SessionRow) error {
	now := s.now().UTC()
	res, err := q.ExecContext(ctx,
		`UPDATE sessions SET name = ?, state = ?, context = ?, version = version + 1, updated_at = ?
		 WHERE user_id = ? AND version = ?`,
		row.Name, row.State, contextText(row.Context), formatTime(now), row.UserID, row.Version)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrConflict
	}
	row.Version++
	row.UpdatedAt = now
	return nil
}

// CommitTurn writes records and the session in one transaction.
func (s *Store) CommitTurn(ctx context.Context, row *models.SessionRow, records []models.WorkoutRecordRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning turn: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workout_records (id, batch_id, user_id, exercise_name, custom_exercise_id,
				exercise_type, set_number, weight_kg, reps, rir, duration_seconds, distance_km,
				calories, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID.String(), r.BatchID.String(), r.UserID, r.ExerciseName, r.CustomExerciseID,
			r.ExerciseType, r.SetNumber, r.WeightKg, r.Reps, r.RIR, r.DurationSeconds, r.DistanceKm,
			r.Calories, r.Notes, formatTime(r.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting workout record: %w", err)
		}
	}
	// Rows are staged first so a stale session leaves nothing behind.
	if err := s.putSession(ctx, tx, row); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}
	return nil
}

// ListCustomExercises returns userID's exercises in creation order.
func (s *Store) ListCustomExercises(ctx context.Context, userID string) ([]models.CustomExerciseRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, muscle_group, exercise_type, created_at
		 FROM custom_exercises WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing custom exercises: %w", err)
	}
	defer rows.Close()

	var out []models.CustomExerciseRow
	for rows.Next() {
		var (
			r       models.CustomExerciseRow
			created string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.MuscleGroup, &r.ExerciseType, &created); err != nil {
			return nil, fmt.Errorf("scanning custom exercise: %w", err)
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateCustomExercise inserts row and returns it with its ID.
func (s *Store) CreateCustomExercise(ctx context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	row.CreatedAt = s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO custom_exercises (user_id, name, muscle_group, exercise_type, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		row.UserID, row.Name, row.MuscleGroup, row.ExerciseType, formatTime(row.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("creating custom exercise: %w", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading custom exercise id: %w", err)
	}
	return &row, nil
}

// UpdateCustomExercise renames or regroups an owned exercise.
func (s *Store) UpdateCustomExercise(ctx context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	var (
		out     models.CustomExerciseRow
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`UPDATE custom_exercises SET name = ?, muscle_group = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING id, user_id, name, muscle_group, exercise_type, created_at`,
		row.Name, row.MuscleGroup, row.ID, row.UserID).
		Scan(&out.ID, &out.UserID, &out.Name, &out.MuscleGroup, &out.ExerciseType, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating custom exercise: %w", err)
	}
	out.CreatedAt = parseTime(created)
	return &out, nil
}

// DeleteCustomExercise removes an owned exercise. Saved records keep their
// exercise name.
func (s *Store) DeleteCustomExercise(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM custom_exercises WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting custom exercise: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// QueryWorkoutRecords returns userID's records, newest first.
func (s *Store) QueryWorkoutRecords(ctx context.Context, userID string, f storage.RecordFilter) ([]models.WorkoutRecordRow, error) {
	query := `SELECT id, batch_id, user_id, exercise_name, custom_exercise_id, exercise_type,
		set_number, weight_kg, reps, rir, duration_seconds, distance_km, calories, notes, created_at
		FROM workout_records WHERE user_id = ?`
	args := []any{userID}
	if !f.Start.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(f.Start))
	}
	if !f.End.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, formatTime(f.End))
	}
	if f.Exercise != "" {
		query += ` AND exercise_name LIKE ?`
		args = append(args, "%"+strings.TrimSpace(f.Exercise)+"%")
	}
	query += ` ORDER BY created_at DESC, batch_id, set_number LIMIT ?`
	args = append(args, f.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout records: %w", err)
	}
	defer rows.Close()

	var out []models.WorkoutRecordRow
	for rows.Next() {
		var (
			r       models.WorkoutRecordRow
			created string
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &r.UserID, &r.ExerciseName, &r.CustomExerciseID,
			&r.ExerciseType, &r.SetNumber, &r.WeightKg, &r.Reps, &r.RIR, &r.DurationSeconds,
			&r.DistanceKm, &r.Calories, &r.Notes, &created); err != nil {
			return nil, fmt.Errorf("scanning workout record: %w", err)
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func contextText(b []byte) string {
	if len(b) == 0 {
		return `{"kind":"empty"}`
	}
	return string(b)
}
