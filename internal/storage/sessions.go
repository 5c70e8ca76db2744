package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repbot/internal/models"
	"github.com/jackc/pgx/v5"
)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetSession loads the conversation state for userID.
func (db *DB) GetSession(ctx context.Context, userID string) (*models.SessionRow, error) {
	var s models.SessionRow
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, name, state, context, version, updated_at
		 FROM sessions WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.Name, &s.State, &s.Context, &s.Version, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &s, nil
}

// CreateSession inserts a new session at version 1. A concurrent insert for
// the same user returns ErrConflict.
func (db *DB) CreateSession(ctx context.Context, s *models.SessionRow) error {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO sessions (user_id, name, state, context, version)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (user_id) DO NOTHING
		 RETURNING version, updated_at`,
		s.UserID, s.Name, s.State, contextJSON(s.Context)).Scan(&s.Version, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// PutSession writes s if its version still matches the stored one, then
// bumps s.Version. A stale version returns ErrConflict.
func (db *DB) PutSession(ctx context.Context, s *models.SessionRow) error {
	return putSession(ctx, db.Pool, s)
}

func putSession(ctx context.Context, q execer, s *models.SessionRow) error {
	err := q.QueryRow(ctx,
		`UPDATE sessions
		 SET name = $3, state = $4, context = $5, version = version + 1, updated_at = NOW()
		 WHERE user_id = $1 AND version = $2
		 RETURNING version, updated_at`,
		s.UserID, s.Version, s.Name, s.State, contextJSON(s.Context)).Scan(&s.Version, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// contextJSON passes the payload as text so pgx does not treat it as bytea.
func contextJSON(b []byte) string {
	if len(b) == 0 {
		return `{"kind":"empty"}`
	}
	return string(b)
}
