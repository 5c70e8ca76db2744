package mcp

import (
	"context"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Catalog(ctx context.Context) ([]models.Exercise, error)
	ListExercises(ctx context.Context, userID string) ([]models.Exercise, error)
	ResolveExercise(ctx context.Context, userID, name string) (*models.Exercise, error)
	QueryWorkoutRecords(ctx context.Context, userID string, f storage.RecordFilter) ([]models.WorkoutRecordRow, error)
	SendMessage(ctx context.Context, userID, text string) (conversation.Reply, error)
}

// Records reads saved workout records.
type Records interface {
	QueryWorkoutRecords(ctx context.Context, userID string, f storage.RecordFilter) ([]models.WorkoutRecordRow, error)
}

// Chat handles one chat message.
type Chat interface {
	Handle(ctx context.Context, userID, text string) (conversation.Reply, error)
}

// Local serves tools from in-process components.
type Local struct {
	Exercises *catalog.Catalog
	Records   Records
	Chat      Chat
	// Builtins controls whether resolution also searches the built-in catalog.
	Builtins bool
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

func (l *Local) Catalog(_ context.Context) ([]models.Exercise, error) {
	return l.Exercises.Builtins(), nil
}

func (l *Local) ListExercises(ctx context.Context, userID string) ([]models.Exercise, error) {
	return l.Exercises.ListCustom(ctx, userID)
}

func (l *Local) ResolveExercise(ctx context.Context, userID, name string) (*models.Exercise, error) {
	return l.Exercises.Resolve(ctx, userID, name, l.Builtins)
}

func (l *Local) QueryWorkoutRecords(ctx context.Context, userID string, f storage.RecordFilter) ([]models.WorkoutRecordRow, error) {
	return l.Records.QueryWorkoutRecords(ctx, userID, f)
}

func (l *Local) SendMessage(ctx context.Context, userID, text string) (conversation.Reply, error) {
	return l.Chat.Handle(ctx, userID, text)
}
