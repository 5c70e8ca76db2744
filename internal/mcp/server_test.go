package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeSource struct {
	custom   []models.Exercise
	filter   storage.RecordFilter
	lastUser string
	sendErr  error
}

func (f *fakeSource) Catalog(context.Context) ([]models.Exercise, error) {
	return []models.Exercise{{Name: "Sentadilla", MuscleGroup: "piernas"}}, nil
}

func (f *fakeSource) ListExercises(_ context.Context, userID string) ([]models.Exercise, error) {
	f.lastUser = userID
	return f.custom, nil
}

func (f *fakeSource) ResolveExercise(_ context.Context, userID, name string) (*models.Exercise, error) {
	if strings.EqualFold(name, "sentadilla") {
		return &models.Exercise{Name: "Sentadilla", MuscleGroup: "piernas"}, nil
	}
	return nil, fmt.Errorf("resolving %q: %w", name, catalog.ErrNotFound)
}

func (f *fakeSource) QueryWorkoutRecords(_ context.Context, userID string, filter storage.RecordFilter) ([]models.WorkoutRecordRow, error) {
	f.lastUser = userID
	f.filter = filter
	return nil, nil
}

func (f *fakeSource) SendMessage(_ context.Context, userID, text string) (conversation.Reply, error) {
	f.lastUser = userID
	if f.sendErr != nil {
		return conversation.Reply{}, f.sendErr
	}
	return conversation.Reply{Text: "eco: " + text, State: conversation.Idle}, nil
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", r.Content[0])
	}
	return tc.Text
}

// TestUserIDFromContextDefault verifies the empty user ID when no value is set.
func TestUserIDFromContextDefault(t *testing.T) {
	if id := UserIDFromContext(context.Background()); id != "" {
		t.Errorf("UserIDFromContext(empty) = %q, want empty", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), "+5491100000000")
	if id := UserIDFromContext(ctx); id != "+5491100000000" {
		t.Errorf("UserIDFromContext = %q, want +5491100000000", id)
	}
}

// TestDefaultTimeRange verifies time range defaults (last 30 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days := end.Sub(start).Hours() / 24; days < 29.9 || days > 30.1 {
		t.Errorf("default range = %.1f days, want 30", days)
	}

	start, end, err = defaultTimeRange("2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Day() != 31 {
		t.Errorf("range = %v..%v, want 2026-01-01..2026-01-31", start, end)
	}

	start, _, err = defaultTimeRange("2026-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err := defaultTimeRange("ayer", ""); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestToolUserFallback verifies the transport user is used when user_id is omitted.
func TestToolUserFallback(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)

	ctx := WithUserID(context.Background(), "ctx-user")
	r, err := h.listExercises(ctx, callRequest(map[string]any{}))
	if err != nil || r.IsError {
		t.Fatalf("listExercises = %+v, %v", r, err)
	}
	if ds.lastUser != "ctx-user" {
		t.Errorf("user = %q, want ctx-user", ds.lastUser)
	}

	if _, err := h.listExercises(ctx, callRequest(map[string]any{"user_id": "arg-user"})); err != nil {
		t.Fatal(err)
	}
	if ds.lastUser != "arg-user" {
		t.Errorf("user = %q, want arg-user", ds.lastUser)
	}

	r, _ = h.listExercises(context.Background(), callRequest(map[string]any{}))
	if !r.IsError {
		t.Error("missing user: want tool error")
	}
}

// TestListExercisesIncludesBuiltins verifies the optional built-in section.
func TestListExercisesIncludesBuiltins(t *testing.T) {
	ds := &fakeSource{custom: []models.Exercise{{Name: "Hip Thrust", MuscleGroup: "piernas", Custom: true}}}
	h := newHandlers(ds)

	r, _ := h.listExercises(context.Background(), callRequest(map[string]any{"user_id": "u1", "include_builtins": true}))
	text := resultText(t, r)
	if !strings.Contains(text, "Hip Thrust") || !strings.Contains(text, `"builtin"`) {
		t.Errorf("result = %s, want custom and builtin sections", text)
	}
}

// TestResolveExerciseTool verifies matches and misses.
func TestResolveExerciseTool(t *testing.T) {
	h := newHandlers(&fakeSource{})

	tests := []struct {
		args    map[string]any
		wantErr bool
	}{
		{map[string]any{"name": "sentadilla"}, false},
		{map[string]any{"name": "zumba"}, true},
		{map[string]any{}, true},
	}
	for _, tt := range tests {
		r, err := h.resolveExercise(context.Background(), callRequest(tt.args))
		if err != nil {
			t.Fatal(err)
		}
		if r.IsError != tt.wantErr {
			t.Errorf("resolve(%v) IsError = %v, want %v", tt.args, r.IsError, tt.wantErr)
		}
	}
}

// TestGetWorkoutRecordsTool verifies arguments reach the record filter.
func TestGetWorkoutRecordsTool(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)

	r, _ := h.getWorkoutRecords(context.Background(), callRequest(map[string]any{
		"user_id": "u1", "start": "2026-03-01", "end": "2026-03-07", "exercise": "press", "limit": float64(10),
	}))
	if r.IsError {
		t.Fatalf("result = %s", resultText(t, r))
	}
	if got := resultText(t, r); strings.TrimSpace(got) != "[]" {
		t.Errorf("result = %s, want []", got)
	}
	if ds.filter.Exercise != "press" || ds.filter.Limit != 10 || ds.filter.Start.Day() != 1 {
		t.Errorf("filter = %+v", ds.filter)
	}

	r, _ = h.getWorkoutRecords(context.Background(), callRequest(map[string]any{"user_id": "u1", "start": "ayer"}))
	if !r.IsError {
		t.Error("bad start: want tool error")
	}
}

// TestSendMessageTool verifies replies and engine failures.
func TestSendMessageTool(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)

	r, _ := h.sendMessage(context.Background(), callRequest(map[string]any{"user_id": "u1", "text": "hola"}))
	if got := resultText(t, r); !strings.Contains(got, "eco: hola") {
		t.Errorf("result = %s, want the reply", got)
	}

	ds.sendErr = errors.New("db down")
	r, _ = h.sendMessage(context.Background(), callRequest(map[string]any{"user_id": "u1", "text": "hola"}))
	if !r.IsError {
		t.Error("engine failure: want tool error")
	}
}

// TestNewRegistersTools verifies the server is built without panicking.
func TestNewRegistersTools(t *testing.T) {
	if s := New(&fakeSource{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil))); s == nil {
		t.Fatal("New returned nil")
	}
}
