package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// userID is the user_id argument, else the transport's user.
func userID(ctx context.Context, req mcp.CallToolRequest) (string, bool) {
	if id := req.GetString("user_id", ""); id != "" {
		return id, true
	}
	id := UserIDFromContext(ctx)
	return id, id != ""
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List a user's custom exercises grouped by muscle group, optionally with the built-in catalog."),
	mcp.WithString("user_id", mcp.Description("User identifier (phone number). Defaults to the transport user.")),
	mcp.WithBoolean("include_builtins", mcp.Description("Also return the built-in catalog. Defaults to false.")),
)

var toolResolveExercise = mcp.NewTool("resolve_exercise",
	mcp.WithDescription("Match free text (any spelling, accents optional) to a catalog or custom exercise. Returns the exercise with its allowed measurement types."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name as a user would type it, e.g. 'press banca'")),
	mcp.WithString("user_id", mcp.Description("User identifier. Defaults to the transport user.")),
)

var toolGetWorkoutRecords = mcp.NewTool("get_workout_records",
	mcp.WithDescription("Query logged sets, newest first. Each record is one set with weight, reps and RIR, or duration, distance and calories."),
	mcp.WithString("user_id", mcp.Description("User identifier. Defaults to the transport user.")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (partial match, e.g. 'sentadilla')")),
	mcp.WithNumber("limit", mcp.Description("Maximum records (default 200, max 1000)")),
)

var toolSendMessage = mcp.NewTool("send_message",
	mcp.WithDescription("Send a chat message to the workout logging bot as the user and return its reply and the new conversation state."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Message text in Spanish, e.g. 'Sentadilla 100kg 5 reps 3 series RIR 2'")),
	mcp.WithString("user_id", mcp.Description("User identifier. Defaults to the transport user.")),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := userID(ctx, req)
	if !ok {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}

	custom, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	out := map[string]any{"custom": groups(custom)}
	if req.GetBool("include_builtins", false) {
		builtins, err := h.ds.Catalog(ctx)
		if err != nil {
			h.log.Error("mcp list_exercises", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		out["builtin"] = groups(builtins)
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) resolveExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	uid, _ := userID(ctx, req)

	ex, err := h.ds.ResolveExercise(ctx, uid, name)
	if errors.Is(err, catalog.ErrNotFound) {
		return mcp.NewToolResultError("no exercise matches " + name), nil
	}
	if err != nil {
		h.log.Error("mcp resolve_exercise", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(ex)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := userID(ctx, req)
	if !ok {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	records, err := h.ds.QueryWorkoutRecords(ctx, uid, storage.RecordFilter{
		Start:    start,
		End:      end,
		Exercise: req.GetString("exercise", ""),
		Limit:    req.GetInt("limit", 0),
	})
	if err != nil {
		h.log.Error("mcp get_workout_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if records == nil {
		records = []models.WorkoutRecordRow{}
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) sendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	uid, ok := userID(ctx, req)
	if !ok {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}

	reply, err := h.ds.SendMessage(ctx, uid, text)
	if err != nil {
		h.log.Error("mcp send_message", "user", uid, "error", err)
		return mcp.NewToolResultError("message not stored: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(reply)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type exerciseGroup struct {
	MuscleGroup string            `json:"muscle_group"`
	Exercises   []models.Exercise `json:"exercises"`
}

func groups(entries []models.Exercise) []exerciseGroup {
	out := []exerciseGroup{}
	for _, g := range catalog.ByMuscleGroup(entries) {
		out = append(out, exerciseGroup{MuscleGroup: g.Name, Exercises: g.Exercises})
	}
	return out
}
