package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
)

const testKey = "test-key"

// fakeChat records the messages it receives.
type fakeChat struct {
	users    []string
	texts    []string
	err      error
	verified map[string]bool
}

func (f *fakeChat) Handle(_ context.Context, userID, text string) (conversation.Reply, error) {
	f.users = append(f.users, userID)
	f.texts = append(f.texts, text)
	return conversation.Reply{Text: "eco: " + text, State: conversation.Idle}, f.err
}

func (f *fakeChat) SetVerified(_ context.Context, userID string, verified bool) error {
	if f.verified == nil {
		f.verified = map[string]bool{}
	}
	f.verified[userID] = verified
	return nil
}

// fakeStore serves custom exercises and workout records from memory.
type fakeStore struct {
	exercises []models.CustomExerciseRow
	records   []models.WorkoutRecordRow
	filter    storage.RecordFilter
}

func (f *fakeStore) ListCustomExercises(_ context.Context, userID string) ([]models.CustomExerciseRow, error) {
	var out []models.CustomExerciseRow
	for _, r := range f.exercises {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCustomExercise(_ context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	row.ID = int64(len(f.exercises) + 1)
	f.exercises = append(f.exercises, row)
	return &row, nil
}

func (f *fakeStore) UpdateCustomExercise(_ context.Context, row models.CustomExerciseRow) (*models.CustomExerciseRow, error) {
	for i, r := range f.exercises {
		if r.ID == row.ID && r.UserID == row.UserID {
			f.exercises[i].Name, f.exercises[i].MuscleGroup = row.Name, row.MuscleGroup
			out := f.exercises[i]
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) DeleteCustomExercise(_ context.Context, userID string, id int64) error {
	for i, r := range f.exercises {
		if r.ID == id && r.UserID == userID {
			f.exercises = append(f.exercises[:i], f.exercises[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) QueryWorkoutRecords(_ context.Context, userID string, filter storage.RecordFilter) ([]models.WorkoutRecordRow, error) {
	f.filter = filter
	var out []models.WorkoutRecordRow
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, token string) (*Server, *fakeChat, *fakeStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	chat := &fakeChat{}
	store := &fakeStore{}
	return New(chat, catalog.New(store, log), store, testKey, token, log), chat, store
}

func do(s *Server, method, target, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if authed {
		req.Header.Set("X-API-Key", testKey)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestHealth verifies the unauthenticated health probe.
func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(s, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestAPIRequiresKey verifies API routes reject missing and wrong keys.
func TestAPIRequiresKey(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	if rec := do(s, http.MethodGet, "/api/v1/catalog", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}
}

// TestMessageEndpoint verifies the JSON chat endpoint relays to the engine.
func TestMessageEndpoint(t *testing.T) {
	s, chat, _ := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/v1/messages", `{"user_id":"+34600111222","text":"Plancha 60 segundos"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var reply conversation.Reply
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Text != "eco: Plancha 60 segundos" || reply.State != conversation.Idle {
		t.Errorf("reply = %+v", reply)
	}
	if chat.users[0] != "+34600111222" {
		t.Errorf("user = %q", chat.users[0])
	}

	if rec := do(s, http.MethodPost, "/api/v1/messages", `{"text":"hola"}`, true); rec.Code != http.StatusBadRequest {
		t.Errorf("missing user: status = %d, want 400", rec.Code)
	}

	chat.err = errors.New("store down")
	if rec := do(s, http.MethodPost, "/api/v1/messages", `{"user_id":"u1","text":"hola"}`, true); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("engine error: status = %d, want 503", rec.Code)
	}
}

// TestTwilioWebhook verifies the sender is normalized and the reply is TwiML.
func TestTwilioWebhook(t *testing.T) {
	s, chat, _ := newTestServer(t, "secret")

	form := url.Values{"From": {"whatsapp:34600111222"}, "Body": {"Press & banca <80kg>"}}
	post := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("/webhook/twilio"); rec.Code != http.StatusForbidden {
		t.Errorf("no token: status = %d, want 403", rec.Code)
	}

	rec := post("/webhook/twilio?token=secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if chat.users[0] != "+34600111222" {
		t.Errorf("user = %q, want +34600111222", chat.users[0])
	}
	var resp twimlResponse
	if err := xml.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("TwiML: %v\n%s", err, rec.Body)
	}
	if resp.Message != "eco: Press & banca <80kg>" {
		t.Errorf("message = %q", resp.Message)
	}
}

// TestNormalizeSender verifies channel prefixes and missing plus signs.
func TestNormalizeSender(t *testing.T) {
	tests := []struct{ in, want string }{
		{"whatsapp:+34600111222", "+34600111222"},
		{"whatsapp:34600111222", "+34600111222"},
		{"+15551234567", "+15551234567"},
		{" 15551234567 ", "+15551234567"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeSender(tt.in); got != tt.want {
			t.Errorf("normalizeSender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestExerciseCRUD verifies create, list, update and delete of custom exercises.
func TestExerciseCRUD(t *testing.T) {
	s, _, store := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/v1/users/u1/exercises",
		`{"name":"Hip Thrust","muscle_group":"Piernas","exercise_type":"strength_weighted"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body)
	}
	if store.exercises[0].MuscleGroup != "piernas" {
		t.Errorf("group = %q, want piernas", store.exercises[0].MuscleGroup)
	}

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"bad group", http.MethodPost, "/api/v1/users/u1/exercises", `{"name":"x","muscle_group":"alas"}`, http.StatusBadRequest},
		{"bad type", http.MethodPost, "/api/v1/users/u1/exercises", `{"name":"x","muscle_group":"core","exercise_type":"yoga"}`, http.StatusBadRequest},
		{"list", http.MethodGet, "/api/v1/users/u1/exercises", "", http.StatusOK},
		{"resolve custom", http.MethodGet, "/api/v1/users/u1/exercises/resolve?name=hip+thrust", "", http.StatusOK},
		{"resolve builtin", http.MethodGet, "/api/v1/users/u1/exercises/resolve?name=press+banca", "", http.StatusOK},
		{"resolve unknown", http.MethodGet, "/api/v1/users/u1/exercises/resolve?name=zumba", "", http.StatusNotFound},
		{"resolve no name", http.MethodGet, "/api/v1/users/u1/exercises/resolve", "", http.StatusBadRequest},
		{"update", http.MethodPut, "/api/v1/users/u1/exercises/1", `{"name":"Hip Thrust Barra","muscle_group":"piernas"}`, http.StatusOK},
		{"update foreign", http.MethodPut, "/api/v1/users/u2/exercises/1", `{"name":"x","muscle_group":"core"}`, http.StatusNotFound},
		{"bad id", http.MethodDelete, "/api/v1/users/u1/exercises/abc", "", http.StatusBadRequest},
		{"delete", http.MethodDelete, "/api/v1/users/u1/exercises/1", "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/api/v1/users/u1/exercises/1", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(s, tt.method, tt.target, tt.body, true); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// TestQueryWorkouts verifies query parameters reach the record filter.
func TestQueryWorkouts(t *testing.T) {
	s, _, store := newTestServer(t, "")
	store.records = []models.WorkoutRecordRow{{UserID: "u1", ExerciseName: "Sentadilla", SetNumber: 1}}

	rec := do(s, http.MethodGet, "/api/v1/users/u1/workouts?start=2026-03-01&end=2026-03-07&exercise=sentadilla&limit=5", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var got []models.WorkoutRecordRow
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("records = %d, want 1", len(got))
	}
	wantEnd := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	if !store.filter.End.Equal(wantEnd) || store.filter.Exercise != "sentadilla" || store.filter.Limit != 5 {
		t.Errorf("filter = %+v", store.filter)
	}

	if rec := do(s, http.MethodGet, "/api/v1/users/u1/workouts?start=ayer", "", true); rec.Code != http.StatusBadRequest {
		t.Errorf("bad start: status = %d, want 400", rec.Code)
	}
}

// TestVerificationEndpoint verifies the gate is toggled through the engine.
func TestVerificationEndpoint(t *testing.T) {
	s, chat, _ := newTestServer(t, "")
	rec := do(s, http.MethodPut, "/api/v1/users/u1/verification", `{"verified":true}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !chat.verified["u1"] {
		t.Error("u1 not verified")
	}
}

// TestCatalogEndpoint verifies the built-in catalog is served.
func TestCatalogEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(s, http.MethodGet, "/api/v1/catalog", "", true)
	var got []models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(catalog.Builtins()) {
		t.Errorf("entries = %d, want %d", len(got), len(catalog.Builtins()))
	}
}
