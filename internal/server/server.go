package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Chat is the conversation engine as the transport sees it.
type Chat interface {
	Handle(ctx context.Context, userID, text string) (conversation.Reply, error)
	SetVerified(ctx context.Context, userID string, verified bool) error
}

// Records reads saved workout records.
type Records interface {
	QueryWorkoutRecords(ctx context.Context, userID string, f storage.RecordFilter) ([]models.WorkoutRecordRow, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	chat         Chat
	catalog      *catalog.Catalog
	records      Records
	log          *slog.Logger
	apiKey       string
	webhookToken string
	router       chi.Router
}

// New creates a new Server with all routes configured.
func New(chat Chat, cat *catalog.Catalog, records Records, apiKey, webhookToken string, log *slog.Logger) *Server {
	s := &Server{
		chat:         chat,
		catalog:      cat,
		records:      records,
		log:          log,
		apiKey:       apiKey,
		webhookToken: webhookToken,
		router:       chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	// Messaging provider callback; authenticated by the optional URL token.
	s.router.With(WebhookToken(s.webhookToken)).Post("/webhook/twilio", s.handleTwilioWebhook)

	// API endpoints (API key required)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/messages", s.handleMessage)
		r.Get("/catalog", s.handleCatalog)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/exercises", s.handleListExercises)
			r.Post("/exercises", s.handleCreateExercise)
			r.Get("/exercises/resolve", s.handleResolveExercise)
			r.Put("/exercises/{id}", s.handleUpdateExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)
			r.Get("/workouts", s.handleQueryWorkouts)
			r.Put("/verification", s.handleVerification)
		})
	})
}

// MountMetrics serves h (a Prometheus handler) at /metrics.
func (s *Server) MountMetrics(h http.Handler) {
	s.router.Handle("/metrics", h)
}

// MountMCP serves the streamable HTTP MCP endpoint at /mcp behind the API key.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", h)
}
