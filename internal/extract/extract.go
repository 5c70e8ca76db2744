// Package extract turns chat messages into partially filled workout drafts.
// Rules is a deterministic regex extractor; OpenAI calls a chat-completion
// model; Enforced combines the two so the rule layer always has the last word.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/workout"
)

// ClarifyRIR is the clarification sentinel for "what is RIR?" questions.
const ClarifyRIR = "explain_rir"

// Hint lists the exercise names a first message can refer to.
type Hint struct {
	Exercises []string
}

// FollowUp is the outcome of interpreting a reply against a pending draft.
type FollowUp struct {
	Extracted     *models.Draft
	Merged        *models.Draft
	Complete      bool
	Missing       []models.Field
	Clarification string
}

// Intent is a coarse classification of a message.
type Intent string

const (
	IntentHelp            Intent = "help"
	IntentExercises       Intent = "exercises"
	IntentWeb             Intent = "web"
	IntentCancel          Intent = "cancel"
	IntentCreateWorkout   Intent = "create_workout"
	IntentContinueWorkout Intent = "continue_workout"
	IntentUnknown         Intent = "unknown"
)

// Classification is an intent with the classifier's confidence in [0,1].
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Extractor is the text-extraction collaborator. Implementations are
// stateless and safe for concurrent use.
type Extractor interface {
	// Extract reads a first message into a draft.
	Extract(ctx context.Context, msg string, hint *Hint) (*models.Draft, error)
	// ExtractFollowUp reads a reply to a question about pending.
	ExtractFollowUp(ctx context.Context, msg string, pending *models.Draft) (*FollowUp, error)
	// ClassifyIntent guesses what msg wants while the session is in state.
	ClassifyIntent(ctx context.Context, msg string, state string) (Classification, error)
}

// New builds the extractor named by backend: "rules", or "openai" wrapped in
// Enforced so the rule layer still applies.
func New(backend string, cfg OpenAIConfig, fallback bool, log *slog.Logger) (Extractor, error) {
	switch backend {
	case "", "rules":
		return NewRules(), nil
	case "openai":
		return NewEnforced(NewOpenAI(cfg, log), fallback, log), nil
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", backend)
	}
}

// completeFollowUp merges extracted into pending and fills the completion fields.
func completeFollowUp(pending, extracted *models.Draft, clarification string) *FollowUp {
	merged := workout.Merge(pending, extracted)
	res := workout.Validate(merged)
	return &FollowUp{
		Extracted:     extracted,
		Merged:        merged,
		Complete:      res.Valid(),
		Missing:       res.Missing,
		Clarification: clarification,
	}
}
