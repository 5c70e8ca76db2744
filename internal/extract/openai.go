package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/repbot/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the chat-completion backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI extracts fields with a chat-completion model. Replies must contain
// one JSON object; anything else is an error.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     *slog.Logger
}

// NewOpenAI creates the backend. Requests are not retried; a failed call is
// reported to the caller as an extraction failure.
func NewOpenAI(cfg OpenAIConfig, log *slog.Logger) *OpenAI {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
		log:     log,
	}
}

const fieldContract = `Responde SOLO con un objeto JSON con estas claves (null si no se menciona):
{"exercise_name": string, "exercise_type": "strength_weighted"|"strength_bodyweight"|"isometric_time"|"cardio_time"|"cardio_distance"|"cardio_both",
 "weight_kg": number|number[], "reps": number|number[], "sets": number, "rir": number|number[],
 "duration_seconds": number|number[], "distance_km": number|number[], "calories": number|number[], "notes": string}
Reglas:
- exercise_name es el texto literal antes del primer número o unidad. No lo traduzcas ni lo renombres.
- Un valor para todas las series es un número; valores distintos por serie ("primera serie X, segunda Y") son una lista en orden de serie.
- Si hay un valor general y un desglose por serie, usa el desglose.
- RIR: "al fallo" es 0; "podía hacer N más" es N; si no se menciona, null. Nunca lo supongas.
- Convierte libras a kg, metros y millas a km, minutos y horas a segundos.`

const extractPrompt = "Eres un extractor de datos de entrenamiento. Lee el mensaje del usuario.\n" + fieldContract

const followUpPrompt = "Eres un extractor de datos de entrenamiento. El usuario responde a una pregunta sobre un registro pendiente.\n" +
	"Devuelve SOLO los campos que el mensaje aporta. Un número suelto completa el siguiente campo que falta " +
	"(si ya hay reps, un número solo son las series). \"Los otros\" o \"el resto\" se refiere a las series no nombradas.\n" +
	"Si el usuario pregunta qué significa un campo en vez de responder, agrega \"clarification\": \"" + ClarifyRIR + "\".\n" +
	fieldContract

const intentPrompt = `Clasifica la intención del mensaje de un usuario de un bot de registro de entrenamiento.
Intenciones: help, exercises, web, cancel, create_workout, continue_workout, unknown.
Responde SOLO con JSON: {"intent": string, "confidence": number entre 0 y 1}`

// wireDraft is the JSON shape the model returns.
type wireDraft struct {
	ExerciseName  *string         `json:"exercise_name"`
	ExerciseType  *string         `json:"exercise_type"`
	Weight        models.SetValue `json:"weight_kg"`
	Reps          models.SetValue `json:"reps"`
	Sets          *float64        `json:"sets"`
	RIR           models.SetValue `json:"rir"`
	Duration      models.SetValue `json:"duration_seconds"`
	Distance      models.SetValue `json:"distance_km"`
	Calories      models.SetValue `json:"calories"`
	Notes         *string         `json:"notes"`
	Clarification *string         `json:"clarification"`
}

func (w *wireDraft) draft() *models.Draft {
	d := &models.Draft{}
	if w.ExerciseName != nil {
		d.ExerciseName = CleanName(*w.ExerciseName)
	}
	if w.ExerciseType != nil {
		if t := models.ExerciseType(*w.ExerciseType); t.IsValid() {
			d.Type = t
		}
	}
	d.SetField(models.FieldWeight, w.Weight)
	d.Reps = w.Reps
	if w.Sets != nil && *w.Sets > 0 {
		d.Sets = int(*w.Sets)
	}
	d.RIR = w.RIR
	d.Duration = w.Duration
	d.Distance = w.Distance
	d.Calories = w.Calories
	if w.Notes != nil {
		d.Notes = strings.TrimSpace(*w.Notes)
	}
	return d
}

// Extract implements Extractor.
func (o *OpenAI) Extract(ctx context.Context, msg string, hint *Hint) (*models.Draft, error) {
	system := extractPrompt
	if hint != nil && len(hint.Exercises) > 0 {
		system += "\nEjercicios conocidos: " + strings.Join(hint.Exercises, ", ")
	}
	var w wireDraft
	if err := o.completeJSON(ctx, system, msg, &w); err != nil {
		return nil, fmt.Errorf("extracting workout: %w", err)
	}
	return w.draft(), nil
}

// ExtractFollowUp implements Extractor. The merge happens here, not in the
// model, so unmentioned fields always keep their values.
func (o *OpenAI) ExtractFollowUp(ctx context.Context, msg string, pending *models.Draft) (*FollowUp, error) {
	if pending == nil {
		pending = &models.Draft{}
	}
	state, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("encoding pending draft: %w", err)
	}
	user := fmt.Sprintf("Registro pendiente: %s\nMensaje: %s", state, msg)
	var w wireDraft
	if err := o.completeJSON(ctx, followUpPrompt, user, &w); err != nil {
		return nil, fmt.Errorf("extracting follow-up: %w", err)
	}
	clarification := ""
	if w.Clarification != nil {
		clarification = *w.Clarification
	}
	return completeFollowUp(pending, w.draft(), clarification), nil
}

// ClassifyIntent implements Extractor.
func (o *OpenAI) ClassifyIntent(ctx context.Context, msg string, state string) (Classification, error) {
	var c Classification
	user := fmt.Sprintf("Estado: %s\nMensaje: %s", state, msg)
	if err := o.completeJSON(ctx, intentPrompt, user, &c); err != nil {
		return Classification{Intent: IntentUnknown}, fmt.Errorf("classifying intent: %w", err)
	}
	switch c.Intent {
	case IntentHelp, IntentExercises, IntentWeb, IntentCancel, IntentCreateWorkout, IntentContinueWorkout:
	default:
		c = Classification{Intent: IntentUnknown}
	}
	return c, nil
}

func (o *OpenAI) completeJSON(ctx context.Context, system, user string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat completion returned no choices")
	}
	content := resp.Choices[0].Message.Content
	o.log.Debug("extractor reply", "model", o.model, "duration", time.Since(start), "bytes", len(content))

	raw, err := firstJSONObject(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding extractor reply: %w", err)
	}
	return nil
}

// firstJSONObject returns the first JSON object in s, ignoring any prose
// or code fences around it.
func firstJSONObject(s string) (json.RawMessage, error) {
	i := strings.Index(s, "{")
	if i < 0 {
		return nil, errors.New("extractor reply has no JSON object")
	}
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding extractor reply: %w", err)
	}
	return raw, nil
}
