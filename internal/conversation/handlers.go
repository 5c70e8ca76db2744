package conversation

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/extract"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/workout"
)

var (
	// "80", "80kg", "82.5 kilos", "80/75/70", "80, 75 y 70"
	weightReplyRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*(?:kg|kgs|kilos?)?(?:\s*(?:/|,\s|\s+y\s+|\s)\s*\d+(?:[.,]\d+)?\s*(?:kg|kgs|kilos?)?)*$`)
	weightNumRe   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	bareRIRRe     = regexp.MustCompile(`^(\d)$`)
	menuChoiceRe  = regexp.MustCompile(`^(?:opcion\s+)?(\d{1,2})$`)
	editRe        = regexp.MustCompile(`^(?:cambiar|editar|modificar|corregir)\s+(?:el\s+|la\s+|las\s+|los\s+)?(peso|reps?|repeticiones|series|sets?|rir|duracion|tiempo|distancia)\b`)
	// "Nuevo ejercicio: press de banca 80kg ...", "quiero registrar otro press militar ..."
	leadInRe = regexp.MustCompile(`(?i)^\s*(?:(?:quiero\s+(?:hacer|registrar)|iniciar|empezar)\s+)?(?:nuevo|otro)\b(?:\s+(?:registro|ejercicio|entrenamiento)\b)?[\s:,\-]*`)
	// names the load itself, as opposed to "sin mancuernas" or "solo reps"
	explicitNoWeightRe = regexp.MustCompile(`\bsin\s+(?:peso|carga|kg)\b|\bpeso\s+corporal\b|\bmi\s+(?:propio\s+)?peso\b`)
)

var editFields = map[string]models.Field{
	"peso": models.FieldWeight,
	"rep":  models.FieldReps, "reps": models.FieldReps, "repeticiones": models.FieldReps,
	"series": models.FieldSets, "set": models.FieldSets, "sets": models.FieldSets,
	"rir":      models.FieldRIR,
	"duracion": models.FieldDuration, "tiempo": models.FieldDuration,
	"distancia": models.FieldDistance,
}

func (e *Engine) handleNewUser(_ context.Context, t *turn) (outcome, error) {
	name := strings.TrimSpace(t.text)
	switch {
	case e.phrases.help.has(t.norm):
		return outcome{state: NewUser, ctx: Empty{}, reply: welcomeText}, nil
	case utf8.RuneCountInString(name) < 2:
		return outcome{state: NewUser, ctx: Empty{}, reply: askNameText}, nil
	}
	return outcome{state: Idle, ctx: Empty{}, name: name, reply: greetingText(name)}, nil
}

func (e *Engine) handlePendingVerification(_ context.Context, t *turn) (outcome, error) {
	return outcome{state: PendingVerification, ctx: Empty{}, reply: verificationText(e.opts.DashboardURL)}, nil
}

func (e *Engine) handleIdle(ctx context.Context, t *turn) (outcome, error) {
	return e.startWorkout(ctx, t)
}

func (e *Engine) handleConfirmSave(ctx context.Context, t *turn) (outcome, error) {
	if e.phrases.done.has(t.norm) {
		return outcome{state: Idle, ctx: Empty{}, reply: doneText}, nil
	}
	return e.startWorkout(ctx, t)
}

// startWorkout reads a message as a new exercise entry.
func (e *Engine) startWorkout(ctx context.Context, t *turn) (outcome, error) {
	text := leadInRe.ReplaceAllString(t.text, "")
	if strings.TrimSpace(text) == "" {
		return outcome{state: Idle, ctx: Empty{}, reply: unrecognizedText, kind: apperrors.UnrecognizedInput}, nil
	}
	d, err := e.extractor.Extract(ctx, text, e.hint(ctx, t))
	if err != nil {
		return e.extractFailed(t, err), nil
	}
	if d == nil || strings.TrimSpace(d.ExerciseName) == "" {
		return outcome{state: Idle, ctx: Empty{}, reply: unrecognizedText, kind: apperrors.UnrecognizedInput}, nil
	}

	ex, err := e.catalog.Resolve(ctx, t.userID, d.ExerciseName, e.opts.UseBuiltinCatalog)
	if errors.Is(err, catalog.ErrNotFound) {
		return e.unknownExercise(ctx, t, d)
	}
	if err != nil {
		return outcome{}, apperrors.Wrap(err, apperrors.CollaboratorFailure, "resolving exercise")
	}
	return e.withExercise(t, d, ex, text, ""), nil
}

// hint lists the exercise names the user can log against.
func (e *Engine) hint(ctx context.Context, t *turn) *extract.Hint {
	h := &extract.Hint{}
	custom, err := e.catalog.ListCustom(ctx, t.userID)
	if err != nil {
		e.log.Warn("listing exercises for extractor hint", "user", t.userID, "error", err)
	}
	for _, ex := range custom {
		h.Exercises = append(h.Exercises, ex.Name)
	}
	if e.opts.UseBuiltinCatalog {
		for _, ex := range e.catalog.Builtins() {
			h.Exercises = append(h.Exercises, ex.Name)
		}
	}
	return h
}

// unknownExercise offers to create the exercise, or creates it in the
// catch-all group when auto-creation is on.
func (e *Engine) unknownExercise(ctx context.Context, t *turn, d *models.Draft) (outcome, error) {
	name := extract.CleanName(d.ExerciseName)
	if e.opts.AutoCreateExercises {
		ex, err := e.catalog.CreateCustom(ctx, t.userID, name, "otros", newExerciseType(d))
		if err != nil {
			return outcome{}, apperrors.Wrap(err, apperrors.CollaboratorFailure, "creating custom exercise")
		}
		return e.withExercise(t, d, ex, t.text, createdExerciseText(ex)), nil
	}
	return outcome{
		state: CreatingExerciseName,
		ctx:   CreatingExercise{Name: name, Draft: d},
		reply: createExercisePrompt(name),
	}, nil
}

// withExercise attaches the resolved exercise and settles its type, asking
// the user when the message does not.
func (e *Engine) withExercise(t *turn, d *models.Draft, ex *models.Exercise, raw, prefix string) outcome {
	d = d.Clone()
	d.Exercise = ex
	res := workout.ResolveType(ex, d, raw)
	if res.Ambiguous {
		d.Ambiguous = true
		return outcome{
			state: ResolvingExerciseType,
			ctx:   ResolvingType{Draft: d, Exercise: ex},
			reply: withPrefix(prefix, typeMenuText(ex)),
			kind:  apperrors.AmbiguousExercise,
		}
	}
	d.Type = res.Type
	d.Ambiguous = false
	out := e.complete(t, d, "")
	out.reply = withPrefix(prefix, out.reply)
	return out
}

// complete is the shared completion path: save a complete draft, otherwise
// ask for exactly what is missing or invalid. returnTo is the state a
// complete draft goes to instead of being saved.
func (e *Engine) complete(t *turn, d *models.Draft, returnTo State) outcome {
	res := workout.Validate(d)
	if len(res.Violations) > 0 {
		if fixed, repairs := workout.AttemptRecovery(d); len(repairs) > 0 {
			e.log.Debug("draft repaired", "user", t.userID, "repairs", len(repairs))
			d, res = fixed, workout.Validate(fixed)
		}
	}

	if len(res.Violations) > 0 {
		notice := violationsText(res.Violations)
		d = d.Clone()
		for _, f := range res.ViolatedFields() {
			d.SetField(f, models.SetValue{})
		}
		res = workout.Validate(d)
		s := waitingState(d, res)
		return outcome{
			state: s,
			ctx:   Collecting{Draft: d, ReturnTo: returnTo},
			reply: notice + "\n\n" + prompt(s, d, res),
			kind:  apperrors.InvalidData,
		}
	}

	if res.Valid() {
		if returnTo == WaitingForComment {
			return outcome{state: WaitingForComment, ctx: Collecting{Draft: d}, reply: prompt(WaitingForComment, d, res)}
		}
		return e.save(t, d)
	}

	s := waitingState(d, res)
	return outcome{
		state: s,
		ctx:   Collecting{Draft: d, ReturnTo: returnTo},
		reply: prompt(s, d, res),
		kind:  apperrors.IncompleteData,
	}
}

// save expands the draft into one record per set under a fresh batch ID.
func (e *Engine) save(t *turn, d *models.Draft) outcome {
	records := workout.Expand(d, t.userID, uuid.New(), e.opts.Now())
	return outcome{state: ConfirmSave, ctx: Empty{}, reply: savedText(d), records: records, draft: d}
}

func (e *Engine) handleWaitingForWeight(ctx context.Context, t *turn) (outcome, error) {
	c := t.ctx.(Collecting)
	d := c.Draft.Clone()

	switch {
	case weightReplyRe.MatchString(t.norm):
		d.SetField(models.FieldWeight, parseWeights(t.norm))
	case e.dropsWeight(d, t.norm):
		d.Weight = models.SetValue{}
		d.Type = models.StrengthBodyweight
		return e.complete(t, d, c.ReturnTo), nil
	default:
		fu, err := e.extractor.ExtractFollowUp(ctx, t.text, d)
		if err != nil {
			return e.extractFailed(t, err), nil
		}
		if fu.Extracted == nil || !fu.Extracted.Weight.Present() {
			return outcome{state: t.state, ctx: c, reply: weightRetryText, kind: apperrors.IncompleteData}, nil
		}
		d = fu.Merged
	}
	d.Type = models.StrengthWeighted
	return e.complete(t, d, c.ReturnTo), nil
}

// dropsWeight reports whether a "without weight" reply turns d into a
// bodyweight entry. Exercises that only allow a load never switch, and a
// weight already given is only dropped by a reply naming it.
func (e *Engine) dropsWeight(d *models.Draft, norm string) bool {
	if !e.phrases.isNoWeight(norm) {
		return false
	}
	if ex := d.Exercise; ex != nil && len(ex.AllowedTypes) > 0 && !ex.Allows(models.StrengthBodyweight) {
		return false
	}
	return !d.WeightSeen || explicitNoWeightRe.MatchString(norm)
}

func (e *Engine) handleWaitingForRepsAndSets(ctx context.Context, t *turn) (outcome, error) {
	c := t.ctx.(Collecting)
	pending := c.Draft.Clone()
	if c.Editing != "" {
		pending.SetField(c.Editing, models.SetValue{})
	}

	fu, err := e.extractor.ExtractFollowUp(ctx, t.text, pending)
	if err != nil {
		return e.extractFailed(t, err), nil
	}
	d := fu.Merged
	switch {
	case fu.Extracted != nil && fu.Extracted.Weight.Present():
		d.Type = models.StrengthWeighted
	case e.dropsWeight(d, t.norm) && workout.EffectiveType(d).IsStrength():
		d.Type = models.StrengthBodyweight
		d.Weight = models.SetValue{}
	}

	if fu.Clarification == extract.ClarifyRIR && workout.Validate(d).MissingOnly(models.FieldRIR) {
		return outcome{
			state: WaitingForRIR,
			ctx:   Collecting{Draft: d, ReturnTo: c.ReturnTo},
			reply: rirExplanationText,
		}, nil
	}
	return e.complete(t, d, c.ReturnTo), nil
}

func (e *Engine) handleWaitingForRIR(ctx context.Context, t *turn) (outcome, error) {
	c := t.ctx.(Collecting)
	d := c.Draft.Clone()

	if m := bareRIRRe.FindStringSubmatch(t.norm); m != nil {
		if v, _ := strconv.Atoi(m[1]); v <= workout.MaxRIR {
			d.RIR = models.Uniform(float64(v))
			return e.afterRIR(t, d, c), nil
		}
	}

	pending := d.Clone()
	pending.RIR = models.SetValue{}
	fu, err := e.extractor.ExtractFollowUp(ctx, t.text, pending)
	if err != nil {
		return e.extractFailed(t, err), nil
	}
	switch {
	case fu.Clarification == extract.ClarifyRIR:
		return outcome{state: t.state, ctx: c, reply: rirExplanationText}, nil
	case fu.Extracted != nil && fu.Extracted.RIR.Present():
		return e.afterRIR(t, fu.Merged, c), nil
	case e.phrases.unsure.in(t.norm):
		return outcome{state: t.state, ctx: c, reply: rirUnsureText}, nil
	}
	return outcome{state: t.state, ctx: c, reply: rirRetryText, kind: apperrors.IncompleteData}, nil
}

// afterRIR continues once RIR is known: to the notes step when notes are
// asked for, otherwise straight to saving.
func (e *Engine) afterRIR(t *turn, d *models.Draft, c Collecting) outcome {
	returnTo := c.ReturnTo
	if e.opts.AskForNotes {
		returnTo = WaitingForComment
	}
	return e.complete(t, d, returnTo)
}

func (e *Engine) handleWaitingForComment(_ context.Context, t *turn) (outcome, error) {
	c := t.ctx.(Collecting)

	if m := editRe.FindStringSubmatch(t.norm); m != nil {
		f := editFields[m[1]]
		return outcome{
			state: editState(f),
			ctx:   Collecting{Draft: c.Draft, Editing: f, ReturnTo: WaitingForComment},
			reply: editPrompt(f),
		}, nil
	}

	d := c.Draft.Clone()
	if !e.phrases.noComment.has(t.norm) {
		d.Notes = strings.TrimSpace(t.text)
	}

	res := workout.Validate(d)
	if !res.Valid() {
		if fixed, repairs := workout.AttemptRecovery(d); len(repairs) > 0 {
			d, res = fixed, workout.Validate(fixed)
		}
	}
	switch {
	case res.Valid():
		return e.save(t, d), nil
	case len(res.Violations) > 0:
		return outcome{
			state: WaitingForComment,
			ctx:   Collecting{Draft: d},
			reply: violationsText(res.Violations) + "\n\n" + correctionText,
			kind:  apperrors.InvalidData,
		}, nil
	}
	s := waitingState(d, res)
	return outcome{
		state: s,
		ctx:   Collecting{Draft: d, ReturnTo: WaitingForComment},
		reply: prompt(s, d, res),
		kind:  apperrors.IncompleteData,
	}, nil
}

func (e *Engine) handleConfirmCancel(_ context.Context, t *turn) (outcome, error) {
	c := t.ctx.(ConfirmingCancel)
	switch {
	case e.phrases.yes.has(t.norm) || e.phrases.cancel.has(t.norm):
		return outcome{state: Idle, ctx: Empty{}, reply: cancelledText}, nil
	case e.phrases.no.has(t.norm):
		return outcome{state: c.Resume, ctx: c.Prior, reply: resumeText(c.Resume, c.Prior)}, nil
	}
	return outcome{state: ConfirmCancel, ctx: c, reply: cancelConfirmText(pendingDraft(c.Prior))}, nil
}

func (e *Engine) handleResolvingType(ctx context.Context, t *turn) (outcome, error) {
	c := t.ctx.(ResolvingType)
	m := menuChoiceRe.FindStringSubmatch(t.norm)
	if m == nil {
		return e.startWorkout(ctx, t)
	}
	n, _ := strconv.Atoi(m[1])
	if n < 1 || n > len(c.Exercise.AllowedTypes) {
		return outcome{state: t.state, ctx: c, reply: typeMenuRetryText(c.Exercise), kind: apperrors.AmbiguousExercise}, nil
	}
	d := c.Draft.Clone()
	d.Exercise = c.Exercise
	d.Type = c.Exercise.AllowedTypes[n-1]
	d.Ambiguous = false
	return e.complete(t, d, ""), nil
}

func (e *Engine) handleCreatingName(_ context.Context, t *turn) (outcome, error) {
	c := t.ctx.(CreatingExercise)
	switch {
	case e.phrases.yes.has(t.norm):
		return outcome{state: CreatingExerciseGroup, ctx: c, reply: muscleGroupPrompt(c.Name)}, nil
	case e.phrases.no.has(t.norm):
		return outcome{state: Idle, ctx: Empty{}, reply: createDeclinedText}, nil
	}
	return outcome{state: t.state, ctx: c, reply: createAnswerText}, nil
}

func (e *Engine) handleCreatingGroup(ctx context.Context, t *turn) (outcome, error) {
	c := t.ctx.(CreatingExercise)
	group, ok := catalog.ParseMuscleGroup(t.norm)
	if !ok {
		if n, err := strconv.Atoi(t.norm); err == nil && n >= 1 && n <= len(models.MuscleGroups) {
			group, ok = models.MuscleGroups[n-1], true
		}
	}
	if !ok {
		return outcome{state: t.state, ctx: c, reply: invalidMuscleGroupText(), kind: apperrors.InvalidData}, nil
	}

	ex, err := e.catalog.CreateCustom(ctx, t.userID, c.Name, group, newExerciseType(c.Draft))
	if err != nil {
		return outcome{}, apperrors.Wrap(err, apperrors.CollaboratorFailure, "creating custom exercise")
	}
	e.log.Info("custom exercise created", "user", t.userID, "exercise", ex.Name, "group", group)
	return e.withExercise(t, c.Draft, ex, "", createdExerciseText(ex)), nil
}

// extractFailed keeps the turn's state and draft and asks for the message again.
func (e *Engine) extractFailed(t *turn, err error) outcome {
	e.log.Warn("extractor failed", "user", t.userID, "state", t.state, "error", err)
	e.metrics.ExtractorFailure()
	return outcome{state: t.state, ctx: t.ctx, reply: couldNotParseText, kind: apperrors.CollaboratorFailure}
}

// waitingState picks the state that asks for what d still lacks.
func waitingState(d *models.Draft, res workout.Result) State {
	t := workout.EffectiveType(d)
	switch {
	case res.Valid():
		return WaitingForComment
	case t.IsStrength() && res.MissingOnly(models.FieldRIR):
		return WaitingForRIR
	case t == models.StrengthWeighted && res.IsMissing(models.FieldWeight) &&
		!d.Reps.Present() && d.Sets == 0 && !d.RIR.Present():
		return WaitingForWeight
	}
	return WaitingForRepsAndSets
}

func editState(f models.Field) State {
	switch f {
	case models.FieldWeight:
		return WaitingForWeight
	case models.FieldRIR:
		return WaitingForRIR
	}
	return WaitingForRepsAndSets
}

// newExerciseType is the type a custom exercise is created with.
func newExerciseType(d *models.Draft) models.ExerciseType {
	switch {
	case d.Type.IsValid():
		return d.Type
	case d.Weight.Present():
		return models.StrengthWeighted
	case d.Reps.Present() || d.Sets > 0:
		return models.StrengthBodyweight
	}
	return models.StrengthWeighted
}

func parseWeights(s string) models.SetValue {
	var vals []float64
	for _, m := range weightNumRe.FindAllString(s, -1) {
		if x, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64); err == nil {
			vals = append(vals, x)
		}
	}
	if len(vals) == 1 {
		return models.Uniform(vals[0])
	}
	return models.PerSet(vals...)
}

func withPrefix(prefix, s string) string {
	if prefix == "" {
		return s
	}
	return prefix + "\n\n" + s
}
