package conversation

import (
	"context"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/extract"
	"github.com/claude/repbot/internal/models"
)

// interrupt runs before the state handler. It returns true when it has
// produced the turn's outcome.
type interrupt func(e *Engine, ctx context.Context, t *turn) (outcome, bool)

// interrupts run in order: restart, then cancel, then the idle commands.
// classify only annotates the turn for the steps after it.
var interrupts = []interrupt{
	(*Engine).restart,
	(*Engine).classify,
	(*Engine).cancel,
	(*Engine).command,
}

func (e *Engine) interrupt(ctx context.Context, t *turn) (outcome, bool) {
	if t.state == NewUser || t.state == PendingVerification {
		return outcome{}, false
	}
	for _, in := range interrupts {
		if out, ok := in(e, ctx, t); ok {
			return out, true
		}
	}
	return outcome{}, false
}

// restart drops a pending draft and waits for a new exercise. With no
// draft pending the message goes on to the state handler.
func (e *Engine) restart(_ context.Context, t *turn) (outcome, bool) {
	d := pendingDraft(t.ctx)
	if d == nil || !e.phrases.isRestart(t.norm) {
		return outcome{}, false
	}
	e.log.Debug("draft discarded by restart", "user", t.userID, "exercise", d.DisplayName())
	return outcome{state: Idle, ctx: Empty{}, reply: restartText}, true
}

// classify asks the extractor for the message's intent. Data-collection
// states are skipped so numeric replies are never misread as commands.
func (e *Engine) classify(ctx context.Context, t *turn) (outcome, bool) {
	if t.state.Collecting() {
		return outcome{}, false
	}
	cls, err := e.extractor.ClassifyIntent(ctx, t.text, string(t.state))
	if err != nil {
		e.log.Warn("classifying intent", "user", t.userID, "state", t.state, "error", err)
		e.metrics.ExtractorFailure()
		return outcome{}, false
	}
	if cls.Confidence >= e.opts.IntentConfidence {
		t.intent = cls.Intent
	}
	return outcome{}, false
}

// cancel asks for confirmation when a draft is pending and otherwise
// simply returns to IDLE. CONFIRM_CANCEL handles the word itself.
func (e *Engine) cancel(_ context.Context, t *turn) (outcome, bool) {
	if t.state == ConfirmCancel {
		return outcome{}, false
	}
	if !e.phrases.cancel.has(t.norm) && t.intent != extract.IntentCancel {
		return outcome{}, false
	}
	if d := pendingDraft(t.ctx); d != nil {
		return outcome{
			state: ConfirmCancel,
			ctx:   ConfirmingCancel{Resume: t.state, Prior: t.ctx},
			reply: cancelConfirmText(d),
		}, true
	}
	return outcome{state: Idle, ctx: Empty{}, reply: nothingToCancelText}, true
}

// command answers help, exercise list and dashboard requests while idle.
func (e *Engine) command(ctx context.Context, t *turn) (outcome, bool) {
	if t.state != Idle && t.state != ConfirmSave {
		return outcome{}, false
	}
	var reply string
	switch {
	case e.phrases.help.has(t.norm) || t.intent == extract.IntentHelp:
		reply = helpText(t.name)
	case e.phrases.exercises.has(t.norm) || t.intent == extract.IntentExercises:
		custom, err := e.catalog.ListCustom(ctx, t.userID)
		if err != nil {
			e.log.Error("listing exercises", "user", t.userID, "error", err)
			return outcome{state: t.state, ctx: t.ctx, reply: retryText, kind: apperrors.CollaboratorFailure}, true
		}
		var builtins []models.Exercise
		if e.opts.UseBuiltinCatalog {
			builtins = e.catalog.Builtins()
		}
		reply = exercisesText(custom, builtins)
	case e.phrases.web.has(t.norm) || t.intent == extract.IntentWeb:
		reply = webText(t.name, e.opts.DashboardURL)
	default:
		return outcome{}, false
	}
	return outcome{state: Idle, ctx: Empty{}, reply: reply}, true
}
