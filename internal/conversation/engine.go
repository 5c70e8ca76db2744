package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/extract"
	"github.com/claude/repbot/internal/metrics"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
	"github.com/claude/repbot/internal/turnlock"
)

// DefaultIntentConfidence is the lowest classifier confidence acted on.
const DefaultIntentConfidence = 0.6

// Store persists sessions, custom exercises and saved records. GetSession
// returns storage.ErrNotFound for unknown users; CreateSession and
// PutSession return storage.ErrConflict when another turn got there first.
type Store interface {
	catalog.Store
	GetSession(ctx context.Context, userID string) (*models.SessionRow, error)
	CreateSession(ctx context.Context, s *models.SessionRow) error
	PutSession(ctx context.Context, s *models.SessionRow) error
	CommitTurn(ctx context.Context, s *models.SessionRow, records []models.WorkoutRecordRow) error
}

// Options tune the state machine.
type Options struct {
	IntentConfidence    float64
	AskForNotes         bool
	AutoCreateExercises bool
	UseBuiltinCatalog   bool
	RequireVerification bool
	DashboardURL        string
	Phrases             Phrases
	Now                 func() time.Time
}

// Reply is the outcome of one message.
type Reply struct {
	Text  string `json:"reply"`
	State State  `json:"state"`
	Saved int    `json:"saved"`
}

// Engine processes chat messages. It is safe for concurrent use; turns for
// the same user are serialized by the Locker.
type Engine struct {
	store     Store
	catalog   *catalog.Catalog
	extractor extract.Extractor
	locker    turnlock.Locker
	metrics   *metrics.Metrics
	opts      Options
	phrases   *phrases
	handlers  map[State]handler
	log       *slog.Logger
}

// turn is one inbound message with the session it applies to.
type turn struct {
	userID string
	name   string
	state  State
	ctx    Context
	text   string
	norm   string
	intent extract.Intent
}

// outcome is what a turn produces. records are saved together with the
// new session; draft is what they were expanded from.
type outcome struct {
	state   State
	ctx     Context
	reply   string
	name    string
	records []models.WorkoutRecordRow
	draft   *models.Draft
	kind    apperrors.Kind
}

type handler func(ctx context.Context, t *turn) (outcome, error)

// NewEngine wires the state machine. A nil locker serializes turns in
// process; a nil metrics disables instrumentation.
func NewEngine(store Store, cat *catalog.Catalog, ex extract.Extractor, locker turnlock.Locker,
	m *metrics.Metrics, opts Options, log *slog.Logger) (*Engine, error) {
	if store == nil || cat == nil || ex == nil {
		return nil, errors.New("conversation engine needs a store, a catalog and an extractor")
	}
	p, err := opts.Phrases.compile()
	if err != nil {
		return nil, err
	}
	if locker == nil {
		locker = turnlock.NewLocal()
	}
	if opts.IntentConfidence <= 0 {
		opts.IntentConfidence = DefaultIntentConfidence
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		store:     store,
		catalog:   cat,
		extractor: ex,
		locker:    locker,
		metrics:   m,
		opts:      opts,
		phrases:   p,
		log:       log,
	}
	e.handlers = map[State]handler{
		NewUser:               e.handleNewUser,
		PendingVerification:   e.handlePendingVerification,
		Idle:                  e.handleIdle,
		WaitingForWeight:      e.handleWaitingForWeight,
		WaitingForRepsAndSets: e.handleWaitingForRepsAndSets,
		WaitingForRIR:         e.handleWaitingForRIR,
		WaitingForComment:     e.handleWaitingForComment,
		ConfirmSave:           e.handleConfirmSave,
		ConfirmCancel:         e.handleConfirmCancel,
		ResolvingExerciseType: e.handleResolvingType,
		CreatingExerciseName:  e.handleCreatingName,
		CreatingExerciseGroup: e.handleCreatingGroup,
	}
	return e, nil
}

// Handle processes one message from userID and returns the reply to send.
// A non-nil error means the turn could not be stored; Reply.Text then holds
// an apology that is still safe to deliver.
func (e *Engine) Handle(ctx context.Context, userID, text string) (Reply, error) {
	start := e.opts.Now()

	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		e.metrics.Error(string(apperrors.CollaboratorFailure))
		return Reply{Text: retryText}, apperrors.Wrap(err, apperrors.CollaboratorFailure, "acquiring turn lock")
	}
	defer unlock()

	sess, created, err := e.session(ctx, userID)
	if err != nil {
		e.metrics.Error(string(apperrors.CollaboratorFailure))
		return Reply{Text: retryText}, err
	}
	stateIn := State(sess.State)

	var reply Reply
	if created {
		e.metrics.SessionCreated()
		reply = Reply{Text: welcomeText, State: stateIn}
		if stateIn == PendingVerification {
			reply.Text = verificationText(e.opts.DashboardURL)
		}
	} else {
		out := e.step(ctx, sess, text)
		reply, err = e.persist(ctx, sess, out)
	}

	elapsed := e.opts.Now().Sub(start)
	e.metrics.ObserveTurn(string(reply.State), elapsed)
	e.log.Debug("turn handled", "user", userID, "state_in", stateIn, "state_out", reply.State,
		"saved", reply.Saved, "duration", elapsed)
	return reply, err
}

// SetVerified opens or closes the verification gate for userID. Opening it
// moves a gated user to NEW_USER; closing it parks any user in
// PENDING_VERIFICATION and drops their pending context.
func (e *Engine) SetVerified(ctx context.Context, userID string, verified bool) error {
	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CollaboratorFailure, "acquiring turn lock")
	}
	defer unlock()

	sess, _, err := e.session(ctx, userID)
	if err != nil {
		return err
	}
	state := State(sess.State)
	switch {
	case verified && state == PendingVerification:
		state = NewUser
	case !verified && state != PendingVerification:
		state = PendingVerification
	default:
		return nil
	}
	enc, err := Encode(Empty{})
	if err != nil {
		return err
	}
	sess.State = string(state)
	sess.Context = enc
	if err := e.store.PutSession(ctx, sess); err != nil {
		return apperrors.Wrap(err, apperrors.CollaboratorFailure, "updating verification")
	}
	e.log.Info("verification changed", "user", userID, "verified", verified, "state", state)
	return nil
}

// session loads userID's session, creating it on first contact.
func (e *Engine) session(ctx context.Context, userID string) (*models.SessionRow, bool, error) {
	s, err := e.store.GetSession(ctx, userID)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, apperrors.Wrap(err, apperrors.CollaboratorFailure, "loading session")
	}

	initial := NewUser
	if e.opts.RequireVerification {
		initial = PendingVerification
	}
	enc, err := Encode(Empty{})
	if err != nil {
		return nil, false, err
	}
	s = &models.SessionRow{UserID: userID, State: string(initial), Context: enc}
	err = e.store.CreateSession(ctx, s)
	if errors.Is(err, storage.ErrConflict) {
		s, err = e.store.GetSession(ctx, userID)
		if err != nil {
			return nil, false, apperrors.Wrap(err, apperrors.CollaboratorFailure, "loading session")
		}
		return s, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CollaboratorFailure, "creating session")
	}
	e.log.Info("session created", "user", userID, "state", initial)
	return s, true, nil
}

// step runs the interrupt pipeline and the state handler.
func (e *Engine) step(ctx context.Context, sess *models.SessionRow, text string) outcome {
	state := State(sess.State)
	c, err := Decode(sess.Context)
	if err == nil {
		err = Check(state, c)
	}
	if err != nil {
		e.log.Warn("corrupt session", "user", sess.UserID, "state", state, "error", err)
		e.metrics.Error(string(apperrors.CorruptState))
		return recoverSession(c)
	}

	t := &turn{
		userID: sess.UserID,
		name:   sess.Name,
		state:  state,
		ctx:    c,
		text:   text,
		norm:   normalize(text),
	}
	if out, ok := e.interrupt(ctx, t); ok {
		return e.counted(out)
	}

	out, err := e.handlers[state](ctx, t)
	if err != nil {
		kind := apperrors.KindOf(err)
		if kind == "" {
			kind = apperrors.CollaboratorFailure
		}
		e.log.Error("handling turn", "user", t.userID, "state", state, "kind", kind, "error", err)
		return e.counted(outcome{state: state, ctx: c, reply: retryText, kind: kind})
	}
	return e.counted(out)
}

func (e *Engine) counted(out outcome) outcome {
	if out.kind != "" {
		e.metrics.Error(string(out.kind))
	}
	return out
}

// persist writes the outcome. Records and session are committed together;
// when that fails the draft is parked in WAITING_FOR_COMMENT unsaved.
func (e *Engine) persist(ctx context.Context, sess *models.SessionRow, out outcome) (Reply, error) {
	row := *sess
	row.State = string(out.state)
	if out.name != "" {
		row.Name = out.name
	}
	enc, err := Encode(out.ctx)
	if err != nil {
		return Reply{Text: retryText, State: State(sess.State)}, err
	}
	row.Context = enc

	if len(out.records) > 0 {
		if err := e.store.CommitTurn(ctx, &row, out.records); err != nil {
			return e.saveFailed(ctx, sess, out, err)
		}
		e.metrics.Saved(len(out.records))
		e.log.Info("workout saved", "user", sess.UserID, "exercise", out.draft.DisplayName(),
			"records", len(out.records))
		return Reply{Text: out.reply, State: out.state, Saved: len(out.records)}, nil
	}

	if err := e.store.PutSession(ctx, &row); err != nil {
		e.metrics.Error(string(apperrors.CollaboratorFailure))
		text := retryText
		if errors.Is(err, storage.ErrConflict) {
			text = conflictText
		}
		return Reply{Text: text, State: State(sess.State)},
			apperrors.Wrap(err, apperrors.CollaboratorFailure, "writing session")
	}
	return Reply{Text: out.reply, State: out.state}, nil
}

func (e *Engine) saveFailed(ctx context.Context, sess *models.SessionRow, out outcome, cause error) (Reply, error) {
	e.log.Error("saving workout", "user", sess.UserID, "records", len(out.records), "error", cause)
	e.metrics.Error(string(apperrors.CollaboratorFailure))

	row := *sess
	row.State = string(WaitingForComment)
	enc, err := Encode(Collecting{Draft: out.draft})
	if err == nil {
		row.Context = enc
		err = e.store.PutSession(ctx, &row)
	}
	if err != nil {
		e.log.Error("keeping unsaved draft", "user", sess.UserID, "error", err)
		return Reply{Text: saveFailedText, State: State(sess.State)},
			apperrors.Wrap(fmt.Errorf("%w; keeping draft: %v", cause, err), apperrors.CollaboratorFailure, "saving workout")
	}
	return Reply{Text: saveFailedText, State: WaitingForComment}, nil
}
