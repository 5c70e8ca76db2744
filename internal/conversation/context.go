package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/claude/repbot/internal/apperrors"
	"github.com/claude/repbot/internal/models"
)

// Kind tags a Context variant in its encoded form.
type Kind string

const (
	KindEmpty            Kind = "empty"
	KindCollecting       Kind = "collecting"
	KindResolvingType    Kind = "resolving_type"
	KindCreatingExercise Kind = "creating_exercise"
	KindConfirmingCancel Kind = "confirming_cancel"
)

// Context is the state-specific data carried between turns. Each State
// accepts exactly one Kind.
type Context interface {
	Kind() Kind
}

// Empty is the context of states that carry nothing.
type Empty struct{}

// Collecting holds the draft while fields are being asked for. Editing names
// the field the user asked to change; ReturnTo is the state to go back to
// once the draft is complete again.
type Collecting struct {
	Draft    *models.Draft `json:"draft"`
	Editing  models.Field  `json:"editing,omitempty"`
	ReturnTo State         `json:"return_to,omitempty"`
}

// ResolvingType holds the draft while the user picks a type from the menu.
type ResolvingType struct {
	Draft    *models.Draft    `json:"draft"`
	Exercise *models.Exercise `json:"exercise"`
}

// CreatingExercise holds an unknown exercise name and the draft that
// mentioned it.
type CreatingExercise struct {
	Name  string        `json:"name"`
	Draft *models.Draft `json:"draft"`
}

// ConfirmingCancel keeps the interrupted state and context so a "no"
// restores them unchanged.
type ConfirmingCancel struct {
	Resume State
	Prior  Context
}

func (Empty) Kind() Kind            { return KindEmpty }
func (Collecting) Kind() Kind       { return KindCollecting }
func (ResolvingType) Kind() Kind    { return KindResolvingType }
func (CreatingExercise) Kind() Kind { return KindCreatingExercise }
func (ConfirmingCancel) Kind() Kind { return KindConfirmingCancel }

type envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

type cancelData struct {
	Resume State           `json:"resume"`
	Prior  json.RawMessage `json:"prior"`
}

// Encode serializes c as {"kind": ..., "data": ...}.
func Encode(c Context) ([]byte, error) {
	if c == nil {
		c = Empty{}
	}
	var data any
	switch v := c.(type) {
	case Empty:
		return json.Marshal(envelope{Kind: KindEmpty})
	case ConfirmingCancel:
		prior, err := Encode(v.Prior)
		if err != nil {
			return nil, err
		}
		data = cancelData{Resume: v.Resume, Prior: prior}
	default:
		data = v
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s context: %w", c.Kind(), err)
	}
	return json.Marshal(envelope{Kind: c.Kind(), Data: raw})
}

// Decode parses an encoded context. Empty input decodes to Empty.
func Decode(b []byte) (Context, error) {
	if len(b) == 0 {
		return Empty{}, nil
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decoding context envelope: %w", err)
	}
	switch env.Kind {
	case KindEmpty, "":
		return Empty{}, nil
	case KindCollecting:
		var c Collecting
		if err := unmarshalData(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case KindResolvingType:
		var c ResolvingType
		if err := unmarshalData(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case KindCreatingExercise:
		var c CreatingExercise
		if err := unmarshalData(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case KindConfirmingCancel:
		var d cancelData
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		prior, err := Decode(d.Prior)
		if err != nil {
			return nil, fmt.Errorf("decoding cancelled context: %w", err)
		}
		return ConfirmingCancel{Resume: d.Resume, Prior: prior}, nil
	}
	return nil, fmt.Errorf("unknown context kind %q", env.Kind)
}

func unmarshalData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s context has no data", env.Kind)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding %s context: %w", env.Kind, err)
	}
	return nil
}

// Check reports a CorruptState error when c is not what s carries.
func Check(s State, c Context) error {
	corrupt := func(format string, args ...any) error {
		return apperrors.New(apperrors.CorruptState, format, args...)
	}
	if !s.Valid() {
		return corrupt("unknown state %q", s)
	}
	if c == nil {
		return corrupt("%s has no context", s)
	}
	if c.Kind() != s.contextKind() {
		return corrupt("%s cannot carry a %s context", s, c.Kind())
	}
	switch v := c.(type) {
	case Collecting:
		if v.Draft == nil {
			return corrupt("%s has no draft", s)
		}
		if v.ReturnTo != "" && v.ReturnTo != WaitingForComment {
			return corrupt("cannot return to %s", v.ReturnTo)
		}
	case ResolvingType:
		if v.Draft == nil || v.Exercise == nil || !v.Exercise.Ambiguous() {
			return corrupt("type menu without an ambiguous exercise")
		}
	case CreatingExercise:
		if v.Name == "" || v.Draft == nil {
			return corrupt("exercise creation without a name or draft")
		}
	case ConfirmingCancel:
		if v.Resume == ConfirmCancel || pendingDraft(v.Prior) == nil {
			return corrupt("nothing to resume after cancel")
		}
		return Check(v.Resume, v.Prior)
	}
	return nil
}

// pendingDraft returns the draft c carries, if any.
func pendingDraft(c Context) *models.Draft {
	switch v := c.(type) {
	case Collecting:
		return v.Draft
	case ResolvingType:
		return v.Draft
	case CreatingExercise:
		return v.Draft
	case ConfirmingCancel:
		return pendingDraft(v.Prior)
	}
	return nil
}
