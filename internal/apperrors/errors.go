// Package apperrors defines the error taxonomy shared by the conversation
// pipeline. Every error a turn can raise is classified by Kind so the engine
// can pick a user-facing reply without exposing internal error text.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error by how a turn recovers from it.
type Kind string

const (
	// UnrecognizedInput: no exercise name could be resolved.
	UnrecognizedInput Kind = "unrecognized_input"
	// AmbiguousExercise: the exercise allows several types and the message did not pick one.
	AmbiguousExercise Kind = "ambiguous_exercise"
	// IncompleteData: required fields are missing.
	IncompleteData Kind = "incomplete_data"
	// InvalidData: a field is out of range.
	InvalidData Kind = "invalid_data"
	// CollaboratorFailure: the extractor or storage failed or timed out.
	CollaboratorFailure Kind = "collaborator_failure"
	// CorruptState: the stored context does not fit the stored state.
	CorruptState Kind = "corrupt_state"
)

// Error is a classified error. Fields names the draft fields involved, if any.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Fields, ", "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithFields returns a copy naming the affected fields.
func (e *Error) WithFields(fields ...string) *Error {
	c := *e
	c.Fields = append(append([]string(nil), e.Fields...), fields...)
	return &c
}

// WithCause returns a copy wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err returns nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldsOf returns the fields named by the first *Error in err's chain.
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
