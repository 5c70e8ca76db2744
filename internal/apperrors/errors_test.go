package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestKindOfWrapped verifies the kind survives fmt.Errorf wrapping.
func TestKindOfWrapped(t *testing.T) {
	base := Wrap(context.DeadlineExceeded, CollaboratorFailure, "extract")
	err := fmt.Errorf("turn: %w", base)

	if got := KindOf(err); got != CollaboratorFailure {
		t.Errorf("KindOf = %q, want %q", got, CollaboratorFailure)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause not reachable through errors.Is")
	}
}

// TestKindOfPlain verifies unclassified errors report no kind.
func TestKindOfPlain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Errorf("KindOf = %q, want empty", got)
	}
	if Wrap(nil, InvalidData, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

// TestWithFields verifies fields are attached without mutating the original.
func TestWithFields(t *testing.T) {
	base := New(IncompleteData, "missing")
	withFields := base.WithFields("reps", "sets")

	if len(base.Fields) != 0 {
		t.Errorf("base fields = %v, want none", base.Fields)
	}
	got := FieldsOf(withFields)
	if len(got) != 2 || got[0] != "reps" || got[1] != "sets" {
		t.Errorf("FieldsOf = %v, want [reps sets]", got)
	}
	if !errors.Is(withFields, &Error{Kind: IncompleteData}) {
		t.Error("errors.Is should match on kind")
	}
}
