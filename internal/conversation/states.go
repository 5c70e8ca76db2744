// Package conversation runs the per-user chat state machine that turns
// free-form messages into saved workout records.
package conversation

// State is where a user's conversation currently stands.
type State string

const (
	NewUser               State = "NEW_USER"
	Idle                  State = "IDLE"
	PendingVerification   State = "PENDING_VERIFICATION"
	WaitingForWeight      State = "WAITING_FOR_WEIGHT"
	WaitingForRepsAndSets State = "WAITING_FOR_REPS_AND_SETS"
	WaitingForRIR         State = "WAITING_FOR_RIR"
	WaitingForComment     State = "WAITING_FOR_COMMENT"
	ConfirmSave           State = "CONFIRM_SAVE"
	ConfirmCancel         State = "CONFIRM_CANCEL"
	ResolvingExerciseType State = "RESOLVING_EXERCISE_TYPE"
	CreatingExerciseName  State = "CREATING_CUSTOM_EXERCISE_NAME"
	CreatingExerciseGroup State = "CREATING_CUSTOM_EXERCISE_MUSCLE"
)

// AllStates lists every state.
var AllStates = []State{
	NewUser, Idle, PendingVerification,
	WaitingForWeight, WaitingForRepsAndSets, WaitingForRIR, WaitingForComment,
	ConfirmSave, ConfirmCancel, ResolvingExerciseType,
	CreatingExerciseName, CreatingExerciseGroup,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// Collecting reports whether s is one of the data-collection states, where
// replies are mostly bare numbers and are never intent-classified.
func (s State) Collecting() bool {
	switch s {
	case WaitingForWeight, WaitingForRepsAndSets, WaitingForRIR, WaitingForComment:
		return true
	}
	return false
}

// contextKind is the only context kind s accepts.
func (s State) contextKind() Kind {
	switch s {
	case WaitingForWeight, WaitingForRepsAndSets, WaitingForRIR, WaitingForComment:
		return KindCollecting
	case ResolvingExerciseType:
		return KindResolvingType
	case CreatingExerciseName, CreatingExerciseGroup:
		return KindCreatingExercise
	case ConfirmCancel:
		return KindConfirmingCancel
	}
	return KindEmpty
}
