package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("statemachine: from, to and event are required")
	ErrInvalidEvent      = errors.New("statemachine: event cannot be empty")
	ErrNoTransition      = errors.New("statemachine: no transition available")
	ErrRejected          = errors.New("statemachine: rejected by guards")
)

// TransitionError reports which state/event pair could not fire. It unwraps
// to ErrNoTransition or ErrRejected.
type TransitionError struct {
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: state %q, event %q", e.Err, e.State, e.Event)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Unhandled reports whether err means the event does not apply in the current
// state, either because no transition matches or because guards vetoed it.
func Unhandled(err error) bool {
	return errors.Is(err, ErrNoTransition) || errors.Is(err, ErrRejected)
}
