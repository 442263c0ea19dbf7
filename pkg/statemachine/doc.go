// Package statemachine implements a small generic finite state machine over
// string-typed states and events.
//
// Transitions carry optional guards, which veto a transition based on runtime
// data, and actions, which run in order before the state is committed. An
// action error aborts the transition.
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew[State, Event]("idle",
//	    statemachine.WithTransition[State, Event]("idle", "running", "start"),
//	)
//	_ = m.Fire(ctx, "start", nil)
//
// Fire is serialized per machine. The state lock is released while actions
// run, so Current can be read from other goroutines during a slow transition.
// Fire returns a *TransitionError wrapping ErrNoTransition or ErrRejected when
// the event does not apply; Unhandled matches both.
package statemachine
